// ABOUTME: Example catalog types, YAML loading, and validation
// ABOUTME: Titles and labels are localized with an English fallback

package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var defaultYAML []byte

// FallbackLocale is used when a title or label lacks the requested locale.
const FallbackLocale = "en"

// idPattern keeps ids safe to embed in category_<id> tokens.
var idPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Localized maps a locale code to text.
type Localized map[string]string

// In returns the text for locale, falling back to English, then to def.
func (l Localized) In(locale, def string) string {
	if s := l[locale]; s != "" {
		return s
	}
	if s := l[FallbackLocale]; s != "" {
		return s
	}
	return def
}

// Entry is one example compound.
type Entry struct {
	Term  string    `yaml:"term"`
	Label Localized `yaml:"label"`
}

// Category groups example compounds.
type Category struct {
	ID      string    `yaml:"id"`
	Title   Localized `yaml:"title"`
	Entries []Entry   `yaml:"entries"`
}

// Catalog is an ordered, validated set of categories.
type Catalog struct {
	categories []Category
	byID       map[string]int
}

type document struct {
	Categories []Category `yaml:"categories"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog from path, or returns the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading examples file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing examples: %w", err)
	}

	c := &Catalog{byID: make(map[string]int, len(doc.Categories))}
	for i, cat := range doc.Categories {
		if !idPattern.MatchString(cat.ID) {
			return nil, fmt.Errorf("category %d: id %q must match %s", i, cat.ID, idPattern)
		}
		if _, dup := c.byID[cat.ID]; dup {
			return nil, fmt.Errorf("category %q defined twice", cat.ID)
		}
		if len(cat.Entries) == 0 {
			return nil, fmt.Errorf("category %q has no entries", cat.ID)
		}
		for j, e := range cat.Entries {
			if strings.TrimSpace(e.Term) == "" {
				return nil, fmt.Errorf("category %q entry %d: term is required", cat.ID, j)
			}
		}
		c.byID[cat.ID] = len(c.categories)
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

// Categories returns the categories in file order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Category looks up a category by id.
func (c *Catalog) Category(id string) (Category, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}
