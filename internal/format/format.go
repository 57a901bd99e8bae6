// ABOUTME: Pure builders for every response the conversation engine emits
// ABOUTME: Compound cards, comparisons, menus, prompts, history, favorites, examples, similar

package format

import (
	"fmt"
	"strings"

	"github.com/2389/chembot/internal/catalog"
	"github.com/2389/chembot/internal/compound"
	"github.com/2389/chembot/internal/token"
)

// Item is a compound reference shown in a list.
type Item struct {
	ID   compound.CID
	Name string
}

// Formatter builds responses in one locale.
type Formatter struct {
	msg    Messages
	locale string
}

// New returns a Formatter for locale ("en" or "ru"; anything else is English).
func New(locale string) *Formatter {
	return &Formatter{msg: Lookup(locale), locale: strings.ToLower(strings.TrimSpace(locale))}
}

// Messages returns the formatter's string table.
func (f *Formatter) Messages() Messages {
	return f.msg
}

// MainMenu shows text (or the default greeting) with the main menu.
func (f *Formatter) MainMenu(text string) Response {
	if text == "" {
		text = f.msg.MenuTitle
	}
	return Response{Text: text, Choices: f.menu()}
}

func (f *Formatter) menu() [][]Choice {
	return [][]Choice{
		{choice(f.msg.ButtonSearch, token.New(token.Search))},
		{choice(f.msg.ButtonRandom, token.New(token.Random))},
		{choice(f.msg.ButtonCompare, token.New(token.Compare))},
		{choice(f.msg.ButtonExamples, token.New(token.Examples))},
		{
			choice(f.msg.ButtonHistory, token.New(token.History)),
			choice(f.msg.ButtonFavorites, token.New(token.Favorites)),
		},
		{choice(f.msg.ButtonHelp, token.New(token.Help))},
	}
}

func (f *Formatter) backRow() []Choice {
	return []Choice{choice(f.msg.ButtonBack, token.New(token.BackToMenu))}
}

// Prompt shows text with a single back-to-menu choice.
func (f *Formatter) Prompt(text string) Response {
	return Response{Text: text, Choices: [][]Choice{f.backRow()}}
}

// SearchPrompt asks for a search term.
func (f *Formatter) SearchPrompt() Response {
	return f.Prompt(f.msg.PromptSearch)
}

// FirstComparePrompt asks for the first compound of a comparison.
func (f *Formatter) FirstComparePrompt() Response {
	return f.Prompt(f.msg.PromptFirstCompare)
}

// SecondComparePrompt asks for the second compound of a comparison.
func (f *Formatter) SecondComparePrompt() Response {
	return f.Prompt(f.msg.PromptSecondCompare)
}

// RetryPrompt re-asks for a term after a failed lookup of the given kind.
func (f *Formatter) RetryPrompt(err error) Response {
	if compound.KindOf(err) == compound.ErrNotFound {
		return f.Prompt(f.msg.RetryNotFound)
	}
	return f.Prompt(f.msg.RetryUnavailable)
}

// LookupFailed reports a failed lookup of term and returns to the menu.
func (f *Formatter) LookupFailed(term string, err error) Response {
	if compound.KindOf(err) == compound.ErrNotFound {
		return f.MainMenu(fmt.Sprintf(f.msg.NotFound, term))
	}
	return f.MainMenu(f.msg.Unavailable)
}

// RandomFailed reports a failed random draw and returns to the menu.
func (f *Formatter) RandomFailed() Response {
	return f.MainMenu(f.msg.RandomFailed)
}

// Unavailable reports a service or storage outage and returns to the menu.
func (f *Formatter) Unavailable() Response {
	return f.MainMenu(f.msg.Unavailable)
}

// Help shows the help text with the main menu.
func (f *Formatter) Help() Response {
	return f.MainMenu(f.msg.Help)
}

// Compound renders a compound card with its depiction and actions.
func (f *Formatter) Compound(rec compound.Record) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "🔬 %s\n\n", bold(rec.DisplayName))
	fmt.Fprintf(&b, "• 📊 %s: %s\n", f.msg.FieldCID, code(rec.ID.String()))
	fmt.Fprintf(&b, "• 🧪 %s: %s\n", f.msg.FieldFormula, code(orNA(rec.Formula)))
	fmt.Fprintf(&b, "• ⚖️ %s: %s\n", f.msg.FieldWeight, code(rec.Weight.String()))
	fmt.Fprintf(&b, "• 📝 %s: %s\n", f.msg.FieldIUPAC, code(orNA(rec.IUPACName)))
	fmt.Fprintf(&b, "• 🔠 %s: %s\n", f.msg.FieldSMILES, code(orNA(rec.SMILES)))
	fmt.Fprintf(&b, "• 🔑 %s: %s", f.msg.FieldInChIKey, code(orNA(rec.InChIKey)))

	first := []Choice{choice(f.msg.ButtonSimilar, token.ForID(token.Similar, rec.ID))}
	if rec.ViewURL != "" {
		first = append([]Choice{link(f.msg.ButtonPubChem, rec.ViewURL)}, first...)
	}

	return Response{
		Text:  b.String(),
		Image: rec.ImageURL,
		Choices: [][]Choice{
			first,
			{
				choice(f.msg.ButtonSave, token.ForID(token.Save, rec.ID)),
				choice(f.msg.ButtonMenu, token.New(token.BackToMenu)),
			},
		},
	}
}

// WeightDifference formats |a-b| with two decimals, or the unknown marker
// when either weight is unknown.
func (f *Formatter) WeightDifference(a, b compound.Record) string {
	diff, ok := a.Weight.Difference(b.Weight).Value()
	if !ok {
		return f.msg.UnknownQuantity
	}
	return fmt.Sprintf("%.2f", diff)
}

// Comparison renders two compounds side by side and returns to the menu.
func (f *Formatter) Comparison(first, second compound.Record) Response {
	var b strings.Builder
	b.WriteString(f.msg.CompareTitle)
	b.WriteString("\n\n")
	for i, rec := range []compound.Record{first, second} {
		fmt.Fprintf(&b, "%d️⃣ %s\n", i+1, bold(rec.DisplayName))
		fmt.Fprintf(&b, "• %s: %s\n", f.msg.FieldFormula, code(orNA(rec.Formula)))
		fmt.Fprintf(&b, "• %s: %s\n\n", f.msg.FieldWeight, code(rec.Weight.String()))
	}
	fmt.Fprintf(&b, "%s: %s", f.msg.WeightDiff, code(f.WeightDifference(first, second)))

	return f.MainMenu(b.String())
}

// History lists recent lookups, most recent first. An empty list returns
// to the menu with an explanation.
func (f *Formatter) History(items []Item) Response {
	if len(items) == 0 {
		return f.MainMenu(f.msg.HistoryEmpty)
	}
	rows := make([][]Choice, 0, len(items)+1)
	for _, it := range items {
		rows = append(rows, []Choice{choice(it.Name, token.ForID(token.HistoryItem, it.ID))})
	}
	rows = append(rows, f.backRow())
	return Response{Text: f.msg.HistoryTitle, Choices: rows}
}

// Favorites lists saved compounds, each with a remove option.
func (f *Formatter) Favorites(items []Item) Response {
	if len(items) == 0 {
		return f.MainMenu(f.msg.FavoritesEmpty)
	}
	rows := make([][]Choice, 0, len(items)+1)
	for _, it := range items {
		rows = append(rows, []Choice{
			choice(it.Name, token.ForID(token.HistoryItem, it.ID)),
			choice(f.msg.ButtonRemove, token.ForID(token.Remove, it.ID)),
		})
	}
	rows = append(rows, f.backRow())
	return Response{Text: f.msg.FavoritesTitle, Choices: rows}
}

// Saved acknowledges a new favorite.
func (f *Formatter) Saved(name string) Response {
	return Response{Notice: fmt.Sprintf(f.msg.Saved, name)}
}

// Removed acknowledges a removal and shows the remaining favorites.
func (f *Formatter) Removed(name string, remaining []Item) Response {
	r := f.Favorites(remaining)
	r.Notice = fmt.Sprintf(f.msg.Removed, name)
	return r
}

// NotInFavorites acknowledges removing something that was not saved.
func (f *Formatter) NotInFavorites(remaining []Item) Response {
	r := f.Favorites(remaining)
	r.Notice = f.msg.NotInFavorites
	return r
}

// Examples lists the example categories.
func (f *Formatter) Examples(categories []catalog.Category) Response {
	rows := make([][]Choice, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, []Choice{choice(c.Title.In(f.locale, c.ID), token.ForArg(token.Category, c.ID))})
	}
	rows = append(rows, f.backRow())
	return Response{Text: f.msg.ExamplesTitle, Choices: rows}
}

// Category lists one category's example compounds.
func (f *Formatter) Category(c catalog.Category) Response {
	rows := make([][]Choice, 0, len(c.Entries)+1)
	for _, e := range c.Entries {
		rows = append(rows, []Choice{choice(e.Label.In(f.locale, e.Term), token.ForArg(token.SearchTerm, e.Term))})
	}
	rows = append(rows, []Choice{choice(f.msg.ButtonBack, token.New(token.Examples))})
	return Response{Text: fmt.Sprintf(f.msg.CategoryTitle, c.Title.In(f.locale, c.ID)), Choices: rows}
}

// Similar lists compounds similar to of, with a way back to it.
func (f *Formatter) Similar(of compound.CID, ids []compound.CID) Response {
	back := []Choice{choice(f.msg.ButtonBack, token.ForID(token.HistoryItem, of))}
	if len(ids) == 0 {
		return Response{Text: f.msg.SimilarEmpty, Choices: [][]Choice{back}}
	}
	rows := make([][]Choice, 0, len(ids)+1)
	for i, id := range ids {
		rows = append(rows, []Choice{choice(fmt.Sprintf(f.msg.SimilarItem, i+1), token.ForID(token.HistoryItem, id))})
	}
	rows = append(rows, back)
	return Response{Text: f.msg.SimilarTitle, Choices: rows}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return compound.NotAvailable
	}
	return s
}

var boldEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`")

// bold wraps s in emphasis, escaping markup characters inside it.
func bold(s string) string {
	return "**" + boldEscaper.Replace(s) + "**"
}

// code wraps s in a fixed-width span. Backticks inside are replaced since
// a code span cannot escape them.
func code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}
