// ABOUTME: Renders engine responses as markdown and HTML with numbered options
// ABOUTME: Uses goldmark with hard wraps so card lines survive as line breaks

package bridge

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/2389/chembot/internal/format"
	"github.com/2389/chembot/internal/token"
)

// Option is one rendered choice. Number is zero for links.
type Option struct {
	Number int
	Label  string
	Token  token.Token
	URL    string
}

// Number assigns 1-based numbers to resp's token choices in row order,
// keeping the row layout. The numbering matches resp.Tokens().
func Number(resp format.Response) [][]Option {
	rows := make([][]Option, 0, len(resp.Choices))
	n := 0
	for _, row := range resp.Choices {
		out := make([]Option, 0, len(row))
		for _, c := range row {
			if c.IsLink() {
				out = append(out, Option{Label: c.Label, URL: c.URL})
				continue
			}
			n++
			out = append(out, Option{Number: n, Label: c.Label, Token: c.Token})
		}
		rows = append(rows, out)
	}
	return rows
}

// Rendered is a response ready for a text-based chat network.
type Rendered struct {
	Markdown string
	HTML     string
	Image    string
}

// Renderer formats responses for a given command prefix.
type Renderer struct {
	prefix string
	md     goldmark.Markdown
}

// NewRenderer creates a renderer that shows option numbers as <prefix><n>.
func NewRenderer(prefix string) *Renderer {
	return &Renderer{
		prefix: prefix,
		md:     goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps())),
	}
}

// Render converts resp to markdown and HTML.
func (r *Renderer) Render(resp format.Response) (Rendered, error) {
	md := r.Markdown(resp)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(md), &buf); err != nil {
		return Rendered{}, fmt.Errorf("converting markdown: %w", err)
	}

	return Rendered{
		Markdown: md,
		HTML:     strings.TrimSpace(buf.String()),
		Image:    resp.Image,
	}, nil
}

// Markdown lays out the notice, text and numbered options.
func (r *Renderer) Markdown(resp format.Response) string {
	var parts []string
	if resp.Notice != "" {
		parts = append(parts, "_"+escape(resp.Notice)+"_")
	}
	if resp.Text != "" {
		parts = append(parts, resp.Text)
	}

	var lines []string
	for _, row := range Number(resp) {
		items := make([]string, 0, len(row))
		for _, o := range row {
			if o.Number == 0 {
				items = append(items, fmt.Sprintf("[%s](%s)", escape(o.Label), o.URL))
				continue
			}
			items = append(items, fmt.Sprintf("`%s%d` %s", r.prefix, o.Number, escape(o.Label)))
		}
		if len(items) > 0 {
			lines = append(lines, "- "+strings.Join(items, " · "))
		}
	}
	if len(lines) > 0 {
		parts = append(parts, strings.Join(lines, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

var labelEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`",
	`[`, `\[`, `]`, `\]`, `<`, `\<`, `>`, `\>`,
)

func escape(s string) string {
	return labelEscaper.Replace(s)
}
