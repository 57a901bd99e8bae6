// ABOUTME: Response and Choice types shared by the engine and every transport
// ABOUTME: A choice either carries a menu token or opens an external URL

package format

import "github.com/2389/chembot/internal/token"

// Choice is one pressable option. Exactly one of Token or URL is meaningful.
type Choice struct {
	Label string
	Token token.Token
	URL   string
}

// IsLink reports whether the choice opens a URL instead of sending a token.
func (c Choice) IsLink() bool {
	return c.URL != ""
}

// Response is what the engine asks a transport to show.
type Response struct {
	// Text supports **bold** and `code` spans. May be empty when only
	// Notice is set.
	Text string

	// Image is a depiction URL. Transports attach it with Text as the
	// caption and fall back to text alone when it cannot be fetched.
	Image string

	// Notice is a short acknowledgement shown ahead of Text.
	Notice string

	// Choices render as rows of options.
	Choices [][]Choice
}

// Tokens returns every token choice in row order.
func (r Response) Tokens() []token.Token {
	var out []token.Token
	for _, row := range r.Choices {
		for _, c := range row {
			if !c.IsLink() {
				out = append(out, c.Token)
			}
		}
	}
	return out
}

func choice(label string, t token.Token) Choice {
	return Choice{Label: label, Token: t}
}

func link(label, url string) Choice {
	return Choice{Label: label, URL: url}
}
