// ABOUTME: Tests for response rendering and option memory
// ABOUTME: Covers numbering, markdown layout, HTML conversion, and TTL-backed choices

package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/chembot/internal/compound"
	"github.com/2389/chembot/internal/format"
	"github.com/2389/chembot/internal/token"
)

var card = format.New("en").Compound(compound.Record{
	ID:          2244,
	DisplayName: "aspirin",
	Formula:     "C9H8O4",
	Weight:      compound.KnownWeight(180.16),
	ImageURL:    "https://pubchem.example/cid/2244/PNG",
	ViewURL:     "https://pubchem.example/compound/2244",
})

func TestNumber_SkipsLinks(t *testing.T) {
	rows := Number(card)
	require.Len(t, rows, 2)

	assert.Zero(t, rows[0][0].Number)
	assert.Equal(t, "https://pubchem.example/compound/2244", rows[0][0].URL)
	assert.Equal(t, 1, rows[0][1].Number)
	assert.Equal(t, "similar_2244", rows[0][1].Token.String())
	assert.Equal(t, 2, rows[1][0].Number)
	assert.Equal(t, 3, rows[1][1].Number)

	// Numbering agrees with Tokens()
	tokens := card.Tokens()
	for _, row := range rows {
		for _, o := range row {
			if o.Number > 0 {
				assert.Equal(t, tokens[o.Number-1], o.Token)
			}
		}
	}
}

func TestRenderer_Markdown(t *testing.T) {
	r := NewRenderer("!")
	md := r.Markdown(card)

	assert.Contains(t, md, "🔬 **aspirin**")
	assert.Contains(t, md, "- [📊 PubChem](https://pubchem.example/compound/2244) · `!1` 🧪 Similar")
	assert.Contains(t, md, "- `!2` 💾 Save · `!3` ↩️ Menu")
}

func TestRenderer_MarkdownNoticeOnly(t *testing.T) {
	r := NewRenderer("!")
	md := r.Markdown(format.New("en").Saved("vitamin_c"))
	assert.Equal(t, `_Saved: vitamin\_c_`, md)
}

func TestRenderer_HTML(t *testing.T) {
	r := NewRenderer("!")
	out, err := r.Render(card)
	require.NoError(t, err)

	assert.Equal(t, card.Image, out.Image)
	assert.Contains(t, out.HTML, "<strong>aspirin</strong>")
	assert.Contains(t, out.HTML, "<code>2244</code>")
	assert.Contains(t, out.HTML, "<br")
	assert.Contains(t, out.HTML, `<a href="https://pubchem.example/compound/2244">`)
	assert.Contains(t, out.HTML, "<code>!2</code>")
}

func TestRenderer_HTMLOmitsRawHTML(t *testing.T) {
	r := NewRenderer("!")
	out, err := r.Render(format.Response{Text: "<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, out.HTML, "<script>")
}

func TestChoiceMemory(t *testing.T) {
	m := NewChoiceMemory(time.Minute)
	assert.Nil(t, m.Options("alice"))

	m.Remember("alice", card)
	assert.Equal(t, card.Tokens(), m.Options("alice"))
	assert.Equal(t, 1, m.Len())

	// A bare notice keeps the previous list
	m.Remember("alice", format.Response{Notice: "Saved: aspirin"})
	assert.Equal(t, card.Tokens(), m.Options("alice"))

	menu := format.New("en").MainMenu("")
	m.Remember("alice", menu)
	assert.Equal(t, token.New(token.Search), m.Options("alice")[0])
	assert.Nil(t, m.Options("bob"))
}

func TestChoiceMemory_Expires(t *testing.T) {
	m := NewChoiceMemory(10 * time.Millisecond)
	m.Remember("alice", card)
	require.Eventually(t, func() bool { return m.Options("alice") == nil }, time.Second, 5*time.Millisecond)
}
