// ABOUTME: Per-user memory of the last numbered option list
// ABOUTME: Backed by go-cache so lists expire after the configured TTL

package bridge

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/2389/chembot/internal/format"
	"github.com/2389/chembot/internal/token"
)

// ChoiceMemory remembers the token choices last shown to each user.
type ChoiceMemory struct {
	c *cache.Cache
}

// NewChoiceMemory creates a memory whose lists expire after ttl.
func NewChoiceMemory(ttl time.Duration) *ChoiceMemory {
	return &ChoiceMemory{c: cache.New(ttl, ttl)}
}

// Remember records resp's options for userID. Responses without options
// (a bare notice) keep the previous list.
func (m *ChoiceMemory) Remember(userID string, resp format.Response) {
	tokens := resp.Tokens()
	if len(tokens) == 0 {
		return
	}
	m.c.SetDefault(userID, tokens)
}

// Options returns userID's remembered options, or nil.
func (m *ChoiceMemory) Options(userID string) []token.Token {
	v, ok := m.c.Get(userID)
	if !ok {
		return nil
	}
	return v.([]token.Token)
}

// Len returns how many users have a remembered list.
func (m *ChoiceMemory) Len() int {
	return m.c.ItemCount()
}
