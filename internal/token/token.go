// ABOUTME: Token type, action enumeration, parsing and formatting
// ABOUTME: Fixed actions plus parameterized category_, search_, history_, similar_, save_, remove_

package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2389/chembot/internal/compound"
)

// ErrUnknown is returned by Parse for payloads outside the vocabulary.
var ErrUnknown = errors.New("unknown token")

// Action identifies what a menu selection asks for.
type Action int

const (
	Search Action = iota + 1
	Random
	Compare
	Examples
	History
	Favorites
	Help
	BackToMenu

	// Parameterized actions.
	Category    // category_<name>
	SearchTerm  // search_<term>
	HistoryItem // history_<id>
	Similar     // similar_<id>
	Save        // save_<id>
	Remove      // remove_<id>
)

var fixed = map[string]Action{
	"search":       Search,
	"random":       Random,
	"compare":      Compare,
	"examples":     Examples,
	"history":      History,
	"favorites":    Favorites,
	"help":         Help,
	"back_to_menu": BackToMenu,
}

var prefixes = []struct {
	prefix string
	action Action
	byID   bool
}{
	{"category_", Category, false},
	{"search_", SearchTerm, false},
	{"history_", HistoryItem, true},
	{"similar_", Similar, true},
	{"save_", Save, true},
	{"remove_", Remove, true},
}

// Token is one parsed menu selection. Arg is set for Category and
// SearchTerm; ID is set for HistoryItem, Similar, Save and Remove.
type Token struct {
	Action Action
	Arg    string
	ID     compound.CID
}

// New returns a token for a fixed action.
func New(a Action) Token {
	return Token{Action: a}
}

// ForArg returns a Category or SearchTerm token.
func ForArg(a Action, arg string) Token {
	return Token{Action: a, Arg: arg}
}

// ForID returns a HistoryItem, Similar, Save or Remove token.
func ForID(a Action, id compound.CID) Token {
	return Token{Action: a, ID: id}
}

// Parse maps a raw payload onto the vocabulary.
func Parse(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if a, ok := fixed[raw]; ok {
		return New(a), nil
	}

	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(raw, p.prefix)
		if !ok {
			continue
		}
		if !p.byID {
			if strings.TrimSpace(rest) == "" {
				return Token{}, fmt.Errorf("%w: %q has an empty argument", ErrUnknown, raw)
			}
			return ForArg(p.action, rest), nil
		}
		id, err := compound.ParseCID(rest)
		if err != nil {
			return Token{}, fmt.Errorf("%w: %q: %v", ErrUnknown, raw, err)
		}
		return ForID(p.action, id), nil
	}

	return Token{}, fmt.Errorf("%w: %q", ErrUnknown, raw)
}

// String formats the token back into its wire payload.
func (t Token) String() string {
	for word, a := range fixed {
		if a == t.Action {
			return word
		}
	}
	for _, p := range prefixes {
		if p.action != t.Action {
			continue
		}
		if p.byID {
			return p.prefix + t.ID.String()
		}
		return p.prefix + t.Arg
	}
	return ""
}

// EntersFlow reports whether the token starts a new lookup or multi-step
// flow, discarding any flow in progress.
func (t Token) EntersFlow() bool {
	switch t.Action {
	case Search, Random, Compare, SearchTerm, HistoryItem, BackToMenu:
		return true
	}
	return false
}
