// ABOUTME: Inbound events consumed by the conversation engine
// ABOUTME: Text entries, menu selections carrying a token, and cancel-to-menu

package conversation

import "github.com/2389/chembot/internal/token"

// EventKind distinguishes inbound events.
type EventKind int

const (
	TextEntry EventKind = iota + 1
	MenuSelect
	Cancel
)

func (k EventKind) String() string {
	switch k {
	case TextEntry:
		return "text"
	case MenuSelect:
		return "select"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is one inbound user action.
type Event struct {
	Kind  EventKind
	Text  string      // TextEntry
	Token token.Token // MenuSelect
}

// Text builds a TextEntry event.
func Text(s string) Event {
	return Event{Kind: TextEntry, Text: s}
}

// Select builds a MenuSelect event.
func Select(t token.Token) Event {
	return Event{Kind: MenuSelect, Token: t}
}

// CancelToMenu builds a Cancel event.
func CancelToMenu() Event {
	return Event{Kind: Cancel}
}
