// ABOUTME: Parses chat text into conversation events
// ABOUTME: Handles <prefix><n> option picks, <prefix><action> tokens, /start and free text

package bridge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/2389/chembot/internal/conversation"
	"github.com/2389/chembot/internal/token"
)

var (
	// ErrNoSuchOption is returned for an option number outside the last list.
	ErrNoSuchOption = errors.New("no such option")

	// ErrUnknownCommand is returned for a prefixed word that is not an action.
	ErrUnknownCommand = errors.New("unknown command")
)

// ParseInput turns one chat message into an event. options are the token
// choices last shown to the sender, in display order. Errors mean the
// message should be ignored.
func ParseInput(text, prefix string, options []token.Token) (conversation.Event, error) {
	trimmed := strings.TrimSpace(text)

	if trimmed == "/start" {
		return conversation.CancelToMenu(), nil
	}

	rest, ok := strings.CutPrefix(trimmed, prefix)
	if prefix == "" || !ok {
		return conversation.Text(text), nil
	}
	rest = strings.TrimSpace(rest)

	switch rest {
	case "menu", "start":
		return conversation.CancelToMenu(), nil
	}

	if n, err := strconv.Atoi(rest); err == nil {
		if n < 1 || n > len(options) {
			return conversation.Event{}, fmt.Errorf("%w: %d", ErrNoSuchOption, n)
		}
		return conversation.Select(options[n-1]), nil
	}

	t, err := token.Parse(rest)
	if err != nil {
		return conversation.Event{}, fmt.Errorf("%w: %w", ErrUnknownCommand, err)
	}
	return conversation.Select(t), nil
}
