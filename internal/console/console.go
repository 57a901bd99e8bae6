// ABOUTME: Terminal transport: reads lines from stdin and prints colored replies
// ABOUTME: One local user; events go through the same dispatcher as chat transports

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"

	"github.com/2389/chembot/internal/bridge"
	"github.com/2389/chembot/internal/conversation"
	"github.com/2389/chembot/internal/format"
)

// DefaultUserID identifies the local user's session.
const DefaultUserID = "console"

// Options wires a Console.
type Options struct {
	In         io.Reader
	Out        io.Writer
	Prefix     string
	UserID     string
	Dispatcher *conversation.Dispatcher
	Choices    *bridge.ChoiceMemory
	Logger     *slog.Logger
}

// Console is the terminal transport.
type Console struct {
	in         io.Reader
	out        io.Writer
	prefix     string
	userID     string
	dispatcher *conversation.Dispatcher
	choices    *bridge.ChoiceMemory
	logger     *slog.Logger
	ready      atomic.Bool
}

// New creates a console transport.
func New(opts Options) *Console {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.UserID == "" {
		opts.UserID = DefaultUserID
	}
	return &Console{
		in:         opts.In,
		out:        opts.Out,
		prefix:     opts.Prefix,
		userID:     opts.UserID,
		dispatcher: opts.Dispatcher,
		choices:    opts.Choices,
		logger:     opts.Logger.With("component", "console"),
	}
}

// Name identifies the transport in logs and readiness checks.
func (c *Console) Name() string {
	return "console"
}

// Ready reports whether the console is accepting input.
func (c *Console) Ready() bool {
	return c.ready.Load()
}

// Run shows the main menu and then handles one line at a time until EOF,
// "quit", or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	if err := c.submit(ctx, conversation.CancelToMenu()); err != nil {
		return err
	}
	c.ready.Store(true)
	defer c.ready.Store(false)

	for {
		c.prompt()
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			fmt.Fprintln(c.out)
			return err
		case line := <-lines:
			switch strings.TrimSpace(line) {
			case "quit", "exit":
				return nil
			}

			ev, err := bridge.ParseInput(line, c.prefix, c.choices.Options(c.userID))
			if err != nil {
				c.hint(err)
				continue
			}
			if err := c.submit(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// submit queues ev and waits for its reply to be printed.
func (c *Console) submit(ctx context.Context, ev conversation.Event) error {
	done := make(chan struct{})
	err := c.dispatcher.Submit(ctx, c.userID, ev, func(ctx context.Context, userID string, resp format.Response) {
		defer close(done)
		c.choices.Remember(userID, resp)
		Print(c.out, resp, c.prefix)
	})
	if err != nil {
		return fmt.Errorf("submitting event: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (c *Console) prompt() {
	fmt.Fprint(c.out, color.GreenString("> "))
}

func (c *Console) hint(err error) {
	switch {
	case errors.Is(err, bridge.ErrNoSuchOption):
		fmt.Fprintln(c.out, color.YellowString("No such option. Pick a number from the last list, or %smenu.", c.prefix))
	default:
		fmt.Fprintln(c.out, color.YellowString("Unknown command. Send %smenu for the main menu.", c.prefix))
	}
	c.logger.Debug("ignoring input", "reason", err)
}

var (
	boldPattern = regexp.MustCompile(`\*\*((?:\\.|[^*\\])+)\*\*`)
	codePattern = regexp.MustCompile("`([^`]*)`")
	unescaper   = strings.NewReplacer(`\\`, `\`, `\*`, `*`, `\_`, `_`, "\\`", "`")
)

// Print writes resp to w with terminal styling and numbered options.
func Print(w io.Writer, resp format.Response, prefix string) {
	fmt.Fprintln(w)
	if resp.Notice != "" {
		fmt.Fprintln(w, color.GreenString("✓ %s", resp.Notice))
	}
	if resp.Text != "" {
		fmt.Fprintln(w, style(resp.Text))
	}
	if resp.Image != "" {
		fmt.Fprintln(w, color.HiBlackString("🖼  %s", resp.Image))
	}

	rows := bridge.Number(resp)
	if len(rows) > 0 {
		fmt.Fprintln(w)
	}
	for _, row := range rows {
		items := make([]string, 0, len(row))
		for _, o := range row {
			if o.Number == 0 {
				items = append(items, fmt.Sprintf("%s %s", o.Label, color.New(color.Underline).Sprint(o.URL)))
				continue
			}
			items = append(items, fmt.Sprintf("%s %s", color.CyanString("%s%d", prefix, o.Number), o.Label))
		}
		fmt.Fprintln(w, "  "+strings.Join(items, "   "))
	}
}

// style turns **bold** and `code` spans into terminal attributes.
func style(s string) string {
	bold := color.New(color.Bold)
	s = codePattern.ReplaceAllStringFunc(s, func(m string) string {
		return color.CyanString("%s", codePattern.FindStringSubmatch(m)[1])
	})
	s = boldPattern.ReplaceAllStringFunc(s, func(m string) string {
		return bold.Sprint(unescaper.Replace(boldPattern.FindStringSubmatch(m)[1]))
	})
	return s
}
