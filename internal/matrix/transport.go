// ABOUTME: Matrix transport: login, sync, message filtering, and reply delivery
// ABOUTME: Inbound text goes through the per-user dispatcher; replies are HTML or m.image

package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/2389/chembot/internal/bridge"
	"github.com/2389/chembot/internal/config"
	"github.com/2389/chembot/internal/conversation"
	"github.com/2389/chembot/internal/format"
)

// Options wires a Transport.
type Options struct {
	Config     config.MatrixConfig
	Dispatcher *conversation.Dispatcher
	Renderer   *bridge.Renderer
	Images     *bridge.ImageFetcher
	Choices    *bridge.ChoiceMemory
	Logger     *slog.Logger
}

// Transport is the Matrix chat adapter.
type Transport struct {
	cfg        config.MatrixConfig
	client     *mautrix.Client
	api        roomAPI
	dispatcher *conversation.Dispatcher
	renderer   *bridge.Renderer
	images     *bridge.ImageFetcher
	choices    *bridge.ChoiceMemory
	logger     *slog.Logger

	self    id.UserID
	started time.Time
	seen    *cache.Cache // event IDs already handled
	ready   atomic.Bool

	// ctx is the parent context for replies
	ctx context.Context
}

// New creates a Matrix transport. Call Login before Run.
func New(opts Options) (*Transport, error) {
	client, err := mautrix.NewClient(opts.Config.Homeserver, "", "")
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}
	t := newTransport(opts, mautrixAPI{client: client})
	t.client = client
	return t, nil
}

func newTransport(opts Options, api roomAPI) *Transport {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		cfg:        opts.Config,
		api:        api,
		dispatcher: opts.Dispatcher,
		renderer:   opts.Renderer,
		images:     opts.Images,
		choices:    opts.Choices,
		logger:     logger.With("component", "matrix"),
		started:    time.Now(),
		seen:       cache.New(time.Hour, 10*time.Minute),
		ctx:        context.Background(),
	}
}

// Name identifies the transport in logs and readiness checks.
func (t *Transport) Name() string {
	return "matrix"
}

// Login authenticates with the configured username and password.
func (t *Transport) Login(ctx context.Context) error {
	resp, err := t.client.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: t.cfg.Username,
		},
		Password:                 t.cfg.Password,
		InitialDeviceDisplayName: "chembot",
		StoreCredentials:         true,
	})
	if err != nil {
		return fmt.Errorf("matrix login: %w", err)
	}
	t.self = resp.UserID
	t.logger.Info("logged in", "user_id", t.self.String(), "device_id", string(resp.DeviceID))
	return nil
}

// UserID returns the logged-in user ID.
func (t *Transport) UserID() id.UserID {
	return t.self
}

// Ready reports whether the first sync has completed.
func (t *Transport) Ready() bool {
	return t.ready.Load()
}

// Run syncs until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	t.logger.Info("starting matrix transport",
		"homeserver", t.cfg.Homeserver,
		"user_id", t.self.String(),
		"allowed_rooms", len(t.cfg.AllowedRooms),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.ctx = ctx
	t.started = time.Now()

	syncer, ok := t.client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", t.client.Syncer)
	}
	syncer.OnEventType(event.EventMessage, t.handleMessageEvent)
	syncer.OnEventType(event.StateMember, t.handleMemberEvent)
	syncer.OnSync(func(_ context.Context, _ *mautrix.RespSync, _ string) bool {
		if !t.ready.Swap(true) {
			t.logger.Info("initial sync complete")
		}
		return true
	})

	syncErr := make(chan error, 1)
	go func() {
		syncErr <- t.client.SyncWithContext(ctx)
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("shutting down matrix transport")
		return nil
	case err := <-syncErr:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("matrix sync failed: %w", err)
	}
}

// handleMemberEvent joins rooms the bot is invited to.
func (t *Transport) handleMemberEvent(ctx context.Context, evt *event.Event) {
	if evt.GetStateKey() != t.self.String() {
		return
	}
	if evt.Content.AsMember().Membership != event.MembershipInvite {
		return
	}
	if !t.isRoomAllowed(evt.RoomID.String()) {
		t.logger.Info("ignoring invite to non-allowed room", "room", evt.RoomID.String(), "sender", evt.Sender.String())
		return
	}

	ctx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	if err := t.api.join(ctx, evt.RoomID); err != nil {
		t.logger.Error("failed to join room", "room", evt.RoomID.String(), "error", err)
		return
	}
	t.logger.Info("joined room", "room", evt.RoomID.String(), "inviter", evt.Sender.String())
}

// handleMessageEvent filters incoming Matrix messages.
func (t *Transport) handleMessageEvent(ctx context.Context, evt *event.Event) {
	if evt.Sender == t.self {
		return
	}
	// Skip backlog delivered by the initial sync
	if evt.Timestamp < t.started.UnixMilli() {
		return
	}
	if err := t.seen.Add(evt.ID.String(), struct{}{}, cache.DefaultExpiration); err != nil {
		t.logger.Debug("ignoring duplicate event", "event_id", evt.ID.String())
		return
	}

	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok || content.MsgType != event.MsgText {
		return
	}

	roomID := evt.RoomID.String()
	if !t.isRoomAllowed(roomID) {
		t.logger.Debug("ignoring message from non-allowed room", "room", roomID)
		return
	}

	t.handleText(evt.RoomID, evt.Sender, content.Body)
}

// handleText turns one message into an event for sender's queue.
func (t *Transport) handleText(roomID id.RoomID, sender id.UserID, body string) {
	userID := sender.String()

	ev, err := bridge.ParseInput(body, t.cfg.CommandPrefix, t.choices.Options(userID))
	if err != nil {
		t.logger.Debug("ignoring message", "room", roomID.String(), "sender", userID, "reason", err)
		return
	}

	t.logger.Info("received message",
		"room", roomID.String(),
		"sender", userID,
		"kind", ev.Kind,
		"content", truncate(body, 50),
	)

	if t.cfg.TypingIndicator {
		t.setTyping(roomID, true)
	}

	err = t.dispatcher.Submit(t.ctx, userID, ev, func(ctx context.Context, userID string, resp format.Response) {
		t.deliver(ctx, roomID, userID, resp)
	})
	if err != nil {
		t.logger.Error("failed to queue message", "room", roomID.String(), "sender", userID, "error", err)
		if t.cfg.TypingIndicator {
			t.setTyping(roomID, false)
		}
	}
}

// deliver sends resp to roomID, as an image with caption when it carries one.
func (t *Transport) deliver(ctx context.Context, roomID id.RoomID, userID string, resp format.Response) {
	if t.cfg.TypingIndicator {
		defer t.setTyping(roomID, false)
	}

	t.choices.Remember(userID, resp)

	rendered, err := t.renderer.Render(resp)
	if err != nil {
		t.logger.Warn("rendering failed, sending markdown", "room", roomID.String(), "error", err)
		rendered = bridge.Rendered{Markdown: t.renderer.Markdown(resp), Image: resp.Image}
	}

	if rendered.Image != "" {
		err := t.sendImage(ctx, roomID, rendered)
		if err == nil {
			return
		}
		t.logger.Warn("sending depiction failed, falling back to text",
			"room", roomID.String(),
			"image", rendered.Image,
			"error", err,
		)
	}

	t.sendText(ctx, roomID, rendered)
}

func (t *Transport) sendImage(ctx context.Context, roomID id.RoomID, r bridge.Rendered) error {
	img, err := t.images.Fetch(ctx, r.Image)
	if err != nil {
		return err
	}

	uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	uri, err := t.api.upload(uploadCtx, img.Data, img.ContentType, img.Name)
	if err != nil {
		return fmt.Errorf("uploading image: %w", err)
	}

	content := &event.MessageEventContent{
		MsgType:  event.MsgImage,
		Body:     r.Markdown,
		FileName: img.Name,
		URL:      uri,
		Info: &event.FileInfo{
			MimeType: img.ContentType,
			Size:     len(img.Data),
		},
	}
	if r.HTML != "" {
		content.Format = event.FormatHTML
		content.FormattedBody = r.HTML
	}

	sendCtx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	if err := t.api.send(sendCtx, roomID, content); err != nil {
		return fmt.Errorf("sending image: %w", err)
	}
	return nil
}

// sendText sends a text message to a room.
func (t *Transport) sendText(ctx context.Context, roomID id.RoomID, r bridge.Rendered) {
	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    r.Markdown,
	}
	if r.HTML != "" {
		content.Format = event.FormatHTML
		content.FormattedBody = r.HTML
	}

	// Use a longer timeout for sending messages (they can be large)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := t.api.send(ctx, roomID, content); err != nil {
		t.logger.Error("failed to send message", "room", roomID.String(), "error", err)
	}
}

// isRoomAllowed checks if the room is in the allowed list.
func (t *Transport) isRoomAllowed(roomID string) bool {
	if len(t.cfg.AllowedRooms) == 0 {
		return true // Allow all if no filter
	}
	return slices.Contains(t.cfg.AllowedRooms, roomID)
}

// setTyping sends typing indicator to room.
func (t *Transport) setTyping(roomID id.RoomID, typing bool) {
	// Use a timeout context to avoid hanging during shutdown or network issues
	ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
	defer cancel()
	if err := t.api.typing(ctx, roomID, typing); err != nil {
		t.logger.Debug("failed to set typing indicator", "room", roomID.String(), "error", err)
	}
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
