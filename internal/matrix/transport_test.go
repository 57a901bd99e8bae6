// ABOUTME: Tests for the Matrix transport without a homeserver
// ABOUTME: A recording roomAPI captures sends, uploads, typing, and joins

package matrix

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/2389/chembot/internal/bridge"
	"github.com/2389/chembot/internal/catalog"
	"github.com/2389/chembot/internal/compound"
	"github.com/2389/chembot/internal/config"
	"github.com/2389/chembot/internal/conversation"
	"github.com/2389/chembot/internal/format"
	"github.com/2389/chembot/internal/session"
)

const (
	botUser   = id.UserID("@chembot:example.org")
	aliceUser = id.UserID("@alice:example.org")
	labRoom   = id.RoomID("!lab:example.org")
)

type sentMessage struct {
	room    id.RoomID
	content *event.MessageEventContent
}

type recordingAPI struct {
	mu          sync.Mutex
	sent        []sentMessage
	uploads     int
	typingCalls []bool
	joined      []id.RoomID
	uploadErr   error
}

func (r *recordingAPI) send(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{room: roomID, content: content})
	return nil
}

func (r *recordingAPI) upload(ctx context.Context, data []byte, contentType, name string) (id.ContentURIString, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uploadErr != nil {
		return "", r.uploadErr
	}
	r.uploads++
	return id.ContentURIString("mxc://example.org/" + name), nil
}

func (r *recordingAPI) typing(ctx context.Context, roomID id.RoomID, typing bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typingCalls = append(r.typingCalls, typing)
	return nil
}

func (r *recordingAPI) join(ctx context.Context, roomID id.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = append(r.joined, roomID)
	return nil
}

func (r *recordingAPI) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

type fixture struct {
	transport  *Transport
	api        *recordingAPI
	dispatcher *conversation.Dispatcher
	fake       *compound.Fake
}

func newFixture(t *testing.T, cfg config.MatrixConfig, imageURL string) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	fake := compound.NewFake(compound.Record{
		ID:          2244,
		DisplayName: "aspirin",
		Formula:     "C9H8O4",
		Weight:      compound.KnownWeight(180.16),
		ImageURL:    imageURL,
	})
	engine := conversation.New(fake, session.New(session.Options{}), format.New("en"), cat, conversation.Options{})
	dispatcher := conversation.NewDispatcher(engine, nil)

	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	api := &recordingAPI{}
	tr := newTransport(Options{
		Config:     cfg,
		Dispatcher: dispatcher,
		Renderer:   bridge.NewRenderer(cfg.CommandPrefix),
		Images:     bridge.NewImageFetcher(time.Second),
		Choices:    bridge.NewChoiceMemory(time.Minute),
	}, api)
	tr.self = botUser

	return &fixture{transport: tr, api: api, dispatcher: dispatcher, fake: fake}
}

// drain waits for every queued event to be answered.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, f.dispatcher.Close(context.Background()))
}

func textEvent(eventID id.EventID, sender id.UserID, room id.RoomID, body string) *event.Event {
	return &event.Event{
		ID:        eventID,
		Sender:    sender,
		RoomID:    room,
		Type:      event.EventMessage,
		Timestamp: time.Now().UnixMilli(),
		Content: event.Content{Parsed: &event.MessageEventContent{
			MsgType: event.MsgText,
			Body:    body,
		}},
	}
}

func TestHandleMessage_MenuAndSelection(t *testing.T) {
	f := newFixture(t, config.MatrixConfig{}, "")
	ctx := context.Background()

	f.transport.handleMessageEvent(ctx, textEvent("$1", aliceUser, labRoom, "/start"))
	require.Eventually(t, func() bool { return len(f.api.messages()) == 1 }, time.Second, time.Millisecond)

	menu := f.api.messages()[0]
	assert.Equal(t, labRoom, menu.room)
	assert.Equal(t, event.MsgText, menu.content.MsgType)
	assert.Equal(t, event.FormatHTML, menu.content.Format)
	assert.Contains(t, menu.content.Body, "`!1` 🔍 Search compound")
	assert.Contains(t, menu.content.FormattedBody, "<strong>Chemistry bot</strong>")

	// Option 1 on the main menu is search
	f.transport.handleMessageEvent(ctx, textEvent("$2", aliceUser, labRoom, "!1"))
	f.transport.handleMessageEvent(ctx, textEvent("$3", aliceUser, labRoom, "aspirin"))
	f.drain(t)

	msgs := f.api.messages()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[1].content.Body, "Enter a compound name or CID")
	assert.Contains(t, msgs[2].content.Body, "**aspirin**")
}

func TestHandleMessage_Filters(t *testing.T) {
	f := newFixture(t, config.MatrixConfig{AllowedRooms: []string{string(labRoom)}}, "")
	ctx := context.Background()

	own := textEvent("$own", botUser, labRoom, "aspirin")
	old := textEvent("$old", aliceUser, labRoom, "aspirin")
	old.Timestamp = f.transport.started.Add(-time.Minute).UnixMilli()
	elsewhere := textEvent("$other", aliceUser, "!other:example.org", "aspirin")
	notice := textEvent("$notice", aliceUser, labRoom, "aspirin")
	notice.Content.Parsed.(*event.MessageEventContent).MsgType = event.MsgNotice
	unknown := textEvent("$unknown", aliceUser, labRoom, "!frobnicate")

	for _, evt := range []*event.Event{own, old, elsewhere, notice, unknown} {
		f.transport.handleMessageEvent(ctx, evt)
	}
	f.drain(t)

	assert.Empty(t, f.api.messages())
	assert.Zero(t, f.fake.Calls("resolve_name"))
}

func TestHandleMessage_DeduplicatesEventIDs(t *testing.T) {
	f := newFixture(t, config.MatrixConfig{}, "")
	ctx := context.Background()

	evt := textEvent("$same", aliceUser, labRoom, "aspirin")
	f.transport.handleMessageEvent(ctx, evt)
	f.transport.handleMessageEvent(ctx, evt)
	f.drain(t)

	assert.Len(t, f.api.messages(), 1)
	assert.Equal(t, 1, f.fake.Calls("resolve_name"))
}

func TestDeliver_ImageWithCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	f := newFixture(t, config.MatrixConfig{TypingIndicator: true}, srv.URL+"/compound/cid/2244/PNG")
	f.transport.handleText(labRoom, aliceUser, "aspirin")
	f.drain(t)

	msgs := f.api.messages()
	require.Len(t, msgs, 1)
	img := msgs[0].content
	assert.Equal(t, event.MsgImage, img.MsgType)
	assert.Equal(t, id.ContentURIString("mxc://example.org/2244.png"), img.URL)
	assert.Equal(t, "2244.png", img.FileName)
	assert.Equal(t, "image/png", img.Info.MimeType)
	assert.Contains(t, img.Body, "**aspirin**")
	assert.Contains(t, img.FormattedBody, "<strong>aspirin</strong>")

	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	assert.Equal(t, []bool{true, false}, f.api.typingCalls)
}

func TestDeliver_ImageFailureFallsBackToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	f := newFixture(t, config.MatrixConfig{}, srv.URL+"/compound/cid/2244/PNG")
	f.api.uploadErr = errors.New("media repo down")
	f.transport.handleText(labRoom, aliceUser, "aspirin")
	f.drain(t)

	msgs := f.api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, event.MsgText, msgs[0].content.MsgType)
	assert.Contains(t, msgs[0].content.Body, "**aspirin**")
}

func TestDeliver_RemembersOptionsPerUser(t *testing.T) {
	f := newFixture(t, config.MatrixConfig{}, "")
	f.transport.handleText(labRoom, aliceUser, "aspirin")
	require.Eventually(t, func() bool { return len(f.api.messages()) == 1 }, time.Second, time.Millisecond)

	// Card options: similar, save, menu
	f.transport.handleText(labRoom, aliceUser, "!2")
	f.drain(t)

	msgs := f.api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].content.Body, "Saved: aspirin")
}

func TestHandleMemberEvent_JoinsOnInvite(t *testing.T) {
	f := newFixture(t, config.MatrixConfig{AllowedRooms: []string{string(labRoom)}}, "")
	ctx := context.Background()

	invite := func(room id.RoomID, target id.UserID) *event.Event {
		key := target.String()
		return &event.Event{
			Sender:   aliceUser,
			RoomID:   room,
			Type:     event.StateMember,
			StateKey: &key,
			Content:  event.Content{Parsed: &event.MemberEventContent{Membership: event.MembershipInvite}},
		}
	}

	f.transport.handleMemberEvent(ctx, invite(labRoom, botUser))
	f.transport.handleMemberEvent(ctx, invite(labRoom, aliceUser))
	f.transport.handleMemberEvent(ctx, invite("!other:example.org", botUser))

	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	assert.Equal(t, []id.RoomID{labRoom}, f.api.joined)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "хи...", truncate("химия", 2))
}
