// ABOUTME: Narrow view of the Matrix client API used by the transport
// ABOUTME: mautrixAPI adapts *mautrix.Client; tests substitute a recorder

package matrix

import (
	"context"
	"fmt"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// typingTimeout is the duration the typing indicator shows (30 seconds).
const typingTimeout = 30 * time.Second

// networkTimeout is the timeout for Matrix API calls.
const networkTimeout = 10 * time.Second

// roomAPI is what the transport needs from a homeserver.
type roomAPI interface {
	send(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error
	upload(ctx context.Context, data []byte, contentType, name string) (id.ContentURIString, error)
	typing(ctx context.Context, roomID id.RoomID, typing bool) error
	join(ctx context.Context, roomID id.RoomID) error
}

type mautrixAPI struct {
	client *mautrix.Client
}

func (a mautrixAPI) send(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error {
	_, err := a.client.SendMessageEvent(ctx, roomID, event.EventMessage, content)
	return err
}

func (a mautrixAPI) upload(ctx context.Context, data []byte, contentType, name string) (id.ContentURIString, error) {
	resp, err := a.client.UploadBytesWithName(ctx, data, contentType, name)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("empty upload response")
	}
	return resp.ContentURI.CUString(), nil
}

func (a mautrixAPI) typing(ctx context.Context, roomID id.RoomID, typing bool) error {
	var timeout time.Duration
	if typing {
		timeout = typingTimeout
	}
	_, err := a.client.UserTyping(ctx, roomID, typing, timeout)
	return err
}

func (a mautrixAPI) join(ctx context.Context, roomID id.RoomID) error {
	_, err := a.client.JoinRoomByID(ctx, roomID)
	return err
}
