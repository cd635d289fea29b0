package feed

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// Subscribe dials url and passes every binary payload to handler until ctx is
// cancelled or the connection fails.
//
// Postcondition: returns nil when ctx ended the subscription or the server
// closed normally; otherwise the dial or read error.
func Subscribe(ctx context.Context, url string, handler func(payload []byte)) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dialing %s: %w", url, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	defer func() {
		stop()
		_ = conn.Close()
	}()

	for {
		typ, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("reading feed: %w", err)
		}
		if typ == websocket.BinaryMessage {
			handler(payload)
		}
	}
}
