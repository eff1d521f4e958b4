package dispense

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aldousari/vendpoint-backend/pkg/config"
)

// Conn is the subset of a websocket connection the session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens relay connections. Sessions hold a Dialer rather than a
// concrete websocket client so tests can supply scripted connections.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

type wsDialer struct {
	handshakeTimeout time.Duration
}

// NewDialer builds the production relay dialer.
func NewDialer(cfg config.RelayConfig) Dialer {
	return &wsDialer{handshakeTimeout: cfg.HandshakeTimeout}
}

func (d *wsDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
