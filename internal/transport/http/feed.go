package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/broadcast"
	"github.com/gorilla/websocket"
)

// FeedHub is the minimal interface needed to attach websocket observers.
type FeedHub interface {
	Register(conn broadcast.Conn) (string, error)
	Unregister(id string)
}

type FeedOptions struct {
	AllowedOrigins []string
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

const maxClientMessage = 4096

// wsConn adapts a websocket to broadcast.Conn. The hub's pump is the only
// data writer; pings go through WriteControl which may run concurrently.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (c *wsConn) WriteMessage(ctx context.Context, msg []byte) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.writeTimeout)
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

// HandleOrderFeed upgrades GET /ws/orders and streams order events until the
// client disconnects. Client messages are read and discarded.
func HandleOrderFeed(hub FeedHub, opts FeedOptions, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	policy := newOriginPolicy(opts.AllowedOrigins)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || policy.allows(origin)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		id, err := hub.Register(&wsConn{conn: conn, writeTimeout: opts.WriteTimeout})
		if err != nil {
			_ = conn.Close()
			return
		}
		defer hub.Unregister(id)

		readWait := 2 * opts.PingInterval
		conn.SetReadLimit(maxClientMessage)
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(opts.PingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(opts.WriteTimeout)); err != nil {
						return
					}
				}
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("websocket closed", "observer_id", id, "error", err)
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
		}
	}
}
