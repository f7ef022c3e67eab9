// Package ws serves the live location stream over WebSocket. Each
// connection gets a UUID, a reader that feeds the hub and a writer that
// drains a bounded queue.
package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/bowwow/internal/clock"
	"github.com/dmitrijs2005/bowwow/internal/logging"
	"github.com/dmitrijs2005/bowwow/internal/server/hub"
)

const (
	defaultWriteWait  = 10 * time.Second
	defaultPongWait   = 60 * time.Second
	defaultSendBuffer = 32
	maxMessageSize    = 4096
)

type Handler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
	ids      clock.IDGenerator
	logger   logging.Logger

	writeWait  time.Duration
	pongWait   time.Duration
	sendBuffer int
}

type Option func(*Handler)

func WithIDGenerator(g clock.IDGenerator) Option { return func(h *Handler) { h.ids = g } }

func WithLogger(l logging.Logger) Option { return func(h *Handler) { h.logger = l } }

// WithTimeouts sets the write deadline and the idle read deadline. Pings
// go out at 9/10 of pongWait.
func WithTimeouts(writeWait, pongWait time.Duration) Option {
	return func(h *Handler) {
		h.writeWait = writeWait
		h.pongWait = pongWait
	}
}

func WithSendBuffer(n int) Option { return func(h *Handler) { h.sendBuffer = n } }

// NewHandler returns an http.Handler upgrading requests whose Origin is in
// allowedOrigins. "*" allows any origin.
func NewHandler(h *hub.Hub, allowedOrigins []string, opts ...Option) *Handler {
	hd := &Handler{
		hub:        h,
		ids:        clock.UUIDGenerator{},
		logger:     logging.Nop{},
		writeWait:  defaultWriteWait,
		pongWait:   defaultPongWait,
		sendBuffer: defaultSendBuffer,
	}
	for _, opt := range opts {
		opt(hd)
	}
	hd.logger = hd.logger.With("module", "ws")
	hd.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return hd
}

func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := false
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if allowAll || origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

func (hd *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := hd.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		hd.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &conn{
		id:        hd.ids.New(),
		ws:        wsConn,
		send:      make(chan hub.Outbound, hd.sendBuffer),
		done:      make(chan struct{}),
		writeWait: hd.writeWait,
		pongWait:  hd.pongWait,
	}
	logger := hd.logger.With("conn_id", c.id)
	logger.Info(r.Context(), "websocket connection established", "remote", r.RemoteAddr)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := c.writeLoop(); err != nil {
			logger.Debug(context.Background(), "websocket writer stopped", "error", err)
			// unblocks the reader
			_ = wsConn.Close()
		}
		c.close()
	}()

	c.readLoop(func(data []byte) { hd.hub.Handle(c.id, c, data) })

	c.close()
	hd.hub.Unsubscribe(c.id)
	wg.Wait()
	_ = wsConn.Close()
	logger.Info(context.Background(), "websocket connection closed")
}

type conn struct {
	id   string
	ws   *websocket.Conn
	send chan hub.Outbound

	done      chan struct{}
	closeOnce sync.Once

	writeWait time.Duration
	pongWait  time.Duration
}

// Send queues m without blocking.
func (c *conn) Send(m hub.Outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *conn) readLoop(handle func([]byte)) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
		if typ != websocket.TextMessage {
			continue
		}
		handle(data)
	}
}

func (c *conn) writeLoop() error {
	ticker := time.NewTicker(c.pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case m := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteJSON(m); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.writeWait))
			return nil
		}
	}
}
