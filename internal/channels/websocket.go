package channels

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/config/channel"
)

const (
	// Time allowed to write a frame to the peer.
	wsWriteWait = 10 * time.Second
	// Time allowed to read the next pong from the peer.
	wsPongWait = 60 * time.Second
	// Ping period; must be less than wsPongWait.
	wsPingPeriod = (wsPongWait * 9) / 10
	// Largest user message accepted from the browser.
	wsMaxMessageSize = 64 << 10
)

// Frame types exchanged with the browser.
const (
	FrameMessage  = "message"
	FrameProgress = "progress"
	FrameReply    = "reply"
)

// Frame is the JSON envelope of every websocket message.
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// WebSocketChannel serves a browser chat endpoint. Every connection is its
// own conversation; the chat id is assigned on connect.
type WebSocketChannel struct {
	Base
	cfg      *channel.WebSocketConfig
	addr     string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*wsClient

	onDisconnect func(routingKey string)
}

type wsClient struct {
	conn *websocket.Conn
	send chan Frame
	done chan struct{}
}

// NewWebSocketChannel creates a channel listening on addr (host:port).
func NewWebSocketChannel(cfg *channel.WebSocketConfig, addr string, inbound *bus.AgentBus) *WebSocketChannel {
	w := &WebSocketChannel{
		Base:    NewBase(bus.ChannelWebSocket, inbound, cfg.AllowFrom),
		cfg:     cfg,
		addr:    addr,
		clients: make(map[string]*wsClient),
	}
	w.upgrader = websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}
	if len(cfg.AllowOrigins) > 0 {
		w.upgrader.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(cfg.AllowOrigins, "*") || slices.Contains(cfg.AllowOrigins, r.Header.Get("Origin"))
		}
	}
	if len(cfg.AllowFrom) > 0 && len(cfg.Tokens) == 0 {
		slog.Warn("websocket: allowFrom is set but no tokens are configured, every client will be refused")
	}
	return w
}

// OnDisconnect registers fn, called with the session routing key of each
// conversation whose browser went away.
func (w *WebSocketChannel) OnDisconnect(fn func(routingKey string)) {
	w.onDisconnect = fn
}

func (w *WebSocketChannel) Name() string { return string(bus.ChannelWebSocket) }

// Handler returns the HTTP handler serving the chat endpoint.
func (w *WebSocketChannel) Handler() http.Handler {
	path := w.cfg.Path
	if path == "" {
		path = "/ws"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, w.serveWS)
	return mux
}

// Start serves the endpoint until ctx is cancelled.
func (w *WebSocketChannel) Start(ctx context.Context) error {
	srv := &http.Server{Addr: w.addr, Handler: w.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("websocket: listening", "addr", w.addr, "path", w.cfg.Path)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket: serve: %w", err)
	}
	return ctx.Err()
}

// identify returns the user behind the request's access token. Without
// configured tokens every client is anonymous and ok is true with an empty
// user.
func (w *WebSocketChannel) identify(r *http.Request) (user string, ok bool) {
	if len(w.cfg.Tokens) == 0 {
		return "", true
	}
	token := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	}
	if token == "" {
		return "", false
	}
	for known, name := range w.cfg.Tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(known)) == 1 {
			user, ok = name, true
		}
	}
	return user, ok
}

func (w *WebSocketChannel) serveWS(rw http.ResponseWriter, r *http.Request) {
	chatId := uuid.NewString()
	user, ok := w.identify(r)
	if !ok {
		slog.Warn("websocket: unknown token", "remote", r.RemoteAddr)
		http.Error(rw, "unauthorized", http.StatusUnauthorized)
		return
	}

	sender := user
	if sender == "" {
		if len(w.cfg.AllowFrom) > 0 {
			slog.Warn("access denied", "channel", w.channelName, "remote", r.RemoteAddr)
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		sender = chatId
	}
	if !w.IsAllowed(sender) {
		slog.Warn("access denied", "channel", w.channelName, "sender", sender)
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		slog.Debug("websocket: upgrade failed", "err", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan Frame, 64), done: make(chan struct{})}

	w.mu.Lock()
	w.clients[chatId] = c
	w.mu.Unlock()
	slog.Info("websocket: client connected", "chat", chatId, "sender", sender)

	go c.writePump()
	w.readPump(c, sender, chatId)

	w.mu.Lock()
	delete(w.clients, chatId)
	w.mu.Unlock()
	close(c.done)
	slog.Info("websocket: client disconnected", "chat", chatId)
	if w.onDisconnect != nil {
		w.onDisconnect(bus.RoutingKey(bus.ChannelWebSocket, chatId))
	}
}

// readPump forwards user messages to the agent until the peer goes away.
func (w *WebSocketChannel) readPump(c *wsClient, sender, chatId string) {
	defer c.conn.Close()
	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket: read failed", "chat", chatId, "err", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			// plain text is accepted as a message
			f = Frame{Type: FrameMessage, Content: string(data)}
		}
		if (f.Type != "" && f.Type != FrameMessage) || f.Content == "" {
			continue
		}
		w.HandleMessage(sender, chatId, f.Content, nil)
	}
}

// writePump is the only writer on the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send queues msg for the browser that owns the chat. Replies for a client
// that already disconnected are dropped.
func (w *WebSocketChannel) Send(ctx context.Context, msg bus.ChannelMessage) error {
	w.mu.RLock()
	c, ok := w.clients[msg.ChatId()]
	w.mu.RUnlock()
	if !ok {
		slog.Debug("websocket: no client for reply", "chat", msg.ChatId())
		return nil
	}

	f := Frame{Type: FrameReply, Content: msg.Content()}
	if msg.IsProgress() {
		f.Type = FrameProgress
	}
	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clients returns the number of connected browsers.
func (w *WebSocketChannel) Clients() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.clients)
}
