package broadcast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/opengolfcoach/nova-bridge/internal/logging"
)

const (
	// DefaultWebSocketPath is where WebSocket subscribers connect
	DefaultWebSocketPath = "/shots"

	// Subscribers only send control frames; anything longer is a protocol error
	wsMaxMessageSize = 512

	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// wsSubscriber is a WebSocket subscriber. Each result is one text frame
// without the trailing newline.
type wsSubscriber struct {
	conn         *websocket.Conn
	id           string
	writeTimeout time.Duration

	// gorilla/websocket allows one concurrent writer
	writeMu sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

func newWSSubscriber(conn *websocket.Conn, writeTimeout time.Duration) *wsSubscriber {
	return &wsSubscriber{
		conn:         conn,
		id:           conn.RemoteAddr().String(),
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
	}
}

func (w *wsSubscriber) ID() string        { return w.id }
func (w *wsSubscriber) Transport() string { return TransportWebSocket }

func (w *wsSubscriber) Send(msg []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, bytes.TrimRight(msg, "\n"))
}

func (w *wsSubscriber) ping() error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.writeTimeout))
}

func (w *wsSubscriber) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closed)
		err = w.conn.Close()
	})
	return err
}

// readLoop consumes control frames until the peer goes away. The connection
// is closed so the next Publish prunes it.
func (w *wsSubscriber) readLoop() {
	defer func() { _ = w.Close() }()

	w.conn.SetReadLimit(wsMaxMessageSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("WebSocket subscriber read error",
					zap.String("subscriber", w.id),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// pingLoop keeps idle connections alive through proxies
func (w *wsSubscriber) pingLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.closed:
			return
		case <-ticker.C:
			if err := w.ping(); err != nil {
				_ = w.Close()
				return
			}
		}
	}
}

// WebSocketServer accepts WebSocket subscribers and hands them to a Hub
type WebSocketServer struct {
	addr         string
	path         string
	hub          *Hub
	writeTimeout time.Duration
	upgrader     websocket.Upgrader

	listener net.Listener
	server   *http.Server
}

// NewWebSocketServer creates a WebSocket subscriber endpoint for addr (host:port)
func NewWebSocketServer(addr string, hub *Hub) *WebSocketServer {
	s := &WebSocketServer{
		addr:         addr,
		path:         DefaultWebSocketPath,
		hub:          hub,
		writeTimeout: DefaultWriteTimeout,
		upgrader: websocket.Upgrader{
			// Local consumers such as browser dashboards connect from any origin
			CheckOrigin:     func(_ *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWebSocket)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Listen binds the server address
func (s *WebSocketServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen for WebSocket subscribers on %s: %w", s.addr, err)
	}
	s.listener = ln
	logging.Info("Subscriber listener started",
		zap.String("addr", ln.Addr().String()),
		zap.String("path", s.path),
		zap.String("transport", TransportWebSocket),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *WebSocketServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Path returns the URL path subscribers connect to
func (s *WebSocketServer) Path() string { return s.path }

// Serve blocks until ctx is cancelled. Listen is called if it has not been.
func (s *WebSocketServer) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("WebSocket server failed: %w", err)
	}
	return nil
}

func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sub := newWSSubscriber(conn, s.writeTimeout)
	s.hub.Accept(sub)

	go sub.pingLoop()
	go sub.readLoop()
}
