package broadcast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opengolfcoach/nova-bridge/internal/logging"
)

const (
	// DefaultWriteTimeout bounds a single subscriber write
	DefaultWriteTimeout = 5 * time.Second

	acceptRetryDelay = 100 * time.Millisecond
)

// ConnSubscriber is a TCP subscriber
type ConnSubscriber struct {
	conn         net.Conn
	id           string
	writeTimeout time.Duration
}

// NewConnSubscriber wraps an accepted connection
func NewConnSubscriber(conn net.Conn, writeTimeout time.Duration) *ConnSubscriber {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &ConnSubscriber{
		conn:         conn,
		id:           conn.RemoteAddr().String(),
		writeTimeout: writeTimeout,
	}
}

// ID implements Subscriber
func (c *ConnSubscriber) ID() string { return c.id }

// Transport implements Subscriber
func (c *ConnSubscriber) Transport() string { return TransportTCP }

// Send implements Subscriber
func (c *ConnSubscriber) Send(msg []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	_, err := c.conn.Write(msg)
	return err
}

// Close implements Subscriber
func (c *ConnSubscriber) Close() error {
	return c.conn.Close()
}

// Listener accepts local TCP subscribers and hands them to a Hub
type Listener struct {
	addr         string
	hub          *Hub
	writeTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// NewListener creates a subscriber listener for addr (host:port)
func NewListener(addr string, hub *Hub) *Listener {
	return &Listener{
		addr:         addr,
		hub:          hub,
		writeTimeout: DefaultWriteTimeout,
	}
}

// Listen binds the listener address
func (l *Listener) Listen() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to listen for subscribers on %s: %w", l.addr, err)
	}

	l.mu.Lock()
	l.listener = ln
	l.mu.Unlock()

	logging.Info("Subscriber listener started",
		zap.String("addr", ln.Addr().String()),
		zap.String("transport", TransportTCP),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled or the listener is closed.
// Listen is called if it has not been.
func (l *Listener) Serve(ctx context.Context) error {
	if l.Addr() == nil {
		if err := l.Listen(); err != nil {
			return err
		}
	}

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	l.mu.Lock()
	ln := l.listener
	l.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				l.wg.Wait()
				return nil
			}
			logging.Error("Failed to accept subscriber", zap.Error(err))
			time.Sleep(acceptRetryDelay)
			continue
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.hub.Accept(NewConnSubscriber(conn, l.writeTimeout))
		}()
	}
}

// Close stops accepting subscribers. Connected subscribers stay in the hub.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Close()
}
