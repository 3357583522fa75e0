package broadcast

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startListener(t *testing.T, hub *Hub) *Listener {
	t.Helper()

	l := NewListener("127.0.0.1:0", hub)
	if err := l.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Serve() did not return after cancellation")
		}
		hub.Close()
	})
	return l
}

func TestListener_DeliversToAllClients(t *testing.T) {
	hub := NewHub(nil)
	l := startListener(t, hub)

	var readers []*bufio.Reader
	for i := 0; i < 2; i++ {
		conn, err := net.Dial("tcp", l.Addr().String())
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		defer conn.Close()
		readers = append(readers, bufio.NewReader(conn))
	}

	waitFor(t, "two subscribers", func() bool { return hub.Len() == 2 })

	hub.Publish([]byte(`{"carry_distance_meters":201.3}`))
	hub.Publish([]byte(`{"carry_distance_meters":180.0}`))

	for i, r := range readers {
		for _, want := range []string{
			"{\"carry_distance_meters\":201.3}\n",
			"{\"carry_distance_meters\":180.0}\n",
		} {
			line, err := r.ReadString('\n')
			if err != nil {
				t.Fatalf("client %d ReadString() error = %v", i, err)
			}
			if line != want {
				t.Errorf("client %d got %q, want %q", i, line, want)
			}
		}
	}
}

func TestListener_PrunesDisconnectedClient(t *testing.T) {
	hub := NewHub(nil)
	l := startListener(t, hub)

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitFor(t, "subscriber", func() bool { return hub.Len() == 1 })
	_ = conn.Close()

	// The first write after a peer close may still succeed; keep publishing
	waitFor(t, "subscriber pruned", func() bool {
		hub.Publish([]byte(`{}`))
		return hub.Len() == 0
	})
}

func TestListener_ServeStopsOnCancel(t *testing.T) {
	l := NewListener("127.0.0.1:0", NewHub(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	waitFor(t, "listener bound", func() bool { return l.Addr() != nil })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
}

func TestListener_ListenFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer occupied.Close()

	l := NewListener(occupied.Addr().String(), NewHub(nil))
	if err := l.Listen(); err == nil {
		t.Error("Listen() should fail on an occupied port")
	}
}
