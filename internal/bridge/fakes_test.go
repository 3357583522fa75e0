package bridge

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/discovery"
)

var testEndpoint = discovery.Endpoint{Host: "192.168.1.40", Port: 2921}

// fakeResolver returns a canned endpoint or error and counts calls
type fakeResolver struct {
	mu       sync.Mutex
	endpoint discovery.Endpoint
	err      error
	calls    int
	onCall   func(n int)
}

func (f *fakeResolver) Resolve(_ context.Context, _ discovery.Config) (discovery.Endpoint, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall(n)
	}
	return f.endpoint, f.err
}

func (f *fakeResolver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// deviceScript plays the device side of one session
type deviceScript func(conn net.Conn)

// fakeDialer hands out net.Pipe connections driven by scripts, in order.
// When scripts run out, dials fail with ECONNREFUSED-like errors.
type fakeDialer struct {
	mu      sync.Mutex
	scripts []deviceScript
	err     error
	calls   int
	addrs   []string
}

func (f *fakeDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.addrs = append(f.addrs, address)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.scripts) == 0 {
		return nil, errors.New("connection refused")
	}
	script := f.scripts[0]
	f.scripts = f.scripts[1:]

	client, device := net.Pipe()
	go script(device)
	return client, nil
}

func (f *fakeDialer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// writeLinesThenClose is a device that sends lines and hangs up
func writeLinesThenClose(lines ...string) deviceScript {
	return func(conn net.Conn) {
		defer conn.Close()
		for _, l := range lines {
			if _, err := conn.Write([]byte(l + "\n")); err != nil {
				return
			}
		}
	}
}

// silentDevice never sends anything and closes after d
func silentDevice(d time.Duration) deviceScript {
	return func(conn net.Conn) {
		time.Sleep(d)
		_ = conn.Close()
	}
}

// fakePublisher records published messages
type fakePublisher struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakePublisher) Publish(msg []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, string(msg))
	return 1
}

func (f *fakePublisher) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// fakeReporter records every report
type fakeReporter struct {
	mu         sync.Mutex
	events     []string
	connErrs   []error
	shotErrs   []error
	raws       []string
	processed  []string
	retryDelay []time.Duration
}

func (f *fakeReporter) add(e string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeReporter) Connecting(discovery.Endpoint) { f.add("connecting") }
func (f *fakeReporter) Connected(discovery.Endpoint)  { f.add("connected") }

func (f *fakeReporter) ConnectionError(err error) {
	f.mu.Lock()
	f.connErrs = append(f.connErrs, err)
	f.mu.Unlock()
	f.add("connection_error")
}

func (f *fakeReporter) ShotError(err error, raw string) {
	f.mu.Lock()
	f.shotErrs = append(f.shotErrs, err)
	f.raws = append(f.raws, raw)
	f.mu.Unlock()
	f.add("shot_error")
}

func (f *fakeReporter) ShotProcessed(result []byte) {
	f.mu.Lock()
	f.processed = append(f.processed, string(result))
	f.mu.Unlock()
	f.add("shot_processed")
}

func (f *fakeReporter) Retrying(d time.Duration) {
	f.mu.Lock()
	f.retryDelay = append(f.retryDelay, d)
	f.mu.Unlock()
	f.add("retrying")
}

func (f *fakeReporter) ConnErrs() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.connErrs...)
}

// stateRecorder collects transitions
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(_, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, to)
}

func (r *stateRecorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

var errNoResponse = bridgeerr.NewResolutionError("SSDP/mDNS", bridgeerr.ErrNoResponse)
