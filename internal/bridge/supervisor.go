package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/compute"
	"github.com/opengolfcoach/nova-bridge/internal/discovery"
	"github.com/opengolfcoach/nova-bridge/internal/logging"
	"github.com/opengolfcoach/nova-bridge/internal/metrics"
	"github.com/opengolfcoach/nova-bridge/internal/shot"
)

const (
	// DefaultConnectTimeout bounds a single dial to the device
	DefaultConnectTimeout = 5 * time.Second

	// DefaultReadTimeout is how long the device may stay silent before the
	// session is treated as dropped
	DefaultReadTimeout = 30 * time.Second

	// MaxLineSize caps one device line. Longer lines are dropped as
	// malformed and the session continues.
	MaxLineSize = 1 << 20
)

// Resolver finds the device endpoint
type Resolver interface {
	Resolve(ctx context.Context, cfg discovery.Config) (discovery.Endpoint, error)
}

// Dialer opens the device stream. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Publisher receives enriched results. *broadcast.Hub satisfies it.
type Publisher interface {
	Publish(msg []byte) int
}

// Reporter receives user-visible progress. *console.Reporter satisfies it.
type Reporter interface {
	Connecting(endpoint discovery.Endpoint)
	Connected(endpoint discovery.Endpoint)
	ConnectionError(err error)
	ShotError(err error, raw string)
	ShotProcessed(result []byte)
	Retrying(delay time.Duration)
}

// Config holds the supervisor timings and discovery settings
type Config struct {
	Discovery      discovery.Config
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultConfig returns SSDP discovery with the default timings
func DefaultConfig() Config {
	return Config{
		Discovery:      discovery.DefaultConfig(),
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
	}
}

// Deps are the supervisor's collaborators. Only Resolver and Calculator are
// required; everything else has a working default.
type Deps struct {
	Resolver   Resolver
	Calculator compute.Calculator
	Dialer     Dialer           // default: net.Dialer
	Publisher  Publisher        // nil disables publishing
	Reporter   Reporter         // default: silent
	Metrics    *metrics.Metrics // may be nil

	// Sleep waits for d or until ctx is done. Default: a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// NewSessionID names each device session. Default: a random UUID.
	NewSessionID func() string
	// OnStateChange observes every transition
	OnStateChange func(from, to State)
}

// Supervisor owns the resolve/connect/stream/backoff loop
type Supervisor struct {
	cfg  Config
	deps Deps

	mu    sync.Mutex
	state State
}

// New creates a supervisor in the Idle state
func New(cfg Config, deps Deps) *Supervisor {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if deps.Dialer == nil {
		deps.Dialer = &net.Dialer{}
	}
	if deps.Reporter == nil {
		deps.Reporter = nopReporter{}
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	if deps.NewSessionID == nil {
		deps.NewSessionID = uuid.NewString
	}
	return &Supervisor{cfg: cfg, deps: deps, state: StateIdle}
}

// State returns the current state
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()

	if from == to {
		return
	}
	if !CanTransition(from, to) {
		logging.Warn("Unexpected supervisor transition",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	logging.LogStateChange(from.String(), to.String())
	s.deps.Metrics.StateChanged(from.String(), to.String())
	if s.deps.OnStateChange != nil {
		s.deps.OnStateChange(from, to)
	}
}

// Run drives the loop until ctx is cancelled. Every failure inside the loop
// is reported and retried after the reconnect delay; Run itself returns nil
// on cancellation.
func (s *Supervisor) Run(ctx context.Context) error {
	s.deps.Metrics.StateChanged("", s.State().String())

	for {
		err := s.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		logging.Debug("Connection cycle ended", zap.Error(err))

		if err := s.backoff(ctx); err != nil {
			return nil
		}
	}
}

// RunOnce performs one resolve/connect/stream cycle and returns the error
// that ended it. It leaves the supervisor in Failed or DeviceDisconnected.
func (s *Supervisor) RunOnce(ctx context.Context) error {
	s.setState(StateResolving)

	endpoint, err := s.deps.Resolver.Resolve(ctx, s.cfg.Discovery)
	if err != nil {
		if !bridgeerr.IsResolution(err) {
			err = bridgeerr.NewResolutionError(string(s.cfg.Discovery.Method), err)
		}
		s.deps.Metrics.ResolutionFailed(string(s.cfg.Discovery.Method))
		return s.fail(ctx, err)
	}

	s.setState(StateConnecting)
	s.deps.Reporter.Connecting(endpoint)
	s.deps.Metrics.ConnectionAttempt()

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	conn, err := s.deps.Dialer.DialContext(dialCtx, "tcp", endpoint.String())
	cancel()
	if err != nil {
		return s.fail(ctx, bridgeerr.NewConnectError(endpoint.String(), err))
	}

	sessionID := s.deps.NewSessionID()
	logging.LogConnection(endpoint.String(), "device_connected")
	logging.Info("Device session started",
		zap.String("session_id", sessionID),
		zap.String("endpoint", endpoint.String()),
	)

	s.setState(StateStreaming)
	s.deps.Reporter.Connected(endpoint)

	err = s.stream(ctx, conn, endpoint, sessionID)
	_ = conn.Close()
	logging.LogConnection(endpoint.String(), "device_disconnected")

	var be *bridgeerr.Error
	if errors.As(err, &be) && be.NetworkSubtype == bridgeerr.NetworkClosed && ctx.Err() == nil {
		s.deps.Metrics.ConnectionFailed(be.Kind.Label())
		s.deps.Reporter.ConnectionError(err)
		s.setState(StateDeviceDisconnected)
		return err
	}
	return s.fail(ctx, err)
}

// fail reports a connection-level error and enters Failed
func (s *Supervisor) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if kind, ok := bridgeerr.KindOf(err); ok {
		s.deps.Metrics.ConnectionFailed(kind.Label())
	}
	logging.Warn("Connection cycle failed", zap.Error(err))
	s.deps.Reporter.ConnectionError(err)
	s.setState(StateFailed)
	return err
}

// backoff announces and waits out the reconnect delay
func (s *Supervisor) backoff(ctx context.Context) error {
	s.setState(StateBackoff)
	delay := s.cfg.Discovery.ReconnectDelay
	s.deps.Reporter.Retrying(delay)
	return s.deps.Sleep(ctx, delay)
}

// stream reads device lines until the session ends and returns a stream error
func (s *Supervisor) stream(ctx context.Context, conn net.Conn, endpoint discovery.Endpoint, sessionID string) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	lines := newLineReader(conn, MaxLineSize)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return bridgeerr.NewStreamError(endpoint.String(), err)
		}
		line, err := lines.next()
		if errors.Is(err, errLineTooLong) {
			raw := string(lines.discardedHead()) + "..."
			s.deps.Metrics.ShotReceived()
			err = s.shotFailed(bridgeerr.NewMalformedRecordError(raw, err), raw)
			logging.Warn("Shot dropped",
				zap.String("session_id", sessionID),
				zap.Int("max_line_size", MaxLineSize),
				zap.Error(err),
			)
			continue
		}
		if errors.Is(err, io.EOF) {
			// Clean end of stream
			return bridgeerr.NewStreamError(endpoint.String(), nil)
		}
		if err != nil {
			return bridgeerr.NewStreamError(endpoint.String(), err)
		}

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if _, err := s.ProcessLine(ctx, line); err != nil {
			logging.Warn("Shot dropped",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}
}

// ProcessLine runs one device line through parse, map, compute and publish.
// Blank lines return (nil, nil). Failures are reported and returned; they
// never end the session.
func (s *Supervisor) ProcessLine(ctx context.Context, line []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, nil
	}
	raw := string(trimmed)

	s.deps.Metrics.ShotReceived()
	logging.LogRawLine("Device line", trimmed)

	decoded, err := shot.Parse(trimmed)
	if err != nil {
		return nil, s.shotFailed(bridgeerr.NewMalformedRecordError(raw, err), raw)
	}

	rule, canonical, ok := shot.MapWithRule(decoded)
	if !ok {
		return nil, s.shotFailed(bridgeerr.NewUnmappableRecordError(raw), raw)
	}

	encoded, err := canonical.Marshal()
	if err != nil {
		return nil, s.shotFailed(bridgeerr.NewComputationError("failed to encode canonical record", err), raw)
	}

	start := time.Now()
	result, err := s.deps.Calculator.Calculate(ctx, encoded)
	s.deps.Metrics.ObserveCompute(time.Since(start))
	if err != nil {
		if !bridgeerr.IsComputation(err) {
			err = bridgeerr.NewComputationError("calculation failed", err)
		}
		return nil, s.shotFailed(err, raw)
	}

	if s.deps.Publisher != nil {
		delivered := s.deps.Publisher.Publish(result)
		logging.Debug("Result published",
			zap.String("rule", rule),
			zap.Int("subscribers", delivered),
		)
	}
	s.deps.Metrics.ShotProcessed(rule)
	s.deps.Reporter.ShotProcessed(result)
	return result, nil
}

func (s *Supervisor) shotFailed(err error, raw string) error {
	if kind, ok := bridgeerr.KindOf(err); ok {
		s.deps.Metrics.ShotFailed(kind.Label())
	}
	s.deps.Reporter.ShotError(err, raw)
	return err
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type nopReporter struct{}

func (nopReporter) Connecting(discovery.Endpoint) {}
func (nopReporter) Connected(discovery.Endpoint)  {}
func (nopReporter) ConnectionError(error)         {}
func (nopReporter) ShotError(error, string)       {}
func (nopReporter) ShotProcessed([]byte)          {}
func (nopReporter) Retrying(time.Duration)        {}
