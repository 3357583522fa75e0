package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/logging"
)

// Strategy is one way of locating the device
type Strategy interface {
	// Name is the human-readable protocol name ("SSDP", "mDNS", "manual")
	Name() string
	// Discover returns the first well-formed endpoint found within timeout
	Discover(ctx context.Context, timeout time.Duration) (Endpoint, error)
}

// ManualStrategy returns a configured endpoint without touching the network
type ManualStrategy struct {
	Endpoint *Endpoint
}

// Name implements Strategy
func (m ManualStrategy) Name() string { return "manual" }

// Discover implements Strategy
func (m ManualStrategy) Discover(_ context.Context, _ time.Duration) (Endpoint, error) {
	if m.Endpoint == nil {
		return Endpoint{}, bridgeerr.ErrMissingManualEndpoint
	}
	return *m.Endpoint, nil
}

// Observer receives discovery progress so the caller can report it
type Observer interface {
	Attempting(strategy string)
	Failed(strategy string, err error, next string)
	Resolved(strategy string, endpoint Endpoint)
}

// Resolver turns a Config into an Endpoint by trying an ordered list of strategies
type Resolver struct {
	SSDP     Strategy
	MDNS     Strategy
	Observer Observer // optional
}

// NewResolver creates a resolver backed by the real SSDP and mDNS strategies
func NewResolver() *Resolver {
	return &Resolver{
		SSDP: NewSSDPStrategy(),
		MDNS: NewMDNSStrategy(),
	}
}

// Strategies returns the ordered strategy list for the configured method.
// SSDP falls back to mDNS; mDNS and manual never fall back.
func (r *Resolver) Strategies(cfg Config) ([]Strategy, error) {
	switch cfg.Method {
	case MethodManual:
		return []Strategy{ManualStrategy{Endpoint: cfg.ManualEndpoint}}, nil
	case MethodSSDP:
		return []Strategy{r.SSDP, r.MDNS}, nil
	case MethodMDNS:
		return []Strategy{r.MDNS}, nil
	default:
		return nil, fmt.Errorf("unknown discovery method %q", cfg.Method)
	}
}

// Resolve tries each strategy once, in order, and returns the first endpoint found.
// When all strategies fail the result is a resolution error wrapping every cause.
func (r *Resolver) Resolve(ctx context.Context, cfg Config) (Endpoint, error) {
	strategies, err := r.Strategies(cfg)
	if err != nil {
		return Endpoint{}, bridgeerr.NewResolutionError(string(cfg.Method), err)
	}

	var (
		names []string
		errs  []error
	)
	for i, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		name := strategy.Name()
		names = append(names, name)
		if r.Observer != nil {
			r.Observer.Attempting(name)
		}
		logging.Debug("Discovery attempt",
			zap.String("strategy", name),
			zap.Duration("timeout", cfg.DiscoveryTimeout),
		)

		endpoint, err := strategy.Discover(ctx, cfg.DiscoveryTimeout)
		if err == nil {
			logging.Info("Device endpoint resolved",
				zap.String("strategy", name),
				zap.String("endpoint", endpoint.String()),
			)
			if r.Observer != nil {
				r.Observer.Resolved(name, endpoint)
			}
			return endpoint, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", name, err))

		next := ""
		if i+1 < len(strategies) {
			next = strategies[i+1].Name()
		}
		logging.Warn("Discovery attempt failed",
			zap.String("strategy", name),
			zap.String("next", next),
			zap.Error(err),
		)
		if r.Observer != nil {
			r.Observer.Failed(name, err, next)
		}
	}

	return Endpoint{}, bridgeerr.NewResolutionError(strings.Join(names, "/"), errors.Join(errs...))
}
