package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/logging"
)

const (
	// MDNSServiceType is the DNS-SD service type advertised by the Nova OpenAPI service
	MDNSServiceType = "_openapi-nova._tcp"

	// MDNSServiceDomain is the mDNS domain
	MDNSServiceDomain = "local."
)

// browser is the part of *zeroconf.Resolver used for discovery
type browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// MDNSStrategy discovers the device by browsing a DNS-SD service type
type MDNSStrategy struct {
	Service string
	Domain  string

	newBrowser func() (browser, error)
}

// NewMDNSStrategy creates an mDNS strategy for the Nova OpenAPI service
func NewMDNSStrategy() *MDNSStrategy {
	return &MDNSStrategy{
		Service: MDNSServiceType,
		Domain:  MDNSServiceDomain,
		newBrowser: func() (browser, error) {
			return zeroconf.NewResolver(nil)
		},
	}
}

// Name implements Strategy
func (m *MDNSStrategy) Name() string { return "mDNS" }

// Discover browses for up to timeout and returns the first resolved service
func (m *MDNSStrategy) Discover(ctx context.Context, timeout time.Duration) (Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := m.newBrowser()
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan Endpoint, 1)

	// zeroconf blocks on every send and closes entries once ctx is done, so
	// the channel is read to the end even after the first hit
	go func() {
		resolved := false
		for entry := range entries {
			if resolved {
				continue
			}
			endpoint, err := parseServiceEntry(entry)
			if err != nil {
				logging.Debug("Ignoring mDNS entry", zap.Error(err))
				continue
			}
			resolved = true
			found <- endpoint
			cancel()
		}
	}()

	if err := resolver.Browse(ctx, m.Service, m.Domain, entries); err != nil {
		return Endpoint{}, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case endpoint := <-found:
		return endpoint, nil
	case <-ctx.Done():
		// A hit may race with the cancel it triggered
		select {
		case endpoint := <-found:
			return endpoint, nil
		default:
		}
		if errors.Is(context.Cause(ctx), context.Canceled) {
			return Endpoint{}, context.Cause(ctx)
		}
		return Endpoint{}, fmt.Errorf("%w within %s", bridgeerr.ErrNoResponse, timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Endpoint.
// IPv4 addresses are preferred. IPv6 is used when no IPv4 address is
// present, but only a routable one: zeroconf does not report the interface
// a link-local address was seen on, so it could not be dialled.
func parseServiceEntry(entry *zeroconf.ServiceEntry) (Endpoint, error) {
	if entry == nil {
		return Endpoint{}, fmt.Errorf("nil service entry")
	}

	var host string
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	} else {
		for _, ip := range entry.AddrIPv6 {
			if ip.IsGlobalUnicast() {
				host = ip.String()
				break
			}
		}
	}
	if host == "" {
		if len(entry.AddrIPv6) > 0 {
			return Endpoint{}, fmt.Errorf("service %q has only link-local addresses", entry.Instance)
		}
		return Endpoint{}, fmt.Errorf("service %q has no address", entry.Instance)
	}

	if entry.Port <= 0 || entry.Port > 65535 {
		return Endpoint{}, fmt.Errorf("service %q has invalid port %d", entry.Instance, entry.Port)
	}

	return Endpoint{Host: host, Port: entry.Port}, nil
}
