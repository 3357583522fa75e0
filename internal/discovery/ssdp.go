package discovery

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/logging"
)

const (
	// SSDPMulticastAddr is the standard SSDP multicast group and port
	SSDPMulticastAddr = "239.255.255.250:1900"

	// SSDPServiceURN is the search target advertised by the Nova OpenAPI service
	SSDPServiceURN = "urn:openlaunch:service:openapi:1"

	// ssdpMX is the maximum response delay (seconds) requested from responders
	ssdpMX = 3

	// ssdpMulticastTTL keeps the search on the local segment
	ssdpMulticastTTL = 2

	ssdpBufferSize = 2048
)

// SSDPStrategy discovers the device with an SSDP M-SEARCH
type SSDPStrategy struct {
	// Target is where the M-SEARCH is sent (the multicast group by default)
	Target string
	// ServiceURN is the search target; replies not containing it are ignored
	ServiceURN string
}

// NewSSDPStrategy creates an SSDP strategy for the Nova OpenAPI service
func NewSSDPStrategy() *SSDPStrategy {
	return &SSDPStrategy{
		Target:     SSDPMulticastAddr,
		ServiceURN: SSDPServiceURN,
	}
}

// Name implements Strategy
func (s *SSDPStrategy) Name() string { return "SSDP" }

// Discover sends one M-SEARCH and reads unicast replies until timeout
func (s *SSDPStrategy) Discover(ctx context.Context, timeout time.Duration) (Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to open SSDP socket: %w", err)
	}
	defer func() { _ = conn.Close() }()

	deadline, _ := ctx.Deadline()
	if err := conn.SetReadDeadline(deadline); err != nil {
		return Endpoint{}, fmt.Errorf("failed to set SSDP read deadline: %w", err)
	}

	// Unblock ReadFrom on cancellation
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastTTL(ssdpMulticastTTL); err != nil {
		logging.Debug("Failed to set SSDP multicast TTL", zap.Error(err))
	}
	if err := pc.SetMulticastLoopback(true); err != nil {
		logging.Debug("Failed to enable SSDP multicast loopback", zap.Error(err))
	}

	dst, err := net.ResolveUDPAddr("udp4", s.Target)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid SSDP target %q: %w", s.Target, err)
	}

	request := buildSearchRequest(s.Target, s.ServiceURN)
	logging.LogRawLine("SSDP M-SEARCH", request)
	if _, err := conn.WriteTo(request, dst); err != nil {
		return Endpoint{}, fmt.Errorf("failed to send M-SEARCH: %w", err)
	}

	buf := make([]byte, ssdpBufferSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if ctx.Err() != nil || (errors.As(err, &netErr) && netErr.Timeout()) {
				if errors.Is(context.Cause(ctx), context.Canceled) {
					return Endpoint{}, context.Cause(ctx)
				}
				return Endpoint{}, fmt.Errorf("%w within %s", bridgeerr.ErrNoResponse, timeout)
			}
			return Endpoint{}, fmt.Errorf("failed to read SSDP reply: %w", err)
		}

		logging.LogRawLine("SSDP reply", buf[:n])
		endpoint, err := parseSearchResponse(buf[:n], s.ServiceURN)
		if err != nil {
			logging.Debug("Ignoring SSDP reply",
				zap.Stringer("from", from),
				zap.Error(err),
			)
			continue
		}
		return endpoint, nil
	}
}

// buildSearchRequest formats an M-SEARCH request for the given search target
func buildSearchRequest(host, urn string) []byte {
	return []byte("M-SEARCH * HTTP/1.1\r\n" +
		"HOST: " + host + "\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"MX: " + strconv.Itoa(ssdpMX) + "\r\n" +
		"ST: " + urn + "\r\n" +
		"\r\n")
}

// parseSearchResponse validates an SSDP reply and extracts the endpoint from LOCATION
func parseSearchResponse(data []byte, urn string) (Endpoint, error) {
	if !bytes.Contains(data, []byte(urn)) {
		return Endpoint{}, fmt.Errorf("reply does not mention %s", urn)
	}

	location := ""
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	if err == nil {
		location = resp.Header.Get("Location")
		_ = resp.Body.Close()
	}
	if location == "" {
		location = scanHeader(data, "LOCATION")
	}
	if location == "" {
		return Endpoint{}, fmt.Errorf("reply has no LOCATION header")
	}

	return ParseLocation(location)
}

// scanHeader finds a header by name in a loosely formatted reply
func scanHeader(data []byte, name string) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	prefix := strings.ToLower(name) + ":"
	value := ""
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.ToLower(line), prefix) {
			value = strings.TrimSpace(line[len(prefix):])
		}
	}
	return value
}

// ParseLocation extracts host and port from a LOCATION value such as
// "http://192.168.1.40:2921/openapi" by stripping the scheme and path.
func ParseLocation(location string) (Endpoint, error) {
	trimmed := strings.TrimSpace(location)
	if i := strings.Index(trimmed, "://"); i >= 0 {
		trimmed = trimmed[i+3:]
	}
	if i := strings.Index(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}

	host, portStr, err := net.SplitHostPort(trimmed)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid LOCATION %q: %w", location, err)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("invalid LOCATION %q: empty host", location)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid LOCATION %q: bad port: %w", location, err)
	}

	return Endpoint{Host: host, Port: int(port)}, nil
}
