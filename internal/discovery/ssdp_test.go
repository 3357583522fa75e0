package discovery

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     Endpoint
		wantErr  bool
	}{
		{
			name:     "http url with path",
			location: "http://192.168.1.40:2921/openapi",
			want:     Endpoint{Host: "192.168.1.40", Port: 2921},
		},
		{
			name:     "no scheme",
			location: "192.168.1.40:2921",
			want:     Endpoint{Host: "192.168.1.40", Port: 2921},
		},
		{
			name:     "surrounding whitespace",
			location: "  http://10.0.0.2:8080/  ",
			want:     Endpoint{Host: "10.0.0.2", Port: 8080},
		},
		{
			name:     "bracketed IPv6",
			location: "http://[fe80::1]:2921/desc.xml",
			want:     Endpoint{Host: "fe80::1", Port: 2921},
		},
		{
			name:     "missing port",
			location: "http://192.168.1.40/openapi",
			wantErr:  true,
		},
		{
			name:     "port out of range",
			location: "http://192.168.1.40:70000/",
			wantErr:  true,
		},
		{
			name:     "non numeric port",
			location: "http://192.168.1.40:abc/",
			wantErr:  true,
		},
		{
			name:     "empty host",
			location: "http://:2921/",
			wantErr:  true,
		},
		{
			name:     "empty",
			location: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocation(tt.location)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLocation(%q) error = %v, wantErr %v", tt.location, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLocation(%q) = %v, want %v", tt.location, got, tt.want)
			}
		})
	}
}

func TestParseSearchResponse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Endpoint
		wantErr bool
	}{
		{
			name: "well formed reply",
			data: "HTTP/1.1 200 OK\r\n" +
				"CACHE-CONTROL: max-age=1800\r\n" +
				"ST: urn:openlaunch:service:openapi:1\r\n" +
				"LOCATION: http://192.168.1.40:2921/openapi\r\n" +
				"USN: uuid:nova-1234::urn:openlaunch:service:openapi:1\r\n" +
				"\r\n",
			want: Endpoint{Host: "192.168.1.40", Port: 2921},
		},
		{
			name: "lowercase header and bare newlines",
			data: "HTTP/1.1 200 OK\n" +
				"st: urn:openlaunch:service:openapi:1\n" +
				"location: http://10.0.0.7:2921\n",
			want: Endpoint{Host: "10.0.0.7", Port: 2921},
		},
		{
			name: "not an HTTP status line",
			data: "NOTIFY * HTTP/1.1\r\n" +
				"NT: urn:openlaunch:service:openapi:1\r\n" +
				"LOCATION: http://10.0.0.8:2921/\r\n",
			want: Endpoint{Host: "10.0.0.8", Port: 2921},
		},
		{
			name: "other service",
			data: "HTTP/1.1 200 OK\r\n" +
				"ST: urn:schemas-upnp-org:device:MediaRenderer:1\r\n" +
				"LOCATION: http://192.168.1.50:49152/desc.xml\r\n" +
				"\r\n",
			wantErr: true,
		},
		{
			name: "missing location",
			data: "HTTP/1.1 200 OK\r\n" +
				"ST: urn:openlaunch:service:openapi:1\r\n" +
				"\r\n",
			wantErr: true,
		},
		{
			name: "unparseable location",
			data: "HTTP/1.1 200 OK\r\n" +
				"ST: urn:openlaunch:service:openapi:1\r\n" +
				"LOCATION: not-a-location\r\n" +
				"\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSearchResponse([]byte(tt.data), SSDPServiceURN)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSearchResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseSearchResponse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildSearchRequest(t *testing.T) {
	req := string(buildSearchRequest(SSDPMulticastAddr, SSDPServiceURN))

	for _, want := range []string{
		"M-SEARCH * HTTP/1.1\r\n",
		"HOST: 239.255.255.250:1900\r\n",
		"MAN: \"ssdp:discover\"\r\n",
		"MX: 3\r\n",
		"ST: urn:openlaunch:service:openapi:1\r\n",
	} {
		if !strings.Contains(req, want) {
			t.Errorf("request missing %q:\n%s", want, req)
		}
	}

	if !strings.HasSuffix(req, "\r\n\r\n") {
		t.Error("request should end with an empty line")
	}
}

// startResponder answers each received datagram with the given replies, in order
func startResponder(t *testing.T, replies ...string) (string, <-chan string) {
	t.Helper()

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	received := make(chan string, 1)
	go func() {
		buf := make([]byte, 2048)
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			return
		}
		received <- string(buf[:n])
		for _, r := range replies {
			if _, err := conn.WriteTo([]byte(r), from); err != nil {
				return
			}
		}
	}()

	return conn.LocalAddr().String(), received
}

func TestSSDPStrategy_Discover(t *testing.T) {
	addr, received := startResponder(t,
		"HTTP/1.1 200 OK\r\nST: urn:other\r\nLOCATION: http://10.9.9.9:1/\r\n\r\n",
		"HTTP/1.1 200 OK\r\nST: urn:openlaunch:service:openapi:1\r\nLOCATION: http://127.0.0.1:2921/openapi\r\n\r\n",
	)

	s := NewSSDPStrategy()
	s.Target = addr

	endpoint, err := s.Discover(context.Background(), 2*time.Second)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := Endpoint{Host: "127.0.0.1", Port: 2921}
	if endpoint != want {
		t.Errorf("Discover() = %v, want %v", endpoint, want)
	}

	select {
	case req := <-received:
		if !strings.Contains(req, "ST: "+SSDPServiceURN) {
			t.Errorf("responder received unexpected request:\n%s", req)
		}
	default:
		t.Error("responder did not receive an M-SEARCH")
	}
}

func TestSSDPStrategy_Discover_Timeout(t *testing.T) {
	addr, _ := startResponder(t)

	s := NewSSDPStrategy()
	s.Target = addr

	start := time.Now()
	_, err := s.Discover(context.Background(), 100*time.Millisecond)
	if !errors.Is(err, bridgeerr.ErrNoResponse) {
		t.Fatalf("Discover() error = %v, want ErrNoResponse", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Discover() took %v, should be bounded by the timeout", elapsed)
	}
}

func TestSSDPStrategy_Discover_Cancelled(t *testing.T) {
	addr, _ := startResponder(t)

	s := NewSSDPStrategy()
	s.Target = addr

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := s.Discover(ctx, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Discover() error = %v, want context.Canceled", err)
	}
}
