package bridgeerr

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind represents the category of error that occurred while bridging
type Kind int

const (
	// KindConfigValidation indicates invalid process configuration (fatal, startup only)
	KindConfigValidation Kind = iota
	// KindResolution indicates no endpoint could be found with the selected method(s)
	KindResolution
	// KindConnect indicates the device could not be reached
	KindConnect
	// KindStream indicates the device dropped mid-session (including idle timeout)
	KindStream
	// KindMalformedRecord indicates a device line that is not valid JSON
	KindMalformedRecord
	// KindUnmappableRecord indicates JSON that does not resemble a known shot schema
	KindUnmappableRecord
	// KindComputation indicates the computation step rejected a canonical record
	KindComputation
)

// NetworkSubtype provides more specific classification for connect and stream errors
type NetworkSubtype int

const (
	NetworkGeneral NetworkSubtype = iota
	NetworkTimeout
	NetworkConnectionRefused
	NetworkDNS
	NetworkHostUnreachable
	NetworkNetworkUnreachable
	NetworkClosed
)

// String returns a human-readable name for the error kind
func (k Kind) String() string {
	switch k {
	case KindConfigValidation:
		return "Configuration Error"
	case KindResolution:
		return "Resolution Error"
	case KindConnect:
		return "Connect Error"
	case KindStream:
		return "Stream Error"
	case KindMalformedRecord:
		return "Malformed Record"
	case KindUnmappableRecord:
		return "Unmappable Record"
	case KindComputation:
		return "Computation Error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Label returns a short snake_case identifier, used for metric labels
func (k Kind) Label() string {
	switch k {
	case KindConfigValidation:
		return "config_validation"
	case KindResolution:
		return "resolution"
	case KindConnect:
		return "connect"
	case KindStream:
		return "stream"
	case KindMalformedRecord:
		return "malformed_record"
	case KindUnmappableRecord:
		return "unmappable_record"
	case KindComputation:
		return "computation"
	default:
		return "unknown"
	}
}

// IsShotLevel reports whether errors of this kind only drop a single shot.
// All other runtime kinds end the current connection attempt.
func (k Kind) IsShotLevel() bool {
	return k == KindMalformedRecord || k == KindUnmappableRecord || k == KindComputation
}

// Error is the single error type produced by the bridge
type Error struct {
	Kind           Kind           // Category of error
	Message        string         // Human-readable error message
	Err            error          // Underlying error (if any)
	Raw            string         // Offending raw input, for record-level errors
	Endpoint       string         // host:port involved, for connection-level errors
	NetworkSubtype NetworkSubtype // More specific network error type
	Retryable      bool           // Whether the outer loop may retry
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Sentinel causes for resolution failures
var (
	ErrMissingManualEndpoint = errors.New("manual discovery selected but no endpoint configured")
	ErrNoResponse            = errors.New("no discovery response received")
)

// NewConfigError creates a configuration validation error
func NewConfigError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfigValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewResolutionError creates a resolution error for the named discovery method
func NewResolutionError(method string, err error) *Error {
	return &Error{
		Kind:      KindResolution,
		Message:   fmt.Sprintf("%s discovery failed", method),
		Err:       err,
		Retryable: true,
	}
}

// NewConnectError creates a connect error with automatic network classification
func NewConnectError(endpoint string, err error) *Error {
	e := ClassifyNetworkError(err, endpoint)
	e.Kind = KindConnect
	e.Message = fmt.Sprintf("failed to connect to device at %s", endpoint)
	return e
}

// NewStreamError creates a stream error for a dropped device session
func NewStreamError(endpoint string, err error) *Error {
	if err == nil {
		return &Error{
			Kind:           KindStream,
			Message:        "device closed the connection",
			Endpoint:       endpoint,
			NetworkSubtype: NetworkClosed,
			Retryable:      true,
		}
	}
	e := ClassifyNetworkError(err, endpoint)
	e.Kind = KindStream
	if e.NetworkSubtype == NetworkTimeout {
		e.Message = "device went silent (read timeout)"
	} else {
		e.Message = "connection dropped"
	}
	return e
}

// NewMalformedRecordError creates an error for a device line that is not JSON
func NewMalformedRecordError(raw string, err error) *Error {
	return &Error{
		Kind:    KindMalformedRecord,
		Message: "device line is not valid JSON",
		Err:     err,
		Raw:     raw,
	}
}

// NewUnmappableRecordError creates an error for JSON with no recognizable shot fields
func NewUnmappableRecordError(raw string) *Error {
	return &Error{
		Kind:    KindUnmappableRecord,
		Message: "unable to map device shot into canonical schema",
		Raw:     raw,
	}
}

// NewComputationError creates an error for a rejected canonical record
func NewComputationError(message string, err error) *Error {
	return &Error{
		Kind:    KindComputation,
		Message: message,
		Err:     err,
	}
}

// ClassifyNetworkError analyzes a dial or read error and returns a classified Error.
// The returned Kind defaults to KindConnect; callers override it as needed.
func ClassifyNetworkError(err error, endpoint string) *Error {
	if err == nil {
		return nil
	}

	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return &Error{
			Kind:           KindConnect,
			Message:        "operation timed out",
			Err:            err,
			Endpoint:       endpoint,
			NetworkSubtype: NetworkTimeout,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Kind:           KindConnect,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			Endpoint:       endpoint,
			NetworkSubtype: NetworkDNS,
			Retryable:      true,
		}
	}

	subtype := NetworkGeneral
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		subtype = NetworkConnectionRefused
	case errors.Is(err, syscall.EHOSTUNREACH):
		subtype = NetworkHostUnreachable
	case errors.Is(err, syscall.ENETUNREACH):
		subtype = NetworkNetworkUnreachable
	case errors.Is(err, net.ErrClosed), errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		subtype = NetworkClosed
	}

	return &Error{
		Kind:           KindConnect,
		Message:        "network error occurred",
		Err:            err,
		Endpoint:       endpoint,
		NetworkSubtype: subtype,
		Retryable:      true,
	}
}

// KindOf returns the Kind of err and whether err is a bridge error at all
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func isKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsConfigValidation checks if an error is a configuration validation error
func IsConfigValidation(err error) bool { return isKind(err, KindConfigValidation) }

// IsResolution checks if an error is a resolution error
func IsResolution(err error) bool { return isKind(err, KindResolution) }

// IsConnect checks if an error is a connect error
func IsConnect(err error) bool { return isKind(err, KindConnect) }

// IsStream checks if an error is a stream error
func IsStream(err error) bool { return isKind(err, KindStream) }

// IsMalformedRecord checks if an error is a malformed record error
func IsMalformedRecord(err error) bool { return isKind(err, KindMalformedRecord) }

// IsUnmappableRecord checks if an error is an unmappable record error
func IsUnmappableRecord(err error) bool { return isKind(err, KindUnmappableRecord) }

// IsComputation checks if an error is a computation error
func IsComputation(err error) bool { return isKind(err, KindComputation) }

// IsRetryable checks if the outer loop should retry after err
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// Hint returns user-friendly troubleshooting advice for an error
func Hint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred."
	}

	switch e.Kind {
	case KindConfigValidation:
		return "Check the command-line flags and configuration file, then restart."

	case KindResolution:
		return strings.Join([]string{
			"The launch monitor was not found on the network.",
			"Troubleshooting:",
			"  • Check that the Nova is powered on and its OpenAPI service is enabled",
			"  • Verify this computer is on the same network segment as the device",
			"  • Allow UDP 1900 (SSDP) and UDP 5353 (mDNS) through the firewall",
			"  • Use --discovery manual --nova-host <ip> to skip discovery",
		}, "\n")

	case KindConnect:
		switch e.NetworkSubtype {
		case NetworkConnectionRefused:
			return "The device refused the connection. Check the port (default 2921) and that OpenAPI is enabled."
		case NetworkTimeout:
			return "The device did not accept the connection in time. It may be asleep or on another network."
		case NetworkHostUnreachable, NetworkNetworkUnreachable:
			return "The device is not reachable. Verify the address and your network connection."
		case NetworkDNS:
			return "Could not resolve the device hostname. Try the IP address instead."
		default:
			return "Could not connect to the device. Check the address and network connection."
		}

	case KindStream:
		if e.NetworkSubtype == NetworkTimeout {
			return "No data was received for too long; the connection is treated as dropped."
		}
		return "The device ended the session. The bridge will reconnect automatically."

	case KindMalformedRecord:
		return "The device sent a line that is not JSON. The line was skipped."

	case KindUnmappableRecord:
		return "The shot did not contain any recognizable ball data. The line was skipped."

	case KindComputation:
		return "The computation step rejected the shot. The shot was dropped."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Kind {
	case KindConnect:
		switch e.NetworkSubtype {
		case NetworkTimeout:
			return "Device not responding (timeout)"
		case NetworkConnectionRefused:
			return "Device refused connection"
		case NetworkHostUnreachable:
			return "Device unreachable"
		case NetworkNetworkUnreachable:
			return "Network unreachable"
		case NetworkDNS:
			return "Cannot resolve device hostname"
		default:
			return "Network error"
		}
	case KindStream:
		return e.Message
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
}
