package compute

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/logging"
)

const (
	// DefaultAddr is where the OpenGolfCoach loop-back service listens
	DefaultAddr = "127.0.0.1:10000"

	// DefaultTimeout bounds one whole request/reply exchange
	DefaultTimeout = 5 * time.Second

	maxReplySize = 1 << 20
)

// Remote calls a loop-back computation service over TCP
type Remote struct {
	Addr    string
	Timeout time.Duration
}

// NewRemote creates a client for the service at addr
func NewRemote(addr string, timeout time.Duration) *Remote {
	if addr == "" {
		addr = DefaultAddr
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Remote{Addr: addr, Timeout: timeout}
}

// serviceError is the reply shape for a rejected record
type serviceError struct {
	Error *string `json:"error"`
}

// Calculate implements Calculator
func (r *Remote) Calculate(ctx context.Context, canonical []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", r.Addr)
	if err != nil {
		return nil, bridgeerr.NewComputationError(
			fmt.Sprintf("computation service unavailable at %s", r.Addr), err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	trimmed := bytes.TrimSpace(canonical)
	request := make([]byte, 0, len(trimmed)+1)
	request = append(append(request, trimmed...), '\n')
	if _, err := conn.Write(request); err != nil {
		return nil, bridgeerr.NewComputationError("failed to send record to computation service", err)
	}

	reply, err := readLine(conn)
	if err != nil {
		return nil, bridgeerr.NewComputationError("failed to read computation reply", err)
	}

	logging.Debug("Computation reply received",
		zap.String("addr", r.Addr),
		zap.Int("bytes", len(reply)),
	)

	var se serviceError
	if err := json.Unmarshal(reply, &se); err == nil && se.Error != nil {
		return nil, bridgeerr.NewComputationError(*se.Error, nil)
	}

	return Compact(reply)
}

// readLine reads one reply line, tolerating a missing trailing newline at EOF
func readLine(conn net.Conn) ([]byte, error) {
	reader := bufio.NewReader(io.LimitReader(conn, maxReplySize))
	line, err := reader.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("service closed the connection without a reply")
		}
		return nil, err
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, errors.New("empty reply")
	}
	return line, nil
}
