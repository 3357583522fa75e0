package compute

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
)

// Calculator enriches one canonical shot record
type Calculator interface {
	Calculate(ctx context.Context, canonical []byte) ([]byte, error)
}

// Func adapts an ordinary function to Calculator
type Func func(ctx context.Context, canonical []byte) ([]byte, error)

// Calculate implements Calculator
func (f Func) Calculate(ctx context.Context, canonical []byte) ([]byte, error) {
	out, err := f(ctx, canonical)
	if err != nil {
		if bridgeerr.IsComputation(err) {
			return nil, err
		}
		return nil, bridgeerr.NewComputationError("calculation failed", err)
	}
	return Compact(out)
}

// Identity returns the canonical record unchanged
type Identity struct{}

// Calculate implements Calculator
func (Identity) Calculate(_ context.Context, canonical []byte) ([]byte, error) {
	return Compact(canonical)
}

// Compact strips insignificant whitespace so the result fits on one line
func Compact(result []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(result)); err != nil {
		return nil, bridgeerr.NewComputationError("result is not valid JSON", err)
	}
	return buf.Bytes(), nil
}
