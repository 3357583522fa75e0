package shot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Canonical field names
const (
	FieldBallSpeed        = "ball_speed_meters_per_second"
	FieldVerticalLaunch   = "vertical_launch_angle_degrees"
	FieldHorizontalLaunch = "horizontal_launch_angle_degrees"
	FieldTotalSpin        = "total_spin_rpm"
	FieldSpinAxis         = "spin_axis_degrees"
	FieldBackSpin         = "backspin_rpm"
	FieldSideSpin         = "sidespin_rpm"
	FieldCustomaryUnits   = "us_customary_units"

	FieldBallSpeedMPH = "ball_speed_mph"
	FieldClubSpeedMPH = "club_speed_mph"
)

// MPHToMetersPerSecond converts miles per hour to meters per second
const MPHToMetersPerSecond = 0.44704

// Record is a decoded JSON object, either device-native or canonical
type Record map[string]any

// Parse decodes one device line. Any valid JSON value is accepted;
// whether it is a usable shot is decided by Map. Numbers are kept as
// json.Number so values that are passed through keep their exact digits.
func Parse(line []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid JSON: trailing data after value")
	}
	return v, nil
}

// Float returns a numeric field
func (r Record) Float(key string) (float64, bool) {
	return asFloat(r[key])
}

// Customary returns the nested customary-units object, if any
func (r Record) Customary() Record {
	return asRecord(r[FieldCustomaryUnits])
}

// Marshal encodes the record as a single line of JSON with sorted keys
func (r Record) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(r)); err != nil {
		return nil, fmt.Errorf("failed to encode shot record: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// asRecord accepts both Record and the map type produced by encoding/json
func asRecord(v any) Record {
	switch m := v.(type) {
	case Record:
		return m
	case map[string]any:
		return Record(m)
	default:
		return nil
	}
}

// asFloat only accepts JSON numbers; numeric strings are not coerced
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
