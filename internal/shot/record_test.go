package shot

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
	}{
		{name: "object", line: `{"BallData":{"Speed":150}}`},
		{name: "scalar is valid JSON", line: `42`},
		{name: "truncated", line: `{"BallData":{"Speed":150`, wantErr: true},
		{name: "plain text", line: `hello nova`, wantErr: true},
		{name: "two values", line: `{"a":1} {"b":2}`, wantErr: true},
		{name: "trailing whitespace", line: "{\"a\":1}  \r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.line))
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
		})
	}
}

func TestParse_KeepsNumberDigits(t *testing.T) {
	line := `{"ball_speed_meters_per_second":70,"vertical_launch_angle_degrees":12.50,"shot_id":9007199254740993}`

	v, err := Parse([]byte(line))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got, ok := Map(v)
	if !ok {
		t.Fatal("Map() returned no result")
	}
	out, err := got.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"ball_speed_meters_per_second":70,"shot_id":9007199254740993,"vertical_launch_angle_degrees":12.50}`
	if string(out) != want {
		t.Errorf("round trip = %s, want %s", out, want)
	}
	if speed, ok := got.Float(FieldBallSpeed); !ok || speed != 70 {
		t.Errorf("Float(%s) = %v, %v; want 70", FieldBallSpeed, speed, ok)
	}
}

func TestRecord_Marshal(t *testing.T) {
	r := Record{
		FieldVerticalLaunch: 12.5,
		FieldBallSpeed:      67.056,
		FieldCustomaryUnits: Record{FieldBallSpeedMPH: 150.0},
	}

	got, err := r.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"ball_speed_meters_per_second":67.056,"us_customary_units":{"ball_speed_mph":150},"vertical_launch_angle_degrees":12.5}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
	if strings.Contains(string(got), "\n") {
		t.Error("Marshal() output must be a single line")
	}
}

func TestRecord_Float(t *testing.T) {
	r := Record{"a": 1.5, "b": "1.5", "c": 2}

	if v, ok := r.Float("a"); !ok || v != 1.5 {
		t.Errorf("Float(a) = %v, %v", v, ok)
	}
	if _, ok := r.Float("b"); ok {
		t.Error("Float(b) should reject strings")
	}
	if v, ok := r.Float("c"); !ok || v != 2 {
		t.Errorf("Float(c) = %v, %v", v, ok)
	}
	if _, ok := r.Float("missing"); ok {
		t.Error("Float(missing) should report absent")
	}
}
