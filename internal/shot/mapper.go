package shot

import "strings"

// Rule is one named extraction rule. Match is a cheap shape check; Extract
// builds the canonical record and reports false when nothing usable was found.
type Rule struct {
	Name    string
	Match   func(Record) bool
	Extract func(Record) (Record, bool)
}

// Rule names, reported alongside mapped shots
const (
	RuleCanonical = "canonical"
	RuleNova      = "nova"
)

// Rules is the fixed evaluation order
var Rules = []Rule{
	{Name: RuleCanonical, Match: isCanonical, Extract: passThrough},
	{Name: RuleNova, Match: hasBallData, Extract: mapNova},
}

// Map translates a decoded device record into a canonical record.
// It returns false when the record is not an object or no rule applies.
func Map(v any) (Record, bool) {
	_, out, ok := MapWithRule(v)
	return out, ok
}

// MapWithRule is Map that also reports which rule produced the result
func MapWithRule(v any) (string, Record, bool) {
	record := asRecord(v)
	if record == nil {
		return "", nil, false
	}
	for _, rule := range Rules {
		if !rule.Match(record) {
			continue
		}
		if out, ok := rule.Extract(record); ok {
			return rule.Name, out, true
		}
	}
	return "", nil, false
}

func isCanonical(r Record) bool {
	_, speed := r[FieldBallSpeed]
	_, vla := r[FieldVerticalLaunch]
	return speed && vla
}

func passThrough(r Record) (Record, bool) {
	return r, true
}

func hasBallData(r Record) bool {
	return asRecord(r["BallData"]) != nil
}

// ballField maps one BallData key onto a canonical key
type ballField struct {
	source    string
	canonical string
	speed     bool
}

var novaBallFields = []ballField{
	{source: "Speed", canonical: FieldBallSpeed, speed: true},
	{source: "VLA", canonical: FieldVerticalLaunch},
	{source: "HLA", canonical: FieldHorizontalLaunch},
	{source: "TotalSpin", canonical: FieldTotalSpin},
	{source: "SpinAxis", canonical: FieldSpinAxis},
	{source: "BackSpin", canonical: FieldBackSpin},
	{source: "SideSpin", canonical: FieldSideSpin},
}

// usesImperial reads the Units field; absent or non-string means yards
func usesImperial(r Record) bool {
	units, ok := r["Units"].(string)
	if !ok {
		units = "Yards"
	}
	units = strings.ToLower(units)
	return strings.Contains(units, "yard") || strings.Contains(units, "mph")
}

func mapNova(r Record) (Record, bool) {
	imperial := usesImperial(r)
	ball := asRecord(r["BallData"])

	out := Record{}
	customary := Record{}

	for _, f := range novaBallFields {
		value, ok := ball.Float(f.source)
		if !ok {
			continue
		}
		if f.speed && imperial {
			customary[FieldBallSpeedMPH] = value
			value *= MPHToMetersPerSecond
		}
		out[f.canonical] = value
	}

	// Nothing from BallData means this is not a shot
	if len(out) == 0 {
		return nil, false
	}

	if club := asRecord(r["ClubData"]); club != nil {
		if speed, ok := club.Float("Speed"); ok {
			if !imperial {
				speed /= MPHToMetersPerSecond
			}
			customary[FieldClubSpeedMPH] = speed
		}
	}

	if len(customary) > 0 {
		out[FieldCustomaryUnits] = customary
	}
	return out, true
}
