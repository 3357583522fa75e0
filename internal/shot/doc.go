// Package shot translates launch-monitor shot records into the canonical
// OpenGolfCoach shot schema.
//
// Canonical records are flat JSON objects in SI units (meters per second,
// degrees, RPM) with an optional "us_customary_units" object that mirrors
// selected values in imperial units for display:
//
//	{
//	  "ball_speed_meters_per_second": 67.056,
//	  "vertical_launch_angle_degrees": 12.5,
//	  "horizontal_launch_angle_degrees": -2,
//	  "total_spin_rpm": 2800,
//	  "spin_axis_degrees": 6,
//	  "us_customary_units": {"ball_speed_mph": 150}
//	}
//
// Mapping is a fixed, ordered list of named rules. The first rule whose check
// matches produces the result; a record no rule matches is unmappable. Map is
// pure: it performs no I/O and never mutates its input.
package shot
