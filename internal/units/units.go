// Package units provides shared constants and validation for the units
// motion displacements are given in.
package units

import "math"

// Angle unit constants
const (
	Radians = "rad"
	Degrees = "deg"
)

// Length unit constants
const (
	Meters      = "m"
	Millimeters = "mm"
)

// ValidAngleUnits contains all valid angle unit values
var ValidAngleUnits = []string{Radians, Degrees}

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{Meters, Millimeters}

func contains(list []string, unit string) bool {
	for _, u := range list {
		if unit == u {
			return true
		}
	}
	return false
}

// IsValidAngle checks if the given unit is a known angle unit
func IsValidAngle(unit string) bool {
	return contains(ValidAngleUnits, unit)
}

// IsValidLength checks if the given unit is a known length unit
func IsValidLength(unit string) bool {
	return contains(ValidLengthUnits, unit)
}

// GetValidAngleUnitsString returns a comma-separated string of valid angle units for error messages
func GetValidAngleUnitsString() string {
	return "rad, deg"
}

// GetValidLengthUnitsString returns a comma-separated string of valid length units for error messages
func GetValidLengthUnitsString() string {
	return "m, mm"
}

// ToRadians converts an angle in the given unit to radians.
// Unknown units are treated as radians.
func ToRadians(angle float64, unit string) float64 {
	switch unit {
	case Degrees:
		return angle * math.Pi / 180
	default:
		return angle
	}
}

// FromRadians converts an angle in radians to the given unit.
func FromRadians(angle float64, unit string) float64 {
	switch unit {
	case Degrees:
		return angle * 180 / math.Pi
	default:
		return angle
	}
}

// ToMeters converts a length in the given unit to meters.
// Unknown units are treated as meters.
func ToMeters(length float64, unit string) float64 {
	switch unit {
	case Millimeters:
		return length / 1000
	default:
		return length
	}
}

// StepPeriod returns the control step period in seconds for an update rate
// in Hz, or 0 for a non-positive rate.
func StepPeriod(rateHz float64) float64 {
	if rateHz <= 0 {
		return 0
	}
	return 1 / rateHz
}
