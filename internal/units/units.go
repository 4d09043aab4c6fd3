// Package units provides speed unit constants and conversions. Waypoint
// speeds are always held in m/s internally; other units only appear at the
// import boundary.
package units

import "fmt"

const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

const (
	mphPerMPS  = 2.2369362920544
	kmphPerMPS = 3.6
)

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed in m/s to the target units.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * mphPerMPS
	case KMPH, KPH:
		return speedMPS * kmphPerMPS
	default:
		return speedMPS
	}
}

// ToMPS converts a speed expressed in sourceUnits to m/s. Unknown units are
// an error rather than a passthrough.
func ToMPS(speed float64, sourceUnits string) (float64, error) {
	switch sourceUnits {
	case MPS:
		return speed, nil
	case MPH:
		return speed / mphPerMPS, nil
	case KMPH, KPH:
		return speed / kmphPerMPS, nil
	default:
		return 0, fmt.Errorf("unknown speed unit %q (valid: %v)", sourceUnits, ValidUnits)
	}
}
