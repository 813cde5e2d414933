package types

import "fmt"

// WattHours is a uint64 wrapper representing cumulative energy as
// reported by a meter register.
type WattHours uint64

// Humanized returns a human-readable string with automatic unit
// (Wh, kWh, MWh, GWh).
func (w WattHours) Humanized() string {
	const unit = 1000
	v := float64(w)
	switch {
	case w >= unit*unit*unit:
		return fmt.Sprintf("%.2f GWh", v/(unit*unit*unit))
	case w >= unit*unit:
		return fmt.Sprintf("%.2f MWh", v/(unit*unit))
	case w >= unit:
		return fmt.Sprintf("%.3f kWh", v/unit)
	default:
		return fmt.Sprintf("%d Wh", uint64(w))
	}
}

// KWh returns the number of kilowatt-hours.
func (w WattHours) KWh() float64 { return float64(w) / 1000 }

// MWh returns the number of megawatt-hours.
func (w WattHours) MWh() float64 { return float64(w) / (1000 * 1000) }

// Watts is a signed instantaneous power value; negative means energy
// is flowing back to the grid.
type Watts int64

// Humanized returns a human-readable string with automatic unit
// (W, kW, MW), keeping the sign.
func (w Watts) Humanized() string {
	v := float64(w)
	abs := w
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1000*1000:
		return fmt.Sprintf("%.2f MW", v/(1000*1000))
	case abs >= 1000:
		return fmt.Sprintf("%.2f kW", v/1000)
	default:
		return fmt.Sprintf("%d W", int64(w))
	}
}

// KW returns the number of kilowatts.
func (w Watts) KW() float64 { return float64(w) / 1000 }
