package gauge

// idleBandWatts is the dead band around zero: coming from an idle
// reading, anything inside (-idleBandWatts, idleBandWatts) is noise.
const idleBandWatts = 20

// Relative-change bounds for the hysteresis rule; a new reading inside
// (lowFactor, highFactor) times the previous one is not worth
// republishing.
const (
	lowFactor  = 0.6
	highFactor = 1.6
)

// EnergyGauge reports net instantaneous power for meters that can run
// in both directions, e.g. a grid connection with solar export. It owns
// one WattGauge per direction; the direction whose counter moved most
// recently is the one physically active, so its estimate wins and the
// other's stale value never bleeds into the result.
//
// The zero value is ready to use.
type EnergyGauge struct {
	positive WattGauge
	negative WattGauge
	prevWatt int64 // net power captured at the last Reset
}

// FeedPositive records a positive-direction (import) watt-hour total.
func (e *EnergyGauge) FeedPositive(timeMillis, totalWh uint64) {
	e.positive.Feed(timeMillis, totalWh)
}

// FeedNegative records a negative-direction (export) watt-hour total.
func (e *EnergyGauge) FeedNegative(timeMillis, totalWh uint64) {
	e.negative.Feed(timeMillis, totalWh)
}

// PositiveEnergyTotal returns the latest import watt-hour total.
func (e *EnergyGauge) PositiveEnergyTotal() uint64 { return e.positive.EnergyTotal() }

// NegativeEnergyTotal returns the latest export watt-hour total.
func (e *EnergyGauge) NegativeEnergyTotal() uint64 { return e.negative.EnergyTotal() }

// Power returns the net estimate in watts, negative when exporting.
// The result is always exactly one inner gauge's value (possibly
// negated), never a blend of the two.
func (e *EnergyGauge) Power() int64 {
	if e.positive.SinceLastChange() < e.negative.SinceLastChange() {
		return e.positive.Power()
	}
	return -e.negative.Power()
}

// HasSignificantChange reports whether the current net power differs
// enough from the value captured at the last Reset to be worth
// publishing. It rate-limits downstream telemetry without suppressing
// real swings: a sign flip always qualifies, small wobble around idle
// never does, and otherwise the reading must leave the
// (lowFactor, highFactor) relative band.
func (e *EnergyGauge) HasSignificantChange() bool {
	watt := e.Power()
	switch {
	case (e.prevWatt > 0 && watt < 0) || (e.prevWatt < 0 && watt > 0):
		return true
	case e.prevWatt == 0:
		return watt <= -idleBandWatts || watt >= idleBandWatts
	default:
		factor := float64(watt) / float64(e.prevWatt)
		return factor <= lowFactor || factor >= highFactor
	}
}

// Reset captures the current net power for the next hysteresis
// comparison and starts a new measurement interval on both directions.
// Call it after consuming a reading.
func (e *EnergyGauge) Reset() {
	e.prevWatt = e.Power()
	e.positive.Reset()
	e.negative.Reset()
}
