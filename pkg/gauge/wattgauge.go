package gauge

// millisPerHour converts watt-hours over milliseconds to watts:
// 1 Wh spread over 3 600 000 ms is exactly 1 W.
const millisPerHour = 3_600_000

const (
	// stallMillis is how long the counter may sit still before the
	// published estimate starts decaying toward zero.
	stallMillis = 30_000

	// silenceMillis is how long the window may go without a qualifying
	// change before the estimate is forced to zero outright.
	silenceMillis = 300_000

	// flatSpanMillis/flatRiseMax/burstSpanMillis describe the
	// "long flat baseline, then a burst" shape that triggers dropping
	// the stale window start.
	flatSpanMillis  = 60_000
	flatRiseMax     = 1
	burstSpanMillis = 15_000
)

// WattGauge approximates current watt production/consumption from a
// regular feed of absolute (increasing) watt-hour totals, for meters
// that expose no instantaneous register of their own.
//
// The zero value is ready to use. Feed often, read and Reset at your
// reporting cadence; 15 s reporting is fine above roughly a kilowatt,
// lower loads want longer intervals for the window gate to fill.
type WattGauge struct {
	t0, t1, t2 uint64 // window start, previous sample, latest sample
	p0, p1, p2 uint64 // watt-hour totals at t0/t1/t2
	tLast      uint64 // latest feed time, whether or not the counter moved
	watt       int64  // published estimate; held when the window is too thin
	valid      bool   // set by the first feed
}

// enoughValues reports whether the window bounds the relative error
// well enough to trust a fresh average: either several watt-hour ticks
// over a short span, a couple of ticks over a longer one, or so much
// elapsed time that whatever we have is the truth.
func (g *WattGauge) enoughValues() bool {
	span := g.t2 - g.t0
	delta := g.p2 - g.p0
	return (span >= 20_000 && delta >= 6) ||
		(span >= 50_000 && delta >= 2) ||
		span >= 300_000
}

// slide drops the window start: the previous sample becomes the start
// and the latest sample becomes the previous one. The latest slot keeps
// its value until the next feed overwrites it.
func (g *WattGauge) slide() {
	g.t0, g.p0 = g.t1, g.p1
	g.t1, g.p1 = g.t2, g.p2
}

// zeroIfSilent forces the estimate to zero after prolonged silence with
// an under-filled window. Distinct from the 30 s stall decay: this is
// "no load", not "low load".
func (g *WattGauge) zeroIfSilent() {
	if !g.enoughValues() && g.tLast-g.t0 > silenceMillis {
		g.watt = 0
	}
}

// Feed records a fresh (time, watt-hour total) observation. Call it
// whenever a reading is available; calls where the counter did not move
// are still useful, they drive the stall decay. The total must never
// retreat below the last fed value.
func (g *WattGauge) Feed(timeMillis, totalWh uint64) {
	g.tLast = timeMillis

	if !g.valid {
		// First observation ever: seed the whole window. No rate can
		// be derived from a single point.
		g.t0, g.t1, g.t2 = timeMillis, timeMillis, timeMillis
		g.p0, g.p1, g.p2 = totalWh, totalWh, totalWh
		g.watt = 0
		g.valid = true
		return
	}

	if totalWh == g.p2 {
		// Counter stalled; leave the window alone. Once the stall
		// exceeds the threshold, pretend a single watt-hour got spread
		// over the whole silent interval and take that hypothetical
		// rate whenever it is lower than what we currently report.
		// This decays monotonically toward zero instead of freezing a
		// stale high value on screen.
		if stalled := timeMillis - g.t2; stalled > stallMillis {
			if hyp := int64(millisPerHour / stalled); hyp < g.watt {
				g.watt = hyp
			}
		}
		g.zeroIfSilent()
		return
	}

	// The counter advanced: shift the window. Until the first change
	// after construction or a Reset the start and previous slots are
	// identical; in that case the new sample fills both the previous
	// and latest slots.
	if g.t0 == g.t1 {
		g.t1, g.p1 = timeMillis, totalWh
		g.t2, g.p2 = timeMillis, totalWh
	} else {
		g.t1, g.p1 = g.t2, g.p2
		g.t2, g.p2 = timeMillis, totalWh

		// A long, nearly flat first segment followed by a fast one
		// means the load just jumped. Drop the stale baseline so the
		// average tracks the jump within a sample or two; otherwise it
		// would stay diluted for minutes. Only meaningful once the
		// window holds three distinct samples: a slow meter ticking
		// once per few minutes keeps its baseline and is served by the
		// unconditional 300 s arm of the gate instead.
		if g.t1-g.t0 > flatSpanMillis && g.p1-g.p0 <= flatRiseMax &&
			g.t2-g.t1 < burstSpanMillis {
			g.slide()
		}
	}

	if g.enoughValues() {
		g.watt = int64((g.p2 - g.p0) * millisPerHour / (g.t2 - g.t0))
		return
	}
	g.zeroIfSilent()
}

// Reset starts a new measurement interval by sliding the window
// forward. Call it after consuming a reading. When the window is still
// under-sampled Reset does nothing: discarding the only data we have
// would be worse than keeping it. The published estimate is never
// touched; it persists until a later Feed overwrites it.
func (g *WattGauge) Reset() {
	if g.enoughValues() {
		g.slide()
	}
}

// Power returns the current damped estimate in watts.
func (g *WattGauge) Power() int64 { return g.watt }

// EnergyTotal returns the latest fed watt-hour total, regardless of
// window state.
func (g *WattGauge) EnergyTotal() uint64 { return g.p2 }

// SinceLastChange returns how many milliseconds ago the counter last
// actually moved. EnergyGauge uses it to pick the active direction.
func (g *WattGauge) SinceLastChange() uint64 { return g.tLast - g.t2 }
