// Package meter reads cumulative energy registers from utility meters
// and hands them to the gauge layer as plain (time, watt-hours)
// samples. The serial backend speaks IEC 62056-21 mode C over an
// optical head; the replay backend feeds captured rows back for
// offline estimation and tests.
package meter

import (
	"context"
	"time"
)

// Reading is one sample of the meter's cumulative registers.
type Reading struct {
	// TimeMillis is when the sample was taken, in milliseconds from an
	// arbitrary monotonic origin.
	TimeMillis uint64

	// ImportWh is the 1.8.0 register: energy delivered to the
	// premises, in watt-hours.
	ImportWh uint64

	// ExportWh is the 2.8.0 register: energy fed back to the grid, in
	// watt-hours. Zero on one-way meters.
	ExportWh uint64
}

// Source produces readings. Implementations block until a reading is
// available or the context is done.
type Source interface {
	Read(ctx context.Context) (Reading, error)
	Close() error
}

// Clock is a monotonic millisecond time source. The origin is
// arbitrary; only differences matter, and a wrapping source (an
// embedded millis() counter) is fine because the gauges subtract
// unsigned.
type Clock interface {
	Millis() uint64
}

// WallClock derives milliseconds from the process monotonic clock.
type WallClock struct {
	start time.Time
}

// NewWallClock returns a Clock anchored at the current instant.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// Millis returns milliseconds elapsed since the clock was created.
func (c *WallClock) Millis() uint64 {
	return uint64(time.Since(c.start).Milliseconds())
}
