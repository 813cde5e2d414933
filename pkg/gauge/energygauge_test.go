package gauge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// importing feeds an EnergyGauge a clean 1000 W import profile
// (10 Wh over 36 s) with a flat export counter, then consumes the
// reading so the hysteresis baseline is 1000 W.
func importing(t *testing.T) *EnergyGauge {
	t.Helper()
	var e EnergyGauge
	feeds := []struct{ ts, wh uint64 }{
		{0, 0}, {18_000, 5}, {36_000, 10},
	}
	for _, f := range feeds {
		e.FeedPositive(f.ts, f.wh)
		e.FeedNegative(f.ts, 0)
	}
	require.EqualValues(t, 1000, e.Power())
	e.Reset()
	return &e
}

func TestEnergyGauge_FreshestDirectionWins(t *testing.T) {
	var e EnergyGauge

	// Both directions idle: net power is zero.
	assert.EqualValues(t, 0, e.Power())

	// Import runs at 720 W (6 Wh over 30 s), export flat.
	for _, f := range []struct{ ts, wh uint64 }{
		{0, 0}, {15_000, 3}, {30_000, 6},
	} {
		e.FeedPositive(f.ts, f.wh)
		e.FeedNegative(f.ts, 0)
	}
	assert.EqualValues(t, 720, e.Power())

	// The sun comes out: import freezes, export starts moving. As soon
	// as the export counter is the fresher one its (negated) estimate
	// wins; the stale import value must not bleed through.
	for _, f := range []struct{ ts, wh uint64 }{
		{45_000, 2}, {60_000, 5}, {90_000, 11},
	} {
		e.FeedPositive(f.ts, 6)
		e.FeedNegative(f.ts, f.wh)
	}
	t.Logf("net after export ramp: %d W", e.Power())
	assert.EqualValues(t, -(11 * 3_600_000 / 90_000), e.Power())

	// Always exactly one inner gauge's value, never a blend.
	assert.Contains(t,
		[]int64{e.positive.Power(), -e.negative.Power()}, e.Power())
}

func TestEnergyGauge_SignificantOnLeavingIdle(t *testing.T) {
	var e EnergyGauge

	// Identical import advances, flat export: no reading qualifies as
	// significant until the power estimate first leaves the idle band.
	crossed := false
	var wh uint64
	for ts := uint64(0); ts <= 25_000; ts += 2_500 {
		e.FeedPositive(ts, 1000+wh)
		e.FeedNegative(ts, 0)
		wh++

		if !crossed && e.Power() == 0 {
			assert.False(t, e.HasSignificantChange(),
				"flat estimate at t=%dms must not be significant", ts)
			continue
		}
		if !crossed {
			crossed = true
			t.Logf("estimate left idle at t=%dms: %d W", ts, e.Power())
			require.GreaterOrEqual(t, e.Power(), int64(idleBandWatts))
		}
		assert.True(t, e.HasSignificantChange())
	}
	require.True(t, crossed, "gate never opened; sequence too short")
}

func TestEnergyGauge_IdleBandSwallowsSmallReadings(t *testing.T) {
	var e EnergyGauge

	// 2 Wh over 500 s is 14 W: inside (-20, 20), still "idle". The
	// estimate only exists at all thanks to the unconditional 300 s
	// arm of the window gate.
	for _, f := range []struct{ ts, wh uint64 }{
		{0, 0}, {250_000, 1}, {500_000, 2},
	} {
		e.FeedPositive(f.ts, f.wh)
		e.FeedNegative(f.ts, 0)
	}

	require.EqualValues(t, 14, e.Power())
	assert.False(t, e.HasSignificantChange())
}

func TestEnergyGauge_RelativeBand(t *testing.T) {
	t.Run("within band is not significant", func(t *testing.T) {
		e := importing(t)
		// 14 Wh over the 36 s window: 1400 W, factor 1.4.
		e.FeedPositive(54_000, 19)
		e.FeedNegative(54_000, 0)
		require.EqualValues(t, 1400, e.Power())
		assert.False(t, e.HasSignificantChange())
	})

	t.Run("upper bound is significant", func(t *testing.T) {
		e := importing(t)
		// 16 Wh over 36 s: 1600 W, factor 1.6 leaves the open band.
		e.FeedPositive(54_000, 21)
		e.FeedNegative(54_000, 0)
		require.EqualValues(t, 1600, e.Power())
		assert.True(t, e.HasSignificantChange())
	})

	t.Run("collapse is significant", func(t *testing.T) {
		e := importing(t)
		// 6 Wh over 78 s: 276 W, factor well under 0.6.
		e.FeedPositive(96_000, 11)
		e.FeedNegative(96_000, 0)
		require.EqualValues(t, 276, e.Power())
		assert.True(t, e.HasSignificantChange())
	})

	t.Run("sign flip is significant", func(t *testing.T) {
		e := importing(t)
		// Export takes over: net power goes negative.
		e.FeedPositive(60_000, 10)
		e.FeedNegative(60_000, 5)
		require.Negative(t, e.Power())
		assert.True(t, e.HasSignificantChange())
	})
}

func TestEnergyGauge_ResetCapturesBaseline(t *testing.T) {
	e := importing(t)

	// Nothing moved since Reset: the same reading is not significant,
	// and repeated reads agree with each other.
	for i := 0; i < 3; i++ {
		assert.EqualValues(t, 1000, e.Power())
		assert.False(t, e.HasSignificantChange())
	}

	assert.EqualValues(t, 10, e.PositiveEnergyTotal())
	assert.EqualValues(t, 0, e.NegativeEnergyTotal())
}
