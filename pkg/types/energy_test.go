package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWattHours_Humanized_Boundaries(t *testing.T) {
	cases := []struct {
		in   WattHours
		want string
	}{
		{WattHours(0), "0 Wh"},
		{WattHours(999), "999 Wh"},
		{WattHours(1000), "1.000 kWh"},
		{WattHours(33130260), "33.13 MWh"}, // a lifetime register
		{WattHours(999_999), "999.999 kWh"},
		{WattHours(1_000_000), "1.00 MWh"},
		{WattHours(1_000_000_000), "1.00 GWh"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d_%d", i, uint64(tc.in)), func(t *testing.T) {
			require.Equal(t, tc.want, tc.in.Humanized())
		})
	}
}

func TestWattHours_UnitAccessors(t *testing.T) {
	assert.InDelta(t, 1.0, WattHours(1000).KWh(), 1e-12)
	assert.InDelta(t, 1.5, WattHours(1500).KWh(), 1e-12)
	assert.InDelta(t, 33.13026, WattHours(33130260).MWh(), 1e-9)
}

func TestWatts_Humanized(t *testing.T) {
	cases := []struct {
		in   Watts
		want string
	}{
		{Watts(0), "0 W"},
		{Watts(19), "19 W"},
		{Watts(-19), "-19 W"},
		{Watts(999), "999 W"},
		{Watts(1062), "1.06 kW"},
		{Watts(-1062), "-1.06 kW"},
		{Watts(2_500_000), "2.50 MW"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.Humanized())
	}
}

func TestWatts_KW(t *testing.T) {
	assert.InDelta(t, 1.062, Watts(1062).KW(), 1e-12)
	assert.InDelta(t, -0.3, Watts(-300).KW(), 1e-12)
}
