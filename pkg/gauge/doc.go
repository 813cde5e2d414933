// Package gauge estimates instantaneous power draw from meters that
// only report a cumulative, monotonically increasing energy counter.
//
// Overview
//
//   - WattGauge:
//     a single-direction estimator. Feed it (time, watt-hour total)
//     pairs as often as you can (about once per second is ideal); read
//     the damped watt estimate whenever you like. The gauge keeps a
//     three-slot window (window start, previous sample, latest sample)
//     and only publishes a new average once the window holds enough
//     ticks or enough elapsed time to bound the relative error.
//
//   - EnergyGauge:
//     composes two WattGauges for bidirectional (import/export) meters
//     such as households with solar. The direction whose counter moved
//     most recently wins; export is reported as negative watts. It also
//     carries the hysteresis rule deciding whether a fresh reading
//     differs enough from the last published one to be worth acting on.
//
// Timestamps are unsigned milliseconds from an arbitrary, possibly
// wrapping source (an embedded millis() counter is fine). All time math
// is done with unsigned subtraction so a wrap self-corrects; do not
// convert it to signed comparisons.
//
// The estimator degrades instead of failing:
//
//   - too few samples: the previous estimate is held, never recomputed
//     from noise;
//   - a counter stall longer than 30 s: the estimate decays toward zero
//     as if a single watt-hour were spread over the silent interval;
//   - total silence longer than 300 s: the estimate is forced to zero;
//   - a long flat baseline followed by a burst: the stale baseline slot
//     is dropped so the estimate tracks the new load within a sample or
//     two.
//
// Gauges are plain in-memory values with no locking; an instance is
// owned by the single loop that feeds and reads it. Wrap access in a
// mutex yourself if you must share one across goroutines.
//
// Example: one gauge per direction, publish every 30 s
//
//	/*
//	var eg gauge.EnergyGauge
//
//	feed := time.NewTicker(time.Second)
//	report := time.NewTicker(30 * time.Second)
//	for {
//	    select {
//	    case <-feed.C:
//	        r, err := src.Read(ctx) // meter.Source
//	        if err != nil { continue }
//	        eg.FeedPositive(r.TimeMillis, r.ImportWh)
//	        eg.FeedNegative(r.TimeMillis, r.ExportWh)
//	    case <-report.C:
//	        if eg.HasSignificantChange() {
//	            publish(eg.Power())
//	            eg.Reset()
//	        }
//	    }
//	}
//	*/
//
// See also pkg/meter for reading the counters over an optical serial
// head and pkg/pub for the MQTT side.
package gauge
