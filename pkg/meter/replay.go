package meter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ReplaySource feeds captured meter rows back through the Source
// interface, for offline estimation runs and tests.
type ReplaySource struct {
	rows []Reading
	next int
}

// NewReplay parses a CSV capture with rows of
//
//	time,import_wh[,export_wh]
//
// where time is either a millisecond count or a wall stamp such as
// "10:11:00.988" (converted to milliseconds since midnight, which is
// all the gauges need since they only subtract). A header row is
// skipped if present.
func NewReplay(r io.Reader) (*ReplaySource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []Reading
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrBadFrame, line, len(rec))
		}
		ts, err := parseCaptureTime(rec[0])
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		imp, err := strconv.ParseUint(strings.TrimSpace(rec[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: import: %w", line, err)
		}
		var exp uint64
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			if exp, err = strconv.ParseUint(strings.TrimSpace(rec[2]), 10, 64); err != nil {
				return nil, fmt.Errorf("line %d: export: %w", line, err)
			}
		}
		rows = append(rows, Reading{TimeMillis: ts, ImportWh: imp, ExportWh: exp})
	}
	return &ReplaySource{rows: rows}, nil
}

// Read returns the next captured row, or ErrExhausted when the capture
// is spent.
func (s *ReplaySource) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	if s.next >= len(s.rows) {
		return Reading{}, ErrExhausted
	}
	r := s.rows[s.next]
	s.next++
	return r, nil
}

// Len returns the number of captured rows.
func (s *ReplaySource) Len() int { return len(s.rows) }

// Close is a no-op; a replay holds no resources.
func (s *ReplaySource) Close() error { return nil }

// parseCaptureTime accepts either raw milliseconds or a wall stamp.
func parseCaptureTime(field string) (uint64, error) {
	field = strings.TrimSpace(field)
	if ms, err := strconv.ParseUint(field, 10, 64); err == nil {
		return ms, nil
	}
	for _, layout := range []string{"15:04:05.000", "15:04:05"} {
		ts, err := time.Parse(layout, field)
		if err != nil {
			continue
		}
		secs := (ts.Hour()*60+ts.Minute())*60 + ts.Second()
		return uint64(secs)*1000 + uint64(ts.Nanosecond()/1e6), nil
	}
	return 0, fmt.Errorf("%w: bad time %q", ErrBadFrame, field)
}
