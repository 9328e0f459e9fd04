package extract

import (
	"regexp"
	"time"

	"github.com/daryltucker/daily-bench/internal/harvest"
	"github.com/daryltucker/daily-bench/internal/table"
)

const (
	runIDLayout     = "20060102_150405"
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

var runIDTimestamp = regexp.MustCompile(`\d{8}_\d{6}`)

// ParseRunTimestamp finds the first YYYYMMDD_HHMMSS substring of a run id.
// The second result is false when there is none or it is not a valid time.
func ParseRunTimestamp(runID string) (time.Time, bool) {
	m := runIDTimestamp.FindString(runID)
	if m == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(runIDLayout, m)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// AddTemporalColumns (re)computes run_timestamp and run_date from run_id.
// Rows without a parseable timestamp get empty cells.
func AddTemporalColumns(t *table.Table) {
	t.AddColumns(ColRunTimestamp, ColRunDate)

	for _, r := range t.Rows {
		ts, ok := ParseRunTimestamp(r[harvest.ColRunID])
		if !ok {
			r[ColRunTimestamp] = ""
			r[ColRunDate] = ""
			continue
		}
		r[ColRunTimestamp] = ts.Format(TimestampLayout)
		r[ColRunDate] = ts.Format(DateLayout)
	}
}
