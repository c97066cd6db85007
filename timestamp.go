package gelf

import "time"

// GELF timestamps are seconds since the Unix epoch, UTC, with optional decimal
// places for sub-second precision. Events are truncated to milliseconds:
//
//	2024-03-01T12:00:00.123456789Z -> 1709294400.123
//
//	ref: https://go2docs.graylog.org/current/getting_in_log_data/gelf.html
func unixTimestamp(t time.Time) float64 {
	return float64(t.UTC().UnixMilli()) / 1e3
}

// timeFromUnixTimestamp reverses unixTimestamp, to the millisecond.
func timeFromUnixTimestamp(ts float64) time.Time {
	ms := int64(ts*1e3 + 0.5)
	if ts < 0 {
		ms = int64(ts*1e3 - 0.5)
	}
	return time.UnixMilli(ms).UTC()
}
