// Package retention holds the pure time-window predicates shared by every
// read and write path, so that "kept" is always a superset of "displayed".
package retention

import "time"

const (
	// DisplayWindowHours is the visibility horizon applied on every read and
	// subscribe emission.
	DisplayWindowHours = 1
	// KeepWindowHours is the storage horizon applied when writing train
	// partitions. Wider than the display window so clients whose clocks lag
	// wall time still find recent entries in storage.
	KeepWindowHours = 6
)

// WithinHours reports whether ts (epoch milliseconds) is at most the given
// number of hours before now. Future timestamps are always within the window;
// the caller's clock is authoritative and no skew adjustment is applied.
func WithinHours(ts int64, now time.Time, hours int) bool {
	return now.UnixMilli()-ts <= int64(hours)*3600*1000
}

// ShouldDisplay reports whether an announcement is fresh enough to show.
func ShouldDisplay(ts int64, now time.Time) bool {
	return WithinHours(ts, now, DisplayWindowHours)
}

// ShouldKeep reports whether an announcement is fresh enough to stay in
// storage. ShouldDisplay implies ShouldKeep.
func ShouldKeep(ts int64, now time.Time) bool {
	return WithinHours(ts, now, KeepWindowHours)
}
