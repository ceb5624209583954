package news

import (
	"time"

	"github.com/deusflow/ainews/internal/logger"
)

// FilterFresh keeps items published no earlier than now-maxAge, preserving order.
//
// Publish times are compared as naive wall clocks in now's location: any offset
// carried by the item is dropped, not converted. A zero publish time means the
// feed gave none: the item is kept with its publish time set to now, so merging
// and ranking see the same time the filter did.
func FilterFresh(log logger.Logger, items []RawItem, maxAge time.Duration, now time.Time) []RawItem {
	cutoff := now.Add(-maxAge)
	log.Info("Filtering stale news",
		logger.Duration("max_age", maxAge),
		logger.Time("cutoff", cutoff))

	fresh := make([]RawItem, 0, len(items))
	for _, item := range items {
		if item.PublishTime.IsZero() {
			item.PublishTime = now
		}
		if !naive(item.PublishTime, now.Location()).Before(cutoff) {
			fresh = append(fresh, item)
		}
	}

	log.Info("Freshness filter done",
		logger.Int("discarded", len(items)-len(fresh)),
		logger.Int("remaining", len(fresh)))
	return fresh
}

// naive re-labels t's wall clock with loc.
func naive(t time.Time, loc *time.Location) time.Time {
	if t.Location() == loc {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
