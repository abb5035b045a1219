// Counters of vetting activity, bucketed by time period.
//
// Counts are keyed by a name (what happened, eg "join") and a value (usually a guild ID). Every increment lands in an hour, day, and total bucket at once.
package countstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	PeriodTotal = "total"
	PeriodDay   = "day"
	PeriodHour  = "hour"
)

var AllPeriods = []string{PeriodHour, PeriodDay, PeriodTotal}

type CountStore interface {
	GetCount(ctx context.Context, name, val, period string) (int, error)
	Increment(ctx context.Context, name, val string) error
	GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error)
	IncrementDistinct(ctx context.Context, name, bucket, val string) error
}

func periodBucket(name, val, period string, now time.Time) string {
	now = now.UTC()
	switch period {
	case PeriodTotal:
		return fmt.Sprintf("%s/%s", name, val)
	case PeriodDay:
		return fmt.Sprintf("%s/%s/%s", name, val, now.Format(time.DateOnly))
	case PeriodHour:
		return fmt.Sprintf("%s/%s/%s", name, val, now.Format("2006-01-02T15"))
	default:
		slog.Warn("unhandled counter period", "period", period)
		return fmt.Sprintf("%s/%s", name, val)
	}
}

// Current hour, day and total counts for one name/value pair.
type Summary struct {
	Hour  int `json:"hour"`
	Day   int `json:"day"`
	Total int `json:"total"`
}

func Summarize(ctx context.Context, cs CountStore, name, val string) (Summary, error) {
	var s Summary
	var err error
	if s.Hour, err = cs.GetCount(ctx, name, val, PeriodHour); err != nil {
		return s, err
	}
	if s.Day, err = cs.GetCount(ctx, name, val, PeriodDay); err != nil {
		return s, err
	}
	if s.Total, err = cs.GetCount(ctx, name, val, PeriodTotal); err != nil {
		return s, err
	}
	return s, nil
}

func SummarizeDistinct(ctx context.Context, cs CountStore, name, bucket string) (Summary, error) {
	var s Summary
	var err error
	if s.Hour, err = cs.GetCountDistinct(ctx, name, bucket, PeriodHour); err != nil {
		return s, err
	}
	if s.Day, err = cs.GetCountDistinct(ctx, name, bucket, PeriodDay); err != nil {
		return s, err
	}
	if s.Total, err = cs.GetCountDistinct(ctx, name, bucket, PeriodTotal); err != nil {
		return s, err
	}
	return s, nil
}
