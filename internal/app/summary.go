package app

import (
	"context"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/capacity"
	"github.com/flobe99/svb-chicken.backend/internal/clock"
	"github.com/flobe99/svb-chicken.backend/internal/domain"
)

type BucketTotals struct {
	Start  time.Time
	Totals domain.Quantities
}

type Summary struct {
	Buckets []BucketTotals
	Total   domain.Quantities
}

// Summarize tallies the quantities of orders dated from through to, both
// inclusive, per bucket for every bucket from the one containing from up to
// the one containing to.
func (s *OrderService) Summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	buckets := clock.BucketsBetween(from, to)
	if len(buckets) == 0 {
		return Summary{}, domain.ErrInvalidSlotRange
	}

	// Stored dates carry microsecond precision.
	orders, err := s.repo.FindOrdersBetween(ctx, from, to.Add(time.Microsecond))
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Buckets: make([]BucketTotals, 0, len(buckets))}
	for _, b := range buckets {
		totals := capacity.Consumed(b, orders, "")
		summary.Buckets = append(summary.Buckets, BucketTotals{Start: b.Start, Totals: totals})
		summary.Total = summary.Total.Add(totals)
	}
	return summary, nil
}
