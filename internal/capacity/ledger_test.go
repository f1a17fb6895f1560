package capacity

import (
	"testing"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/clock"
	"github.com/flobe99/svb-chicken.backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	slot   = time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	window = &domain.SlotWindow{ID: 1, Start: slot.Add(-time.Hour), End: slot.Add(2 * time.Hour)}
	maxima = &domain.CapacityConfig{ID: 1, Max: domain.Quantities{Chicken: 10, Nuggets: 20, Fries: 30}}
)

func codes(violations []domain.Violation) []domain.ViolationCode {
	out := make([]domain.ViolationCode, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Code)
	}
	return out
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		candidate domain.Order
		existing  []domain.Order
		want      []domain.ViolationCode
	}{
		{
			name:      "over chicken limit",
			candidate: domain.Order{Date: slot, Quantities: domain.Quantities{Chicken: 3}},
			existing:  []domain.Order{{ID: "a", Date: slot, Quantities: domain.Quantities{Chicken: 8}}},
			want:      []domain.ViolationCode{domain.ViolationChickenLimit},
		},
		{
			name:      "exactly at every maximum",
			candidate: domain.Order{Date: slot, Quantities: domain.Quantities{Chicken: 10, Nuggets: 20, Fries: 30}},
			want:      []domain.ViolationCode{},
		},
		{
			name:      "misaligned regardless of quantities",
			candidate: domain.Order{Date: slot.Add(7 * time.Minute)},
			want:      []domain.ViolationCode{domain.ViolationMisalignedTime},
		},
		{
			name:      "orders in neighbouring buckets do not count",
			candidate: domain.Order{Date: slot, Quantities: domain.Quantities{Nuggets: 20}},
			existing: []domain.Order{
				{ID: "before", Date: slot.Add(-time.Minute), Quantities: domain.Quantities{Nuggets: 20}},
				{ID: "after", Date: slot.Add(clock.BucketSize), Quantities: domain.Quantities{Nuggets: 20}},
			},
			want: []domain.ViolationCode{},
		},
		{
			name:      "candidate excluded from its own tally",
			candidate: domain.Order{ID: "self", Date: slot, Quantities: domain.Quantities{Fries: 30}},
			existing:  []domain.Order{{ID: "self", Date: slot, Quantities: domain.Quantities{Fries: 30}}},
			want:      []domain.ViolationCode{},
		},
		{
			name:      "zero quantity never violates a full bucket",
			candidate: domain.Order{Date: slot, Quantities: domain.Quantities{Nuggets: 1}},
			existing:  []domain.Order{{ID: "a", Date: slot, Quantities: domain.Quantities{Chicken: 10}}},
			want:      []domain.ViolationCode{},
		},
		{
			name:      "window end is inclusive",
			candidate: domain.Order{Date: window.End},
			want:      []domain.ViolationCode{},
		},
		{
			name:      "after window end",
			candidate: domain.Order{Date: window.End.Add(clock.BucketSize)},
			want:      []domain.ViolationCode{domain.ViolationSlotOutOfRange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := window
			if !w.Contains(tt.candidate.Date) {
				w = nil
			}
			violations, err := Check(Input{
				Candidate: tt.candidate,
				Window:    w,
				Config:    maxima,
				Existing:  tt.existing,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, codes(violations))
		})
	}
}

func TestCheck_NoWindow(t *testing.T) {
	violations, err := Check(Input{Candidate: domain.Order{Date: slot}, Config: maxima})
	require.NoError(t, err)
	assert.Equal(t, []domain.ViolationCode{domain.ViolationSlotOutOfRange}, codes(violations))
}

func TestCheck_MissingConfig(t *testing.T) {
	_, err := Check(Input{Candidate: domain.Order{Date: slot}, Window: window})
	assert.ErrorIs(t, err, domain.ErrCapacityConfigMissing)
}

func TestCheck_ViolationDetail(t *testing.T) {
	violations, err := Check(Input{
		Candidate: domain.Order{Date: slot, Quantities: domain.Quantities{Chicken: 3}},
		Window:    window,
		Config:    maxima,
		Existing:  []domain.Order{{ID: "a", Date: slot, Quantities: domain.Quantities{Chicken: 8}}},
	})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Detail, "8 of 10")
}

func TestConsumed(t *testing.T) {
	bucket := clock.BucketOf(slot)
	orders := []domain.Order{
		{ID: "a", Date: slot, Quantities: domain.Quantities{Chicken: 1, Nuggets: 2}},
		{ID: "b", Date: slot.Add(14 * time.Minute), Quantities: domain.Quantities{Fries: 3}},
		{ID: "c", Date: slot.Add(15 * time.Minute), Quantities: domain.Quantities{Chicken: 100}},
	}

	assert.Equal(t, domain.Quantities{Chicken: 1, Nuggets: 2, Fries: 3}, Consumed(bucket, orders, ""))
	assert.Equal(t, domain.Quantities{Fries: 3}, Consumed(bucket, orders, "a"))
}
