// Package capacity decides whether an order fits into its quarter-hour bucket.
package capacity

import (
	"fmt"

	"github.com/flobe99/svb-chicken.backend/internal/clock"
	"github.com/flobe99/svb-chicken.backend/internal/domain"
)

// Input is everything Check needs; the caller loads it from the stores.
type Input struct {
	Candidate domain.Order

	// Window is the configured slot window containing the candidate time, nil if none.
	Window *domain.SlotWindow

	// Config is the active capacity configuration, nil if none exists.
	Config *domain.CapacityConfig

	// Existing are admitted orders near the candidate's bucket. Orders outside the
	// bucket and the candidate itself (matched by ID) are ignored.
	Existing []domain.Order
}

var limitCodes = map[domain.Category]domain.ViolationCode{
	domain.CategoryChicken: domain.ViolationChickenLimit,
	domain.CategoryNuggets: domain.ViolationNuggetsLimit,
	domain.CategoryFries:   domain.ViolationFriesLimit,
}

// Check returns every violated rule for the candidate. An empty result admits it.
// A missing capacity configuration is returned as domain.ErrCapacityConfigMissing.
func Check(in Input) ([]domain.Violation, error) {
	var violations []domain.Violation
	at := in.Candidate.Date

	if in.Window == nil || !in.Window.Contains(at) {
		violations = append(violations, domain.Violation{
			Code:   domain.ViolationSlotOutOfRange,
			Detail: "order time is outside of the available slots",
		})
	}
	if !clock.IsQuarterHour(at) {
		violations = append(violations, domain.Violation{
			Code:   domain.ViolationMisalignedTime,
			Detail: "order time must be on a quarter hour (e.g. 12:15)",
		})
	}
	if in.Config == nil {
		return nil, domain.ErrCapacityConfigMissing
	}

	bucket := clock.BucketOf(at)
	used := Consumed(bucket, in.Existing, in.Candidate.ID)
	for _, c := range domain.Categories {
		want := in.Candidate.Of(c)
		if want <= 0 {
			continue
		}
		if used.Of(c)+want > in.Config.Max.Of(c) {
			violations = append(violations, domain.Violation{
				Code:   limitCodes[c],
				Detail: fmt.Sprintf("maximum %s quantity for this time slot exceeded (%d of %d used)", c, used.Of(c), in.Config.Max.Of(c)),
			})
		}
	}
	return violations, nil
}

// Consumed sums quantities of the orders inside bucket, skipping excludeID.
func Consumed(bucket clock.Bucket, orders []domain.Order, excludeID string) domain.Quantities {
	var total domain.Quantities
	for _, o := range orders {
		if excludeID != "" && o.ID == excludeID {
			continue
		}
		if !bucket.Contains(o.Date) {
			continue
		}
		total = total.Add(o.Quantities)
	}
	return total
}
