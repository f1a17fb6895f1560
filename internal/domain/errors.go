package domain

import (
	"errors"
	"strings"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrSlotNotFound          = errors.New("slot window not found")
	ErrCapacityConfigMissing = errors.New("no capacity configuration found")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidID             = errors.New("invalid id")
	ErrTimestampRequired     = errors.New("timestamp required")
	ErrInvalidSlotRange      = errors.New("slot range start must not be after end")
	ErrInvalidCapacity       = errors.New("capacity maxima must not be negative")
	ErrIdempotencyInProgress = errors.New("request with this idempotency key is in progress")
)

type ViolationCode string

const (
	ViolationSlotOutOfRange ViolationCode = "SLOT_OUT_OF_RANGE"
	ViolationMisalignedTime ViolationCode = "MISALIGNED_TIME"
	ViolationChickenLimit   ViolationCode = "CHICKEN_LIMIT"
	ViolationNuggetsLimit   ViolationCode = "NUGGETS_LIMIT"
	ViolationFriesLimit     ViolationCode = "FRIES_LIMIT"
)

// Violation is a user-correctable reason an order was not admitted.
type Violation struct {
	Code   ViolationCode
	Detail string
}

// ViolationError rejects an admission and carries every rule it broke.
type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	codes := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		codes = append(codes, string(v.Code))
	}
	return "order rejected: " + strings.Join(codes, ", ")
}

// Has reports whether code is among the violations.
func (e *ViolationError) Has(code ViolationCode) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}
