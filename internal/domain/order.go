package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the menu item kinds that capacity is tracked for.
type Category string

const (
	CategoryChicken Category = "chicken"
	CategoryNuggets Category = "nuggets"
	CategoryFries   Category = "fries"
)

// Categories lists every tracked category in a stable order.
var Categories = []Category{CategoryChicken, CategoryNuggets, CategoryFries}

// Quantities holds a count per category.
type Quantities struct {
	Chicken int
	Nuggets int
	Fries   int
}

// Of returns the count for c, zero for an unknown category.
func (q Quantities) Of(c Category) int {
	switch c {
	case CategoryChicken:
		return q.Chicken
	case CategoryNuggets:
		return q.Nuggets
	case CategoryFries:
		return q.Fries
	}
	return 0
}

func (q Quantities) Add(o Quantities) Quantities {
	return Quantities{
		Chicken: q.Chicken + o.Chicken,
		Nuggets: q.Nuggets + o.Nuggets,
		Fries:   q.Fries + o.Fries,
	}
}

func (q Quantities) Validate() error {
	if q.Chicken < 0 || q.Nuggets < 0 || q.Fries < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Order is a customer order for a fulfillment time.
type Order struct {
	ID          string
	FirstName   string
	LastName    string
	Mail        string
	PhoneNumber string
	Date        time.Time
	Quantities
	Note        string
	Status      Status
	Price       decimal.Decimal
	CheckedInAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplyStatus moves the order to next. Any known status may follow any other.
// Entering CHECKED_IN from another status stamps CheckedInAt with now;
// leaving CHECKED_IN keeps the stamp.
func (o *Order) ApplyStatus(next Status, now time.Time) {
	if next == StatusCheckedIn && o.Status != StatusCheckedIn {
		at := now
		o.CheckedInAt = &at
	}
	o.Status = next
}

func (o *Order) ClearCheckIn() {
	o.CheckedInAt = nil
}
