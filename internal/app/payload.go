package app

import (
	"encoding/json"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/domain"
	"github.com/flobe99/svb-chicken.backend/internal/pricing"
)

// OrderPayload is the plain-data order used in responses and feed events.
type OrderPayload struct {
	ID          string      `json:"id"`
	FirstName   string      `json:"firstname"`
	LastName    string      `json:"lastname"`
	Mail        string      `json:"mail"`
	PhoneNumber string      `json:"phonenumber"`
	Date        time.Time   `json:"date"`
	Chicken     int         `json:"chicken"`
	Nuggets     int         `json:"nuggets"`
	Fries       int         `json:"fries"`
	Note        string      `json:"note"`
	Status      string      `json:"status"`
	Price       json.Number `json:"price"`
	CheckedInAt *time.Time  `json:"checked_in_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func NewOrderPayload(o domain.Order) OrderPayload {
	return OrderPayload{
		ID:          o.ID,
		FirstName:   o.FirstName,
		LastName:    o.LastName,
		Mail:        o.Mail,
		PhoneNumber: o.PhoneNumber,
		Date:        o.Date,
		Chicken:     o.Chicken,
		Nuggets:     o.Nuggets,
		Fries:       o.Fries,
		Note:        o.Note,
		Status:      string(o.Status),
		Price:       json.Number(pricing.Display(o.Price).StringFixed(2)),
		CheckedInAt: o.CheckedInAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
