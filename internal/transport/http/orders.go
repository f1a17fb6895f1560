package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/app"
	"github.com/flobe99/svb-chicken.backend/internal/domain"
	"github.com/flobe99/svb-chicken.backend/internal/pricing"
	"github.com/shopspring/decimal"
)

// OrderCreator is the minimal interface needed to create orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in app.CreateOrderInput) (app.CreateOrderResult, error)
}

// OrderUpdater is the minimal interface needed to update orders.
type OrderUpdater interface {
	UpdateOrder(ctx context.Context, in app.UpdateOrderInput) (domain.Order, error)
}

type OrderDeleter interface {
	DeleteOrder(ctx context.Context, id string) error
}

type OrderReader interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context, status *domain.Status) ([]domain.Order, error)
}

type OrderValidator interface {
	ValidateOrder(ctx context.Context, draft app.OrderDraft) ([]domain.Violation, error)
}

type PriceQuoter interface {
	QuotePrice(ctx context.Context, q domain.Quantities) (decimal.Decimal, error)
}

type OrderSummarizer interface {
	Summarize(ctx context.Context, from, to time.Time) (app.Summary, error)
}

type orderRequest struct {
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Mail        string `json:"mail"`
	PhoneNumber string `json:"phonenumber"`
	Date        string `json:"date"`
	Chicken     int    `json:"chicken"`
	Nuggets     int    `json:"nuggets"`
	Fries       int    `json:"fries"`
	Note        string `json:"note"`
}

func (req orderRequest) draft(loc *time.Location) (app.OrderDraft, error) {
	date, err := parseTimestamp(req.Date, loc)
	if err != nil {
		return app.OrderDraft{}, err
	}
	return app.OrderDraft{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Mail:        req.Mail,
		PhoneNumber: req.PhoneNumber,
		Date:        date,
		Quantities:  domain.Quantities{Chicken: req.Chicken, Nuggets: req.Nuggets, Fries: req.Fries},
		Note:        req.Note,
	}, nil
}

// decodeOrderBody ignores unknown fields; clients send back whole order objects.
func decodeOrderBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

type orderResponse struct {
	Success bool             `json:"success"`
	Order   app.OrderPayload `json:"order"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// HandleCreateOrder returns an HTTP handler for POST /order.
func HandleCreateOrder(svc OrderCreator, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := decodeOrderBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		draft, err := req.draft(loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTimestamp, err.Error())
			return
		}

		res, err := svc.CreateOrder(r.Context(), app.CreateOrderInput{
			OrderDraft:     draft,
			IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		status := http.StatusCreated
		if !res.Created {
			status = http.StatusOK
		}
		writeJSON(w, status, orderResponse{Success: true, Order: app.NewOrderPayload(res.Order)})
	}
}

// optionalString tells an absent field apart from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type updateOrderRequest struct {
	FirstName   *string        `json:"firstname"`
	LastName    *string        `json:"lastname"`
	Mail        *string        `json:"mail"`
	PhoneNumber *string        `json:"phonenumber"`
	Date        *string        `json:"date"`
	Chicken     *int           `json:"chicken"`
	Nuggets     *int           `json:"nuggets"`
	Fries       *int           `json:"fries"`
	Note        *string        `json:"note"`
	Status      *string        `json:"status"`
	CheckedInAt optionalString `json:"checked_in_at"`
}

func (req updateOrderRequest) input(id string, loc *time.Location) (app.UpdateOrderInput, string, error) {
	in := app.UpdateOrderInput{
		ID:          id,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Mail:        req.Mail,
		PhoneNumber: req.PhoneNumber,
		Chicken:     req.Chicken,
		Nuggets:     req.Nuggets,
		Fries:       req.Fries,
		Note:        req.Note,
	}
	if req.Date != nil {
		date, err := parseTimestamp(*req.Date, loc)
		if err != nil {
			return app.UpdateOrderInput{}, codeInvalidTimestamp, err
		}
		in.Date = &date
	}
	if req.Status != nil {
		status, err := domain.ParseStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		if err != nil {
			return app.UpdateOrderInput{}, codeInvalidStatus, err
		}
		in.Status = &status
	}
	if req.CheckedInAt.Set {
		in.CheckedInSet = true
		if v := req.CheckedInAt.Value; v != nil && strings.TrimSpace(*v) != "" {
			at, err := parseTimestamp(*v, loc)
			if err != nil {
				return app.UpdateOrderInput{}, codeInvalidTimestamp, err
			}
			in.CheckedInAt = &at
		}
	}
	return in, "", nil
}

// HandleUpdateOrder returns an HTTP handler for PUT /order/{id}.
func HandleUpdateOrder(svc OrderUpdater, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateOrderRequest
		if err := decodeOrderBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		in, code, err := req.input(r.PathValue("id"), loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, code, err.Error())
			return
		}

		order, err := svc.UpdateOrder(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: app.NewOrderPayload(order)})
	}
}

// HandleDeleteOrder returns an HTTP handler for DELETE /order/{id}.
func HandleDeleteOrder(svc OrderDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// HandleGetOrder returns an HTTP handler for GET /order/{id}.
func HandleGetOrder(svc OrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.GetOrder(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: app.NewOrderPayload(order)})
	}
}

// HandleListOrders returns an HTTP handler for GET /orders with an optional status filter.
func HandleListOrders(svc OrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter *domain.Status
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := domain.ParseStatus(strings.ToUpper(raw))
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
				return
			}
			filter = &status
		}

		orders, err := svc.ListOrders(r.Context(), filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]app.OrderPayload, 0, len(orders))
		for _, o := range orders {
			resp = append(resp, app.NewOrderPayload(o))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type validateResponse struct {
	Valid   bool       `json:"valid"`
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors,omitempty"`
}

// HandleValidateOrder returns an HTTP handler for the POST /validate-order dry run.
func HandleValidateOrder(svc OrderValidator, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := decodeOrderBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		draft, err := req.draft(loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTimestamp, err.Error())
			return
		}

		violations, err := svc.ValidateOrder(r.Context(), draft)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if len(violations) > 0 {
			writeJSON(w, http.StatusBadRequest, validateResponse{Errors: violationErrors(violations)})
			return
		}
		writeJSON(w, http.StatusOK, validateResponse{Valid: true, Success: true})
	}
}

type priceRequest struct {
	Chicken int `json:"chicken"`
	Nuggets int `json:"nuggets"`
	Fries   int `json:"fries"`
}

type priceResponse struct {
	Price json.Number `json:"price"`
}

// HandleQuotePrice returns an HTTP handler for POST /order/price.
func HandleQuotePrice(svc PriceQuoter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req priceRequest
		if err := decodeOrderBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		price, err := svc.QuotePrice(r.Context(), domain.Quantities{Chicken: req.Chicken, Nuggets: req.Nuggets, Fries: req.Fries})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, priceResponse{Price: json.Number(pricing.Display(price).StringFixed(2))})
	}
}

type quantitiesResponse struct {
	Chicken int `json:"chicken"`
	Nuggets int `json:"nuggets"`
	Fries   int `json:"fries"`
}

func newQuantitiesResponse(q domain.Quantities) quantitiesResponse {
	return quantitiesResponse{Chicken: q.Chicken, Nuggets: q.Nuggets, Fries: q.Fries}
}

type summarySlot struct {
	Time string `json:"time"`
	quantitiesResponse
}

type summaryResponse struct {
	Date     string             `json:"date"`
	Interval string             `json:"interval"`
	Slots    []summarySlot      `json:"slots"`
	Total    quantitiesResponse `json:"total"`
}

// HandleOrderSummary returns an HTTP handler for GET /orders/summary?date=&interval=.
func HandleOrderSummary(svc OrderSummarizer, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		date, interval := q.Get("date"), q.Get("interval")
		from, to, err := parseInterval(date, interval, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidInterval, err.Error())
			return
		}

		summary, err := svc.Summarize(r.Context(), from, to)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := summaryResponse{
			Date:     date,
			Interval: interval,
			Slots:    make([]summarySlot, 0, len(summary.Buckets)),
			Total:    newQuantitiesResponse(summary.Total),
		}
		for _, b := range summary.Buckets {
			resp.Slots = append(resp.Slots, summarySlot{
				Time:               b.Start.In(loc).Format("15:04"),
				quantitiesResponse: newQuantitiesResponse(b.Totals),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
