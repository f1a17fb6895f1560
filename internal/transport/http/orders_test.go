package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/app"
	"github.com/flobe99/svb-chicken.backend/internal/domain"
	"github.com/shopspring/decimal"
)

var berlin = mustLocation("Europe/Berlin")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type stubOrderService struct {
	createIn  app.CreateOrderInput
	createRes app.CreateOrderResult
	createErr error

	updateIn  app.UpdateOrderInput
	updateOut domain.Order
	updateErr error

	deleteErr error

	order    domain.Order
	getErr   error
	orders   []domain.Order
	listedBy *domain.Status

	violations  []domain.Violation
	validateErr error
	validated   bool

	price decimal.Decimal

	summary    app.Summary
	summaryErr error
	from, to   time.Time
}

func (s *stubOrderService) CreateOrder(_ context.Context, in app.CreateOrderInput) (app.CreateOrderResult, error) {
	s.createIn = in
	return s.createRes, s.createErr
}

func (s *stubOrderService) UpdateOrder(_ context.Context, in app.UpdateOrderInput) (domain.Order, error) {
	s.updateIn = in
	return s.updateOut, s.updateErr
}

func (s *stubOrderService) DeleteOrder(_ context.Context, _ string) error {
	return s.deleteErr
}

func (s *stubOrderService) GetOrder(_ context.Context, _ string) (domain.Order, error) {
	return s.order, s.getErr
}

func (s *stubOrderService) ListOrders(_ context.Context, status *domain.Status) ([]domain.Order, error) {
	s.listedBy = status
	return s.orders, nil
}

func (s *stubOrderService) ValidateOrder(_ context.Context, _ app.OrderDraft) ([]domain.Violation, error) {
	s.validated = true
	return s.violations, s.validateErr
}

func (s *stubOrderService) QuotePrice(_ context.Context, _ domain.Quantities) (decimal.Decimal, error) {
	return s.price, nil
}

func (s *stubOrderService) Summarize(_ context.Context, from, to time.Time) (app.Summary, error) {
	s.from, s.to = from, to
	return s.summary, s.summaryErr
}

func sampleOrder() domain.Order {
	return domain.Order{
		ID:         "7b8f8f0e-1a2b-4c3d-9e8f-0a1b2c3d4e5f",
		FirstName:  "Max",
		Date:       time.Date(2025, 6, 14, 18, 0, 0, 0, berlin),
		Quantities: domain.Quantities{Chicken: 2, Nuggets: 1, Fries: 3},
		Status:     domain.StatusCreated,
		Price:      decimal.RequireFromString("19.005"),
	}
}

func TestHandleCreateOrder_Created(t *testing.T) {
	svc := &stubOrderService{createRes: app.CreateOrderResult{Order: sampleOrder(), Created: true}}
	body := []byte(`{"firstname":"Max","date":"2025-06-14T18:00","chicken":2,"nuggets":1,"fries":3,"price":99}`)
	req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewBuffer(body))
	req.Header.Set("Idempotency-Key", " key-1 ")
	rec := httptest.NewRecorder()

	HandleCreateOrder(svc, berlin).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createIn.IdempotencyKey != "key-1" {
		t.Fatalf("expected trimmed idempotency key, got %q", svc.createIn.IdempotencyKey)
	}
	want := time.Date(2025, 6, 14, 18, 0, 0, 0, berlin)
	if !svc.createIn.Date.Equal(want) {
		t.Fatalf("expected naive date read in stand timezone %v, got %v", want, svc.createIn.Date)
	}

	var resp struct {
		Success bool `json:"success"`
		Order   struct {
			ID     string      `json:"id"`
			Status string      `json:"status"`
			Price  json.Number `json:"price"`
		} `json:"order"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Order.Status != "CREATED" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Order.Price != "19.01" {
		t.Fatalf("expected price rounded for display, got %s", resp.Order.Price)
	}
}

func TestHandleCreateOrder_Replay(t *testing.T) {
	svc := &stubOrderService{createRes: app.CreateOrderResult{Order: sampleOrder(), Created: false}}
	req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewBufferString(`{"date":"2025-06-14T18:00:00+02:00"}`))
	rec := httptest.NewRecorder()

	HandleCreateOrder(svc, berlin).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 on replay, got %d", rec.Code)
	}
}

func TestHandleCreateOrder_Errors(t *testing.T) {
	rejected := &domain.ViolationError{Violations: []domain.Violation{
		{Code: domain.ViolationMisalignedTime, Detail: "minute 7"},
		{Code: domain.ViolationChickenLimit, Detail: "11 > 10"},
	}}

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCodes  []string
	}{
		{
			name:       "invalid body",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantCodes:  []string{codeInvalidRequestBody},
		},
		{
			name:       "missing date",
			body:       `{"chicken":1}`,
			wantStatus: http.StatusBadRequest,
			wantCodes:  []string{codeInvalidTimestamp},
		},
		{
			name:       "violations are all reported",
			body:       `{"date":"2025-06-14T18:07","chicken":3}`,
			err:        rejected,
			wantStatus: http.StatusBadRequest,
			wantCodes:  []string{"MISALIGNED_TIME", "CHICKEN_LIMIT"},
		},
		{
			name:       "config missing",
			body:       `{"date":"2025-06-14T18:00"}`,
			err:        domain.ErrCapacityConfigMissing,
			wantStatus: http.StatusInternalServerError,
			wantCodes:  []string{codeConfigMissing},
		},
		{
			name:       "idempotency in progress",
			body:       `{"date":"2025-06-14T18:00"}`,
			err:        domain.ErrIdempotencyInProgress,
			wantStatus: http.StatusConflict,
			wantCodes:  []string{codeIdempotencyConflict},
		},
		{
			name:       "unexpected failure",
			body:       `{"date":"2025-06-14T18:00"}`,
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
			wantCodes:  []string{codeInternalError},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubOrderService{createErr: tt.err}
			req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleCreateOrder(svc, berlin).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Success {
				t.Fatalf("expected success false")
			}
			if len(resp.Errors) != len(tt.wantCodes) {
				t.Fatalf("expected %d errors, got %+v", len(tt.wantCodes), resp.Errors)
			}
			for i, code := range tt.wantCodes {
				if resp.Errors[i].Code != code {
					t.Fatalf("expected code %s at %d, got %s", code, i, resp.Errors[i].Code)
				}
			}
		})
	}
}

func TestHandleUpdateOrder_MapsFields(t *testing.T) {
	svc := &stubOrderService{updateOut: sampleOrder()}
	body := `{"status":"checked_in","fries":0,"checked_in_at":null}`

	mux := http.NewServeMux()
	mux.Handle("PUT /order/{id}", HandleUpdateOrder(svc, berlin))
	req := httptest.NewRequest(http.MethodPut, "/order/abc", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.updateIn
	if in.ID != "abc" {
		t.Fatalf("expected id from path, got %q", in.ID)
	}
	if in.Status == nil || *in.Status != domain.StatusCheckedIn {
		t.Fatalf("expected status CHECKED_IN, got %v", in.Status)
	}
	if in.Fries == nil || *in.Fries != 0 {
		t.Fatalf("expected explicit fries 0, got %v", in.Fries)
	}
	if in.Chicken != nil || in.Date != nil {
		t.Fatalf("expected absent fields to stay nil")
	}
	if !in.CheckedInSet || in.CheckedInAt != nil {
		t.Fatalf("expected explicit null to clear check-in, got set=%v at=%v", in.CheckedInSet, in.CheckedInAt)
	}
}

func TestHandleUpdateOrder_AbsentCheckInLeavesStamp(t *testing.T) {
	svc := &stubOrderService{updateOut: sampleOrder()}
	mux := http.NewServeMux()
	mux.Handle("PUT /order/{id}", HandleUpdateOrder(svc, berlin))
	req := httptest.NewRequest(http.MethodPut, "/order/abc", bytes.NewBufferString(`{"note":"x"}`))
	mux.ServeHTTP(httptest.NewRecorder(), req)

	if svc.updateIn.CheckedInSet {
		t.Fatalf("expected check-in untouched when field absent")
	}
}

func TestHandleUpdateOrder_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "unknown status", body: `{"status":"EATEN"}`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidStatus},
		{name: "bad date", body: `{"date":"tomorrow"}`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidTimestamp},
		{name: "not found", body: `{}`, err: domain.ErrOrderNotFound, wantStatus: http.StatusNotFound, wantCode: codeOrderNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubOrderService{updateErr: tt.err}
			mux := http.NewServeMux()
			mux.Handle("PUT /order/{id}", HandleUpdateOrder(svc, berlin))
			req := httptest.NewRequest(http.MethodPut, "/order/abc", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(resp.Errors) != 1 || resp.Errors[0].Code != tt.wantCode {
				t.Fatalf("expected code %s, got %+v", tt.wantCode, resp.Errors)
			}
		})
	}
}

func TestHandleDeleteOrder(t *testing.T) {
	mux := http.NewServeMux()
	svc := &stubOrderService{}
	mux.Handle("DELETE /order/{id}", HandleDeleteOrder(svc))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/order/abc", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"success\":true}\n" {
		t.Fatalf("unexpected delete response %d %q", rec.Code, rec.Body.String())
	}

	svc.deleteErr = domain.ErrOrderNotFound
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/order/abc", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleListOrders_StatusFilter(t *testing.T) {
	svc := &stubOrderService{orders: []domain.Order{sampleOrder()}}
	rec := httptest.NewRecorder()
	HandleListOrders(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?status=paid", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.listedBy == nil || *svc.listedBy != domain.StatusPaid {
		t.Fatalf("expected PAID filter, got %v", svc.listedBy)
	}
	var orders []app.OrderPayload
	if err := json.NewDecoder(rec.Body).Decode(&orders); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	rec = httptest.NewRecorder()
	HandleListOrders(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?status=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleValidateOrder(t *testing.T) {
	svc := &stubOrderService{}
	rec := httptest.NewRecorder()
	HandleValidateOrder(svc, berlin).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate-order", bytes.NewBufferString(`{"date":"2025-06-14T18:00"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var ok validateResponse
	if err := json.NewDecoder(rec.Body).Decode(&ok); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !ok.Valid {
		t.Fatalf("expected valid true")
	}

	svc.violations = []domain.Violation{{Code: domain.ViolationSlotOutOfRange, Detail: "closed"}}
	rec = httptest.NewRecorder()
	HandleValidateOrder(svc, berlin).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate-order", bytes.NewBufferString(`{"date":"2025-06-14T18:00"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	var bad validateResponse
	if err := json.NewDecoder(rec.Body).Decode(&bad); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if bad.Valid || len(bad.Errors) != 1 || bad.Errors[0].Code != "SLOT_OUT_OF_RANGE" {
		t.Fatalf("unexpected response: %+v", bad)
	}
}

func TestHandleQuotePrice(t *testing.T) {
	svc := &stubOrderService{price: decimal.RequireFromString("19")}
	rec := httptest.NewRecorder()
	HandleQuotePrice(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/order/price", bytes.NewBufferString(`{"chicken":2,"nuggets":1,"fries":3}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"price\":19.00}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestHandleOrderSummary(t *testing.T) {
	start := time.Date(2025, 6, 14, 17, 0, 0, 0, berlin)
	svc := &stubOrderService{summary: app.Summary{
		Buckets: []app.BucketTotals{
			{Start: start, Totals: domain.Quantities{Chicken: 2}},
			{Start: start.Add(15 * time.Minute), Totals: domain.Quantities{Fries: 1}},
		},
		Total: domain.Quantities{Chicken: 2, Fries: 1},
	}}
	rec := httptest.NewRecorder()
	HandleOrderSummary(svc, berlin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/summary?date=2025-06-14&interval=17:00-17:15", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.from.Equal(start) || !svc.to.Equal(start.Add(15*time.Minute)) {
		t.Fatalf("unexpected interval %v - %v", svc.from, svc.to)
	}
	var resp summaryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Slots) != 2 || resp.Slots[1].Time != "17:15" || resp.Slots[1].Fries != 1 {
		t.Fatalf("unexpected slots: %+v", resp.Slots)
	}
	if resp.Total.Chicken != 2 || resp.Total.Fries != 1 {
		t.Fatalf("unexpected total: %+v", resp.Total)
	}

	rec = httptest.NewRecorder()
	HandleOrderSummary(svc, berlin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/summary?date=2025-06-14&interval=18:00-17:00", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for reversed interval, got %d", rec.Code)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2025-06-14T18:00:00Z", want: time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)},
		{in: "2025-06-14T18:00", want: time.Date(2025, 6, 14, 18, 0, 0, 0, berlin)},
		{in: "2025-06-14 18:15:30", want: time.Date(2025, 6, 14, 18, 15, 30, 0, berlin)},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.in, berlin)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("parse %q: expected %v, got %v", tt.in, tt.want, got)
		}
	}
	if _, err := parseTimestamp("", berlin); err == nil {
		t.Fatalf("expected error for empty timestamp")
	}
}
