package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/capacity"
	"github.com/flobe99/svb-chicken.backend/internal/clock"
	"github.com/flobe99/svb-chicken.backend/internal/domain"
	"github.com/flobe99/svb-chicken.backend/internal/metrics"
	"github.com/flobe99/svb-chicken.backend/internal/pricing"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	repo      OrderRepository
	settings  SettingsReader
	publisher Publisher
	clock     clock.Clock
	idem      IdempotencyStore
	logger    *slog.Logger
	seq       *sequencer
}

func NewOrderService(repo OrderRepository, settings SettingsReader, publisher Publisher, clk clock.Clock, opts ...OrderServiceOption) *OrderService {
	svc := &OrderService{
		repo:      repo,
		settings:  settings,
		publisher: publisher,
		clock:     clk,
		logger:    slog.Default(),
		seq:       newSequencer(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type OrderServiceOption func(*OrderService)

// WithIdempotency enables Idempotency-Key handling on CreateOrder.
func WithIdempotency(store IdempotencyStore) OrderServiceOption {
	return func(s *OrderService) {
		s.idem = store
	}
}

func WithLogger(l *slog.Logger) OrderServiceOption {
	return func(s *OrderService) {
		if l != nil {
			s.logger = l
		}
	}
}

// OrderDraft holds the customer-supplied fields of a new order.
type OrderDraft struct {
	FirstName   string
	LastName    string
	Mail        string
	PhoneNumber string
	Date        time.Time
	Quantities  domain.Quantities
	Note        string
}

func (d OrderDraft) validate() error {
	if d.Date.IsZero() {
		return domain.ErrTimestampRequired
	}
	return d.Quantities.Validate()
}

func (d OrderDraft) order() domain.Order {
	return domain.Order{
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Mail:        d.Mail,
		PhoneNumber: d.PhoneNumber,
		Date:        d.Date,
		Quantities:  d.Quantities,
		Note:        d.Note,
		Status:      domain.StatusCreated,
	}
}

type CreateOrderInput struct {
	OrderDraft
	IdempotencyKey string
}

type CreateOrderResult struct {
	Order   domain.Order
	Created bool
}

// CreateOrder admits, prices and stores a new order, then announces ORDER_CREATED.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if err := in.validate(); err != nil {
		return CreateOrderResult{}, err
	}

	useIdem := s.idem != nil && in.IdempotencyKey != ""
	if useIdem {
		if existing, ok, err := s.recall(ctx, in.IdempotencyKey); err != nil {
			return CreateOrderResult{}, err
		} else if ok {
			return CreateOrderResult{Order: existing, Created: false}, nil
		}
		locked, err := s.idem.TryLock(ctx, in.IdempotencyKey)
		if err != nil {
			return CreateOrderResult{}, err
		}
		if !locked {
			return CreateOrderResult{}, domain.ErrIdempotencyInProgress
		}
	}

	now := s.clock.Now()
	order := in.order()
	order.ID = newOrderID()
	order.CreatedAt = now
	order.UpdatedAt = now

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		price, err := s.admit(txCtx, order)
		if err != nil {
			return err
		}
		order.Price = price
		return s.repo.CreateOrder(txCtx, order)
	})
	if err != nil {
		if useIdem {
			if ferr := s.idem.Forget(ctx, in.IdempotencyKey); ferr != nil {
				s.logger.Warn("release idempotency key", "error", ferr)
			}
		}
		return CreateOrderResult{}, err
	}

	metrics.OrdersAdmitted.WithLabelValues("create").Inc()
	s.publish(order)

	if useIdem {
		if err := s.idem.Remember(ctx, in.IdempotencyKey, order.ID); err != nil {
			s.logger.Warn("remember idempotency key", "order_id", order.ID, "error", err)
		}
	}
	return CreateOrderResult{Order: order, Created: true}, nil
}

func (s *OrderService) recall(ctx context.Context, key string) (domain.Order, bool, error) {
	id, ok, err := s.idem.Recall(ctx, key)
	if err != nil || !ok {
		return domain.Order{}, false, err
	}
	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, domain.ErrOrderNotFound) {
		// The order was deleted; release the key so it can be reused.
		if err := s.idem.Forget(ctx, key); err != nil {
			return domain.Order{}, false, err
		}
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, err
	}
	return order, true, nil
}

// UpdateOrderInput carries a partial update; nil fields are left unchanged.
type UpdateOrderInput struct {
	ID          string
	FirstName   *string
	LastName    *string
	Mail        *string
	PhoneNumber *string
	Date        *time.Time
	Chicken     *int
	Nuggets     *int
	Fries       *int
	Note        *string
	Status      *domain.Status

	// CheckedInSet marks that checked_in_at was sent; a nil CheckedInAt then clears it.
	CheckedInSet bool
	CheckedInAt  *time.Time
}

func (in UpdateOrderInput) apply(o *domain.Order) {
	if in.FirstName != nil {
		o.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		o.LastName = *in.LastName
	}
	if in.Mail != nil {
		o.Mail = *in.Mail
	}
	if in.PhoneNumber != nil {
		o.PhoneNumber = *in.PhoneNumber
	}
	if in.Date != nil {
		o.Date = *in.Date
	}
	if in.Chicken != nil {
		o.Chicken = *in.Chicken
	}
	if in.Nuggets != nil {
		o.Nuggets = *in.Nuggets
	}
	if in.Fries != nil {
		o.Fries = *in.Fries
	}
	if in.Note != nil {
		o.Note = *in.Note
	}
	if in.CheckedInSet {
		if in.CheckedInAt == nil {
			o.ClearCheckIn()
		} else {
			at := *in.CheckedInAt
			o.CheckedInAt = &at
		}
	}
}

// UpdateOrder re-admits and re-prices the changed order. On violations the
// stored order is left untouched.
func (s *OrderService) UpdateOrder(ctx context.Context, in UpdateOrderInput) (domain.Order, error) {
	if in.ID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}
	if in.Date != nil && in.Date.IsZero() {
		return domain.Order{}, domain.ErrTimestampRequired
	}

	unlock := s.seq.lock(in.ID)
	defer unlock()

	now := s.clock.Now()
	var updated domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetOrderForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}

		working := current
		in.apply(&working)
		if err := working.Quantities.Validate(); err != nil {
			return err
		}

		price, err := s.admit(txCtx, working)
		if err != nil {
			return err
		}
		working.Price = price

		if in.Status != nil {
			working.ApplyStatus(*in.Status, now)
		}
		working.UpdatedAt = now

		if err := s.repo.UpdateOrder(txCtx, working); err != nil {
			return err
		}
		updated = working
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	metrics.OrdersAdmitted.WithLabelValues("update").Inc()
	s.publish(updated)
	return updated, nil
}

// DeleteOrder removes the order regardless of status. No event is published.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	return s.repo.DeleteOrder(ctx, id)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if id == "" {
		return domain.Order{}, domain.ErrInvalidID
	}
	return s.repo.GetOrder(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, status *domain.Status) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx, status)
}

// ValidateOrder runs the admission checks without writing or publishing.
// It returns the violations, empty when the order would be admitted.
func (s *OrderService) ValidateOrder(ctx context.Context, draft OrderDraft) ([]domain.Violation, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	return s.evaluate(ctx, draft.order())
}

// QuotePrice prices quantities against the current catalog without storing anything.
func (s *OrderService) QuotePrice(ctx context.Context, q domain.Quantities) (decimal.Decimal, error) {
	if err := q.Validate(); err != nil {
		return decimal.Zero, err
	}
	products, err := s.settings.ListProducts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Price(q, pricing.CatalogFromProducts(products)), nil
}

// admit locks the candidate's bucket, checks it and returns its price.
func (s *OrderService) admit(ctx context.Context, candidate domain.Order) (decimal.Decimal, error) {
	if err := s.repo.LockBuckets(ctx, clock.BucketOf(candidate.Date).Key()); err != nil {
		return decimal.Zero, err
	}

	violations, err := s.evaluate(ctx, candidate)
	if err != nil {
		return decimal.Zero, err
	}
	if len(violations) > 0 {
		return decimal.Zero, &domain.ViolationError{Violations: violations}
	}

	products, err := s.settings.ListProducts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Price(candidate.Quantities, pricing.CatalogFromProducts(products)), nil
}

func (s *OrderService) evaluate(ctx context.Context, candidate domain.Order) ([]domain.Violation, error) {
	window, err := s.settings.FindWindowContaining(ctx, candidate.Date)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.GetActiveCapacityConfig(ctx)
	if err != nil {
		return nil, err
	}
	bucket := clock.BucketOf(candidate.Date)
	existing, err := s.repo.FindOrdersBetween(ctx, bucket.Start, bucket.End)
	if err != nil {
		return nil, err
	}

	violations, err := capacity.Check(capacity.Input{
		Candidate: candidate,
		Window:    window,
		Config:    cfg,
		Existing:  existing,
	})
	if err != nil {
		return nil, err
	}
	for _, v := range violations {
		metrics.OrderViolations.WithLabelValues(string(v.Code)).Inc()
	}
	return violations, nil
}

func (s *OrderService) publish(order domain.Order) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(order.Status.EventType(), NewOrderPayload(order))
}
