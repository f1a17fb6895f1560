package app

import (
	"context"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockBuckets serializes admissions per bucket until the surrounding tx ends.
	LockBuckets(ctx context.Context, keys ...int64) error
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	GetOrderForUpdate(ctx context.Context, id string) (domain.Order, error)
	UpdateOrder(ctx context.Context, order domain.Order) error
	DeleteOrder(ctx context.Context, id string) error
	ListOrders(ctx context.Context, status *domain.Status) ([]domain.Order, error)
	// FindOrdersBetween returns orders with from <= date < to.
	FindOrdersBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error)
}

// SettingsReader is the read side of the operator configuration.
type SettingsReader interface {
	// GetActiveCapacityConfig returns nil, nil when no config exists.
	GetActiveCapacityConfig(ctx context.Context) (*domain.CapacityConfig, error)
	// FindWindowContaining returns nil, nil when no window matches.
	FindWindowContaining(ctx context.Context, t time.Time) (*domain.SlotWindow, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Publisher receives committed order events.
type Publisher interface {
	Publish(event string, data any)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key, orderID string) error
	Recall(ctx context.Context, key string) (string, bool, error)
	Forget(ctx context.Context, key string) error
}
