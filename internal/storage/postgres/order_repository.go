package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// bucketLockSpace is the first key of the two-key advisory lock used for buckets.
const bucketLockSpace int32 = 4711

const orderColumns = `id, firstname, lastname, mail, phonenumber, date, chicken, nuggets, fries,
note, status, price::text, checked_in_at, created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewOrderRepository returns a repository that reports timestamps in loc (UTC when nil).
func NewOrderRepository(pool *pgxpool.Pool, loc *time.Location) *OrderRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderRepository{pool: pool, loc: loc}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockBuckets takes transaction-scoped advisory locks in ascending key order.
func (r *OrderRepository) LockBuckets(ctx context.Context, keys ...int64) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errors.New("lock buckets: no transaction in context")
	}

	sorted := append([]int64(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1::int4, $2::int4)`, bucketLockSpace, int32(key)); err != nil {
			return fmt.Errorf("lock bucket %d: %w", key, err)
		}
	}
	return nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, o domain.Order) error {
	const stmt = `
INSERT INTO orders (id, firstname, lastname, mail, phonenumber, date, chicken, nuggets, fries,
	note, status, price, checked_in_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::numeric, $13, $14, $15)`

	_, err := conn(ctx, r.pool).Exec(ctx, stmt,
		o.ID,
		o.FirstName,
		o.LastName,
		o.Mail,
		o.PhoneNumber,
		o.Date,
		o.Chicken,
		o.Nuggets,
		o.Fries,
		o.Note,
		string(o.Status),
		o.Price.String(),
		o.CheckedInAt,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidQuantity
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.getOrder(ctx, query, id)
}

func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, id string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOrder(ctx, query, id)
}

func (r *OrderRepository) getOrder(ctx context.Context, query, id string) (domain.Order, error) {
	o, err := r.scanOrder(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) UpdateOrder(ctx context.Context, o domain.Order) error {
	const stmt = `
UPDATE orders SET
	firstname = $2, lastname = $3, mail = $4, phonenumber = $5, date = $6,
	chicken = $7, nuggets = $8, fries = $9, note = $10, status = $11,
	price = $12::numeric, checked_in_at = $13, updated_at = $14
WHERE id = $1`

	tag, err := conn(ctx, r.pool).Exec(ctx, stmt,
		o.ID,
		o.FirstName,
		o.LastName,
		o.Mail,
		o.PhoneNumber,
		o.Date,
		o.Chicken,
		o.Nuggets,
		o.Fries,
		o.Note,
		string(o.Status),
		o.Price.String(),
		o.CheckedInAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrOrderNotFound
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidQuantity
		}
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, status *domain.Status) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY date ASC, created_at ASC`
	return r.queryOrders(ctx, "list orders", query, args...)
}

func (r *OrderRepository) FindOrdersBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE date >= $1 AND date < $2 ORDER BY date ASC, created_at ASC`
	return r.queryOrders(ctx, "find orders between", query, from, to)
}

func (r *OrderRepository) queryOrders(ctx context.Context, op, query string, args ...any) ([]domain.Order, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate orders: %w", rows.Err())
	}
	return orders, nil
}

func (r *OrderRepository) scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o     domain.Order
		price string
	)
	err := row.Scan(
		&o.ID,
		&o.FirstName,
		&o.LastName,
		&o.Mail,
		&o.PhoneNumber,
		&o.Date,
		&o.Chicken,
		&o.Nuggets,
		&o.Fries,
		&o.Note,
		&o.Status,
		&price,
		&o.CheckedInAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	if o.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Order{}, fmt.Errorf("parse price %q: %w", price, err)
	}

	o.Date = o.Date.In(r.loc)
	o.CreatedAt = o.CreatedAt.In(r.loc)
	o.UpdatedAt = o.UpdatedAt.In(r.loc)
	if o.CheckedInAt != nil {
		at := o.CheckedInAt.In(r.loc)
		o.CheckedInAt = &at
	}
	return o, nil
}
