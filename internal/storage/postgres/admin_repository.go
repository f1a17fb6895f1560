package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AdminRepository stores slot windows, the capacity config and reads the catalog.
type AdminRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

func NewAdminRepository(pool *pgxpool.Pool, loc *time.Location) *AdminRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminRepository{pool: pool, loc: loc}
}

func (r *AdminRepository) ListSlots(ctx context.Context) ([]domain.SlotWindow, error) {
	const query = `
SELECT id, label, range_start, range_end
FROM slots
ORDER BY range_start ASC, id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.SlotWindow
	for rows.Next() {
		slot, err := r.scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate slots: %w", rows.Err())
	}
	return slots, nil
}

func (r *AdminRepository) GetSlot(ctx context.Context, id int64) (domain.SlotWindow, error) {
	const query = `SELECT id, label, range_start, range_end FROM slots WHERE id = $1`
	slot, err := r.scanSlot(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SlotWindow{}, domain.ErrSlotNotFound
		}
		return domain.SlotWindow{}, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

// FindWindowContaining picks the earliest-starting window when several overlap.
func (r *AdminRepository) FindWindowContaining(ctx context.Context, t time.Time) (*domain.SlotWindow, error) {
	const query = `
SELECT id, label, range_start, range_end
FROM slots
WHERE range_start <= $1 AND range_end >= $1
ORDER BY range_start ASC, id ASC
LIMIT 1`
	slot, err := r.scanSlot(conn(ctx, r.pool).QueryRow(ctx, query, t))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find slot window: %w", err)
	}
	return &slot, nil
}

func (r *AdminRepository) CreateSlot(ctx context.Context, slot domain.SlotWindow) (domain.SlotWindow, error) {
	const stmt = `
INSERT INTO slots (label, range_start, range_end)
VALUES ($1, $2, $3)
RETURNING id`
	if err := conn(ctx, r.pool).QueryRow(ctx, stmt, slot.Label, slot.Start, slot.End).Scan(&slot.ID); err != nil {
		if isCheckViolation(err) {
			return domain.SlotWindow{}, domain.ErrInvalidSlotRange
		}
		return domain.SlotWindow{}, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

func (r *AdminRepository) UpdateSlot(ctx context.Context, slot domain.SlotWindow) error {
	const stmt = `UPDATE slots SET label = $2, range_start = $3, range_end = $4 WHERE id = $1`
	tag, err := conn(ctx, r.pool).Exec(ctx, stmt, slot.ID, slot.Label, slot.Start, slot.End)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInvalidSlotRange
		}
		return fmt.Errorf("update slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSlotNotFound
	}
	return nil
}

func (r *AdminRepository) DeleteSlot(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSlotNotFound
	}
	return nil
}

// GetActiveCapacityConfig returns the lowest-id config row, or nil when the table is empty.
func (r *AdminRepository) GetActiveCapacityConfig(ctx context.Context) (*domain.CapacityConfig, error) {
	const query = `SELECT id, chicken, nuggets, fries FROM capacity_config ORDER BY id ASC LIMIT 1`
	var cfg domain.CapacityConfig
	err := conn(ctx, r.pool).QueryRow(ctx, query).Scan(&cfg.ID, &cfg.Max.Chicken, &cfg.Max.Nuggets, &cfg.Max.Fries)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get capacity config: %w", err)
	}
	return &cfg, nil
}

func (r *AdminRepository) SaveCapacityConfig(ctx context.Context, cfg domain.CapacityConfig) (domain.CapacityConfig, error) {
	err := withTx(ctx, r.pool, func(txCtx context.Context) error {
		db := conn(txCtx, r.pool)
		err := db.QueryRow(txCtx, `SELECT id FROM capacity_config ORDER BY id ASC LIMIT 1 FOR UPDATE`).Scan(&cfg.ID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return db.QueryRow(txCtx,
				`INSERT INTO capacity_config (chicken, nuggets, fries) VALUES ($1, $2, $3) RETURNING id`,
				cfg.Max.Chicken, cfg.Max.Nuggets, cfg.Max.Fries,
			).Scan(&cfg.ID)
		case err != nil:
			return err
		}
		_, err = db.Exec(txCtx,
			`UPDATE capacity_config SET chicken = $2, nuggets = $3, fries = $4 WHERE id = $1`,
			cfg.ID, cfg.Max.Chicken, cfg.Max.Nuggets, cfg.Max.Fries,
		)
		return err
	})
	if err != nil {
		if isCheckViolation(err) {
			return domain.CapacityConfig{}, domain.ErrInvalidCapacity
		}
		return domain.CapacityConfig{}, fmt.Errorf("save capacity config: %w", err)
	}
	return cfg, nil
}

func (r *AdminRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const query = `SELECT id, product, name, price::text FROM products ORDER BY id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p     domain.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Category, &p.Name, &price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse product price %q: %w", price, err)
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return products, nil
}

func (r *AdminRepository) scanSlot(row pgx.Row) (domain.SlotWindow, error) {
	var slot domain.SlotWindow
	if err := row.Scan(&slot.ID, &slot.Label, &slot.Start, &slot.End); err != nil {
		return domain.SlotWindow{}, err
	}
	slot.Start = slot.Start.In(r.loc)
	slot.End = slot.End.In(r.loc)
	return slot, nil
}
