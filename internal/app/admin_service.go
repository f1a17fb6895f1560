package app

import (
	"context"

	"github.com/flobe99/svb-chicken.backend/internal/domain"
)

type AdminRepository interface {
	ListSlots(ctx context.Context) ([]domain.SlotWindow, error)
	GetSlot(ctx context.Context, id int64) (domain.SlotWindow, error)
	CreateSlot(ctx context.Context, slot domain.SlotWindow) (domain.SlotWindow, error)
	UpdateSlot(ctx context.Context, slot domain.SlotWindow) error
	DeleteSlot(ctx context.Context, id int64) error
	GetActiveCapacityConfig(ctx context.Context) (*domain.CapacityConfig, error)
	SaveCapacityConfig(ctx context.Context, cfg domain.CapacityConfig) (domain.CapacityConfig, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// AdminService maintains the operator settings that admission depends on.
type AdminService struct {
	repo AdminRepository
}

func NewAdminService(repo AdminRepository) *AdminService {
	return &AdminService{repo: repo}
}

func (s *AdminService) ListSlots(ctx context.Context) ([]domain.SlotWindow, error) {
	return s.repo.ListSlots(ctx)
}

func (s *AdminService) GetSlot(ctx context.Context, id int64) (domain.SlotWindow, error) {
	if id <= 0 {
		return domain.SlotWindow{}, domain.ErrInvalidID
	}
	return s.repo.GetSlot(ctx, id)
}

func (s *AdminService) CreateSlot(ctx context.Context, slot domain.SlotWindow) (domain.SlotWindow, error) {
	if err := slot.Validate(); err != nil {
		return domain.SlotWindow{}, err
	}
	return s.repo.CreateSlot(ctx, slot)
}

func (s *AdminService) UpdateSlot(ctx context.Context, slot domain.SlotWindow) (domain.SlotWindow, error) {
	if slot.ID <= 0 {
		return domain.SlotWindow{}, domain.ErrInvalidID
	}
	if err := slot.Validate(); err != nil {
		return domain.SlotWindow{}, err
	}
	if err := s.repo.UpdateSlot(ctx, slot); err != nil {
		return domain.SlotWindow{}, err
	}
	return slot, nil
}

func (s *AdminService) DeleteSlot(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	return s.repo.DeleteSlot(ctx, id)
}

// GetCapacityConfig returns domain.ErrCapacityConfigMissing when none is stored.
func (s *AdminService) GetCapacityConfig(ctx context.Context) (domain.CapacityConfig, error) {
	cfg, err := s.repo.GetActiveCapacityConfig(ctx)
	if err != nil {
		return domain.CapacityConfig{}, err
	}
	if cfg == nil {
		return domain.CapacityConfig{}, domain.ErrCapacityConfigMissing
	}
	return *cfg, nil
}

// SetCapacityConfig replaces the maxima of the active config, creating it if needed.
func (s *AdminService) SetCapacityConfig(ctx context.Context, maxima domain.Quantities) (domain.CapacityConfig, error) {
	cfg := domain.CapacityConfig{Max: maxima}
	if err := cfg.Validate(); err != nil {
		return domain.CapacityConfig{}, err
	}
	return s.repo.SaveCapacityConfig(ctx, cfg)
}

func (s *AdminService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}
