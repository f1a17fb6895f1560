package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/domain"
)

type fakeAdminRepo struct {
	slots  map[int64]domain.SlotWindow
	nextID int64
	config *domain.CapacityConfig
	saved  int
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{slots: make(map[int64]domain.SlotWindow)}
}

func (f *fakeAdminRepo) ListSlots(context.Context) ([]domain.SlotWindow, error) {
	out := make([]domain.SlotWindow, 0, len(f.slots))
	for _, s := range f.slots {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeAdminRepo) GetSlot(_ context.Context, id int64) (domain.SlotWindow, error) {
	s, ok := f.slots[id]
	if !ok {
		return domain.SlotWindow{}, domain.ErrSlotNotFound
	}
	return s, nil
}

func (f *fakeAdminRepo) CreateSlot(_ context.Context, slot domain.SlotWindow) (domain.SlotWindow, error) {
	f.nextID++
	slot.ID = f.nextID
	f.slots[slot.ID] = slot
	return slot, nil
}

func (f *fakeAdminRepo) UpdateSlot(_ context.Context, slot domain.SlotWindow) error {
	if _, ok := f.slots[slot.ID]; !ok {
		return domain.ErrSlotNotFound
	}
	f.slots[slot.ID] = slot
	return nil
}

func (f *fakeAdminRepo) DeleteSlot(_ context.Context, id int64) error {
	if _, ok := f.slots[id]; !ok {
		return domain.ErrSlotNotFound
	}
	delete(f.slots, id)
	return nil
}

func (f *fakeAdminRepo) GetActiveCapacityConfig(context.Context) (*domain.CapacityConfig, error) {
	return f.config, nil
}

func (f *fakeAdminRepo) SaveCapacityConfig(_ context.Context, cfg domain.CapacityConfig) (domain.CapacityConfig, error) {
	f.saved++
	cfg.ID = 1
	f.config = &cfg
	return cfg, nil
}

func (f *fakeAdminRepo) ListProducts(context.Context) ([]domain.Product, error) {
	return nil, nil
}

func TestAdminService_CreateSlot_ValidatesRange(t *testing.T) {
	repo := newFakeAdminRepo()
	svc := NewAdminService(repo)
	ctx := context.Background()
	start := time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC)

	_, err := svc.CreateSlot(ctx, domain.SlotWindow{Start: start, End: start.Add(-time.Minute)})
	if !errors.Is(err, domain.ErrInvalidSlotRange) {
		t.Fatalf("expected ErrInvalidSlotRange, got %v", err)
	}

	_, err = svc.CreateSlot(ctx, domain.SlotWindow{Start: start})
	if !errors.Is(err, domain.ErrTimestampRequired) {
		t.Fatalf("expected ErrTimestampRequired, got %v", err)
	}

	got, err := svc.CreateSlot(ctx, domain.SlotWindow{Label: "single instant", Start: start, End: start})
	if err != nil {
		t.Fatalf("expected zero-length window to be accepted, got %v", err)
	}
	if got.ID == 0 {
		t.Fatalf("expected slot ID to be set")
	}
	if len(repo.slots) != 1 {
		t.Fatalf("expected one stored slot, got %d", len(repo.slots))
	}
}

func TestAdminService_SlotIDs(t *testing.T) {
	svc := NewAdminService(newFakeAdminRepo())
	ctx := context.Background()
	start := time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC)

	if _, err := svc.GetSlot(ctx, 0); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := svc.DeleteSlot(ctx, -1); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.UpdateSlot(ctx, domain.SlotWindow{ID: 9, Start: start, End: start}); !errors.Is(err, domain.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
	if err := svc.DeleteSlot(ctx, 9); !errors.Is(err, domain.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestAdminService_CapacityConfig(t *testing.T) {
	repo := newFakeAdminRepo()
	svc := NewAdminService(repo)
	ctx := context.Background()

	if _, err := svc.GetCapacityConfig(ctx); !errors.Is(err, domain.ErrCapacityConfigMissing) {
		t.Fatalf("expected ErrCapacityConfigMissing, got %v", err)
	}

	if _, err := svc.SetCapacityConfig(ctx, domain.Quantities{Chicken: -1}); !errors.Is(err, domain.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if repo.saved != 0 {
		t.Fatalf("expected invalid config not to be saved")
	}

	want := domain.Quantities{Chicken: 10, Nuggets: 20, Fries: 30}
	if _, err := svc.SetCapacityConfig(ctx, want); err != nil {
		t.Fatalf("set config: %v", err)
	}
	got, err := svc.GetCapacityConfig(ctx)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if got.Max != want {
		t.Fatalf("expected %+v, got %+v", want, got.Max)
	}
}
