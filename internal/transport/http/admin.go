package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/domain"
)

// SlotService is the minimal interface needed for slot window endpoints.
type SlotService interface {
	ListSlots(ctx context.Context) ([]domain.SlotWindow, error)
	GetSlot(ctx context.Context, id int64) (domain.SlotWindow, error)
	CreateSlot(ctx context.Context, slot domain.SlotWindow) (domain.SlotWindow, error)
	UpdateSlot(ctx context.Context, slot domain.SlotWindow) (domain.SlotWindow, error)
	DeleteSlot(ctx context.Context, id int64) error
}

// CapacityConfigService is the minimal interface needed for the capacity config endpoint.
type CapacityConfigService interface {
	GetCapacityConfig(ctx context.Context) (domain.CapacityConfig, error)
	SetCapacityConfig(ctx context.Context, maxima domain.Quantities) (domain.CapacityConfig, error)
}

type ProductLister interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type slotRequest struct {
	Label      string `json:"label"`
	RangeStart string `json:"range_start"`
	RangeEnd   string `json:"range_end"`
}

func (req slotRequest) slot(loc *time.Location) (domain.SlotWindow, error) {
	start, err := parseTimestamp(req.RangeStart, loc)
	if err != nil {
		return domain.SlotWindow{}, err
	}
	end, err := parseTimestamp(req.RangeEnd, loc)
	if err != nil {
		return domain.SlotWindow{}, err
	}
	return domain.SlotWindow{Label: req.Label, Start: start, End: end}, nil
}

type slotResponse struct {
	ID         int64     `json:"id"`
	Label      string    `json:"label"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
}

func newSlotResponse(s domain.SlotWindow) slotResponse {
	return slotResponse{ID: s.ID, Label: s.Label, RangeStart: s.Start, RangeEnd: s.End}
}

// HandleSlots returns an HTTP handler for slot window listing and creation.
func HandleSlots(svc SlotService, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			slots, err := svc.ListSlots(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			resp := make([]slotResponse, 0, len(slots))
			for _, s := range slots {
				resp = append(resp, newSlotResponse(s))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			var req slotRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			slot, err := req.slot(loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidTimestamp, err.Error())
				return
			}
			created, err := svc.CreateSlot(r.Context(), slot)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, newSlotResponse(created))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleSlot returns an HTTP handler for reading, replacing and deleting one slot window.
func HandleSlot(svc SlotService, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidID, domain.ErrInvalidID.Error())
			return
		}

		switch r.Method {
		case http.MethodGet:
			slot, err := svc.GetSlot(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, newSlotResponse(slot))
		case http.MethodPut:
			var req slotRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			slot, err := req.slot(loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidTimestamp, err.Error())
				return
			}
			slot.ID = id
			updated, err := svc.UpdateSlot(r.Context(), slot)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, newSlotResponse(updated))
		case http.MethodDelete:
			if err := svc.DeleteSlot(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, successResponse{Success: true})
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

type capacityConfigRequest struct {
	Chicken int `json:"chicken"`
	Nuggets int `json:"nuggets"`
	Fries   int `json:"fries"`
}

type capacityConfigResponse struct {
	ID int64 `json:"id"`
	quantitiesResponse
}

// HandleCapacityConfig returns an HTTP handler for reading and replacing the active capacity config.
func HandleCapacityConfig(svc CapacityConfigService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg, err := svc.GetCapacityConfig(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, capacityConfigResponse{ID: cfg.ID, quantitiesResponse: newQuantitiesResponse(cfg.Max)})
		case http.MethodPut:
			var req capacityConfigRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			cfg, err := svc.SetCapacityConfig(r.Context(), domain.Quantities{Chicken: req.Chicken, Nuggets: req.Nuggets, Fries: req.Fries})
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, capacityConfigResponse{ID: cfg.ID, quantitiesResponse: newQuantitiesResponse(cfg.Max)})
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

type productResponse struct {
	ID      int64       `json:"id"`
	Product string      `json:"product"`
	Name    string      `json:"name"`
	Price   json.Number `json:"price"`
}

// HandleListProducts returns an HTTP handler for GET /products.
func HandleListProducts(svc ProductLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]productResponse, 0, len(products))
		for _, p := range products {
			resp = append(resp, productResponse{
				ID:      p.ID,
				Product: p.Category,
				Name:    p.Name,
				Price:   json.Number(p.Price.StringFixed(2)),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
