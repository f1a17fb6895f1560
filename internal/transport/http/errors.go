package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flobe99/svb-chicken.backend/internal/domain"
)

const (
	codeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	codeNotFound            = "NOT_FOUND"
	codeInvalidRequestBody  = "INVALID_REQUEST_BODY"
	codeInvalidTimestamp    = "INVALID_TIMESTAMP"
	codeInvalidInterval     = "INVALID_INTERVAL"
	codeInvalidID           = "INVALID_ID"
	codeInvalidQuantity     = "INVALID_QUANTITY"
	codeInvalidStatus       = "INVALID_STATUS"
	codeInvalidSlotRange    = "INVALID_SLOT_RANGE"
	codeInvalidCapacity     = "INVALID_CAPACITY"
	codeOrderNotFound       = "ORDER_NOT_FOUND"
	codeSlotNotFound        = "SLOT_NOT_FOUND"
	codeConfigMissing       = "CONFIG_MISSING"
	codeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
	codeForbidden           = "FORBIDDEN"
	codeInternalError       = "INTERNAL_ERROR"
)

type apiError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type errorResponse struct {
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeErrors(w, status, []apiError{{Code: code, Detail: detail}})
}

func writeErrors(w http.ResponseWriter, status int, errs []apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{Success: false, Errors: errs})
	if err != nil {
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":"INTERNAL_ERROR","detail":"internal error"}]}`))
		return
	}
	_, _ = w.Write(payload)
}

func violationErrors(violations []domain.Violation) []apiError {
	errs := make([]apiError, 0, len(violations))
	for _, v := range violations {
		errs = append(errs, apiError{Code: string(v.Code), Detail: v.Detail})
	}
	return errs
}

// writeServiceError maps a service error onto the HTTP error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ViolationError
	if errors.As(err, &verr) {
		writeErrors(w, http.StatusBadRequest, violationErrors(verr.Violations))
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, codeSlotNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, domain.ErrTimestampRequired):
		writeError(w, http.StatusBadRequest, codeInvalidTimestamp, err.Error())
	case errors.Is(err, domain.ErrInvalidSlotRange):
		writeError(w, http.StatusBadRequest, codeInvalidSlotRange, err.Error())
	case errors.Is(err, domain.ErrInvalidCapacity):
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		writeError(w, http.StatusConflict, codeIdempotencyConflict, err.Error())
	case errors.Is(err, domain.ErrCapacityConfigMissing):
		writeError(w, http.StatusInternalServerError, codeConfigMissing, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, err.Error())
	}
}
