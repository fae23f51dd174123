package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Scholar-Chain/smart-contract/pkg/domain"

	"github.com/google/uuid"
)

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message, "details": details,
		},
	}
	WriteJSON(w, status, resp)
}

// WriteDomainError maps the escrow error taxonomy onto the wire envelope.
// Unknown errors surface as 500 INTERNAL so store/transport failures are never
// mistaken for caller mistakes.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, 403, "UNAUTHORIZED", err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, 404, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, domain.ErrDuplicateID):
		WriteError(w, 409, "DUPLICATE_ID", err.Error(), nil)
	case errors.Is(err, domain.ErrIllegalState):
		WriteError(w, 409, "ILLEGAL_STATE", err.Error(), nil)
	case errors.Is(err, domain.ErrTooEarly):
		WriteError(w, 409, "TOO_EARLY", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidDecision):
		WriteError(w, 400, "INVALID_DECISION", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidParams):
		WriteError(w, 400, "INVALID_PARAMS", err.Error(), nil)
	case errors.Is(err, domain.ErrTransferFailed):
		WriteError(w, 502, "TRANSFER_FAILED", err.Error(), nil)
	case errors.Is(err, domain.ErrFeeUnderflow):
		WriteError(w, 500, "ARITHMETIC_INCONSISTENCY", err.Error(), nil)
	default:
		WriteError(w, 500, "INTERNAL", err.Error(), nil)
	}
}
