package httpx

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/Scholar-Chain/smart-contract/pkg/domain"
)

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrUnauthorized, 403, "UNAUTHORIZED"},
		{domain.ErrNotFound, 404, "NOT_FOUND"},
		{domain.ErrDuplicateID, 409, "DUPLICATE_ID"},
		{domain.ErrIllegalState, 409, "ILLEGAL_STATE"},
		{domain.ErrTooEarly, 409, "TOO_EARLY"},
		{domain.ErrInvalidDecision, 400, "INVALID_DECISION"},
		{domain.ErrInvalidParams, 400, "INVALID_PARAMS"},
		{domain.ErrTransferFailed, 502, "TRANSFER_FAILED"},
		{domain.ErrFeeUnderflow, 500, "ARITHMETIC_INCONSISTENCY"},
		{fmt.Errorf("timeout settlement: %w", domain.ErrTooEarly), 409, "TOO_EARLY"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteDomainError(rec, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, rec.Code)
		}
		var body struct {
			RequestID string `json:"request_id"`
			Error     struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Error.Code != tc.code {
			t.Fatalf("%v: expected code %s, got %s", tc.err, tc.code, body.Error.Code)
		}
		if body.RequestID == "" {
			t.Fatal("expected request_id in error envelope")
		}
	}
}
