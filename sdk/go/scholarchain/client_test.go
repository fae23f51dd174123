package scholarchain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Scholar-Chain/smart-contract/pkg/domain"
)

func TestCreateSubmission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/escrow/submissions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok1" {
			t.Errorf("missing bearer")
		}
		var req CreateSubmissionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(201)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id": "req_1",
			"submission": domain.Submission{
				ID:        req.SubmissionID,
				Publisher: req.PublisherID,
				Amount:    req.Amount,
				Status:    domain.StatusSubmitted,
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok1")
	sub, err := c.CreateSubmission(context.Background(), CreateSubmissionRequest{
		SubmissionID: "sub_1", PublisherID: "pty_pub", Amount: 20000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.ID != "sub_1" || sub.Status != domain.StatusSubmitted {
		t.Fatalf("unexpected submission: %+v", sub)
	}
}

func TestErrorEnvelopeDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(409)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id": "req_9",
			"error":      map[string]any{"code": "ILLEGAL_STATE", "message": "cannot cancel in status ACCEPTED"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok1")
	_, err := c.Cancel(context.Background(), "sub_1")
	var sdkErr *Error
	if !errors.As(err, &sdkErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if sdkErr.StatusCode != 409 || sdkErr.ErrorCode != "ILLEGAL_STATE" || sdkErr.RequestID != "req_9" {
		t.Fatalf("unexpected sdk error: %+v", sdkErr)
	}
}

func TestOverdueSubmissions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/escrow/submissions/overdue" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id":  "req_1",
			"submissions": []domain.Submission{{ID: "sub_old", Status: domain.StatusSubmitted}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok1")
	subs, err := c.OverdueSubmissions(context.Background())
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != "sub_old" {
		t.Fatalf("unexpected list: %+v", subs)
	}
}
