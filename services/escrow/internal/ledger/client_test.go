package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPullAndPush(t *testing.T) {
	var gotPath string
	var gotBody transferRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Header.Get("Authorization") != "Bearer tok1" {
			t.Errorf("missing bearer, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "req_1", "result": "OK"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok1")
	if err := c.Pull(context.Background(), "pty_author", 20000); err != nil {
		t.Fatalf("pull: %v", err)
	}
	if gotPath != "/ledger/transfers:pull" || gotBody.Party != "pty_author" || gotBody.Amount != 20000 {
		t.Fatalf("unexpected pull request: path=%s body=%+v", gotPath, gotBody)
	}

	if err := c.Push(context.Background(), "pty_publisher", 6000); err != nil {
		t.Fatalf("push: %v", err)
	}
	if gotPath != "/ledger/transfers:push" || gotBody.Party != "pty_publisher" || gotBody.Amount != 6000 {
		t.Fatalf("unexpected push request: path=%s body=%+v", gotPath, gotBody)
	}
}

func TestTransferFailureSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if err := c.Pull(context.Background(), "pty_author", 20000); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestTransferRejectedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "req_1", "result": "INSUFFICIENT_FUNDS"})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if err := c.Push(context.Background(), "pty_author", 100); err == nil {
		t.Fatal("expected error on non-OK result")
	}
}
