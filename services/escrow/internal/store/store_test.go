package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Scholar-Chain/smart-contract/pkg/domain"
)

func TestVersionConflictSurfacesAsIllegalState(t *testing.T) {
	// Cross-process losers of the check-and-set race get a conflict response,
	// not an internal failure.
	err := fmt.Errorf("%w: %s", ErrVersionConflict, "sub_1")
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatal("expected match on ErrVersionConflict")
	}
	if !errors.Is(err, domain.ErrIllegalState) {
		t.Fatal("expected version conflict to map onto ErrIllegalState")
	}
}

func TestNullable(t *testing.T) {
	if v := nullable(""); v != nil {
		t.Fatalf("expected nil for empty string, got %v", v)
	}
	if v := nullable("pty_1"); v != "pty_1" {
		t.Fatalf("expected passthrough, got %v", v)
	}
}
