package domain

import (
	"errors"
	"testing"
)

func TestParseDecision(t *testing.T) {
	for raw, want := range map[string]Decision{
		"REVIEW":  DecisionReview,
		"accept":  DecisionAccept,
		" Reject": DecisionReject,
	} {
		got, err := ParseDecision(raw)
		if err != nil {
			t.Fatalf("ParseDecision(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseDecision(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseDecisionRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "APPROVE", "3", "REJECTED"} {
		if _, err := ParseDecision(raw); !errors.Is(err, ErrInvalidDecision) {
			t.Fatalf("ParseDecision(%q): expected ErrInvalidDecision, got %v", raw, err)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusRejected, StatusPublished, StatusCancelled}
	open := []Status{StatusSubmitted, StatusUnderReview, StatusAccepted}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %s terminal", s)
		}
	}
	for _, s := range open {
		if s.Terminal() {
			t.Fatalf("expected %s open", s)
		}
	}
}
