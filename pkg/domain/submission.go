package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusAccepted    Status = "ACCEPTED"
	StatusRejected    Status = "REJECTED"
	StatusPublished   Status = "PUBLISHED"
	StatusCancelled   Status = "CANCELLED"
)

// Terminal statuses have no outgoing transitions. A record in one of them is a
// permanent audit entry; every further state-changing call must be refused.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusPublished, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Open() bool { return !s.Terminal() }

type Decision string

const (
	DecisionReview Decision = "REVIEW"
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// ParseDecision validates raw decision input at the boundary so unknown values
// never reach the state machine.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(strings.ToUpper(strings.TrimSpace(raw))) {
	case DecisionReview:
		return DecisionReview, nil
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDecision, raw)
}

// Submission is the persistent record tracking one workflow instance.
// ID, Author, Publisher, Amount and SubmittedAt never change after creation;
// Reviewed only ever flips false->true. Version backs the store's optimistic
// check-and-set update.
type Submission struct {
	ID           string    `json:"submission_id"`
	Author       string    `json:"author_id"`
	Publisher    string    `json:"publisher_id"`
	Amount       int64     `json:"amount"`
	Status       Status    `json:"status"`
	Reviewed     bool      `json:"reviewed"`
	SubmittedAt  time.Time `json:"submitted_at"`
	LastActionAt time.Time `json:"last_action_at"`
	Version      int64     `json:"-"`
}
