package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Scholar-Chain/smart-contract/pkg/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVersionConflict means the optimistic check-and-set update lost a race
// with a concurrent writer. Callers re-read and re-validate; they never retry
// the transfers blindly. It wraps domain.ErrIllegalState so HTTP handlers
// report a conflict rather than an internal failure.
var ErrVersionConflict = fmt.Errorf("%w: submission version conflict", domain.ErrIllegalState)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) Insert(ctx context.Context, sub domain.Submission) error {
	tag, err := s.DB.Exec(ctx, `
INSERT INTO escrow_submissions(submission_id,author_id,publisher_id,amount,status,reviewed,submitted_at,last_action_at,version)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,1)
ON CONFLICT (submission_id) DO NOTHING
`, sub.ID, sub.Author, sub.Publisher, sub.Amount, string(sub.Status), sub.Reviewed, sub.SubmittedAt, sub.LastActionAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, sub.ID)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Submission, error) {
	var sub domain.Submission
	var status string
	err := s.DB.QueryRow(ctx, `
SELECT submission_id,author_id,publisher_id,amount,status,reviewed,submitted_at,last_action_at,version
FROM escrow_submissions
WHERE submission_id=$1
`, id).Scan(&sub.ID, &sub.Author, &sub.Publisher, &sub.Amount, &status, &sub.Reviewed, &sub.SubmittedAt, &sub.LastActionAt, &sub.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Submission{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return domain.Submission{}, err
	}
	sub.Status = domain.Status(status)
	return sub, nil
}

// Update commits a transition. Only status, reviewed and last_action_at ever
// change; the WHERE version guard keeps two in-flight operations on the same
// record from both committing.
func (s *Store) Update(ctx context.Context, sub domain.Submission) error {
	tag, err := s.DB.Exec(ctx, `
UPDATE escrow_submissions
SET status=$1, reviewed=$2, last_action_at=$3, version=version+1
WHERE submission_id=$4 AND version=$5
`, string(sub.Status), sub.Reviewed, sub.LastActionAt, sub.ID, sub.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrVersionConflict, sub.ID)
	}
	return nil
}

func (s *Store) ListOverdue(ctx context.Context, cutoff time.Time) ([]domain.Submission, error) {
	rows, err := s.DB.Query(ctx, `
SELECT submission_id,author_id,publisher_id,amount,status,reviewed,submitted_at,last_action_at,version
FROM escrow_submissions
WHERE status IN ('SUBMITTED','UNDER_REVIEW','ACCEPTED')
  AND last_action_at < $1
ORDER BY last_action_at ASC
`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Submission
	for rows.Next() {
		var sub domain.Submission
		var status string
		if err := rows.Scan(&sub.ID, &sub.Author, &sub.Publisher, &sub.Amount, &status, &sub.Reviewed, &sub.SubmittedAt, &sub.LastActionAt, &sub.Version); err != nil {
			return nil, err
		}
		sub.Status = domain.Status(status)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) ReviewerShare(ctx context.Context) (int64, error) {
	var pct int64
	err := s.DB.QueryRow(ctx, `SELECT reviewer_share_pct FROM escrow_config WHERE singleton`).Scan(&pct)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return pct, err
}

func (s *Store) SetReviewerShare(ctx context.Context, pct int64) error {
	_, err := s.DB.Exec(ctx, `
INSERT INTO escrow_config(singleton,reviewer_share_pct)
VALUES(true,$1)
ON CONFLICT (singleton) DO UPDATE SET reviewer_share_pct=$1, updated_at=now()
`, pct)
	return err
}

func (s *Store) AddEvent(ctx context.Context, submissionID, typ, actorID string, payload map[string]any) error {
	b, _ := json.Marshal(payload)
	_, err := s.DB.Exec(ctx, `
INSERT INTO escrow_events(submission_id,type,actor_id,payload)
VALUES($1,$2,$3,$4::jsonb)
`, submissionID, typ, nullable(actorID), string(b))
	return err
}

func (s *Store) ListEvents(ctx context.Context, submissionID string) ([]map[string]any, error) {
	rows, err := s.DB.Query(ctx, `
SELECT type,actor_id,occurred_at,payload
FROM escrow_events
WHERE submission_id=$1
ORDER BY occurred_at ASC
`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []map[string]any
	for rows.Next() {
		var typ string
		var actorID *string
		var at time.Time
		var payload []byte
		if err := rows.Scan(&typ, &actorID, &at, &payload); err != nil {
			return nil, err
		}
		var obj any
		_ = json.Unmarshal(payload, &obj)
		out = append(out, map[string]any{"type": typ, "actor_id": actorID, "at": at.Format(time.RFC3339), "payload": obj})
	}
	return out, rows.Err()
}

type IdempotencyRecord struct {
	ActorID        string
	IdempotencyKey string
	Endpoint       string
	ResponseStatus int
	ResponseBody   map[string]any
}

func (s *Store) GetIdempotencyRecord(ctx context.Context, actorID, key, endpoint string) (int, map[string]any, bool, error) {
	var status int
	var body []byte
	err := s.DB.QueryRow(ctx, `
SELECT response_status,response_body
FROM escrow_idempotency_records
WHERE actor_id=$1 AND idempotency_key=$2 AND endpoint=$3
`, actorID, key, endpoint).Scan(&status, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, false, nil
		}
		return 0, nil, false, err
	}
	var obj map[string]any
	_ = json.Unmarshal(body, &obj)
	return status, obj, true, nil
}

func (s *Store) SaveIdempotencyRecord(ctx context.Context, actorID, key, endpoint string, responseStatus int, responseBody map[string]any) error {
	b, _ := json.Marshal(responseBody)
	_, err := s.DB.Exec(ctx, `
INSERT INTO escrow_idempotency_records(actor_id,idempotency_key,endpoint,response_status,response_body)
VALUES($1,$2,$3,$4,$5::jsonb)
ON CONFLICT (actor_id,idempotency_key,endpoint) DO NOTHING
`, actorID, key, endpoint, responseStatus, string(b))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
