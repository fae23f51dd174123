package escrow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Scholar-Chain/smart-contract/pkg/domain"
)

type Store interface {
	Insert(ctx context.Context, sub domain.Submission) error
	Get(ctx context.Context, id string) (domain.Submission, error)
	Update(ctx context.Context, sub domain.Submission) error
	ListOverdue(ctx context.Context, cutoff time.Time) ([]domain.Submission, error)
	ReviewerShare(ctx context.Context) (int64, error)
	SetReviewerShare(ctx context.Context, pct int64) error
	AddEvent(ctx context.Context, submissionID, typ, actorID string, payload map[string]any) error
}

// Ledger is the external value-transfer rail. Pull moves funds from a party
// into escrow custody; Push releases escrowed funds to a party. Both are
// all-or-nothing with a binary outcome.
type Ledger interface {
	Pull(ctx context.Context, from string, amount int64) error
	Push(ctx context.Context, to string, amount int64) error
}

type CertIssuer interface {
	Issue(ctx context.Context, owner, reference string) (string, error)
}

// Notifier delivery is best-effort; it never fails an operation.
type Notifier interface {
	Notify(ctx context.Context, eventType, submissionID string, payload map[string]any)
}

// Service drives the escrow state machine. Every public method is one
// transaction against one record: validate caller and status, compute the
// split, run the transfers, and commit the transition only after every
// transfer succeeded. Operations on the same record are serialized by a
// per-record mutex; the store's version check-and-set backstops writers in
// other processes.
type Service struct {
	store    Store
	ledger   Ledger
	certs    CertIssuer
	notifier Notifier
	sched    domain.Schedule
	operator string

	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(st Store, ledger Ledger, certs CertIssuer, notifier Notifier, sched domain.Schedule, operator string) *Service {
	return &Service{
		store:    st,
		ledger:   ledger,
		certs:    certs,
		notifier: notifier,
		sched:    sched,
		operator: operator,
		now:      time.Now,
		locks:    map[string]*sync.Mutex{},
	}
}

func (s *Service) lockRecord(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Create admits a new submission: the full amount is pulled from the caller
// into escrow before the record exists. If the pull fails no record is
// created.
func (s *Service) Create(ctx context.Context, caller, id, publisher string, amount int64) (domain.Submission, error) {
	if caller == "" || id == "" || publisher == "" {
		return domain.Submission{}, fmt.Errorf("%w: caller, submission id and publisher are required", domain.ErrInvalidParams)
	}
	if amount < s.sched.MinSubmissionFee {
		return domain.Submission{}, fmt.Errorf("%w: amount %d below minimum submission fee %d", domain.ErrInvalidParams, amount, s.sched.MinSubmissionFee)
	}
	unlock := s.lockRecord(id)
	defer unlock()

	if _, err := s.store.Get(ctx, id); err == nil {
		return domain.Submission{}, fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Submission{}, err
	}

	if err := s.ledger.Pull(ctx, caller, amount); err != nil {
		return domain.Submission{}, fmt.Errorf("%w: pull submission fee: %v", domain.ErrTransferFailed, err)
	}
	now := s.now().UTC()
	sub := domain.Submission{
		ID:           id,
		Author:       caller,
		Publisher:    publisher,
		Amount:       amount,
		Status:       domain.StatusSubmitted,
		SubmittedAt:  now,
		LastActionAt: now,
		Version:      1,
	}
	if err := s.store.Insert(ctx, sub); err != nil {
		// Funds are already in custody; hand them back before failing. A
		// failed compensation strands the pull, so it must leave a trace for
		// the operator to reconcile.
		if pushErr := s.ledger.Push(ctx, caller, amount); pushErr != nil {
			log.Printf("escrow: compensating refund failed: submission=%s party=%s amount=%d: %v", id, caller, amount, pushErr)
			_ = s.store.AddEvent(ctx, id, "REFUND_FAILED", caller, map[string]any{"amount": amount, "error": pushErr.Error()})
		}
		return domain.Submission{}, err
	}
	_ = s.store.AddEvent(ctx, id, "SUBMITTED", caller, map[string]any{"publisher_id": publisher, "amount": amount})
	s.notifier.Notify(ctx, "SUBMITTED", id, map[string]any{
		"author_id": caller, "publisher_id": publisher, "amount": amount,
	})
	return sub, nil
}

// Decide applies a publisher decision to a record in SUBMITTED or
// UNDER_REVIEW. A reject settles with afterReview=true, so a record rejected
// straight from SUBMITTED keeps the non-reviewed split.
func (s *Service) Decide(ctx context.Context, caller, id string, decision domain.Decision) (domain.Submission, error) {
	unlock := s.lockRecord(id)
	defer unlock()

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Submission{}, err
	}
	if caller != sub.Publisher {
		return domain.Submission{}, fmt.Errorf("%w: only publisher %s may decide", domain.ErrUnauthorized, sub.Publisher)
	}
	if sub.Status != domain.StatusSubmitted && sub.Status != domain.StatusUnderReview {
		return domain.Submission{}, fmt.Errorf("%w: cannot decide in status %s", domain.ErrIllegalState, sub.Status)
	}

	switch decision {
	case domain.DecisionReview:
		if sub.Status != domain.StatusSubmitted {
			return domain.Submission{}, fmt.Errorf("%w: already under review", domain.ErrIllegalState)
		}
		sub.Status = domain.StatusUnderReview
		sub.Reviewed = true
	case domain.DecisionAccept:
		sub.Status = domain.StatusAccepted
	case domain.DecisionReject:
		split, err := s.refundSplit(ctx, sub, true)
		if err != nil {
			return domain.Submission{}, err
		}
		if err := s.payRefund(ctx, sub, split); err != nil {
			return domain.Submission{}, err
		}
		sub.Status = domain.StatusRejected
	default:
		return domain.Submission{}, fmt.Errorf("%w: %q", domain.ErrInvalidDecision, decision)
	}

	if err := s.commit(ctx, &sub); err != nil {
		return domain.Submission{}, err
	}
	_ = s.store.AddEvent(ctx, id, "DECISION", caller, map[string]any{"decision": decision, "new_status": sub.Status, "reviewed": sub.Reviewed})
	s.notifier.Notify(ctx, "DECISION", id, map[string]any{
		"decision": string(decision), "new_status": string(sub.Status), "reviewed": sub.Reviewed,
	})
	return sub, nil
}

// Cancel is the author's exit. The window closes the moment the publisher
// acts: only SUBMITTED records qualify, and the settlement is always the full
// refund split regardless of the reviewed flag.
func (s *Service) Cancel(ctx context.Context, caller, id string) (domain.Submission, error) {
	unlock := s.lockRecord(id)
	defer unlock()

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Submission{}, err
	}
	if caller != sub.Author {
		return domain.Submission{}, fmt.Errorf("%w: only author %s may cancel", domain.ErrUnauthorized, sub.Author)
	}
	if sub.Status != domain.StatusSubmitted {
		return domain.Submission{}, fmt.Errorf("%w: cannot cancel in status %s", domain.ErrIllegalState, sub.Status)
	}
	split, err := s.refundSplit(ctx, sub, false)
	if err != nil {
		return domain.Submission{}, err
	}
	if err := s.payRefund(ctx, sub, split); err != nil {
		return domain.Submission{}, err
	}
	sub.Status = domain.StatusCancelled
	if err := s.commit(ctx, &sub); err != nil {
		return domain.Submission{}, err
	}
	_ = s.store.AddEvent(ctx, id, "CANCELLED", caller, map[string]any{"refund": split.AuthorRefund, "reviewer_fee": int64(0)})
	s.notifier.Notify(ctx, "CANCELLED", id, map[string]any{"refund": split.AuthorRefund, "reviewer_fee": int64(0)})
	return sub, nil
}

// Timeout is the permissionless liveness valve: any caller may force
// settlement of a stalled record once the publisher deadline plus grace
// period has elapsed since the last action. It settles with the full refund
// split even for reviewed records.
func (s *Service) Timeout(ctx context.Context, caller, id string) (domain.Submission, error) {
	unlock := s.lockRecord(id)
	defer unlock()

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Submission{}, err
	}
	if sub.Status.Terminal() {
		return domain.Submission{}, fmt.Errorf("%w: cannot time out in status %s", domain.ErrIllegalState, sub.Status)
	}
	due := sub.LastActionAt.Add(s.sched.PublisherDeadline + s.sched.GracePeriod)
	if !s.now().UTC().After(due) {
		return domain.Submission{}, fmt.Errorf("%w: eligible after %s", domain.ErrTooEarly, due.Format(time.RFC3339))
	}
	split, err := s.refundSplit(ctx, sub, false)
	if err != nil {
		return domain.Submission{}, err
	}
	if err := s.payRefund(ctx, sub, split); err != nil {
		return domain.Submission{}, err
	}
	sub.Status = domain.StatusCancelled
	if err := s.commit(ctx, &sub); err != nil {
		return domain.Submission{}, err
	}
	_ = s.store.AddEvent(ctx, id, "CANCELLED", caller, map[string]any{"refund": split.AuthorRefund, "reviewer_fee": int64(0), "timed_out": true})
	s.notifier.Notify(ctx, "CANCELLED", id, map[string]any{"refund": split.AuthorRefund, "reviewer_fee": int64(0), "timed_out": true})
	return sub, nil
}

// Publish settles an accepted submission: payout to the publisher, publish
// fee to the operator, then a certificate minted to the author as the last
// step before the PUBLISHED commit. The transition is irreversible.
func (s *Service) Publish(ctx context.Context, caller, id, certificateReference string) (domain.Submission, string, error) {
	unlock := s.lockRecord(id)
	defer unlock()

	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Submission{}, "", err
	}
	if caller != sub.Publisher {
		return domain.Submission{}, "", fmt.Errorf("%w: only publisher %s may publish", domain.ErrUnauthorized, sub.Publisher)
	}
	if sub.Status != domain.StatusAccepted {
		return domain.Submission{}, "", fmt.Errorf("%w: cannot publish in status %s", domain.ErrIllegalState, sub.Status)
	}
	payout, err := domain.ComputePayout(sub.Amount, s.sched.PublishFee)
	if err != nil {
		return domain.Submission{}, "", err
	}
	if payout.PublisherPayout > 0 {
		if err := s.ledger.Push(ctx, sub.Publisher, payout.PublisherPayout); err != nil {
			return domain.Submission{}, "", fmt.Errorf("%w: push publisher payout: %v", domain.ErrTransferFailed, err)
		}
	}
	if payout.PlatformFee > 0 {
		if err := s.ledger.Push(ctx, s.operator, payout.PlatformFee); err != nil {
			return domain.Submission{}, "", fmt.Errorf("%w: push publish fee: %v", domain.ErrTransferFailed, err)
		}
	}
	certID, err := s.certs.Issue(ctx, sub.Author, certificateReference)
	if err != nil {
		return domain.Submission{}, "", fmt.Errorf("%w: issue certificate: %v", domain.ErrTransferFailed, err)
	}
	sub.Status = domain.StatusPublished
	if err := s.commit(ctx, &sub); err != nil {
		return domain.Submission{}, "", err
	}
	_ = s.store.AddEvent(ctx, id, "PUBLISHED", caller, map[string]any{"certificate_id": certID, "certificate_reference": certificateReference})
	s.notifier.Notify(ctx, "PUBLISHED", id, map[string]any{
		"certificate_id": certID, "certificate_reference": certificateReference,
	})
	return sub, certID, nil
}

// SetReviewerShare updates the single runtime-configurable value. It applies
// to all future fee computations and never reopens settled records.
func (s *Service) SetReviewerShare(ctx context.Context, caller string, pct int64) error {
	if caller != s.operator {
		return fmt.Errorf("%w: operator only", domain.ErrUnauthorized)
	}
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: reviewer share %d out of range [0,100]", domain.ErrInvalidParams, pct)
	}
	return s.store.SetReviewerShare(ctx, pct)
}

func (s *Service) ReviewerShare(ctx context.Context) (int64, error) {
	return s.store.ReviewerShare(ctx)
}

// Overdue lists open records whose timeout gate is already satisfied, for the
// watchdog caller.
func (s *Service) Overdue(ctx context.Context) ([]domain.Submission, error) {
	cutoff := s.now().UTC().Add(-(s.sched.PublisherDeadline + s.sched.GracePeriod))
	return s.store.ListOverdue(ctx, cutoff)
}

func (s *Service) refundSplit(ctx context.Context, sub domain.Submission, afterReview bool) (domain.RefundSplit, error) {
	pct, err := s.store.ReviewerShare(ctx)
	if err != nil {
		return domain.RefundSplit{}, err
	}
	return domain.ComputeRefund(sub.Amount, sub.Reviewed, afterReview, pct, s.sched.CancellationFee)
}

func (s *Service) payRefund(ctx context.Context, sub domain.Submission, split domain.RefundSplit) error {
	if split.AuthorRefund > 0 {
		if err := s.ledger.Push(ctx, sub.Author, split.AuthorRefund); err != nil {
			return fmt.Errorf("%w: push author refund: %v", domain.ErrTransferFailed, err)
		}
	}
	if split.ReviewerFee > 0 {
		if err := s.ledger.Push(ctx, sub.Publisher, split.ReviewerFee); err != nil {
			return fmt.Errorf("%w: push reviewer fee: %v", domain.ErrTransferFailed, err)
		}
	}
	if split.PlatformFee > 0 {
		if err := s.ledger.Push(ctx, s.operator, split.PlatformFee); err != nil {
			return fmt.Errorf("%w: push platform fee: %v", domain.ErrTransferFailed, err)
		}
	}
	return nil
}

// commit advances last_action_at (kept non-decreasing even under clock skew)
// and writes the transition through the versioned update.
func (s *Service) commit(ctx context.Context, sub *domain.Submission) error {
	now := s.now().UTC()
	if now.Before(sub.LastActionAt) {
		now = sub.LastActionAt
	}
	sub.LastActionAt = now
	if err := s.store.Update(ctx, *sub); err != nil {
		return err
	}
	sub.Version++
	return nil
}
