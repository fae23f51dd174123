package domain

import (
	"errors"
	"testing"
)

func TestComputeRefundNotReviewed(t *testing.T) {
	split, err := ComputeRefund(20000, false, true, 30, 10000)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if split.AuthorRefund != 10000 || split.ReviewerFee != 0 || split.PlatformFee != 10000 {
		t.Fatalf("unexpected split: %+v", split)
	}
}

func TestComputeRefundReviewedReject(t *testing.T) {
	split, err := ComputeRefund(20000, true, true, 30, 10000)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if split.ReviewerFee != 6000 {
		t.Fatalf("expected reviewer fee 6000, got %d", split.ReviewerFee)
	}
	if split.AuthorRefund != 4000 {
		t.Fatalf("expected author refund 4000, got %d", split.AuthorRefund)
	}
	if split.PlatformFee != 10000 {
		t.Fatalf("expected platform fee 10000, got %d", split.PlatformFee)
	}
}

func TestComputeRefundReviewedButNotRejectPath(t *testing.T) {
	// Cancel and timeout settle with afterReview=false: full refund split even
	// when the record was reviewed.
	split, err := ComputeRefund(20000, true, false, 30, 10000)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if split.ReviewerFee != 0 || split.AuthorRefund != 10000 {
		t.Fatalf("unexpected split: %+v", split)
	}
}

func TestComputeRefundConservation(t *testing.T) {
	const amount, cancelFee = int64(20000), int64(5000)
	for pct := int64(0); pct <= 100; pct++ {
		split, err := ComputeRefund(amount, true, true, pct, cancelFee)
		if amount*pct/100+cancelFee > amount {
			if !errors.Is(err, ErrFeeUnderflow) {
				t.Fatalf("pct=%d: expected ErrFeeUnderflow, got %v", pct, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("pct=%d: unexpected err: %v", pct, err)
		}
		if total := split.AuthorRefund + split.ReviewerFee + split.PlatformFee; total != amount {
			t.Fatalf("pct=%d: split does not conserve amount: %+v", pct, split)
		}
	}
}

func TestComputeRefundUnderflowIsFatal(t *testing.T) {
	// amount < cancelFee + floor(amount*sharePct/100) must fail, not clamp.
	_, err := ComputeRefund(10000, true, true, 30, 9000)
	if !errors.Is(err, ErrFeeUnderflow) {
		t.Fatalf("expected ErrFeeUnderflow, got %v", err)
	}

	_, err = ComputeRefund(5000, false, false, 0, 10000)
	if !errors.Is(err, ErrFeeUnderflow) {
		t.Fatalf("expected ErrFeeUnderflow, got %v", err)
	}
}

func TestComputeRefundRejectsBadShare(t *testing.T) {
	_, err := ComputeRefund(20000, true, true, 101, 0)
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestComputePayout(t *testing.T) {
	p, err := ComputePayout(20000, 20000)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.PublisherPayout != 0 || p.PlatformFee != 20000 {
		t.Fatalf("unexpected payout: %+v", p)
	}

	_, err = ComputePayout(10000, 20000)
	if !errors.Is(err, ErrFeeUnderflow) {
		t.Fatalf("expected ErrFeeUnderflow, got %v", err)
	}
}
