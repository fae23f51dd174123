package domain

import (
	"fmt"
	"time"
)

// Schedule carries the deployment-fixed escrow constants. Only the reviewer
// share percentage is runtime-configurable, and it lives in the store, not
// here.
type Schedule struct {
	MinSubmissionFee  int64
	CancellationFee   int64
	PublishFee        int64
	PublisherDeadline time.Duration
	GracePeriod       time.Duration
}

var DefaultSchedule = Schedule{
	MinSubmissionFee:  20000,
	CancellationFee:   10000,
	PublishFee:        20000,
	PublisherDeadline: 30 * 24 * time.Hour,
	GracePeriod:       7 * 24 * time.Hour,
}

// RefundSplit is the three-way settlement of an escrowed amount on the
// reject/cancel/timeout paths. The parts always sum to the escrowed amount.
type RefundSplit struct {
	AuthorRefund int64 `json:"author_refund"`
	ReviewerFee  int64 `json:"reviewer_fee"`
	PlatformFee  int64 `json:"platform_fee"`
}

// PayoutSplit is the settlement on the publish path.
type PayoutSplit struct {
	PublisherPayout int64 `json:"publisher_payout"`
	PlatformFee     int64 `json:"platform_fee"`
}

// ComputeRefund splits amount between author, reviewer and platform.
//
// The reviewer is paid only on the publisher-initiated reject path
// (afterReview=true) and only when the record was actually reviewed. The
// cancel and timeout paths pass afterReview=false and always use the full
// refund split, even for reviewed records. That asymmetry is deliberate
// source behavior and must not be "fixed" here.
//
// A negative result means the share percentage and fixed fees are
// inconsistent with the admitted amount; it fails with ErrFeeUnderflow and is
// never clamped.
func ComputeRefund(amount int64, reviewed, afterReview bool, sharePct, cancelFee int64) (RefundSplit, error) {
	if amount < 0 || cancelFee < 0 || sharePct < 0 || sharePct > 100 {
		return RefundSplit{}, fmt.Errorf("%w: amount=%d sharePct=%d cancelFee=%d", ErrInvalidParams, amount, sharePct, cancelFee)
	}
	var reviewerFee int64
	if afterReview && reviewed {
		reviewerFee = amount * sharePct / 100
	}
	authorRefund := amount - reviewerFee - cancelFee
	if authorRefund < 0 {
		return RefundSplit{}, fmt.Errorf("%w: amount=%d reviewerFee=%d cancelFee=%d", ErrFeeUnderflow, amount, reviewerFee, cancelFee)
	}
	return RefundSplit{
		AuthorRefund: authorRefund,
		ReviewerFee:  reviewerFee,
		PlatformFee:  cancelFee,
	}, nil
}

// ComputePayout settles an accepted submission: the publisher receives the
// escrowed amount minus the publish fee, which goes to the platform. Same
// underflow rule as ComputeRefund.
func ComputePayout(amount, publishFee int64) (PayoutSplit, error) {
	if amount < 0 || publishFee < 0 {
		return PayoutSplit{}, fmt.Errorf("%w: amount=%d publishFee=%d", ErrInvalidParams, amount, publishFee)
	}
	payout := amount - publishFee
	if payout < 0 {
		return PayoutSplit{}, fmt.Errorf("%w: amount=%d publishFee=%d", ErrFeeUnderflow, amount, publishFee)
	}
	return PayoutSplit{PublisherPayout: payout, PlatformFee: publishFee}, nil
}
