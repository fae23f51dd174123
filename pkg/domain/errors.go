package domain

import "errors"

// Sentinel errors for the escrow operation surface. Handlers map these to
// HTTP codes; the service wraps them with context via fmt.Errorf("...: %w").
var (
	ErrDuplicateID     = errors.New("submission id already exists")
	ErrNotFound        = errors.New("submission not found")
	ErrUnauthorized    = errors.New("caller not authorized")
	ErrIllegalState    = errors.New("operation not valid in current status")
	ErrInvalidParams   = errors.New("invalid parameters")
	ErrInvalidDecision = errors.New("invalid decision")
	ErrTransferFailed  = errors.New("value transfer failed")
	ErrTooEarly        = errors.New("inactivity deadline not reached")

	// ErrFeeUnderflow means a fee computation would have produced a negative
	// quantity. It signals an admission/configuration inconsistency and must
	// surface as a failure, never as a clamped result.
	ErrFeeUnderflow = errors.New("fee computation underflow")
)
