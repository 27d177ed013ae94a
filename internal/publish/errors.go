package publish

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Workflow errors
var (
	// ErrAlreadyInProgress is returned when a workflow invocation starts
	// while another one is still in flight. One payment per session at a
	// time; the coordinator enforces it rather than trusting the caller.
	ErrAlreadyInProgress = errors.New("a workflow is already in progress")

	// ErrNotOwner is returned by the edit workflow when the caller is not
	// the course's provider. Checked before any payment.
	ErrNotOwner = errors.New("course is not owned by the caller")
)

// Stage names a workflow stage for progress reporting and failure context.
type Stage string

const (
	StageValidate Stage = "validate"
	StagePayment  Stage = "payment"
	StageUpload   Stage = "upload"
	StageEnrich   Stage = "enrich"
	StagePersist  Stage = "persist"
)

// FailureKind classifies a workflow failure.
type FailureKind string

const (
	FailValidation        FailureKind = "validation"
	FailWalletUnavailable FailureKind = "wallet_unavailable"
	FailUserRejected      FailureKind = "user_rejected"
	FailTransaction       FailureKind = "transaction_failed"
	FailUpload            FailureKind = "upload_failed"
	FailEnrichment        FailureKind = "enrichment_failed" // never terminal: degraded per item
	FailPersistence       FailureKind = "persistence_failed"
)

// StageError is the terminal outcome of a failed workflow invocation.
//
// PaymentSettled reports whether a confirmed payment preceded the failure.
// There is no compensation transaction: once the payment stage settles, a
// later failure means value moved with no deliverable, and callers must
// surface that rather than retry blindly.
type StageError struct {
	Stage          Stage
	Kind           FailureKind
	PaymentSettled bool
	Err            error
}

func (e *StageError) Error() string {
	if e.PaymentSettled {
		return fmt.Sprintf("workflow failed at %s stage (%s) after payment settled, value consumed with no deliverable: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("workflow failed at %s stage (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ValidationError is a local, pre-flight rejection. Always recoverable by
// correcting the input; nothing was touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Guard is the workflow-level mutex shared by the create and edit
// coordinators: both move value through the same wallet session, so only one
// of either may run at a time.
type Guard struct {
	busy atomic.Bool
}

// NewGuard creates an idle guard.
func NewGuard() *Guard {
	return &Guard{}
}

func (g *Guard) begin() bool {
	return g.busy.CompareAndSwap(false, true)
}

func (g *Guard) end() {
	g.busy.Store(false)
}
