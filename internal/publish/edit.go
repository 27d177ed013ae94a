package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pragyanetra/console/internal/config"
	"github.com/pragyanetra/console/internal/logging"
	"github.com/pragyanetra/console/internal/monitoring"
	"github.com/pragyanetra/console/internal/payment"
)

// EditRequest replaces one video reference on an existing course.
type EditRequest struct {
	ProviderID string
	CourseID   uuid.UUID
	Index      int
	NewRef     string
}

// Editor drives the paid video-edit workflow. The fee is fixed per edit and
// transferred directly to the treasury, independent of course size. It shares
// a Guard with the publication Coordinator because both move value through
// the same wallet session.
type Editor struct {
	gate     Payer
	enricher Resolver
	courses  CourseStore
	treasury string
	cost     decimal.Decimal
	guard    *Guard
	log      zerolog.Logger
}

func NewEditor(gate Payer, enricher Resolver, courses CourseStore, cfg *config.PaymentConfig, guard *Guard) *Editor {
	return &Editor{
		gate:     gate,
		enricher: enricher,
		courses:  courses,
		treasury: cfg.TreasuryAddress,
		cost:     cfg.EditCost,
		guard:    guard,
		log:      logging.NewLogger("edit"),
	}
}

// EditVideo charges the edit fee, re-resolves the new reference, and replaces
// the item at the requested index. Ownership and bounds are checked before
// any payment; after the transfer settles, failures are terminal and the fee
// is not refunded.
func (e *Editor) EditVideo(ctx context.Context, req *EditRequest, progress ProgressFunc) error {
	if !e.guard.begin() {
		return ErrAlreadyInProgress
	}
	defer e.guard.end()

	start := time.Now()
	logging.LogWorkflow("edit", string(StageValidate), req.ProviderID)

	if !validRef(req.NewRef) {
		monitoring.RecordWorkflow("edit", "rejected", time.Since(start))
		return &StageError{Stage: StageValidate, Kind: FailValidation,
			Err: &ValidationError{Reason: "replacement reference is not a valid url"}}
	}

	course, err := e.courses.GetCourse(ctx, req.CourseID)
	if err != nil {
		monitoring.RecordWorkflow("edit", "rejected", time.Since(start))
		return &StageError{Stage: StageValidate, Kind: FailValidation, Err: err}
	}
	if course.ProviderID != req.ProviderID {
		monitoring.RecordWorkflow("edit", "rejected", time.Since(start))
		return &StageError{Stage: StageValidate, Kind: FailValidation, Err: ErrNotOwner}
	}
	if req.Index < 0 || req.Index >= len(course.Videos) {
		monitoring.RecordWorkflow("edit", "rejected", time.Since(start))
		return &StageError{Stage: StageValidate, Kind: FailValidation,
			Err: &ValidationError{Reason: fmt.Sprintf("video index %d is out of range", req.Index)}}
	}

	report(progress, "Processing payment...")
	logging.LogWorkflow("edit", string(StagePayment), req.ProviderID)

	receipt, err := e.gate.Pay(ctx, payment.DirectTransfer(e.treasury), e.cost)
	if err != nil {
		monitoring.RecordStageFailure("edit", string(StagePayment))
		monitoring.RecordWorkflow("edit", "failed", time.Since(start))
		return &StageError{Stage: StagePayment, Kind: paymentFailureKind(err), Err: err}
	}

	report(progress, "Fetching video details...")
	logging.LogWorkflow("edit", string(StageEnrich), req.ProviderID)

	item := e.enricher.Resolve(ctx, req.NewRef)

	report(progress, "Saving changes...")
	logging.LogWorkflow("edit", string(StagePersist), req.ProviderID)

	updated := append(course.Videos[:0:0], course.Videos...)
	updated[req.Index] = item
	if err := e.courses.UpdateVideos(ctx, req.CourseID, updated); err != nil {
		abandon(e.log, "edit", StagePersist, req.ProviderID, receipt.TxHash, err)
		monitoring.RecordWorkflow("edit", "failed", time.Since(start))
		return &StageError{Stage: StagePersist, Kind: FailPersistence, PaymentSettled: true, Err: err}
	}

	monitoring.RecordVideoEdited()
	monitoring.RecordWorkflow("edit", "completed", time.Since(start))
	e.log.Info().
		Str("course_id", req.CourseID.String()).
		Str("provider_id", req.ProviderID).
		Int("index", req.Index).
		Str("tx_hash", receipt.TxHash).
		Msg("Course video replaced")
	return nil
}
