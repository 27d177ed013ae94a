package publish

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pragyanetra/console/internal/logging"
	"github.com/pragyanetra/console/internal/models"
	"github.com/pragyanetra/console/internal/monitoring"
	"github.com/pragyanetra/console/internal/payment"
	"github.com/pragyanetra/console/internal/upload"
)

// Payer settles a payment intent and blocks until one confirmation.
type Payer interface {
	Pay(ctx context.Context, intent payment.Intent, amount decimal.Decimal) (*payment.Receipt, error)
}

// Uploader stores a binary asset and returns its public location.
type Uploader interface {
	Upload(ctx context.Context, asset upload.Asset) (*upload.Result, error)
}

// Resolver turns video references into items, degrading to raw on failure.
type Resolver interface {
	Resolve(ctx context.Context, refURL string) models.VideoItem
	ResolveAll(ctx context.Context, refURLs []string) []models.VideoItem
}

// CourseStore is the slice of the persistence layer the workflows touch.
type CourseStore interface {
	CreateCourse(ctx context.Context, c *models.Course) (uuid.UUID, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
	UpdateVideos(ctx context.Context, id uuid.UUID, items []models.VideoItem) error
}

// ProgressFunc receives human-readable stage labels as the workflow advances.
type ProgressFunc func(label string)

func report(progress ProgressFunc, label string) {
	if progress != nil {
		progress(label)
	}
}

// Coordinator drives the course publication workflow: validate, stake,
// upload the banner, enrich video references, persist. Stages run strictly
// in that order; anything free and local happens before anything that
// moves value.
type Coordinator struct {
	gate     Payer
	uploads  Uploader
	enricher Resolver
	courses  CourseStore
	guard    *Guard
	log      zerolog.Logger
}

func NewCoordinator(gate Payer, uploads Uploader, enricher Resolver, courses CourseStore, guard *Guard) *Coordinator {
	return &Coordinator{
		gate:     gate,
		uploads:  uploads,
		enricher: enricher,
		courses:  courses,
		guard:    guard,
		log:      logging.NewLogger("publish"),
	}
}

// Publish runs the full workflow and returns the new course id. On failure it
// returns a *StageError; callers must check PaymentSettled before suggesting
// a retry, because a settled stake is not refunded.
func (c *Coordinator) Publish(ctx context.Context, req *Request, progress ProgressFunc) (uuid.UUID, error) {
	if !c.guard.begin() {
		return uuid.Nil, ErrAlreadyInProgress
	}
	defer c.guard.end()

	start := time.Now()
	logging.LogWorkflow("create", string(StageValidate), req.ProviderID)

	if err := validateRequest(req); err != nil {
		monitoring.RecordWorkflow("create", "rejected", time.Since(start))
		return uuid.Nil, &StageError{Stage: StageValidate, Kind: FailValidation, Err: err}
	}

	report(progress, "Processing payment...")
	logging.LogWorkflow("create", string(StagePayment), req.ProviderID)

	slots := len(req.VideoRefs)
	stakeAmount := decimal.NewFromInt(int64(slots))
	receipt, err := c.gate.Pay(ctx, payment.StakeForCourseSlots(slots), stakeAmount)
	if err != nil {
		monitoring.RecordStageFailure("create", string(StagePayment))
		monitoring.RecordWorkflow("create", "failed", time.Since(start))
		return uuid.Nil, &StageError{Stage: StagePayment, Kind: paymentFailureKind(err), Err: err}
	}

	report(progress, "Payment confirmed. Uploading banner...")
	logging.LogWorkflow("create", string(StageUpload), req.ProviderID)

	banner, err := c.uploads.Upload(ctx, req.Banner)
	if err != nil {
		abandon(c.log, "create", StageUpload, req.ProviderID, receipt.TxHash, err)
		monitoring.RecordWorkflow("create", "failed", time.Since(start))
		return uuid.Nil, &StageError{Stage: StageUpload, Kind: FailUpload, PaymentSettled: true, Err: err}
	}

	report(progress, "Fetching video details...")
	logging.LogWorkflow("create", string(StageEnrich), req.ProviderID)

	items := c.enricher.ResolveAll(ctx, req.VideoRefs)

	report(progress, "Saving course...")
	logging.LogWorkflow("create", string(StagePersist), req.ProviderID)

	course := &models.Course{
		ProviderID:  req.ProviderID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		BannerURL:   banner.SecureURL,
		Videos:      items,
	}
	id, err := c.courses.CreateCourse(ctx, course)
	if err != nil {
		abandon(c.log, "create", StagePersist, req.ProviderID, receipt.TxHash, err)
		monitoring.RecordWorkflow("create", "failed", time.Since(start))
		return uuid.Nil, &StageError{Stage: StagePersist, Kind: FailPersistence, PaymentSettled: true, Err: err}
	}

	monitoring.RecordCourseCreated()
	monitoring.RecordWorkflow("create", "completed", time.Since(start))
	c.log.Info().
		Str("course_id", id.String()).
		Str("provider_id", req.ProviderID).
		Str("tx_hash", receipt.TxHash).
		Int("videos", len(items)).
		Msg("Course published")
	return id, nil
}

// abandon records a post-payment failure. There is no compensation path: the
// stake or transfer already settled on chain, so the record carries the
// transaction hash for manual follow-up.
func abandon(log zerolog.Logger, workflow string, stage Stage, providerID, txHash string, err error) {
	monitoring.RecordStageFailure(workflow, string(stage))
	log.Error().
		Err(err).
		Str("workflow", workflow).
		Str("stage", string(stage)).
		Str("provider_id", providerID).
		Str("tx_hash", txHash).
		Msg("Workflow failed after payment settled")
}

func paymentFailureKind(err error) FailureKind {
	switch {
	case errors.Is(err, payment.ErrSignerUnavailable):
		return FailWalletUnavailable
	case errors.Is(err, payment.ErrTxRejected):
		return FailUserRejected
	default:
		return FailTransaction
	}
}
