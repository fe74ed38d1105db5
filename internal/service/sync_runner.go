package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uniead-br/sigaa-sync/internal/models"
	appErrors "github.com/uniead-br/sigaa-sync/pkg/errors"
	"github.com/uniead-br/sigaa-sync/pkg/jobs"
)

// SyncPayload is the job payload carried by integration jobs.
type SyncPayload struct {
	Term      string     `json:"term"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

type courseSyncRunner interface {
	Run(ctx context.Context, term models.TermKey, startDate, endDate *time.Time) (*models.CourseSyncReport, error)
}

type enrollmentSyncRunner interface {
	Run(ctx context.Context, term models.TermKey) (*models.EnrollmentSyncReport, error)
}

type archiveRunner interface {
	Run(ctx context.Context, term models.TermKey) (*models.ArchiveReport, error)
}

type termLocker interface {
	Acquire(ctx context.Context, term models.TermKey) (bool, error)
	Release(ctx context.Context, term models.TermKey) error
}

// SyncRunner dispatches queued integration jobs to the sync services, holding
// the term lock for the duration of each run so two runs over the same term
// never interleave.
type SyncRunner struct {
	courses     courseSyncRunner
	enrollments enrollmentSyncRunner
	archive     archiveRunner
	locks       termLocker
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewSyncRunner constructs the runner.
func NewSyncRunner(courses courseSyncRunner, enrollments enrollmentSyncRunner, archive archiveRunner, locks termLocker, metrics *MetricsService, logger *zap.Logger) *SyncRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncRunner{
		courses:     courses,
		enrollments: enrollments,
		archive:     archive,
		locks:       locks,
		metrics:     metrics,
		logger:      logger,
	}
}

// Handle processes one queued job. It satisfies jobs.Handler.
func (r *SyncRunner) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(SyncPayload)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("job %s carries unexpected payload %T", job.ID, job.Payload))
	}
	term, err := models.ParseTermKey(payload.Term)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term in job payload")
	}

	acquired, err := r.locks.Acquire(ctx, term)
	if err != nil {
		return err
	}
	if !acquired {
		r.metrics.ObserveRun(job.Type, "locked", 0)
		return appErrors.Clone(appErrors.ErrLocked, "term "+term.String()+" is locked by another run")
	}
	defer func() {
		if err := r.locks.Release(ctx, term); err != nil {
			r.logger.Sugar().Errorw("term lock release failed", "term", term.String(), "error", err)
		}
	}()

	start := time.Now()
	runErr := r.dispatch(ctx, job, term, payload)

	outcome := "success"
	if runErr != nil {
		outcome = "error"
	}
	r.metrics.ObserveRun(job.Type, outcome, time.Since(start))
	return runErr
}

func (r *SyncRunner) dispatch(ctx context.Context, job jobs.Job, term models.TermKey, payload SyncPayload) error {
	switch job.Type {
	case jobs.TypeSyncCourses:
		report, err := r.courses.Run(ctx, term, payload.StartDate, payload.EndDate)
		if err != nil {
			return err
		}
		r.metrics.RecordCourseReport(job.Type, report)
		return nil
	case jobs.TypeSyncEnrollments:
		report, err := r.enrollments.Run(ctx, term)
		if err != nil {
			return err
		}
		r.metrics.RecordEnrollmentReport(job.Type, report)
		return nil
	case jobs.TypeArchiveCourses:
		report, err := r.archive.Run(ctx, term)
		if err != nil {
			return err
		}
		r.metrics.RecordArchiveReport(job.Type, report)
		return nil
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown job type "+job.Type)
	}
}
