package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uniead-br/sigaa-sync/internal/models"
)

type coursePager interface {
	ListByTerm(ctx context.Context, termLabel string, limit, offset int) ([]models.Course, error)
	Relocate(ctx context.Context, id, categoryID string, endDate *time.Time) error
}

type archiveCategoryResolver interface {
	ResolveArchive(ctx context.Context, programCode string) (*models.Category, error)
}

// ArchiveService relocates a finished term's courses into their programs'
// archive categories. It pages through the term's courses oldest first and
// touches nothing but the category and a missing end date, so a second run
// over the same term finds everything already in place.
type ArchiveService struct {
	courses    coursePager
	categories archiveCategoryResolver
	pageSize   int
	logger     *zap.Logger
}

// NewArchiveService constructs the archiver.
func NewArchiveService(courses coursePager, categories archiveCategoryResolver, pageSize int, logger *zap.Logger) *ArchiveService {
	if pageSize <= 0 {
		pageSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveService{courses: courses, categories: categories, pageSize: pageSize, logger: logger}
}

// Run archives every course of the term. Failures are confined to the course
// they happened on.
func (s *ArchiveService) Run(ctx context.Context, term models.TermKey) (*models.ArchiveReport, error) {
	report := &models.ArchiveReport{Term: term.String()}
	closedAt := time.Now().UTC()

	for offset := 0; ; offset += s.pageSize {
		page, err := s.courses.ListByTerm(ctx, term.String(), s.pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			course := &page[i]
			report.Scanned++
			if err := s.archiveCourse(ctx, course, closedAt, report); err != nil {
				report.Failures++
				s.logger.Sugar().Errorw("course archive failed",
					"idnumber", course.IDNumber, "error", err)
			}
		}
	}

	s.logger.Sugar().Infow("archive finished",
		"term", report.Term,
		"scanned", report.Scanned,
		"archived", report.Archived,
		"already_archived", report.AlreadyArchived,
		"failures", report.Failures,
	)
	return report, nil
}

func (s *ArchiveService) archiveCourse(ctx context.Context, course *models.Course, closedAt time.Time, report *models.ArchiveReport) error {
	metadata, err := models.DecodeCourseMetadata(course.Metadata)
	if err != nil {
		return err
	}

	archive, err := s.categories.ResolveArchive(ctx, metadata.ProgramCode)
	if err != nil {
		return err
	}

	if course.CategoryID == archive.ID {
		report.AlreadyArchived++
		return nil
	}

	// Courses that started but never got an end date are closed out as they
	// are archived.
	var endDate *time.Time
	if course.EndDate == nil && course.StartDate != nil {
		endDate = &closedAt
	}

	if err := s.courses.Relocate(ctx, course.ID, archive.ID, endDate); err != nil {
		return err
	}
	report.Archived++
	s.logger.Sugar().Infow("course archived", "idnumber", course.IDNumber, "category", archive.IDNumber)
	return nil
}
