package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uniead-br/sigaa-sync/internal/models"
	"github.com/uniead-br/sigaa-sync/internal/sigaa"
	appErrors "github.com/uniead-br/sigaa-sync/pkg/errors"
	"github.com/uniead-br/sigaa-sync/pkg/strutil"
)

type rosterFetcher interface {
	FetchEnrollments(ctx context.Context, term models.TermKey) ([]sigaa.EnrollmentGroup, error)
}

type courseStore interface {
	FindByIDNumber(ctx context.Context, idNumber string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
}

type teacherDirectory interface {
	FindByCPF(ctx context.Context, cpf string) (*models.User, error)
}

type enrollmentStore interface {
	Exists(ctx context.Context, userID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.CourseEnrollment) error
}

type offeringCategoryResolver interface {
	Resolve(ctx context.Context, offering sigaa.Offering) (*models.Category, error)
}

// CourseSyncConfig carries the per-deployment knobs of the course sync.
type CourseSyncConfig struct {
	TeacherRoleID string
	// RequireTeacher gates course creation on at least one offering teacher
	// resolving to a local account. Off, courses are created teacherless and
	// pick their teachers up on a later run.
	RequireTeacher bool
}

// CourseSyncService materializes SIGAA course offerings into the local
// catalog: category tree, course row, teacher bindings. Every step is keyed by
// natural identifiers, so re-running a term converges instead of duplicating.
type CourseSyncService struct {
	roster      rosterFetcher
	courses     courseStore
	categories  offeringCategoryResolver
	teachers    teacherDirectory
	enrollments enrollmentStore
	titles      *strutil.TitleCaser
	cfg         CourseSyncConfig
	logger      *zap.Logger
}

// NewCourseSyncService constructs the course sync.
func NewCourseSyncService(roster rosterFetcher, courses courseStore, categories offeringCategoryResolver, teachers teacherDirectory, enrollments enrollmentStore, titles *strutil.TitleCaser, cfg CourseSyncConfig, logger *zap.Logger) *CourseSyncService {
	if titles == nil {
		titles = strutil.NewBrazilianTitleCaser(nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseSyncService{
		roster:      roster,
		courses:     courses,
		categories:  categories,
		teachers:    teachers,
		enrollments: enrollments,
		titles:      titles,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run imports every offering reported for the term. A transport failure aborts
// the whole run; any other failure is confined to its offering and counted.
func (s *CourseSyncService) Run(ctx context.Context, term models.TermKey, startDate, endDate *time.Time) (*models.CourseSyncReport, error) {
	groups, err := s.roster.FetchEnrollments(ctx, term)
	if err != nil {
		return nil, err
	}

	report := &models.CourseSyncReport{Term: term.String()}
	seen := make(map[string]struct{})

	for _, group := range groups {
		for _, offering := range group.Offerings {
			key := models.CourseNaturalKey(offering.TermLabel, offering.Code)
			if _, dup := seen[key]; dup {
				report.Duplicates++
				continue
			}
			seen[key] = struct{}{}
			report.Offerings++

			if err := s.importOffering(ctx, offering, startDate, endDate, report); err != nil {
				report.Failures++
				s.logger.Sugar().Errorw("offering import failed", "idnumber", key, "error", err)
			}
		}
	}

	s.logger.Sugar().Infow("course sync finished",
		"term", report.Term,
		"offerings", report.Offerings,
		"created", report.CoursesCreated,
		"existing", report.CoursesExisting,
		"duplicates", report.Duplicates,
		"teachers_bound", report.TeachersBound,
		"failures", report.Failures,
	)
	return report, nil
}

func (s *CourseSyncService) importOffering(ctx context.Context, offering sigaa.Offering, startDate, endDate *time.Time, report *models.CourseSyncReport) error {
	category, err := s.categories.Resolve(ctx, offering)
	if err != nil {
		return err
	}

	if s.cfg.RequireTeacher && !s.anyTeacherResolvable(ctx, offering.Teachers) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no offering teacher matches a local account")
	}

	key := models.CourseNaturalKey(offering.TermLabel, offering.Code)
	course, err := s.courses.FindByIDNumber(ctx, key)
	switch {
	case err == nil:
		// Binding goes through the manual enrolment mechanism; a course
		// with it disabled cannot take enrollments.
		if !course.ManualEnrol {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "manual enrolment is disabled on course "+course.IDNumber)
		}
		report.CoursesExisting++
	case err == sql.ErrNoRows:
		course, err = s.createCourse(ctx, offering, category, startDate, endDate)
		if err != nil {
			return err
		}
		report.CoursesCreated++
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "look up course "+key)
	}

	report.TeachersBound += s.bindTeachers(ctx, offering, course)
	return nil
}

func (s *CourseSyncService) createCourse(ctx context.Context, offering sigaa.Offering, category *models.Category, startDate, endDate *time.Time) (*models.Course, error) {
	// Display name, e.g. "2024/1 - Redes de Computadores I - POA-SSI306".
	name := offering.TermLabel + " - " + s.titles.Title(offering.Title) + " - " + offering.Code

	metadata, err := models.CourseMetadata{
		ProgramCode:  offering.ProgramCode,
		TermLabel:    offering.TermLabel,
		OfferingCode: offering.Code,
		SubPeriod:    offering.SubPeriod,
	}.Encode()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode course metadata")
	}

	course := &models.Course{
		FullName:    name,
		ShortName:   name,
		IDNumber:    models.CourseNaturalKey(offering.TermLabel, offering.Code),
		CategoryID:  category.ID,
		TermLabel:   offering.TermLabel,
		Metadata:    metadata,
		ManualEnrol: true,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create course "+course.IDNumber)
	}
	s.logger.Sugar().Infow("course created", "idnumber", course.IDNumber, "fullname", course.FullName)
	return course, nil
}

// anyTeacherResolvable reports whether at least one listed teacher maps to a
// local account by CPF.
func (s *CourseSyncService) anyTeacherResolvable(ctx context.Context, teachers []sigaa.TeacherRef) bool {
	for _, teacher := range teachers {
		if teacher.CPF == "" {
			continue
		}
		if _, err := s.teachers.FindByCPF(ctx, PadCPF(teacher.CPF)); err == nil {
			return true
		}
	}
	return false
}

// bindTeachers enrolls every resolvable teacher into the course with the
// teacher role. Unresolvable teachers are logged and skipped; an existing
// binding is left alone. Returns how many new bindings were made.
func (s *CourseSyncService) bindTeachers(ctx context.Context, offering sigaa.Offering, course *models.Course) int {
	bound := 0
	for _, teacher := range offering.Teachers {
		if teacher.CPF == "" {
			s.logger.Sugar().Warnw("teacher has no CPF on record, cannot bind",
				"teacher", teacher.Name, "course", course.IDNumber)
			continue
		}

		user, err := s.teachers.FindByCPF(ctx, PadCPF(teacher.CPF))
		if err != nil {
			if err == sql.ErrNoRows {
				s.logger.Sugar().Warnw("teacher not found by CPF",
					"teacher", teacher.Name, "course", course.IDNumber)
			} else {
				s.logger.Sugar().Errorw("teacher lookup failed",
					"teacher", teacher.Name, "course", course.IDNumber, "error", err)
			}
			continue
		}

		exists, err := s.enrollments.Exists(ctx, user.ID, course.ID)
		if err != nil {
			s.logger.Sugar().Errorw("teacher binding check failed",
				"user", user.Username, "course", course.IDNumber, "error", err)
			continue
		}
		if exists {
			continue
		}

		enrollment := &models.CourseEnrollment{UserID: user.ID, CourseID: course.ID, RoleID: s.cfg.TeacherRoleID}
		if err := s.enrollments.Create(ctx, enrollment); err != nil {
			s.logger.Sugar().Errorw("teacher binding failed",
				"user", user.Username, "course", course.IDNumber, "error", err)
			continue
		}
		bound++
		s.logger.Sugar().Infow("teacher bound to course", "user", user.Username, "course", course.IDNumber)
	}
	return bound
}

// PadCPF left-pads a CPF to the canonical 11 digits. SIGAA strips leading
// zeros; the local catalog stores them.
func PadCPF(cpf string) string {
	if len(cpf) >= 11 {
		return cpf
	}
	return strings.Repeat("0", 11-len(cpf)) + cpf
}
