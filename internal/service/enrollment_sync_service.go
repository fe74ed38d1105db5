package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/uniead-br/sigaa-sync/internal/models"
	"github.com/uniead-br/sigaa-sync/internal/sigaa"
)

type learnerDirectory interface {
	FindByLogin(ctx context.Context, login string) (*models.User, error)
}

// EnrollmentSyncService enrolls learners into the courses their SIGAA record
// lists for a term. It never creates users or courses: a missing side is
// counted and skipped, to be picked up once the other sync (or account
// provisioning) has caught up.
type EnrollmentSyncService struct {
	roster        rosterFetcher
	courses       courseStore
	users         learnerDirectory
	enrollments   enrollmentStore
	studentRoleID string
	logger        *zap.Logger
}

// NewEnrollmentSyncService constructs the enrollment sync.
func NewEnrollmentSyncService(roster rosterFetcher, courses courseStore, users learnerDirectory, enrollments enrollmentStore, studentRoleID string, logger *zap.Logger) *EnrollmentSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentSyncService{
		roster:        roster,
		courses:       courses,
		users:         users,
		enrollments:   enrollments,
		studentRoleID: studentRoleID,
		logger:        logger,
	}
}

// Run processes every learner reported for the term. A transport failure
// aborts the run; anything else is confined to the learner or offering it
// happened on.
func (s *EnrollmentSyncService) Run(ctx context.Context, term models.TermKey) (*models.EnrollmentSyncReport, error) {
	groups, err := s.roster.FetchEnrollments(ctx, term)
	if err != nil {
		return nil, err
	}

	report := &models.EnrollmentSyncReport{Term: term.String()}
	// Offerings SIGAA lists but the catalog does not have. Remembering them
	// avoids re-querying the same absent course for every learner.
	courseNotFound := make(map[string]struct{})

	for _, group := range groups {
		report.Learners++

		user, err := s.users.FindByLogin(ctx, group.Login)
		if err != nil {
			if err == sql.ErrNoRows {
				report.MissingLearners++
				s.logger.Sugar().Warnw("learner not found",
					"login", group.Login, "registration", group.RegistrationID)
			} else {
				report.Failures++
				s.logger.Sugar().Errorw("learner lookup failed",
					"login", group.Login, "error", err)
			}
			continue
		}

		for _, offering := range group.Offerings {
			s.enrollLearner(ctx, user, offering, courseNotFound, report)
		}
	}

	s.logger.Sugar().Infow("enrollment sync finished",
		"term", report.Term,
		"learners", report.Learners,
		"enrolled", report.Enrolled,
		"already_enrolled", report.AlreadyEnrolled,
		"missing_courses", report.MissingCourses,
		"missing_learners", report.MissingLearners,
		"failures", report.Failures,
	)
	return report, nil
}

func (s *EnrollmentSyncService) enrollLearner(ctx context.Context, user *models.User, offering sigaa.Offering, courseNotFound map[string]struct{}, report *models.EnrollmentSyncReport) {
	key := models.CourseNaturalKey(offering.TermLabel, offering.Code)

	if _, missing := courseNotFound[key]; missing {
		report.MissingCourses++
		return
	}

	course, err := s.courses.FindByIDNumber(ctx, key)
	if err != nil {
		if err == sql.ErrNoRows {
			courseNotFound[key] = struct{}{}
			report.MissingCourses++
			s.logger.Sugar().Warnw("course not found", "idnumber", key)
		} else {
			report.Failures++
			s.logger.Sugar().Errorw("course lookup failed", "idnumber", key, "error", err)
		}
		return
	}

	if !course.ManualEnrol {
		report.Failures++
		s.logger.Sugar().Errorw("manual enrolment is disabled on course, cannot enroll",
			"user", user.Username, "course", key)
		return
	}

	exists, err := s.enrollments.Exists(ctx, user.ID, course.ID)
	if err != nil {
		report.Failures++
		s.logger.Sugar().Errorw("enrollment check failed",
			"user", user.Username, "course", key, "error", err)
		return
	}
	if exists {
		report.AlreadyEnrolled++
		return
	}

	enrollment := &models.CourseEnrollment{UserID: user.ID, CourseID: course.ID, RoleID: s.studentRoleID}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		report.Failures++
		s.logger.Sugar().Errorw("enrollment failed",
			"user", user.Username, "course", key, "error", err)
		return
	}
	report.Enrolled++
	s.logger.Sugar().Infow("learner enrolled", "user", user.Username, "course", key)
}
