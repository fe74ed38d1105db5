package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniead-br/sigaa-sync/internal/models"
	"github.com/uniead-br/sigaa-sync/internal/sigaa"
	appErrors "github.com/uniead-br/sigaa-sync/pkg/errors"
)

func newCourseSync(roster *mockRoster, courses *mockCourseStore, users *mockUserDirectory, enrollments *mockEnrollmentStore, requireTeacher bool) *CourseSyncService {
	resolver := &mockResolver{category: &models.Category{ID: "cat-1", IDNumber: "POA-SSI-3"}}
	cfg := CourseSyncConfig{TeacherRoleID: "teacher", RequireTeacher: requireTeacher}
	return NewCourseSyncService(roster, courses, resolver, users, enrollments, nil, cfg, nil)
}

func rosterWith(offerings ...sigaa.Offering) *mockRoster {
	return &mockRoster{groups: []sigaa.EnrollmentGroup{
		{RegistrationID: "20240001", Login: "aluno1", Offerings: offerings},
	}}
}

func TestCourseSyncCreatesCourseAndBindsTeacher(t *testing.T) {
	offering := testOffering()
	offering.Teachers = []sigaa.TeacherRef{{Name: "Ana", CPF: "191"}}

	courses := newMockCourseStore()
	users := newMockUserDirectory()
	users.byCPF["00000000191"] = models.User{ID: "usr-ana", Username: "ana"}
	enrollments := newMockEnrollmentStore()

	svc := newCourseSync(rosterWith(offering), courses, users, enrollments, true)
	report, err := svc.Run(context.Background(), models.TermKey{Year: "2024", Period: "1"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Offerings)
	assert.Equal(t, 1, report.CoursesCreated)
	assert.Equal(t, 1, report.TeachersBound)
	assert.Zero(t, report.Failures)

	course := courses.courses["2024/1-POA-SSI306"]
	assert.Equal(t, "2024/1 - Redes de Computadores I - POA-SSI306", course.FullName)
	assert.Equal(t, course.FullName, course.ShortName)
	assert.Equal(t, "cat-1", course.CategoryID)
	assert.Equal(t, "2024/1", course.TermLabel)
	assert.True(t, course.ManualEnrol)

	metadata, err := models.DecodeCourseMetadata(course.Metadata)
	require.NoError(t, err)
	assert.Equal(t, models.CourseMetadata{
		ProgramCode:  "POA-SSI",
		TermLabel:    "2024/1",
		OfferingCode: "POA-SSI306",
		SubPeriod:    3,
	}, metadata)

	require.Len(t, enrollments.created, 1)
	assert.Equal(t, "usr-ana", enrollments.created[0].UserID)
	assert.Equal(t, "teacher", enrollments.created[0].RoleID)
}

func TestCourseSyncSecondRunConverges(t *testing.T) {
	offering := testOffering()
	offering.Teachers = []sigaa.TeacherRef{{Name: "Ana", CPF: "00000000191"}}

	courses := newMockCourseStore()
	users := newMockUserDirectory()
	users.byCPF["00000000191"] = models.User{ID: "usr-ana", Username: "ana"}
	enrollments := newMockEnrollmentStore()
	svc := newCourseSync(rosterWith(offering), courses, users, enrollments, true)

	term := models.TermKey{Year: "2024", Period: "1"}
	_, err := svc.Run(context.Background(), term, nil, nil)
	require.NoError(t, err)

	report, err := svc.Run(context.Background(), term, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.CoursesExisting)
	assert.Zero(t, report.CoursesCreated)
	assert.Zero(t, report.TeachersBound, "binding is idempotent")
	assert.Len(t, courses.created, 1)
	assert.Len(t, enrollments.created, 1)
}

func TestCourseSyncDuplicateOfferingsShortCircuit(t *testing.T) {
	offering := testOffering()
	offering.Teachers = []sigaa.TeacherRef{{Name: "Ana", CPF: "00000000191"}}
	roster := &mockRoster{groups: []sigaa.EnrollmentGroup{
		{RegistrationID: "20240001", Login: "aluno1", Offerings: []sigaa.Offering{offering}},
		{RegistrationID: "20240002", Login: "aluno2", Offerings: []sigaa.Offering{offering}},
	}}

	courses := newMockCourseStore()
	users := newMockUserDirectory()
	users.byCPF["00000000191"] = models.User{ID: "usr-ana", Username: "ana"}
	svc := newCourseSync(roster, courses, users, newMockEnrollmentStore(), true)

	report, err := svc.Run(context.Background(), models.TermKey{Year: "2024", Period: "1"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Offerings)
	assert.Equal(t, 1, report.Duplicates)
	assert.Len(t, courses.created, 1)
}

func TestCourseSyncRequireTeacherBlocksCreation(t *testing.T) {
	offering := testOffering()
	offering.Teachers = []sigaa.TeacherRef{{Name: "Sem Conta", CPF: "99999999999"}, {Name: "Sem CPF"}}

	courses := newMockCourseStore()
	svc := newCourseSync(rosterWith(offering), courses, newMockUserDirectory(), newMockEnrollmentStore(), true)

	report, err := svc.Run(context.Background(), models.TermKey{Year: "2024", Period: "1"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failures)
	assert.Zero(t, report.CoursesCreated)
	assert.Empty(t, courses.created)
}

func TestCourseSyncTeacherOptionalWhenDisabled(t *testing.T) {
	offering := testOffering()

	courses := newMockCourseStore()
	svc := newCourseSync(rosterWith(offering), courses, newMockUserDirectory(), newMockEnrollmentStore(), false)

	report, err := svc.Run(context.Background(), models.TermKey{Year: "2024", Period: "1"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.CoursesCreated)
	assert.Zero(t, report.Failures)
}

func TestCourseSyncFailureIsolation(t *testing.T) {
	broken := testOffering()
	broken.Code = "POA-SSI999"
	healthy := testOffering()
	healthy.Teachers = []sigaa.TeacherRef{{Name: "Ana", CPF: "00000000191"}}

	roster := rosterWith(broken, healthy)
	courses := newMockCourseStore()
	users := newMockUserDirectory()
	users.byCPF["00000000191"] = models.User{ID: "usr-ana", Username: "ana"}
	enrollments := newMockEnrollmentStore()

	resolver := &mockResolver{
		category: &models.Category{ID: "cat-1", IDNumber: "POA-SSI-3"},
		failFor:  map[string]error{"POA-SSI999": appErrors.Clone(appErrors.ErrInternal, "boom")},
	}
	svc := NewCourseSyncService(roster, courses, resolver, users, enrollments, nil,
		CourseSyncConfig{TeacherRoleID: "teacher", RequireTeacher: true}, nil)

	report, err := svc.Run(context.Background(), models.TermKey{Year: "2024", Period: "1"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, 1, report.CoursesCreated)
	assert.Contains(t, courses.courses, "2024/1-POA-SSI306")
	assert.NotContains(t, courses.courses, "2024/1-POA-SSI999")
}

func TestCourseSyncManualEnrolDisabledBlocksBinding(t *testing.T) {
	offering := testOffering()
	offering.Teachers = []sigaa.TeacherRef{{Name: "Ana", CPF: "00000000191"}}

	courses := newMockCourseStore()
	courses.courses["2024/1-POA-SSI306"] = models.Course{
		ID:          "crs-2024/1-POA-SSI306",
		IDNumber:    "2024/1-POA-SSI306",
		ManualEnrol: false,
	}
	users := newMockUserDirectory()
	users.byCPF["00000000191"] = models.User{ID: "usr-ana", Username: "ana"}
	enrollments := newMockEnrollmentStore()

	svc := newCourseSync(rosterWith(offering), courses, users, enrollments, true)
	report, err := svc.Run(context.Background(), models.TermKey{Year: "2024", Period: "1"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failures)
	assert.Zero(t, report.CoursesExisting)
	assert.Zero(t, report.TeachersBound)
	assert.Empty(t, enrollments.created)
}

func TestCourseSyncTransportErrorAbortsRun(t *testing.T) {
	roster := &mockRoster{err: appErrors.Clone(appErrors.ErrTransport, "status=502")}
	svc := newCourseSync(roster, newMockCourseStore(), newMockUserDirectory(), newMockEnrollmentStore(), true)

	_, err := svc.Run(context.Background(), models.TermKey{Year: "2024", Period: "1"}, nil, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrTransport))
}

func TestCourseSyncAppliesTermDates(t *testing.T) {
	offering := testOffering()
	start := time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 13, 0, 0, 0, 0, time.UTC)

	courses := newMockCourseStore()
	svc := newCourseSync(rosterWith(offering), courses, newMockUserDirectory(), newMockEnrollmentStore(), false)

	_, err := svc.Run(context.Background(), models.TermKey{Year: "2024", Period: "1"}, &start, &end)
	require.NoError(t, err)

	course := courses.courses["2024/1-POA-SSI306"]
	require.NotNil(t, course.StartDate)
	require.NotNil(t, course.EndDate)
	assert.Equal(t, start, *course.StartDate)
	assert.Equal(t, end, *course.EndDate)
}

func TestPadCPF(t *testing.T) {
	assert.Equal(t, "00000000191", PadCPF("191"))
	assert.Equal(t, "12345678901", PadCPF("12345678901"))
}
