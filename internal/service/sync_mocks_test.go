package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/uniead-br/sigaa-sync/internal/models"
	"github.com/uniead-br/sigaa-sync/internal/sigaa"
)

type mockCategoryStore struct {
	categories map[string]models.Category
	findCalls  int
	created    []string
}

func newMockCategoryStore() *mockCategoryStore {
	return &mockCategoryStore{categories: make(map[string]models.Category)}
}

func (m *mockCategoryStore) FindByIDNumber(ctx context.Context, idNumber string) (*models.Category, error) {
	m.findCalls++
	if c, ok := m.categories[idNumber]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCategoryStore) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = "cat-" + category.IDNumber
	}
	m.categories[category.IDNumber] = *category
	m.created = append(m.created, category.IDNumber)
	return nil
}

type mockCourseStore struct {
	courses map[string]models.Course
	created []string
}

func newMockCourseStore() *mockCourseStore {
	return &mockCourseStore{courses: make(map[string]models.Course)}
}

func (m *mockCourseStore) FindByIDNumber(ctx context.Context, idNumber string) (*models.Course, error) {
	if c, ok := m.courses[idNumber]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseStore) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "crs-" + course.IDNumber
	}
	m.courses[course.IDNumber] = *course
	m.created = append(m.created, course.IDNumber)
	return nil
}

type mockUserDirectory struct {
	byCPF      map[string]models.User
	byLogin    map[string]models.User
	cpfLookups []string
	loginCalls int
}

func newMockUserDirectory() *mockUserDirectory {
	return &mockUserDirectory{byCPF: make(map[string]models.User), byLogin: make(map[string]models.User)}
}

func (m *mockUserDirectory) FindByCPF(ctx context.Context, cpf string) (*models.User, error) {
	m.cpfLookups = append(m.cpfLookups, cpf)
	if u, ok := m.byCPF[cpf]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserDirectory) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	m.loginCalls++
	if u, ok := m.byLogin[login]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

type mockEnrollmentStore struct {
	existing  map[string]bool
	created   []models.CourseEnrollment
	createErr error
}

func newMockEnrollmentStore() *mockEnrollmentStore {
	return &mockEnrollmentStore{existing: make(map[string]bool)}
}

func enrollmentKey(userID, courseID string) string {
	return userID + "/" + courseID
}

func (m *mockEnrollmentStore) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	return m.existing[enrollmentKey(userID, courseID)], nil
}

func (m *mockEnrollmentStore) Create(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.existing[enrollmentKey(enrollment.UserID, enrollment.CourseID)] = true
	m.created = append(m.created, *enrollment)
	return nil
}

type mockRoster struct {
	groups []sigaa.EnrollmentGroup
	err    error
	calls  int
}

func (m *mockRoster) FetchEnrollments(ctx context.Context, term models.TermKey) ([]sigaa.EnrollmentGroup, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.groups, nil
}

type mockResolver struct {
	category *models.Category
	failFor  map[string]error
}

func (m *mockResolver) Resolve(ctx context.Context, offering sigaa.Offering) (*models.Category, error) {
	if err, ok := m.failFor[offering.Code]; ok {
		return nil, err
	}
	return m.category, nil
}

type mockTermLock struct {
	held     bool
	acquires int
	releases int
}

func (m *mockTermLock) Acquire(ctx context.Context, term models.TermKey) (bool, error) {
	m.acquires++
	if m.held {
		return false, nil
	}
	m.held = true
	return true, nil
}

func (m *mockTermLock) Release(ctx context.Context, term models.TermKey) error {
	m.releases++
	m.held = false
	return nil
}

type mockCoursePager struct {
	courses   []models.Course
	relocated map[string]string
	endDates  map[string]*time.Time
}

func newMockCoursePager(courses []models.Course) *mockCoursePager {
	return &mockCoursePager{
		courses:   courses,
		relocated: make(map[string]string),
		endDates:  make(map[string]*time.Time),
	}
}

func (m *mockCoursePager) ListByTerm(ctx context.Context, termLabel string, limit, offset int) ([]models.Course, error) {
	var page []models.Course
	for _, c := range m.courses {
		if c.TermLabel == termLabel {
			page = append(page, c)
		}
	}
	if offset >= len(page) {
		return nil, nil
	}
	end := offset + limit
	if end > len(page) {
		end = len(page)
	}
	return page[offset:end], nil
}

func (m *mockCoursePager) Relocate(ctx context.Context, id, categoryID string, endDate *time.Time) error {
	m.relocated[id] = categoryID
	m.endDates[id] = endDate
	return nil
}
