package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniead-br/sigaa-sync/internal/models"
)

// CourseRepository handles persistence of courses. The term label and the
// provenance metadata live in the course's custom-field blob under keys
// configured per deployment, mirroring how the LMS models custom fields.
type CourseRepository struct {
	db            *sqlx.DB
	termField     string
	metadataField string
}

// NewCourseRepository constructs the repository with the designated
// custom-field names.
func NewCourseRepository(db *sqlx.DB, termField, metadataField string) *CourseRepository {
	return &CourseRepository{db: db, termField: termField, metadataField: metadataField}
}

func (r *CourseRepository) selectColumns() string {
	return `SELECT id, fullname, shortname, idnumber, category_id, manual_enrol,
        COALESCE(custom_fields->>$1, '') AS term_label,
        COALESCE(custom_fields->>$2, '') AS metadata,
        start_date, end_date, created_at FROM courses`
}

// FindByIDNumber loads a course by its natural key. Returns sql.ErrNoRows
// when absent.
func (r *CourseRepository) FindByIDNumber(ctx context.Context, idNumber string) (*models.Course, error) {
	query := r.selectColumns() + ` WHERE idnumber = $3`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, r.termField, r.metadataField, idNumber); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course, writing the term label and metadata blob into
// the designated custom fields.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, fullname, shortname, idnumber, category_id, manual_enrol, custom_fields, start_date, end_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, jsonb_build_object($7::text, $8::text, $9::text, $10::text), $11, $12, $13)`
	if _, err := r.db.ExecContext(ctx, query,
		course.ID,
		course.FullName,
		course.ShortName,
		course.IDNumber,
		course.CategoryID,
		course.ManualEnrol,
		r.termField, course.TermLabel,
		r.metadataField, course.Metadata,
		course.StartDate,
		course.EndDate,
		course.CreatedAt,
	); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// ListByTerm pages through courses whose designated term field matches the
// label, oldest first for deterministic, resumable paging.
func (r *CourseRepository) ListByTerm(ctx context.Context, termLabel string, limit, offset int) ([]models.Course, error) {
	query := r.selectColumns() + ` WHERE custom_fields->>$1 = $3 ORDER BY created_at ASC LIMIT $4 OFFSET $5`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, r.termField, r.metadataField, termLabel, limit, offset); err != nil {
		return nil, fmt.Errorf("list courses by term: %w", err)
	}
	return courses, nil
}

// Relocate moves a course into another category and backfills the end date
// when one is provided. Sync never touches any other course column.
func (r *CourseRepository) Relocate(ctx context.Context, id, categoryID string, endDate *time.Time) error {
	const query = `UPDATE courses SET category_id = $2, end_date = COALESCE(end_date, $3) WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, categoryID, endDate)
	if err != nil {
		return fmt.Errorf("relocate course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
