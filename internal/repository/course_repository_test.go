package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/uniead-br/sigaa-sync/internal/models"
)

func TestCourseRepositoryFindByIDNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db, "periodo_letivo", "metadata")

	rows := sqlmock.NewRows([]string{"id", "fullname", "shortname", "idnumber", "category_id", "manual_enrol", "term_label", "metadata", "start_date", "end_date", "created_at"}).
		AddRow("crs-1", "2024/1 - Redes de Computadores I - POA-SSI306", "2024/1 - Redes de Computadores I - POA-SSI306",
			"2024/1-POA-SSI306", "cat-1", true, "2024/1", `{"program_code":"POA-SSI"}`, nil, nil, time.Now())
	mock.ExpectQuery("FROM courses WHERE idnumber").
		WithArgs("periodo_letivo", "metadata", "2024/1-POA-SSI306").
		WillReturnRows(rows)

	course, err := repo.FindByIDNumber(context.Background(), "2024/1-POA-SSI306")
	require.NoError(t, err)
	require.Equal(t, "2024/1", course.TermLabel)
	require.True(t, course.ManualEnrol)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateWritesCustomFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db, "periodo_letivo", "metadata")

	mock.ExpectExec("INSERT INTO courses").
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{
		FullName:    "2024/1 - Redes de Computadores I - POA-SSI306",
		ShortName:   "2024/1 - Redes de Computadores I - POA-SSI306",
		IDNumber:    "2024/1-POA-SSI306",
		CategoryID:  "cat-1",
		TermLabel:   "2024/1",
		Metadata:    `{"program_code":"POA-SSI","term_label":"2024/1","offering_code":"POA-SSI306","sub_period":3}`,
		ManualEnrol: true,
	}
	require.NoError(t, repo.Create(context.Background(), course))
	require.NotEmpty(t, course.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListByTermPages(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db, "periodo_letivo", "metadata")

	rows := sqlmock.NewRows([]string{"id", "fullname", "shortname", "idnumber", "category_id", "manual_enrol", "term_label", "metadata", "start_date", "end_date", "created_at"}).
		AddRow("crs-1", "a", "a", "2024/1-A", "cat-1", true, "2024/1", "{}", nil, nil, time.Now()).
		AddRow("crs-2", "b", "b", "2024/1-B", "cat-1", true, "2024/1", "{}", nil, nil, time.Now())
	mock.ExpectQuery("FROM courses WHERE custom_fields.+ORDER BY created_at ASC").
		WithArgs("periodo_letivo", "metadata", "2024/1", 50, 0).
		WillReturnRows(rows)

	courses, err := repo.ListByTerm(context.Background(), "2024/1", 50, 0)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryRelocate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db, "periodo_letivo", "metadata")

	end := time.Now().UTC()
	mock.ExpectExec("UPDATE courses SET category_id").
		WithArgs("crs-1", "cat-archive", end).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Relocate(context.Background(), "crs-1", "cat-archive", &end))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryRelocateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db, "periodo_letivo", "metadata")

	mock.ExpectExec("UPDATE courses SET category_id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Relocate(context.Background(), "missing", "cat-archive", nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
