package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniead-br/sigaa-sync/internal/models"
)

// CategoryRepository handles persistence of the course category tree.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs the repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByIDNumber loads a category by its natural key. Returns sql.ErrNoRows
// when absent.
func (r *CategoryRepository) FindByIDNumber(ctx context.Context, idNumber string) (*models.Category, error) {
	const query = `SELECT id, name, idnumber, parent_id, created_at FROM categories WHERE idnumber = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, idNumber); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create inserts a new category node.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO categories (id, name, idnumber, parent_id, created_at)
        VALUES (:id, :name, :idnumber, :parent_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}
