package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/uniead-br/sigaa-sync/internal/models"
	"github.com/uniead-br/sigaa-sync/internal/sigaa"
	appErrors "github.com/uniead-br/sigaa-sync/pkg/errors"
	"github.com/uniead-br/sigaa-sync/pkg/strutil"
)

type categoryStore interface {
	FindByIDNumber(ctx context.Context, idNumber string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
}

type levelCategory struct {
	Name string
	Slug string
}

// levelCategoryFor maps a SIGAA program level code onto the top category of
// the tree. Unknown codes land in a catch-all bucket rather than failing the
// record.
func levelCategoryFor(level string) levelCategory {
	switch level {
	case "E", "L", "S":
		return levelCategory{Name: "Graduate Programs", Slug: "graduate-programs"}
	case "G":
		return levelCategory{Name: "Undergraduate Programs", Slug: "undergraduate-programs"}
	case "T", "N", "M":
		return levelCategory{Name: "Technical Programs", Slug: "technical-programs"}
	case "D":
		return levelCategory{Name: "Doctoral Programs", Slug: "doctoral-programs"}
	case "U":
		return levelCategory{Name: "Elementary Education", Slug: "elementary-education"}
	case "I":
		return levelCategory{Name: "Early Childhood Education", Slug: "early-childhood-education"}
	default:
		return levelCategory{Name: "Other", Slug: "other"}
	}
}

// CategoryResolver walks and lazily builds the category tree a course offering
// belongs to: level -> program -> sub-period. Nodes are identified by natural
// key alone, so re-resolving is idempotent. Resolved nodes are cached for the
// life of the resolver.
type CategoryResolver struct {
	store          categoryStore
	titles         *strutil.TitleCaser
	baseCategoryID string
	archiveName    string
	logger         *zap.Logger

	mu    sync.Mutex
	cache map[string]*models.Category
}

// NewCategoryResolver constructs a resolver. baseCategoryID optionally roots
// the level categories under an existing node; archiveName is the display
// name given to per-program archive categories.
func NewCategoryResolver(store categoryStore, titles *strutil.TitleCaser, baseCategoryID, archiveName string, logger *zap.Logger) *CategoryResolver {
	if titles == nil {
		titles = strutil.NewBrazilianTitleCaser(nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryResolver{
		store:          store,
		titles:         titles,
		baseCategoryID: baseCategoryID,
		archiveName:    archiveName,
		logger:         logger,
		cache:          make(map[string]*models.Category),
	}
}

// Resolve returns the category the offering's course belongs to: the
// sub-period node when the offering carries one, otherwise the program node.
func (r *CategoryResolver) Resolve(ctx context.Context, offering sigaa.Offering) (*models.Category, error) {
	level := levelCategoryFor(offering.ProgramLevel)
	levelNode, err := r.ensure(ctx, level.Slug, level.Name, optionalID(r.baseCategoryID))
	if err != nil {
		return nil, err
	}

	programNode, err := r.ensure(ctx, offering.ProgramCode, r.titles.Title(offering.ProgramName), &levelNode.ID)
	if err != nil {
		return nil, err
	}

	if offering.SubPeriod == 0 {
		return programNode, nil
	}

	subIDNumber := offering.ProgramCode + "-" + strconv.Itoa(offering.SubPeriod)
	subName := fmt.Sprintf("Semestre %d", offering.SubPeriod)
	return r.ensure(ctx, subIDNumber, subName, &programNode.ID)
}

// ResolveArchive returns the archive category for a program, creating it under
// the program's node on first use. The program node itself is never created
// here: a course whose program category is gone cannot be archived.
func (r *CategoryResolver) ResolveArchive(ctx context.Context, programCode string) (*models.Category, error) {
	archiveIDNumber := programCode + "-archive"

	r.mu.Lock()
	if cached, ok := r.cache[archiveIDNumber]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	archive, err := r.store.FindByIDNumber(ctx, archiveIDNumber)
	if err == nil {
		r.remember(archive)
		return archive, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "look up archive category "+archiveIDNumber)
	}

	program, err := r.store.FindByIDNumber(ctx, programCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program category not found: "+programCode)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "look up program category "+programCode)
	}

	return r.create(ctx, archiveIDNumber, r.archiveName, &program.ID)
}

// ensure loads a category by natural key, creating it when absent.
func (r *CategoryResolver) ensure(ctx context.Context, idNumber, name string, parentID *string) (*models.Category, error) {
	r.mu.Lock()
	if cached, ok := r.cache[idNumber]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	category, err := r.store.FindByIDNumber(ctx, idNumber)
	if err == nil {
		r.remember(category)
		return category, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "look up category "+idNumber)
	}

	return r.create(ctx, idNumber, name, parentID)
}

func (r *CategoryResolver) create(ctx context.Context, idNumber, name string, parentID *string) (*models.Category, error) {
	category := &models.Category{Name: name, IDNumber: idNumber, ParentID: parentID}
	if err := r.store.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create category "+idNumber)
	}
	r.logger.Sugar().Infow("category created", "idnumber", idNumber, "name", name)
	r.remember(category)
	return category, nil
}

func (r *CategoryResolver) remember(category *models.Category) {
	r.mu.Lock()
	r.cache[category.IDNumber] = category
	r.mu.Unlock()
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
