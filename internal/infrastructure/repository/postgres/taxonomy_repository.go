package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"office-archive-indexer/internal/core/domain"
)

type TaxonomyRepository struct {
	db *sql.DB
}

func NewTaxonomyRepository(db *sql.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// upsertNamed is the shared atomic upsert for the name-keyed tables.
// The no-op DO UPDATE makes RETURNING yield the surviving row id for
// both insert and conflict.
func (r *TaxonomyRepository) upsertNamed(ctx context.Context, table, name string) (string, error) {
	query := fmt.Sprintf(`
INSERT INTO %s (id, name) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`, table)

	var id string
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), name).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert %s %q: %w", table, name, err)
	}
	return id, nil
}

func (r *TaxonomyRepository) UpsertDepartment(ctx context.Context, name string) (*domain.Department, error) {
	id, err := r.upsertNamed(ctx, "departments", name)
	if err != nil {
		return nil, err
	}
	return &domain.Department{ID: id, Name: name}, nil
}

func (r *TaxonomyRepository) UpsertCategory(ctx context.Context, name string) (*domain.Category, error) {
	id, err := r.upsertNamed(ctx, "categories", name)
	if err != nil {
		return nil, err
	}
	return &domain.Category{ID: id, Name: name}, nil
}

func (r *TaxonomyRepository) UpsertBrand(ctx context.Context, name string) (*domain.Brand, error) {
	id, err := r.upsertNamed(ctx, "brands", name)
	if err != nil {
		return nil, err
	}
	return &domain.Brand{ID: id, Name: name}, nil
}

func (r *TaxonomyRepository) GetTopic(ctx context.Context, categoryID, slug string) (*domain.Topic, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, slug, category_id
FROM topics
WHERE category_id = $1 AND slug = $2
`, categoryID, slug)

	var topic domain.Topic
	err := row.Scan(&topic.ID, &topic.Name, &topic.Slug, &topic.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get topic", err)
		}
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	return &topic, nil
}

func (r *TaxonomyRepository) CreateTopic(ctx context.Context, topic *domain.Topic) error {
	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO topics (id, name, slug, category_id) VALUES ($1, $2, $3, $4)
`, topic.ID, topic.Name, topic.Slug, topic.CategoryID)
	if err != nil {
		return wrapUnique("create topic", err)
	}
	return nil
}

func (r *TaxonomyRepository) GetModelByName(ctx context.Context, name string) (*domain.MachineModel, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, brand_id
FROM machine_models
WHERE name = $1
`, name)

	var model domain.MachineModel
	var brandID sql.NullString
	err := row.Scan(&model.ID, &model.Name, &brandID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get machine model", err)
		}
		return nil, fmt.Errorf("scan machine model: %w", err)
	}
	model.BrandID = brandID.String
	return &model, nil
}

func (r *TaxonomyRepository) CreateModel(ctx context.Context, model *domain.MachineModel) error {
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO machine_models (id, name, brand_id) VALUES ($1, $2, NULLIF($3, ''))
`, model.ID, model.Name, model.BrandID)
	if err != nil {
		return wrapUnique("create machine model", err)
	}
	return nil
}

func (r *TaxonomyRepository) SetModelBrand(ctx context.Context, modelID, brandID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE machine_models SET brand_id = $2 WHERE id = $1
`, modelID, brandID)
	if err != nil {
		return fmt.Errorf("set machine model brand: %w", err)
	}
	return nil
}
