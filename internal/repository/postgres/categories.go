package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

var categoryColumns = []string{
	"id",
	"parent_id",
	"name",
	"slug",
	"description",
	"sort_order",
	"is_active",
	"created_at",
	"updated_at",
}

// CategoryRepository implements port.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCategoryRepository wires a PostgreSQL-backed category repository.
func NewCategoryRepository(exec pgExecutor) *CategoryRepository {
	repo := &CategoryRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Create inserts a new category row.
func (r *CategoryRepository) Create(ctx context.Context, category domain.Category) error {
	stmt, args, err := r.builder.Insert("commerce.categories").
		Columns(categoryColumns...).
		Values(
			category.ID,
			category.ParentID,
			category.Name,
			category.Slug,
			category.Description,
			category.SortOrder,
			category.IsActive,
			category.CreatedAt,
			category.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert category sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	return nil
}

// Update modifies an existing category.
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	stmt, args, err := r.builder.Update("commerce.categories").
		Set("parent_id", category.ParentID).
		Set("name", category.Name).
		Set("slug", category.Slug).
		Set("description", category.Description).
		Set("sort_order", category.SortOrder).
		Set("is_active", category.IsActive).
		Set("updated_at", category.UpdatedAt).
		Where(squirrel.Eq{"id": category.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update category sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetBySlug retrieves a category by its URL slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	stmt, args, err := r.builder.Select(categoryColumns...).
		From("commerce.categories").
		Where(squirrel.Eq{"slug": slug}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select category sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var category domain.Category
	if err := row.Scan(
		&category.ID,
		&category.ParentID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.SortOrder,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	return &category, nil
}

// List returns categories ordered for navigation menus.
func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	query := r.builder.Select(categoryColumns...).
		From("commerce.categories").
		OrderBy("sort_order ASC", "name ASC")

	if activeOnly {
		query = query.Where(squirrel.Eq{"is_active": true})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list categories sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.ParentID,
			&category.Name,
			&category.Slug,
			&category.Description,
			&category.SortOrder,
			&category.IsActive,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

var _ port.CategoryRepository = (*CategoryRepository)(nil)
