// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"

	"stockroom/internal/catalog"
	"stockroom/internal/models"
)

// CategoryStore persists categories in PostgreSQL. The schema carries the
// unique LOWER(name) index and the RESTRICT parent foreign key that the
// catalog relies on.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, description, parent_id, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(&c.ID, &c.Name, &c.Description, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryStore) query(ctx context.Context, op, q string, args ...any) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(op, err, catalog.ConstraintParentFK)
	}
	defer rows.Close()

	items := make([]models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, classify(op, err, catalog.ConstraintParentFK)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err, catalog.ConstraintParentFK)
	}
	return items, nil
}

// Get retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) Get(ctx context.Context, id int64) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get category", err, catalog.ConstraintParentFK)
	}
	return c, nil
}

// GetAll returns every category ordered by id.
func (s *CategoryStore) GetAll(ctx context.Context) ([]models.Category, error) {
	return s.query(ctx, "list categories",
		`SELECT `+categoryColumns+` FROM categories ORDER BY id`)
}

// ListByParent returns the direct children of parentID, or the roots when
// parentID is nil.
func (s *CategoryStore) ListByParent(ctx context.Context, parentID *int64) ([]models.Category, error) {
	if parentID == nil {
		return s.query(ctx, "list root categories",
			`SELECT `+categoryColumns+` FROM categories WHERE parent_id IS NULL ORDER BY id`)
	}
	return s.query(ctx, "list child categories",
		`SELECT `+categoryColumns+` FROM categories WHERE parent_id = $1 ORDER BY id`, *parentID)
}

// Insert creates a category and returns the stored row.
func (s *CategoryStore) Insert(ctx context.Context, c *models.Category) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, description, parent_id)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		c.Name, c.Description, c.ParentID,
	)
	created, err := scanCategory(row)
	if err != nil {
		return nil, classify("insert category", err, catalog.ConstraintParentFK)
	}
	return created, nil
}

// Update writes name, description and parent_id and bumps updated_at.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE categories SET
			name = $1, description = $2, parent_id = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING `+categoryColumns,
		c.Name, c.Description, c.ParentID, c.ID,
	)
	updated, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.NotFound(c.ID)
	}
	if err != nil {
		return nil, classify("update category", err, catalog.ConstraintParentFK)
	}
	return updated, nil
}

// Delete removes a category. A row still referenced by children or
// components is refused by the RESTRICT foreign keys.
func (s *CategoryStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, classify("delete category", err, catalog.ConstraintReferenced)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("delete category", err, catalog.ConstraintReferenced)
	}
	return n > 0, nil
}

// ExistsByName reports whether a category other than excludeID already
// uses name, ignoring case.
func (s *CategoryStore) ExistsByName(ctx context.Context, name string, excludeID *int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE LOWER(name) = LOWER($1) AND ($2::BIGINT IS NULL OR id <> $2)
		)`, name, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, classify("check category name", err, catalog.ConstraintParentFK)
	}
	return exists, nil
}

func (s *CategoryStore) count(ctx context.Context, op, q string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, classify(op, err, catalog.ConstraintParentFK)
	}
	return n, nil
}

// CountChildren returns the number of direct children of id.
func (s *CategoryStore) CountChildren(ctx context.Context, id int64) (int, error) {
	return s.count(ctx, "count child categories",
		`SELECT COUNT(*) FROM categories WHERE parent_id = $1`, id)
}

// CountItems returns the number of components filed under id.
func (s *CategoryStore) CountItems(ctx context.Context, id int64) (int, error) {
	return s.count(ctx, "count components",
		`SELECT COUNT(*) FROM components WHERE category_id = $1`, id)
}

// CountNodes returns the total number of categories.
func (s *CategoryStore) CountNodes(ctx context.Context) (int, error) {
	return s.count(ctx, "count categories", `SELECT COUNT(*) FROM categories`)
}

// ItemCounts returns component counts for every category that has any.
func (s *CategoryStore) ItemCounts(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id, COUNT(*) FROM components GROUP BY category_id`)
	if err != nil {
		return nil, classify("count components", err, catalog.ConstraintParentFK)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, classify("scan component count", err, catalog.ConstraintParentFK)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classify("count components", err, catalog.ConstraintParentFK)
	}
	return counts, nil
}

// Ping verifies the connection pool is usable.
func (s *CategoryStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
