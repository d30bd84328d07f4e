// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"

	"stockroom/internal/catalog"
	"stockroom/internal/models"
)

// ComponentStore manages the components filed under categories.
type ComponentStore struct {
	db *sql.DB
}

// NewComponentStore returns a new ComponentStore.
func NewComponentStore(db *sql.DB) *ComponentStore {
	return &ComponentStore{db: db}
}

const componentColumns = `id, name, part_number, quantity, category_id, created_at, updated_at`

func scanComponent(scanner interface{ Scan(...any) error }) (*models.Component, error) {
	var c models.Component
	err := scanner.Scan(&c.ID, &c.Name, &c.PartNumber, &c.Quantity, &c.CategoryID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertComponent files a new component under its category.
func (s *ComponentStore) InsertComponent(ctx context.Context, c *models.Component) (*models.Component, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO components (name, part_number, quantity, category_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+componentColumns,
		c.Name, c.PartNumber, c.Quantity, c.CategoryID,
	)
	created, err := scanComponent(row)
	if err != nil {
		return nil, classify("insert component", err, catalog.ConstraintCategoryFK)
	}
	return created, nil
}

// DeleteComponent removes a component. It reports false when absent.
func (s *ComponentStore) DeleteComponent(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM components WHERE id = $1`, id)
	if err != nil {
		return false, classify("delete component", err, catalog.ConstraintCategoryFK)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("delete component", err, catalog.ConstraintCategoryFK)
	}
	return n > 0, nil
}

// ListComponents returns the components of a category ordered by id.
func (s *ComponentStore) ListComponents(ctx context.Context, categoryID int64) ([]models.Component, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+componentColumns+` FROM components WHERE category_id = $1 ORDER BY id`, categoryID)
	if err != nil {
		return nil, classify("list components", err, catalog.ConstraintCategoryFK)
	}
	defer rows.Close()

	items := make([]models.Component, 0)
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, classify("scan component", err, catalog.ConstraintCategoryFK)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list components", err, catalog.ConstraintCategoryFK)
	}
	return items, nil
}
