// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog implements the category tree of the stockroom: reading
// the flat parent-pointer rows as a tree, validating moves and renames,
// guarding deletes, and attaching display counts.
package catalog

import (
	"context"

	"stockroom/internal/models"
)

// NodeStore persists category rows. Implementations enforce a unique
// case-insensitive name and a parent foreign key, reporting violations
// as ConstraintViolation and transient I/O failures as StorageUnavailable.
type NodeStore interface {
	// Get returns nil, nil when the row does not exist.
	Get(ctx context.Context, id int64) (*models.Category, error)
	GetAll(ctx context.Context) ([]models.Category, error)
	// Insert assigns the id and both timestamps.
	Insert(ctx context.Context, c *models.Category) (*models.Category, error)
	// Update writes name, description and parent, refreshing updated_at.
	Update(ctx context.Context, c *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ExistsByName(ctx context.Context, name string, excludeID *int64) (bool, error)
	CountChildren(ctx context.Context, id int64) (int, error)
	CountItems(ctx context.Context, id int64) (int, error)
}

// ChildLister is implemented by stores that can filter by parent natively.
// A nil parentID selects roots. The reader sorts the result itself.
type ChildLister interface {
	ListByParent(ctx context.Context, parentID *int64) ([]models.Category, error)
}

// NodeCounter is implemented by stores that can count rows without
// loading them.
type NodeCounter interface {
	CountNodes(ctx context.Context) (int, error)
}

// ItemCountLister is implemented by stores that can count components for
// every category in one pass. Categories without components may be absent
// from the map.
type ItemCountLister interface {
	ItemCounts(ctx context.Context) (map[int64]int, error)
}
