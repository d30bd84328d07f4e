// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"log/slog"
	"strings"

	"stockroom/internal/models"
)

// Mutator creates, renames and moves categories. Its checks run before
// the write and are optimistic: the store's own constraints still decide
// races, and a violation they report is returned, never retried.
type Mutator struct {
	store  NodeStore
	reader *Reader
	logger *slog.Logger
}

// NewMutator creates a Mutator. reader is used for existence and
// ancestry checks.
func NewMutator(store NodeStore, reader *Reader, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{store: store, reader: reader, logger: logger}
}

// Create validates and inserts a new category.
func (m *Mutator) Create(ctx context.Context, in CreateInput) (*models.Category, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	if err := m.checkNameFree(ctx, in.Name, nil); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := m.store.Get(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			m.logger.Warn("create category: parent not found", "parent_id", *in.ParentID)
			return nil, parentNotFound(*in.ParentID)
		}
	}

	created, err := m.store.Insert(ctx, &models.Category{
		Name:        in.Name,
		Description: in.Description,
		ParentID:    in.ParentID,
	})
	if err != nil {
		return nil, classifyWrite(err, in.Name, in.ParentID)
	}

	m.logger.Info("category created", "id", created.ID, "name", created.Name, "parent_id", created.ParentID)
	return created, nil
}

// Rename changes a category's name. The uniqueness check excludes the
// category's own row so that case-only renames succeed.
func (m *Mutator) Rename(ctx context.Context, id int64, newName string) (*models.Category, error) {
	cur, err := m.reader.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(newName)
	if err := validateName(name); err != nil {
		return nil, invalid(err)
	}

	if err := m.checkNameFree(ctx, name, &id); err != nil {
		return nil, err
	}

	cur.Name = name
	updated, err := m.store.Update(ctx, cur)
	if err != nil {
		return nil, classifyWrite(err, cur.Name, cur.ParentID)
	}

	m.logger.Info("category renamed", "id", id, "name", updated.Name)
	return updated, nil
}

// Reparent moves a category under newParentID, or to the root level when
// newParentID is nil. Moving a category under itself or any of its
// descendants is refused.
func (m *Mutator) Reparent(ctx context.Context, id int64, newParentID *int64) (*models.Category, error) {
	if newParentID != nil && *newParentID == id {
		m.logger.Warn("reparent refused: self parent", "id", id)
		return nil, newError(KindSelfParent, "category %d cannot be its own parent", id)
	}

	cur, err := m.reader.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.checkParent(ctx, id, newParentID); err != nil {
		return nil, err
	}

	cur.ParentID = newParentID
	updated, err := m.store.Update(ctx, cur)
	if err != nil {
		return nil, classifyWrite(err, cur.Name, newParentID)
	}

	m.logger.Info("category moved", "id", id, "parent_id", newParentID)
	return updated, nil
}

// Update replaces name, description and parent together, applying the
// rename and reparent rules.
func (m *Mutator) Update(ctx context.Context, id int64, in UpdateInput) (*models.Category, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	if in.ParentID != nil && *in.ParentID == id {
		m.logger.Warn("update refused: self parent", "id", id)
		return nil, newError(KindSelfParent, "category %d cannot be its own parent", id)
	}

	cur, err := m.reader.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if cur.Name != in.Name {
		if err := m.checkNameFree(ctx, in.Name, &id); err != nil {
			return nil, err
		}
	}
	if !models.SameParent(cur.ParentID, in.ParentID) {
		if err := m.checkParent(ctx, id, in.ParentID); err != nil {
			return nil, err
		}
	}

	cur.Name = in.Name
	cur.Description = in.Description
	cur.ParentID = in.ParentID
	updated, err := m.store.Update(ctx, cur)
	if err != nil {
		return nil, classifyWrite(err, in.Name, in.ParentID)
	}

	m.logger.Info("category updated", "id", id, "name", updated.Name, "parent_id", updated.ParentID)
	return updated, nil
}

func (m *Mutator) checkNameFree(ctx context.Context, name string, excludeID *int64) error {
	exists, err := m.store.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		m.logger.Warn("category name taken", "name", name)
		return duplicateName(name)
	}
	return nil
}

// checkParent verifies that parentID exists and is not id itself or one of
// its descendants. The ancestor path of the new parent is walked up to the
// root; finding id on it means the move would close a cycle.
func (m *Mutator) checkParent(ctx context.Context, id int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return newError(KindSelfParent, "category %d cannot be its own parent", id)
	}

	path, err := m.reader.AncestorPath(ctx, *parentID)
	if IsKind(err, KindNotFound) {
		m.logger.Warn("parent not found", "id", id, "parent_id", *parentID)
		e := parentNotFound(*parentID)
		e.Err = err
		return e
	}
	if err != nil {
		return err
	}

	for _, a := range path {
		if a.ID == id {
			m.logger.Warn("move refused: cycle", "id", id, "parent_id", *parentID)
			return newError(KindCycleDetected,
				"moving category %d under %d would make it its own ancestor", id, *parentID)
		}
	}
	return nil
}
