// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// DeletionCheck reports whether a category may be removed and why not.
type DeletionCheck struct {
	CanDelete  bool   `json:"can_delete"`
	Reason     string `json:"reason"`
	ChildCount int    `json:"child_count"`
	ItemCount  int    `json:"item_count"`
}

// Guard refuses to delete categories that still hold child categories or
// components, so callers get counts instead of a bare foreign-key error.
type Guard struct {
	store  NodeStore
	reader *Reader
	logger *slog.Logger
}

// NewGuard creates a Guard.
func NewGuard(store NodeStore, reader *Reader, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{store: store, reader: reader, logger: logger}
}

// CheckDeletable counts the category's children and components.
func (g *Guard) CheckDeletable(ctx context.Context, id int64) (*DeletionCheck, error) {
	if _, err := g.reader.Get(ctx, id); err != nil {
		return nil, err
	}

	children, err := g.store.CountChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := g.store.CountItems(ctx, id)
	if err != nil {
		return nil, err
	}

	check := &DeletionCheck{
		CanDelete:  children == 0 && items == 0,
		ChildCount: children,
		ItemCount:  items,
	}
	if check.CanDelete {
		check.Reason = "category can be deleted"
	} else {
		check.Reason = fmt.Sprintf(
			"category cannot be deleted: it contains %d component(s) and %d child categories",
			items, children,
		)
	}
	return check, nil
}

// Delete removes the category after CheckDeletable allows it. A refusal is
// a BusinessRule error carrying both counts.
func (g *Guard) Delete(ctx context.Context, id int64) error {
	check, err := g.CheckDeletable(ctx, id)
	if err != nil {
		return err
	}
	if !check.CanDelete {
		g.logger.Warn("category delete refused",
			"id", id,
			"child_count", check.ChildCount,
			"item_count", check.ItemCount,
		)
		return &Error{
			Kind:       KindBusinessRule,
			Message:    check.Reason,
			ChildCount: check.ChildCount,
			ItemCount:  check.ItemCount,
		}
	}

	deleted, err := g.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return NotFound(id)
	}

	g.logger.Info("category deleted", "id", id)
	return nil
}
