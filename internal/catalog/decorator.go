// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"

	"stockroom/internal/models"
)

// Decorator fills the display-only counters of a category: number of
// direct children, number of components and the parent's name.
type Decorator struct {
	store NodeStore
}

// NewDecorator creates a Decorator.
func NewDecorator(store NodeStore) *Decorator {
	return &Decorator{store: store}
}

// Decorate fills c's counters from the store.
func (d *Decorator) Decorate(ctx context.Context, c *models.Category) error {
	return d.decorate(ctx, c, make(map[int64]string))
}

// DecorateAll decorates every element of cs in place.
func (d *Decorator) DecorateAll(ctx context.Context, cs []models.Category) error {
	names := make(map[int64]string, len(cs))
	for _, c := range cs {
		names[c.ID] = c.Name
	}
	for i := range cs {
		if err := d.decorate(ctx, &cs[i], names); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decorator) decorate(ctx context.Context, c *models.Category, names map[int64]string) error {
	children, err := d.store.CountChildren(ctx, c.ID)
	if err != nil {
		return err
	}
	items, err := d.store.CountItems(ctx, c.ID)
	if err != nil {
		return err
	}
	c.ChildCount = children
	c.ComponentCount = items

	c.ParentName = ""
	if c.ParentID == nil {
		return nil
	}
	if name, ok := names[*c.ParentID]; ok {
		c.ParentName = name
		return nil
	}
	parent, err := d.store.Get(ctx, *c.ParentID)
	if err != nil {
		return err
	}
	if parent != nil {
		c.ParentName = parent.Name
		names[parent.ID] = parent.Name
	}
	return nil
}

// DecorateHierarchy decorates a materialized tree. Component counts are
// fetched once; child counts and parent names come from the tree itself.
func (d *Decorator) DecorateHierarchy(ctx context.Context, roots []models.Category) error {
	counts, err := d.itemCounts(ctx, roots)
	if err != nil {
		return err
	}
	annotate(roots, "", counts)
	return nil
}

func (d *Decorator) itemCounts(ctx context.Context, roots []models.Category) (map[int64]int, error) {
	if l, ok := d.store.(ItemCountLister); ok {
		return l.ItemCounts(ctx)
	}

	counts := make(map[int64]int)
	var walk func([]models.Category) error
	walk = func(nodes []models.Category) error {
		for _, n := range nodes {
			c, err := d.store.CountItems(ctx, n.ID)
			if err != nil {
				return err
			}
			counts[n.ID] = c
			if err := walk(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return counts, walk(roots)
}

// annotate is the in-memory half of DecorateHierarchy.
func annotate(nodes []models.Category, parentName string, counts map[int64]int) {
	for i := range nodes {
		n := &nodes[i]
		n.ChildCount = len(n.Children)
		n.ComponentCount = counts[n.ID]
		n.ParentName = parentName
		annotate(n.Children, n.Name, counts)
	}
}
