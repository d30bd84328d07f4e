// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"
)

// Category is a node in the component category tree. Rows are stored flat
// with a self-referencing ParentID; a nil ParentID marks a root.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    *int64    `json:"parent_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Virtual fields populated by the tree reader and the decorator.
	Children       []Category `json:"children,omitempty"`
	Depth          int        `json:"depth"`
	ChildCount     int        `json:"child_count"`
	ComponentCount int        `json:"component_count"`
	ParentName     string     `json:"parent_name,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// HasParent reports whether the category's parent is id.
func (c *Category) HasParent(id int64) bool {
	return c.ParentID != nil && *c.ParentID == id
}

// NameKey is the case-folded form of the name used for uniqueness.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SameParent compares two parent pointers (both nil or same value).
func SameParent(a, b *int64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
