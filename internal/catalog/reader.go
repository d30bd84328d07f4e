// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"stockroom/internal/models"
)

// Reader builds tree views from the flat category rows. Every call reads
// the store afresh; nothing is retained between calls.
type Reader struct {
	store  NodeStore
	logger *slog.Logger
}

// NewReader creates a Reader over store.
func NewReader(store NodeStore, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{store: store, logger: logger}
}

// Get returns a single category or a NotFound error.
func (r *Reader) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NotFound(id)
	}
	return c, nil
}

// All returns every category ordered by name.
func (r *Reader) All(ctx context.Context) ([]models.Category, error) {
	all, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sortByName(all)
	return all, nil
}

// ListRoots returns the categories without a parent, ordered by name.
func (r *Reader) ListRoots(ctx context.Context) ([]models.Category, error) {
	return r.listByParent(ctx, nil)
}

// ListChildren returns the direct children of parentID ordered by name.
// A missing or childless parent yields an empty list.
func (r *Reader) ListChildren(ctx context.Context, parentID int64) ([]models.Category, error) {
	return r.listByParent(ctx, &parentID)
}

// ListChildrenOf is ListChildren for callers that require the parent to
// exist; it fails with NotFound otherwise.
func (r *Reader) ListChildrenOf(ctx context.Context, parentID int64) ([]models.Category, error) {
	if _, err := r.Get(ctx, parentID); err != nil {
		return nil, err
	}
	return r.ListChildren(ctx, parentID)
}

func (r *Reader) listByParent(ctx context.Context, parentID *int64) ([]models.Category, error) {
	if cl, ok := r.store.(ChildLister); ok {
		out, err := cl.ListByParent(ctx, parentID)
		if err != nil {
			return nil, err
		}
		sortByName(out)
		return out, nil
	}

	all, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Category, 0)
	for _, c := range all {
		if models.SameParent(c.ParentID, parentID) {
			out = append(out, c)
		}
	}
	sortByName(out)
	return out, nil
}

// AncestorPath returns the category and all of its ancestors, root first.
// The walk is bounded by the number of stored categories; a longer chain or
// a revisited node means the rows already contain a cycle and the call
// fails with IntegrityViolation. A missing ancestor is NotFound whatever
// the size of the store.
func (r *Reader) AncestorPath(ctx context.Context, id int64) ([]models.Category, error) {
	node, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	limit, err := r.nodeCount(ctx)
	if err != nil {
		return nil, err
	}

	path := []models.Category{*node}
	seen := map[int64]bool{node.ID: true}
	for cur := node; cur.ParentID != nil; {
		parentID := *cur.ParentID
		if seen[parentID] {
			return nil, r.cyclic(id, cur.ID, parentID, len(path))
		}

		parent, err := r.store.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, newError(KindNotFound, "ancestor %d of category %d not found", parentID, id)
		}
		if len(path) >= limit {
			return nil, r.cyclic(id, cur.ID, parentID, len(path))
		}

		seen[parent.ID] = true
		path = append(path, *parent)
		cur = parent
	}

	slices.Reverse(path)
	return path, nil
}

func (r *Reader) cyclic(id, at, parentID int64, steps int) error {
	r.logger.Error("category ancestry is cyclic",
		"category_id", id,
		"at", at,
		"parent_id", parentID,
		"steps", steps,
	)
	return integrityViolation("ancestor walk from category %d does not reach a root", id)
}

func (r *Reader) nodeCount(ctx context.Context) (int, error) {
	if nc, ok := r.store.(NodeCounter); ok {
		return nc.CountNodes(ctx)
	}
	all, err := r.store.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Hierarchy materializes the whole forest. Rows are loaded once and
// grouped by parent id; children are then attached depth-first from the
// roots, each level ordered by name.
func (r *Reader) Hierarchy(ctx context.Context) ([]models.Category, error) {
	rows, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var roots []models.Category
	byParent := make(map[int64][]models.Category)
	for _, c := range rows {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}
	sortByName(roots)
	for _, children := range byParent {
		sortByName(children)
	}

	seen := make(map[int64]bool, len(rows))
	var attach func(nodes []models.Category, depth int) []models.Category
	attach = func(nodes []models.Category, depth int) []models.Category {
		if len(nodes) == 0 {
			return nil
		}
		out := make([]models.Category, 0, len(nodes))
		for _, n := range nodes {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			n.Depth = depth
			n.Children = attach(byParent[n.ID], depth+1)
			out = append(out, n)
		}
		return out
	}
	tree := attach(roots, 0)

	if len(seen) != len(rows) {
		r.logger.Error("categories unreachable from any root",
			"total", len(rows),
			"reachable", len(seen),
		)
		return nil, integrityViolation("%d of %d categories are not reachable from a root", len(rows)-len(seen), len(rows))
	}
	if tree == nil {
		tree = []models.Category{}
	}
	return tree, nil
}

// Flatten walks a materialized tree depth-first and returns the nodes in
// display order with Depth preserved and Children cleared.
func Flatten(tree []models.Category) []models.Category {
	var out []models.Category
	var walk func([]models.Category)
	walk = func(nodes []models.Category) {
		for _, n := range nodes {
			children := n.Children
			n.Children = nil
			out = append(out, n)
			walk(children)
		}
	}
	walk(tree)
	return out
}

// sortByName orders categories by name in natural order, then by id.
func sortByName(cs []models.Category) {
	slices.SortFunc(cs, func(a, b models.Category) int {
		return cmp.Or(CompareNames(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
}

// CompareNames orders names case-insensitively, comparing runs of digits
// by numeric value so that "8-bit" sorts before "32-bit".
func CompareNames(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for a != "" && b != "" {
		if isDigit(a[0]) && isDigit(b[0]) {
			da, db := digitRun(a), digitRun(b)
			na, nb := strings.TrimLeft(da, "0"), strings.TrimLeft(db, "0")
			if c := cmp.Or(cmp.Compare(len(na), len(nb)), strings.Compare(na, nb)); c != 0 {
				return c
			}
			a, b = a[len(da):], b[len(db):]
			continue
		}
		ra, sa := utf8.DecodeRuneInString(a)
		rb, sb := utf8.DecodeRuneInString(b)
		if ra != rb {
			return cmp.Compare(ra, rb)
		}
		a, b = a[sa:], b[sb:]
	}
	return cmp.Compare(len(a), len(b))
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func digitRun(s string) string {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i]
}
