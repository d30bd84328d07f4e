// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"stockroom/internal/cache"
	"stockroom/internal/catalog"
	"stockroom/internal/models"
)

// TreeCache holds encoded tree views between mutations. Views are stored
// per generation; Invalidate moves to a new one, and Set with an older
// generation is dropped.
type TreeCache interface {
	Generation(ctx context.Context) (int64, bool)
	Get(ctx context.Context, gen int64, key string) ([]byte, bool)
	Set(ctx context.Context, gen int64, key string, payload []byte)
	Invalidate(ctx context.Context)
}

// Categories groups the category tree endpoints.
type Categories struct {
	svc   *catalog.Service
	cache TreeCache
}

// NewCategories creates the category handlers. tc may be nil, in which
// case tree views are always built from the store.
func NewCategories(svc *catalog.Service, tc TreeCache) *Categories {
	return &Categories{svc: svc, cache: tc}
}

// List returns every category ordered by name.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeList(w, r, all)
}

// Roots returns the top-level categories.
func (h *Categories) Roots(w http.ResponseWriter, r *http.Request) {
	roots, err := h.svc.ListRoots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeList(w, r, roots)
}

// Hierarchy returns the decorated forest.
func (h *Categories) Hierarchy(w http.ResponseWriter, r *http.Request) {
	h.serveTree(w, r, cache.KeyHierarchy, func(tree []models.Category) any { return tree })
}

// Flat returns the forest in display order with depths.
func (h *Categories) Flat(w http.ResponseWriter, r *http.Request) {
	h.serveTree(w, r, cache.KeyFlat, func(tree []models.Category) any {
		flat := catalog.Flatten(tree)
		if flat == nil {
			flat = []models.Category{}
		}
		return flat
	})
}

func (h *Categories) serveTree(w http.ResponseWriter, r *http.Request, key string, shape func([]models.Category) any) {
	ctx := r.Context()

	// The generation is read before the rows so a mutation that lands
	// mid-build leaves this view uncached.
	var gen int64
	var cacheable bool
	if h.cache != nil {
		gen, cacheable = h.cache.Generation(ctx)
	}
	if cacheable {
		if payload, ok := h.cache.Get(ctx, gen, key); ok {
			writeRaw(w, http.StatusOK, payload)
			return
		}
	}

	tree, err := h.svc.Hierarchy(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DecorateHierarchy(ctx, tree); err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := json.Marshal(shape(tree))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cacheable {
		h.cache.Set(ctx, gen, key, payload)
	}
	writeRaw(w, http.StatusOK, payload)
}

// Get returns a single decorated category.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Reader.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Decorate(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Children returns the direct children of a category.
func (h *Categories) Children(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	children, err := h.svc.ListChildrenOf(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeList(w, r, children)
}

// Path returns the ancestors of a category, root first, ending with the
// category itself.
func (h *Categories) Path(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	path, err := h.svc.AncestorPath(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeList(w, r, path)
}

// CanDelete reports whether a category may be deleted.
func (h *Categories) CanDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	check, err := h.svc.CheckDeletable(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

// Create adds a category.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.mutated(r)
	writeJSON(w, http.StatusCreated, c)
}

// Update replaces name, description and parent.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in catalog.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Mutator.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.mutated(r)
	writeJSON(w, http.StatusOK, c)
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename changes a category's name.
func (h *Categories) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.mutated(r)
	writeJSON(w, http.StatusOK, c)
}

type reparentRequest struct {
	ParentID *int64 `json:"parent_id"`
}

// Reparent moves a category. A null parent_id moves it to the root level.
func (h *Categories) Reparent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req reparentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Reparent(r.Context(), id, req.ParentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.mutated(r)
	writeJSON(w, http.StatusOK, c)
}

// Delete removes an empty category.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Guard.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutated(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Categories) writeList(w http.ResponseWriter, r *http.Request, cs []models.Category) {
	if err := h.svc.DecorateAll(r.Context(), cs); err != nil {
		writeError(w, r, err)
		return
	}
	if cs == nil {
		cs = []models.Category{}
	}
	writeJSON(w, http.StatusOK, cs)
}

// mutated drops cached tree views after a successful write.
func (h *Categories) mutated(r *http.Request) {
	if h.cache == nil {
		return
	}
	h.cache.Invalidate(r.Context())
	slog.Debug("tree cache invalidated", "method", r.Method, "path", r.URL.Path)
}
