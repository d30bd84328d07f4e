// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"stockroom/internal/catalog"
	"stockroom/internal/models"
)

func TestCategoryTreeEndpoints(t *testing.T) {
	env := newTestEnv(t)

	mcu := env.create(t, "Microcontrollers", nil)
	env.create(t, "32-bit", &mcu.ID)
	eight := env.create(t, "8-bit", &mcu.ID)
	env.create(t, "Passives", nil)

	t.Run("hierarchy", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/categories/hierarchy", "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
		}
		var tree []models.Category
		decode(t, rr, &tree)

		if len(tree) != 2 || tree[0].Name != "Microcontrollers" || tree[1].Name != "Passives" {
			t.Fatalf("roots = %+v", tree)
		}
		kids := tree[0].Children
		if len(kids) != 2 || kids[0].Name != "8-bit" || kids[1].Name != "32-bit" {
			t.Fatalf("children = %+v", kids)
		}
		if tree[0].ChildCount != 2 {
			t.Errorf("child_count: got %d, want 2", tree[0].ChildCount)
		}
		if kids[0].Depth != 1 || kids[0].ParentName != "Microcontrollers" {
			t.Errorf("child depth %d parent_name %q", kids[0].Depth, kids[0].ParentName)
		}
	})

	t.Run("flat", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/categories/flat", "", nil)
		var flat []models.Category
		decode(t, rr, &flat)

		var got []string
		for _, c := range flat {
			got = append(got, strings.Repeat("-", c.Depth)+c.Name)
		}
		want := "Microcontrollers,-8-bit,-32-bit,Passives"
		if strings.Join(got, ",") != want {
			t.Errorf("flat = %v, want %s", got, want)
		}
		for _, c := range flat {
			if len(c.Children) != 0 {
				t.Errorf("%s: flat rows must not carry children", c.Name)
			}
		}
	})

	t.Run("roots", func(t *testing.T) {
		var roots []models.Category
		decode(t, env.do(t, http.MethodGet, "/api/categories/roots", "", nil), &roots)
		if len(roots) != 2 {
			t.Errorf("roots: got %d, want 2", len(roots))
		}
	})

	t.Run("list", func(t *testing.T) {
		var all []models.Category
		decode(t, env.do(t, http.MethodGet, "/api/categories", "", nil), &all)
		if len(all) != 4 {
			t.Fatalf("list: got %d, want 4", len(all))
		}
		if all[0].Name != "8-bit" || all[1].Name != "32-bit" {
			t.Errorf("list order = %s, %s", all[0].Name, all[1].Name)
		}
	})

	t.Run("children", func(t *testing.T) {
		var kids []models.Category
		decode(t, env.do(t, http.MethodGet, "/api/categories/1/children", "", nil), &kids)
		if len(kids) != 2 || kids[0].ID != eight.ID {
			t.Errorf("children = %+v", kids)
		}
	})

	t.Run("path", func(t *testing.T) {
		var path []models.Category
		decode(t, env.do(t, http.MethodGet, "/api/categories/3/path", "", nil), &path)
		if len(path) != 2 || path[0].Name != "Microcontrollers" || path[1].Name != "8-bit" {
			t.Errorf("path = %+v", path)
		}
	})

	t.Run("get decorated", func(t *testing.T) {
		var c models.Category
		decode(t, env.do(t, http.MethodGet, "/api/categories/3", "", nil), &c)
		if c.Name != "8-bit" || c.ParentName != "Microcontrollers" {
			t.Errorf("get = %+v", c)
		}
	})
}

func TestEmptyTreeViews(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/categories",
		"/api/categories/roots",
		"/api/categories/hierarchy",
		"/api/categories/flat",
	} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rr.Code)
		}
		if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
			t.Errorf("%s: body %q, want []", path, body)
		}
	}
}

func TestHierarchyCache(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "Passives", nil)

	env.do(t, http.MethodGet, "/api/categories/hierarchy", "", nil)
	if _, ok := env.cache.cached("hierarchy"); !ok {
		t.Fatal("hierarchy was not cached")
	}

	sentinel := []byte(`[{"id":42}]`)
	gen, _ := env.cache.Generation(context.Background())
	env.cache.Set(context.Background(), gen, "hierarchy", sentinel)
	rr := env.do(t, http.MethodGet, "/api/categories/hierarchy", "", nil)
	if rr.Body.String() != string(sentinel) {
		t.Errorf("expected cached payload, got %s", rr.Body.String())
	}

	before := env.cache.invalidated
	env.create(t, "Resistors", ptr(1))
	if env.cache.invalidated != before+1 {
		t.Errorf("create did not invalidate the cache")
	}
	if _, ok := env.cache.cached("hierarchy"); ok {
		t.Error("hierarchy still cached after create")
	}
}

func TestTreeBuiltBeforeMutationIsNotCached(t *testing.T) {
	for _, path := range []string{"/api/categories/hierarchy", "/api/categories/flat"} {
		t.Run(path, func(t *testing.T) {
			env := newTestEnv(t)
			env.create(t, "Passives", nil)

			// The mutation commits after the rows were read but before
			// the encoded view is stored.
			env.cache.beforeSet = func() {
				env.create(t, "Resistors", ptr(1))
			}
			rr := env.do(t, http.MethodGet, path, "", nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d", rr.Code)
			}
			if strings.Contains(rr.Body.String(), "Resistors") {
				t.Fatal("first response already saw the late write")
			}

			rr = env.do(t, http.MethodGet, path, "", nil)
			if !strings.Contains(rr.Body.String(), "Resistors") {
				t.Errorf("stale tree served after mutation: %s", rr.Body.String())
			}
		})
	}
}

func TestFailedMutationKeepsCache(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "Passives", nil)
	before := env.cache.invalidated

	rr := env.do(t, http.MethodPost, "/api/categories", `{"name":"passives"}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rr.Code)
	}
	if env.cache.invalidated != before {
		t.Error("failed create invalidated the cache")
	}
}

func TestCategoryErrors(t *testing.T) {
	env := newTestEnv(t)
	root := env.create(t, "Passives", nil)
	child := env.create(t, "Capacitors", &root.ID)
	env.create(t, "Ceramic", &child.ID)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantKind   catalog.Kind
	}{
		{"duplicate name", http.MethodPost, "/api/categories", `{"name":"CAPACITORS"}`, 400, catalog.KindDuplicateName},
		{"missing parent", http.MethodPost, "/api/categories", `{"name":"Inductors","parent_id":99}`, 400, catalog.KindParentNotFound},
		{"invalid name", http.MethodPost, "/api/categories", `{"name":"x"}`, 400, catalog.KindInvalid},
		{"empty body", http.MethodPost, "/api/categories", "", 400, catalog.KindInvalid},
		{"malformed body", http.MethodPost, "/api/categories", `{"name":`, 400, catalog.KindInvalid},
		{"unknown field", http.MethodPost, "/api/categories", `{"name":"Diodes","colour":"red"}`, 400, catalog.KindInvalid},
		{"get missing", http.MethodGet, "/api/categories/99", "", 404, catalog.KindNotFound},
		{"bad id", http.MethodGet, "/api/categories/abc", "", 400, catalog.KindInvalid},
		{"zero id", http.MethodGet, "/api/categories/0", "", 400, catalog.KindInvalid},
		{"children of missing", http.MethodGet, "/api/categories/99/children", "", 404, catalog.KindNotFound},
		{"path of missing", http.MethodGet, "/api/categories/99/path", "", 404, catalog.KindNotFound},
		{"self parent", http.MethodPatch, "/api/categories/1/parent", `{"parent_id":1}`, 400, catalog.KindSelfParent},
		{"cycle", http.MethodPatch, "/api/categories/1/parent", `{"parent_id":3}`, 400, catalog.KindCycleDetected},
		{"move under missing", http.MethodPatch, "/api/categories/2/parent", `{"parent_id":99}`, 400, catalog.KindParentNotFound},
		{"rename taken", http.MethodPatch, "/api/categories/3/name", `{"name":"passives"}`, 400, catalog.KindDuplicateName},
		{"rename missing", http.MethodPatch, "/api/categories/99/name", `{"name":"Diodes"}`, 404, catalog.KindNotFound},
		{"update cycle", http.MethodPut, "/api/categories/2", `{"name":"Capacitors","parent_id":3}`, 400, catalog.KindCycleDetected},
		{"can-delete missing", http.MethodGet, "/api/categories/99/can-delete", "", 404, catalog.KindNotFound},
		{"delete missing", http.MethodDelete, "/api/categories/99", "", 404, catalog.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, tt.body, nil)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if got := decodeError(t, rr); got.Kind != string(tt.wantKind) {
				t.Errorf("kind: got %q, want %q", got.Kind, tt.wantKind)
			}
		})
	}
}

func TestRenameAndReparent(t *testing.T) {
	env := newTestEnv(t)
	root := env.create(t, "Passives", nil)
	child := env.create(t, "Capacitors", &root.ID)

	rr := env.do(t, http.MethodPatch, "/api/categories/2/name", `{"name":"CAPACITORS"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("case-only rename: status %d, body %s", rr.Code, rr.Body.String())
	}
	var renamed models.Category
	decode(t, rr, &renamed)
	if renamed.Name != "CAPACITORS" {
		t.Errorf("name: got %q", renamed.Name)
	}

	rr = env.do(t, http.MethodPatch, "/api/categories/2/parent", `{"parent_id":null}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("move to root: status %d, body %s", rr.Code, rr.Body.String())
	}
	var moved models.Category
	decode(t, rr, &moved)
	if moved.ParentID != nil {
		t.Errorf("parent: got %v, want nil", *moved.ParentID)
	}

	rr = env.do(t, http.MethodPut, "/api/categories/1",
		`{"name":"Passive parts","description":"R, L and C","parent_id":2}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rr.Code, rr.Body.String())
	}
	var updated models.Category
	decode(t, rr, &updated)
	if updated.Name != "Passive parts" || updated.ParentID == nil || *updated.ParentID != child.ID {
		t.Errorf("update = %+v", updated)
	}
}

func TestDeleteEndpoints(t *testing.T) {
	env := newTestEnv(t)
	root := env.create(t, "Passives", nil)
	leaf := env.create(t, "Resistors", &root.ID)

	if _, err := env.store.InsertComponent(context.Background(), &models.Component{
		Name: "10k", CategoryID: leaf.ID, Quantity: 3,
	}); err != nil {
		t.Fatalf("insert component: %v", err)
	}

	t.Run("can-delete reports counts", func(t *testing.T) {
		var check catalog.DeletionCheck
		decode(t, env.do(t, http.MethodGet, "/api/categories/1/can-delete", "", nil), &check)
		if check.CanDelete || check.ChildCount != 1 || check.ItemCount != 0 {
			t.Errorf("check = %+v", check)
		}
	})

	t.Run("refusal carries counts", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, "/api/categories/2", "", nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status: got %d", rr.Code)
		}
		got := decodeError(t, rr)
		if got.Kind != string(catalog.KindBusinessRule) {
			t.Errorf("kind: got %q", got.Kind)
		}
		if got.ChildCount == nil || got.ItemCount == nil || *got.ChildCount != 0 || *got.ItemCount != 1 {
			t.Errorf("counts: child %v item %v", got.ChildCount, got.ItemCount)
		}
	})

	t.Run("empty category is removed", func(t *testing.T) {
		if _, err := env.store.DeleteComponent(context.Background(), 1); err != nil {
			t.Fatalf("delete component: %v", err)
		}
		rr := env.do(t, http.MethodDelete, "/api/categories/2", "", nil)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
		}
		if rr := env.do(t, http.MethodGet, "/api/categories/2", "", nil); rr.Code != http.StatusNotFound {
			t.Errorf("deleted category still readable: %d", rr.Code)
		}
	})
}
