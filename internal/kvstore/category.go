// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"stockroom/internal/catalog"
	"stockroom/internal/models"
)

// categoryRecord is the stored form of a category; tree and display
// fields are never persisted.
type categoryRecord struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func recordOf(c *models.Category) categoryRecord {
	return categoryRecord{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ParentID:    c.ParentID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (r categoryRecord) category() models.Category {
	return models.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		ParentID:    r.ParentID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// getCategory returns nil, nil when the key is absent.
func getCategory(txn *badger.Txn, id int64) (*models.Category, error) {
	item, err := txn.Get(categoryKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec categoryRecord
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &rec) }); err != nil {
		return nil, err
	}
	c := rec.category()
	return &c, nil
}

func putCategory(txn *badger.Txn, c *models.Category) error {
	data, err := json.Marshal(recordOf(c))
	if err != nil {
		return err
	}
	return txn.Set(categoryKey(c.ID), data)
}

// nameOwner returns the id holding name, or 0 when the name is free.
func nameOwner(txn *badger.Txn, name string) (int64, error) {
	item, err := txn.Get(nameKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var id int64
	err = item.Value(func(v []byte) error {
		id = readID(v)
		return nil
	})
	return id, err
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// claimCategory reports whether category id exists and, when it does,
// rewrites its record unchanged. Delete reads that record, so a delete
// racing a write that points at id conflicts at commit instead of leaving
// a dangling reference behind.
func claimCategory(txn *badger.Txn, id int64) (bool, error) {
	item, err := txn.Get(categoryKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return false, err
	}
	return true, txn.Set(categoryKey(id), val)
}

// scanKeys calls fn with every key under prefix without loading values.
func scanKeys(txn *badger.Txn, prefix []byte, fn func(key []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := fn(it.Item().Key()); err != nil {
			return err
		}
	}
	return nil
}

func countKeys(txn *badger.Txn, prefix []byte) (int, error) {
	n := 0
	err := scanKeys(txn, prefix, func([]byte) error {
		n++
		return nil
	})
	return n, err
}

// Get returns a category by id, or nil, nil when absent.
func (s *Store) Get(ctx context.Context, id int64) (*models.Category, error) {
	var c *models.Category
	err := s.view(ctx, "get category", func(txn *badger.Txn) error {
		var err error
		c, err = getCategory(txn, id)
		return err
	})
	return c, err
}

// GetAll returns every category in id order.
func (s *Store) GetAll(ctx context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0)
	err := s.view(ctx, "list categories", func(txn *badger.Txn) error {
		prefix := []byte(prefixCategory)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec categoryRecord
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &rec) }); err != nil {
				return err
			}
			out = append(out, rec.category())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByParent returns the direct children of parentID, or the roots when
// parentID is nil, in id order.
func (s *Store) ListByParent(ctx context.Context, parentID *int64) ([]models.Category, error) {
	out := make([]models.Category, 0)
	err := s.view(ctx, "list child categories", func(txn *badger.Txn) error {
		var ids []int64
		if err := scanKeys(txn, childPrefix(parentID), func(k []byte) error {
			ids = append(ids, lastID(k))
			return nil
		}); err != nil {
			return err
		}
		for _, id := range ids {
			c, err := getCategory(txn, id)
			if err != nil {
				return err
			}
			if c != nil {
				out = append(out, *c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Insert stores a new category, assigning its id and timestamps.
func (s *Store) Insert(ctx context.Context, c *models.Category) (*models.Category, error) {
	id, err := nextID(s.catSeq)
	if err != nil {
		return nil, catalog.StorageUnavailable("allocate category id", err)
	}

	now := time.Now().UTC()
	created := &models.Category{
		ID:          id,
		Name:        c.Name,
		Description: c.Description,
		ParentID:    c.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.update(ctx, "insert category", func(txn *badger.Txn) error {
		return insertCategory(txn, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertCategory(txn *badger.Txn, c *models.Category) error {
	owner, err := nameOwner(txn, c.Name)
	if err != nil {
		return err
	}
	if owner != 0 {
		return catalog.ConstraintViolation(catalog.ConstraintNameUnique, nil)
	}
	if c.ParentID != nil {
		ok, err := claimCategory(txn, *c.ParentID)
		if err != nil {
			return err
		}
		if !ok {
			return catalog.ConstraintViolation(catalog.ConstraintParentFK, nil)
		}
	}

	if err := putCategory(txn, c); err != nil {
		return err
	}
	if err := txn.Set(nameKey(c.Name), appendID(nil, c.ID)); err != nil {
		return err
	}
	return txn.Set(childKey(c.ParentID, c.ID), nil)
}

// Update writes name, description and parent of an existing category.
func (s *Store) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	var updated *models.Category
	err := s.update(ctx, "update category", func(txn *badger.Txn) error {
		cur, err := getCategory(txn, c.ID)
		if err != nil {
			return err
		}
		if cur == nil {
			return catalog.NotFound(c.ID)
		}

		if models.NameKey(cur.Name) != models.NameKey(c.Name) {
			owner, err := nameOwner(txn, c.Name)
			if err != nil {
				return err
			}
			if owner != 0 && owner != c.ID {
				return catalog.ConstraintViolation(catalog.ConstraintNameUnique, nil)
			}
			if err := txn.Delete(nameKey(cur.Name)); err != nil {
				return err
			}
			if err := txn.Set(nameKey(c.Name), appendID(nil, c.ID)); err != nil {
				return err
			}
		}

		if !models.SameParent(cur.ParentID, c.ParentID) {
			if c.ParentID != nil {
				ok, err := claimCategory(txn, *c.ParentID)
				if err != nil {
					return err
				}
				if !ok {
					return catalog.ConstraintViolation(catalog.ConstraintParentFK, nil)
				}
			}
			if err := txn.Delete(childKey(cur.ParentID, c.ID)); err != nil {
				return err
			}
			if err := txn.Set(childKey(c.ParentID, c.ID), nil); err != nil {
				return err
			}
		}

		updated = &models.Category{
			ID:          cur.ID,
			Name:        c.Name,
			Description: c.Description,
			ParentID:    c.ParentID,
			CreatedAt:   cur.CreatedAt,
			UpdatedAt:   time.Now().UTC(),
		}
		return putCategory(txn, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a category. It reports false when the id does not exist
// and a "referenced" constraint violation when children or components
// still point at it.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.update(ctx, "delete category", func(txn *badger.Txn) error {
		var err error
		deleted, err = deleteCategory(txn, id)
		return err
	})
	return deleted, err
}

func deleteCategory(txn *badger.Txn, id int64) (bool, error) {
	cur, err := getCategory(txn, id)
	if err != nil || cur == nil {
		return false, err
	}

	children, err := countKeys(txn, childPrefix(&id))
	if err != nil {
		return false, err
	}
	items, err := countKeys(txn, itemCatPrefix(id))
	if err != nil {
		return false, err
	}
	if children > 0 || items > 0 {
		return false, catalog.ConstraintViolation(catalog.ConstraintReferenced, nil)
	}

	for _, k := range [][]byte{categoryKey(id), nameKey(cur.Name), childKey(cur.ParentID, id)} {
		if err := txn.Delete(k); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ExistsByName reports whether another category already uses name,
// compared case-insensitively.
func (s *Store) ExistsByName(ctx context.Context, name string, excludeID *int64) (bool, error) {
	var taken bool
	err := s.view(ctx, "check category name", func(txn *badger.Txn) error {
		owner, err := nameOwner(txn, name)
		if err != nil {
			return err
		}
		taken = owner != 0 && (excludeID == nil || owner != *excludeID)
		return nil
	})
	return taken, err
}

// CountChildren returns the number of direct children of id.
func (s *Store) CountChildren(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.view(ctx, "count child categories", func(txn *badger.Txn) error {
		var err error
		n, err = countKeys(txn, childPrefix(&id))
		return err
	})
	return n, err
}

// CountItems returns the number of components filed under id.
func (s *Store) CountItems(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.view(ctx, "count components", func(txn *badger.Txn) error {
		var err error
		n, err = countKeys(txn, itemCatPrefix(id))
		return err
	})
	return n, err
}

// CountNodes returns the number of stored categories.
func (s *Store) CountNodes(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, "count categories", func(txn *badger.Txn) error {
		var err error
		n, err = countKeys(txn, []byte(prefixCategory))
		return err
	})
	return n, err
}

// ItemCounts returns the component count of every category that has one.
func (s *Store) ItemCounts(ctx context.Context) (map[int64]int, error) {
	counts := make(map[int64]int)
	err := s.view(ctx, "count components", func(txn *badger.Txn) error {
		prefix := []byte(prefixItemCat)
		return scanKeys(txn, prefix, func(k []byte) error {
			counts[readID(k[len(prefix):])]++
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
