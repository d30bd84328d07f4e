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

// InsertComponent files a new component under its category.
func (s *Store) InsertComponent(ctx context.Context, c *models.Component) (*models.Component, error) {
	id, err := nextID(s.itemSeq)
	if err != nil {
		return nil, catalog.StorageUnavailable("allocate component id", err)
	}

	now := time.Now().UTC()
	created := *c
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now

	err = s.update(ctx, "insert component", func(txn *badger.Txn) error {
		return insertComponent(txn, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func insertComponent(txn *badger.Txn, c *models.Component) error {
	ok, err := claimCategory(txn, c.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return catalog.ConstraintViolation(catalog.ConstraintCategoryFK, nil)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := txn.Set(componentKey(c.ID), data); err != nil {
		return err
	}
	return txn.Set(itemCatKey(c.CategoryID, c.ID), nil)
}

// DeleteComponent removes a component. It reports false when absent.
func (s *Store) DeleteComponent(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := s.update(ctx, "delete component", func(txn *badger.Txn) error {
		item, err := txn.Get(componentKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var c models.Component
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &c) }); err != nil {
			return err
		}
		if err := txn.Delete(componentKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(itemCatKey(c.CategoryID, id)); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// ListComponents returns the components filed under categoryID in id order.
func (s *Store) ListComponents(ctx context.Context, categoryID int64) ([]models.Component, error) {
	out := make([]models.Component, 0)
	err := s.view(ctx, "list components", func(txn *badger.Txn) error {
		var ids []int64
		if err := scanKeys(txn, itemCatPrefix(categoryID), func(k []byte) error {
			ids = append(ids, lastID(k))
			return nil
		}); err != nil {
			return err
		}
		for _, id := range ids {
			item, err := txn.Get(componentKey(id))
			if err != nil {
				return err
			}
			var c models.Component
			if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &c) }); err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
