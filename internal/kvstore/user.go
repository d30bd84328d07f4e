// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/models"
)

// ErrEmailTaken is returned by Create for a duplicate email.
var ErrEmailTaken = errors.New("email already registered")

// userRecord keeps the password hash, which models.User never serializes.
type userRecord struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	DisplayName  string      `json:"display_name"`
	Role         models.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (r userRecord) user() *models.User {
	return &models.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		DisplayName:  r.DisplayName,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func getUser(txn *badger.Txn, id uuid.UUID) (*models.User, error) {
	item, err := txn.Get(userKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec userRecord
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &rec) }); err != nil {
		return nil, err
	}
	return rec.user(), nil
}

// FindByID retrieves a user by UUID. Returns nil if not found.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u *models.User
	err := s.view(ctx, "find user by id", func(txn *badger.Txn) error {
		var err error
		u, err = getUser(txn, id)
		return err
	})
	return u, err
}

// FindByEmail retrieves a user by email, ignoring case. Returns nil if not found.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u *models.User
	err := s.view(ctx, "find user by email", func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var id uuid.UUID
		if err := item.Value(func(v []byte) error {
			var err error
			id, err = uuid.FromBytes(v)
			return err
		}); err != nil {
			return err
		}
		u, err = getUser(txn, id)
		return err
	})
	return u, err
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, "count users", func(txn *badger.Txn) error {
		var err error
		n, err = countKeys(txn, []byte(prefixUser))
		return err
	})
	return n, err
}

// Create stores a new user with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	rec := userRecord{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.update(ctx, "create user", func(txn *badger.Txn) error {
		taken, err := exists(txn, userEmailKey(email))
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := txn.Set(userKey(rec.ID), data); err != nil {
			return err
		}
		return txn.Set(userEmailKey(email), rec.ID[:])
	})
	if err != nil {
		return nil, err
	}
	return rec.user(), nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *Store) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
