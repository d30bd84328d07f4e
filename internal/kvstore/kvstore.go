// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package kvstore is the embedded BadgerDB backend for the category tree.
// It keeps the same rules as the PostgreSQL schema: names are unique
// regardless of case, parents must exist, and a category with children
// or components cannot be removed.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"stockroom/internal/catalog"
)

// Config holds the options for opening a Store.
type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Used by tests and demos.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives BadgerDB's internal log lines. Nil silences them.
	Logger *slog.Logger

	// GCInterval is how often value log garbage collection runs.
	// Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the garbage ratio that triggers a rewrite.
	GCDiscardRatio float64
}

// DefaultConfig returns the settings used for on-disk stores.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns the settings used by tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is a catalog.NodeStore backed by BadgerDB.
type Store struct {
	db      *badger.DB
	catSeq  *badger.Sequence
	itemSeq *badger.Sequence
	cfg     Config

	gcStop context.CancelFunc
	gcDone sync.WaitGroup
}

const seqBandwidth = 100

// Open opens (or creates) a store with the given configuration.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	catSeq, err := db.GetSequence([]byte(seqCategoryKey), seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("category sequence: %w", err)
	}
	itemSeq, err := db.GetSequence([]byte(seqComponentKey), seqBandwidth)
	if err != nil {
		catSeq.Release()
		db.Close()
		return nil, fmt.Errorf("component sequence: %w", err)
	}

	return &Store{db: db, catSeq: catSeq, itemSeq: itemSeq, cfg: cfg}, nil
}

// Close stops the collector started by StartGC, waits for it to return,
// then releases the id sequences and closes the database.
func (s *Store) Close() error {
	if s.gcStop != nil {
		s.gcStop()
	}
	s.gcDone.Wait()
	return errors.Join(s.catSeq.Release(), s.itemSeq.Release(), s.db.Close())
}

// Ping reports whether the database still accepts reads.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// StartGC runs RunGC in the background until ctx is done or the store is
// closed. Call it at most once.
func (s *Store) StartGC(ctx context.Context) {
	ctx, s.gcStop = context.WithCancel(ctx)
	s.gcDone.Add(1)
	go func() {
		defer s.gcDone.Done()
		s.RunGC(ctx)
	}()
}

// RunGC collects the value log every GCInterval until ctx is done. It
// returns immediately for in-memory stores or when GC is disabled.
func (s *Store) RunGC(ctx context.Context) {
	if s.cfg.InMemory || s.cfg.GCInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(s.cfg.GCDiscardRatio)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						slog.Warn("badger value log gc failed", "error", err)
					}
					break
				}
			}
		}
	}
}

// nextID draws the next id from seq. Sequences start at zero; ids start at one.
func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return int64(n) + 1, nil
}

const maxConflictRetries = 3

// update runs fn in a read-write transaction. Commits that lose a race
// with another writer are retried so that the retry observes the winner's
// keys and reports the proper constraint violation.
func (s *Store) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	var err error
	for range maxConflictRetries {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	return wrap(op, err)
}

func (s *Store) view(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrap(op, s.db.View(fn))
}

// wrap passes catalog, context and user errors through and reports
// everything else as StorageUnavailable.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := catalog.AsError(err); ok {
		return err
	}
	if errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return catalog.StorageUnavailable(op, err)
}
