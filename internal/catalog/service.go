// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import "log/slog"

// Service bundles the reader, mutator, guard and decorator over a single
// store. It is what the HTTP layer holds.
type Service struct {
	*Reader
	*Mutator
	*Guard
	*Decorator
}

// NewService wires the catalog components over store.
func NewService(store NodeStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "catalog")
	reader := NewReader(store, logger)
	return &Service{
		Reader:    reader,
		Mutator:   NewMutator(store, reader, logger),
		Guard:     NewGuard(store, reader, logger),
		Decorator: NewDecorator(store),
	}
}
