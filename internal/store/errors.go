// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"stockroom/internal/catalog"
)

// PostgreSQL SQLSTATE codes the stores translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classify maps a database error onto the catalog error kinds. Unique
// violations are always the case-insensitive name index; foreign-key
// violations are reported under fkConstraint, which depends on whether
// the statement wrote a reference or removed a referenced row. Other
// server errors are wrapped as-is; connection-level failures become
// StorageUnavailable.
func classify(op string, err error, fkConstraint string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return catalog.ConstraintViolation(catalog.ConstraintNameUnique, err)
		case pgForeignKeyViolation:
			return catalog.ConstraintViolation(fkConstraint, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return catalog.StorageUnavailable(op, err)
}
