// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies a catalog failure so the transport layer can map it
// to a response code without inspecting messages.
type Kind string

const (
	KindInternal            Kind = "internal"
	KindInvalid             Kind = "invalid"
	KindNotFound            Kind = "not_found"
	KindDuplicateName       Kind = "duplicate_name"
	KindParentNotFound      Kind = "parent_not_found"
	KindSelfParent          Kind = "self_parent"
	KindCycleDetected       Kind = "cycle_detected"
	KindBusinessRule        Kind = "business_rule"
	KindIntegrityViolation  Kind = "integrity_violation"
	KindConstraintViolation Kind = "constraint_violation"
	KindStorageUnavailable  Kind = "storage_unavailable"
)

// Constraint names reported with KindConstraintViolation.
const (
	ConstraintNameUnique = "name_unique"
	ConstraintParentFK   = "parent_fk"
	ConstraintReferenced = "referenced"
	ConstraintCategoryFK = "category_fk"
)

// Error is the error type returned by every catalog operation.
type Error struct {
	Kind    Kind
	Message string

	// Constraint names the storage constraint for KindConstraintViolation.
	Constraint string

	// ChildCount and ItemCount are set for KindBusinessRule deletion refusals.
	ChildCount int
	ItemCount  int

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries kind k anywhere in its chain.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var ce *Error
	ok := errors.As(err, &ce)
	return ce, ok
}

func newError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing category.
func NotFound(id int64) *Error {
	return newError(KindNotFound, "category %d not found", id)
}

// Invalid reports rejected input.
func Invalid(msg string) *Error {
	return &Error{Kind: KindInvalid, Message: msg}
}

// ConstraintViolation is returned by stores when a uniqueness or
// foreign-key rule rejects a write.
func ConstraintViolation(constraint string, err error) *Error {
	return &Error{
		Kind:       KindConstraintViolation,
		Message:    "constraint " + constraint + " violated",
		Constraint: constraint,
		Err:        err,
	}
}

// StorageUnavailable wraps a transient storage failure.
func StorageUnavailable(op string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: op, Err: err}
}

func duplicateName(name string) *Error {
	return newError(KindDuplicateName, "category with name %q already exists", name)
}

func parentNotFound(id int64) *Error {
	return newError(KindParentNotFound, "parent category %d not found", id)
}

func integrityViolation(format string, args ...any) *Error {
	return newError(KindIntegrityViolation, format, args...)
}

// classifyWrite turns a store-level constraint violation raised after a
// successful pre-check into the kind the caller would have seen from the
// pre-check itself.
func classifyWrite(err error, name string, parentID *int64) error {
	ce, ok := AsError(err)
	if !ok || ce.Kind != KindConstraintViolation {
		return err
	}
	switch ce.Constraint {
	case ConstraintNameUnique:
		e := duplicateName(name)
		e.Err = err
		return e
	case ConstraintParentFK:
		var id int64
		if parentID != nil {
			id = *parentID
		}
		e := parentNotFound(id)
		e.Err = err
		return e
	}
	return err
}
