// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Field limits for categories.
const (
	MinNameLength        = 2
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// namePattern allows letters, digits, whitespace, hyphens and underscores.
var namePattern = regexp.MustCompile(`^[\p{L}\p{N}\s\-_]+$`)

func nameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.RuneLength(MinNameLength, MaxNameLength),
		validation.Match(namePattern).Error("may only contain letters, digits, spaces, hyphens and underscores"),
	}
}

// CreateInput carries the fields of a new category.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

// UpdateInput replaces every mutable field of a category at once.
type UpdateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

func (in *CreateInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

func (in *UpdateInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

// Validate checks field shapes. Uniqueness and parent existence are the
// mutator's concern.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, nameRules()...),
		validation.Field(&in.Description, validation.RuneLength(0, MaxDescriptionLength)),
		validation.Field(&in.ParentID, validation.By(positiveID)),
	)
}

// Validate checks field shapes.
func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, nameRules()...),
		validation.Field(&in.Description, validation.RuneLength(0, MaxDescriptionLength)),
		validation.Field(&in.ParentID, validation.By(positiveID)),
	)
}

// positiveID rejects parent ids below one, zero included.
func positiveID(value any) error {
	if id, ok := value.(*int64); ok && id != nil && *id < 1 {
		return errors.New("must be a positive id")
	}
	return nil
}

func validateName(name string) error {
	if err := validation.Validate(name, nameRules()...); err != nil {
		return validation.Errors{"name": err}
	}
	return nil
}

// invalid wraps an ozzo validation failure as a KindInvalid error.
func invalid(err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return &Error{Kind: KindInvalid, Message: verrs.Error(), Err: err}
	}
	return &Error{Kind: KindInvalid, Message: err.Error(), Err: err}
}
