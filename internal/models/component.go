// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Component is an inventory item filed under exactly one category.
// Categories that hold components cannot be deleted.
type Component struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	PartNumber string    `json:"part_number,omitempty"`
	Quantity   int       `json:"quantity"`
	CategoryID int64     `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
