// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package seed populates an empty store with development data: an admin
// account and a small component catalog. It works against either backend.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"stockroom/internal/catalog"
	"stockroom/internal/models"
)

// Default development credentials.
const (
	AdminEmail    = "admin@stockroom.local"
	AdminPassword = "admin"
)

// Users is the subset of a user store the seeder needs.
type Users interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error)
}

// Components files components under categories.
type Components interface {
	InsertComponent(ctx context.Context, c *models.Component) (*models.Component, error)
}

type node struct {
	name        string
	description string
	parts       []models.Component
	children    []node
}

var sampleTree = []node{
	{
		name:        "Microcontrollers",
		description: "Programmable MCUs and development boards",
		children: []node{
			{name: "8-bit", parts: []models.Component{
				{Name: "ATmega328P", PartNumber: "ATMEGA328P-PU", Quantity: 12},
				{Name: "ATtiny85", PartNumber: "ATTINY85-20PU", Quantity: 20},
			}},
			{name: "32-bit", parts: []models.Component{
				{Name: "STM32F103C8", PartNumber: "STM32F103C8T6", Quantity: 8},
				{Name: "ESP32", PartNumber: "ESP32-WROOM-32E", Quantity: 5},
			}},
		},
	},
	{
		name: "Passives",
		children: []node{
			{name: "Resistors", parts: []models.Component{
				{Name: "10k 1/4W", PartNumber: "CFR-25JB-52-10K", Quantity: 200},
			}},
			{name: "Capacitors", children: []node{
				{name: "Ceramic", parts: []models.Component{
					{Name: "100nF 50V", PartNumber: "K104K15X7RF5TL2", Quantity: 150},
				}},
				{name: "Electrolytic"},
			}},
		},
	},
}

// Run creates the admin user when there are no users and the sample tree
// when there are no categories. It is safe to call on every start.
func Run(ctx context.Context, users Users, svc *catalog.Service, comps Components) error {
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count == 0 {
		if _, err := users.Create(ctx, AdminEmail, AdminPassword, "Admin", models.RoleAdmin); err != nil {
			return fmt.Errorf("seed insert admin: %w", err)
		}
		slog.Info("database seeded with default admin user",
			"email", AdminEmail,
			"password", AdminPassword,
		)
	}

	existing, err := svc.All(ctx)
	if err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("catalog already seeded, skipping")
		return nil
	}

	n, err := plant(ctx, svc, comps, sampleTree, nil)
	if err != nil {
		return err
	}
	slog.Info("catalog seeded", "categories", n)
	return nil
}

func plant(ctx context.Context, svc *catalog.Service, comps Components, nodes []node, parentID *int64) (int, error) {
	total := 0
	for _, n := range nodes {
		c, err := svc.Create(ctx, catalog.CreateInput{Name: n.name, Description: n.description, ParentID: parentID})
		if err != nil {
			return total, fmt.Errorf("seed category %q: %w", n.name, err)
		}
		total++

		for _, p := range n.parts {
			p.CategoryID = c.ID
			if _, err := comps.InsertComponent(ctx, &p); err != nil {
				return total, fmt.Errorf("seed component %q: %w", p.Name, err)
			}
		}

		added, err := plant(ctx, svc, comps, n.children, &c.ID)
		total += added
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
