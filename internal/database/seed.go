// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"taxonomy/internal/slug"
)

// seedNode describes one category of the development taxonomy.
type seedNode struct {
	name     string
	fr       string
	children []seedNode
}

var devTaxonomy = []seedNode{
	{name: "Electronics", fr: "Électronique", children: []seedNode{
		{name: "Computers", fr: "Ordinateurs", children: []seedNode{
			{name: "Laptops", fr: "Portables"},
			{name: "Desktops", fr: "Ordinateurs de bureau"},
		}},
		{name: "Phones", fr: "Téléphones", children: []seedNode{
			{name: "Smartphones"},
			{name: "Accessories", fr: "Accessoires", children: []seedNode{
				{name: "Cases", fr: "Coques"},
				{name: "Chargers", fr: "Chargeurs"},
			}},
		}},
	}},
	{name: "Home & Garden", fr: "Maison et jardin", children: []seedNode{
		{name: "Kitchen", fr: "Cuisine"},
		{name: "Furniture", fr: "Meubles"},
	}},
	{name: "Books", fr: "Livres"},
}

// Seed populates an empty categories table with a small approved taxonomy
// for development. Depth and path are computed here the same way the
// hierarchy engine would, with "/" as separator.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO categories (id, parent_id, name, name_translations, slug, sort_order,
			depth_level, category_path, lifecycle_state, is_active)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, 'approved', TRUE)`)
	if err != nil {
		return fmt.Errorf("seed prepare: %w", err)
	}
	defer stmt.Close()

	type pending struct {
		node   seedNode
		parent *uuid.UUID
		depth  int
		path   string
		order  int
	}
	var queue []pending
	for i, n := range devTaxonomy {
		queue = append(queue, pending{node: n, order: i, path: n.name})
	}

	inserted := 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		id := uuid.New()
		translations := "{}"
		if p.node.fr != "" {
			translations = fmt.Sprintf(`{"fr": %q}`, p.node.fr)
		}
		if _, err := stmt.Exec(id, p.parent, p.node.name, translations, slug.Generate(p.node.name),
			p.order, p.depth, p.path); err != nil {
			return fmt.Errorf("seed insert %q: %w", p.node.name, err)
		}
		inserted++

		for i, child := range p.node.children {
			queue = append(queue, pending{
				node:   child,
				parent: &id,
				depth:  p.depth + 1,
				path:   p.path + "/" + child.name,
				order:  i,
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with development taxonomy", "categories", inserted)
	return nil
}
