package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only writes into an empty table, so running it twice must be
	// harmless even when other packages share the database.
	if err := Seed(db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&n); err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if n < 1 {
		t.Errorf("expected seeded categories, got %d", n)
	}
}

func TestSeedTaxonomyIsConsistent(t *testing.T) {
	// Walk the literal the way Seed does and check the depth bound.
	var walk func(nodes []seedNode, depth int)
	walk = func(nodes []seedNode, depth int) {
		for _, n := range nodes {
			if depth > 4 {
				t.Errorf("%q would be seeded at depth %d", n.name, depth)
			}
			walk(n.children, depth+1)
		}
	}
	walk(devTaxonomy, 0)
}
