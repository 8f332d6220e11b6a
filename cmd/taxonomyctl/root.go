// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taxonomy/internal/config"
	"taxonomy/internal/database"
)

var errNeedsPostgres = errors.New("taxonomyctl needs STORE_BACKEND=postgres")

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taxonomyctl",
		Short:         "Maintenance tools for the category taxonomy",
		SilenceUsage:  true,
	}
	cmd.AddCommand(newMigrateCmd(), newSeedCmd(), newRecomputeCmd(), newHistoryCmd())
	return cmd
}

// loadPostgres loads the environment configuration and connects to the
// category database.
func loadPostgres() (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.StoreBackend != "postgres" {
		return nil, nil, errNeedsPostgres
	}
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
