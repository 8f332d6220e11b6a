// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"taxonomy/internal/cache"
	"taxonomy/internal/hierarchy"
	"taxonomy/internal/store"
)

type recomputeOutput struct {
	Result  hierarchy.RecomputeResult `json:"result"`
	Partial []uuid.UUID               `json:"partial_updates,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

func newRecomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <category-id>",
		Short: "Re-derive depth and path below a category",
		Long: "Re-derives the depth and materialized path of a category and all of\n" +
			"its descendants. Use it to finish a move or delete that stopped part way.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid category id: %w", err)
			}

			cfg, db, err := loadPostgres()
			if err != nil {
				return err
			}
			defer db.Close()

			opts := []hierarchy.Option{
				hierarchy.WithMutationLog(store.NewMutationLogStore(db)),
				hierarchy.WithSeparator(cfg.PathSeparator),
			}
			if cfg.CacheBackend == "valkey" {
				client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
				if err != nil {
					return err
				}
				defer client.Close()
				opts = append(opts,
					hierarchy.WithBreadcrumbCache(cache.NewBreadcrumbCache(client, cfg.BreadcrumbTTL)),
					hierarchy.WithTreeCache(cache.NewMenuCache(client, cfg.MenuTTL)),
				)
			} else {
				slog.Warn("in-process caches of a running server are not invalidated", "cache", cfg.CacheBackend)
			}

			eng := hierarchy.New(store.NewCategoryStore(db), opts...)
			res, err := eng.Recompute(cmd.Context(), id)
			out := recomputeOutput{Result: res, Partial: hierarchy.PartialUpdates(err)}
			if err != nil {
				out.Error = err.Error()
			}
			if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
				return werr
			}
			return err
		},
	}
}
