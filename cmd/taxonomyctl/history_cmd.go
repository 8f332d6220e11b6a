// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"taxonomy/internal/models"
	"taxonomy/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		categoryID string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent structural changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("invalid --limit %d", limit)
			}
			var filter *uuid.UUID
			if categoryID != "" {
				id, err := uuid.Parse(categoryID)
				if err != nil {
					return fmt.Errorf("invalid --category: %w", err)
				}
				filter = &id
			}

			_, db, err := loadPostgres()
			if err != nil {
				return err
			}
			defer db.Close()

			events, err := store.NewMutationLogStore(db).Recent(cmd.Context(), filter, limit)
			if err != nil {
				return err
			}
			if events == nil {
				events = []models.MutationEvent{}
			}
			return writeJSON(cmd.OutOrStdout(), events)
		},
	}

	cmd.Flags().StringVar(&categoryID, "category", "", "only show changes of this category id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events")
	return cmd
}
