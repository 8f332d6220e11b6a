// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// mutation_log.go records structural hierarchy changes for audit and
// debugging purposes. Each entry captures which category changed, how,
// and how many categories the change rewrote.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// MutationLogStore handles the hierarchy mutation log in PostgreSQL.
type MutationLogStore struct {
	db *sql.DB
}

// NewMutationLogStore creates a new MutationLogStore.
func NewMutationLogStore(db *sql.DB) *MutationLogStore {
	return &MutationLogStore{db: db}
}

// Record stores a mutation event.
func (s *MutationLogStore) Record(ctx context.Context, ev models.MutationEvent) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_mutation_log (category_id, action, old_parent_id, new_parent_id, affected)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.CategoryID, ev.Action, ev.OldParentID, ev.NewParentID, ev.Affected)
	if err != nil {
		// Log but don't fail; the mutation itself already happened.
		slog.Warn("failed to log hierarchy mutation",
			"category_id", ev.CategoryID,
			"action", ev.Action,
			"error", err,
		)
		return
	}
	slog.Debug("hierarchy mutation logged",
		"category_id", ev.CategoryID,
		"action", ev.Action,
	)
}

// Recent returns the most recent mutation events, newest first. A nil
// categoryID returns events for every category.
func (s *MutationLogStore) Recent(ctx context.Context, categoryID *uuid.UUID, limit int) ([]models.MutationEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, action, old_parent_id, new_parent_id, affected, recorded_at
		FROM category_mutation_log
		WHERE $1::uuid IS NULL OR category_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`, categoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("query mutation log: %w", err)
	}
	defer rows.Close()

	var events []models.MutationEvent
	for rows.Next() {
		var (
			e              models.MutationEvent
			oldPar, newPar uuid.NullUUID
		)
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.Action, &oldPar, &newPar, &e.Affected, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan mutation log: %w", err)
		}
		if oldPar.Valid {
			id := oldPar.UUID
			e.OldParentID = &id
		}
		if newPar.Valid {
			id := newPar.UUID
			e.NewParentID = &id
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MemoryMutationLog keeps the most recent mutation events in memory.
type MemoryMutationLog struct {
	mu     sync.Mutex
	max    int
	nextID int64
	events []models.MutationEvent
	now    func() time.Time
}

// NewMemoryMutationLog keeps at most max events; older ones are dropped.
func NewMemoryMutationLog(max int) *MemoryMutationLog {
	if max <= 0 {
		max = 1000
	}
	return &MemoryMutationLog{max: max, now: time.Now}
}

// Record stores a mutation event.
func (l *MemoryMutationLog) Record(_ context.Context, ev models.MutationEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	ev.ID = l.nextID
	ev.RecordedAt = l.now().UTC()
	l.events = append(l.events, ev)
	if over := len(l.events) - l.max; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
}

// Recent returns the most recent events, newest first.
func (l *MemoryMutationLog) Recent(_ context.Context, categoryID *uuid.UUID, limit int) ([]models.MutationEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.MutationEvent
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		ev := l.events[i]
		if categoryID != nil && ev.CategoryID != *categoryID {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
