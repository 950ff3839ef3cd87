// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package jobs runs the periodic background work: switching off
// announcements whose window has ended and closing polls past their
// closing time.
package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"clubhouse/internal/metrics"
)

// Housekeeper performs the expiry updates.
type Housekeeper interface {
	DeactivateExpiredAnnouncements(ctx context.Context) (int64, error)
	ClosePastDuePolls(ctx context.Context) (int64, error)
}

// Invalidator drops the cached reads of a table.
type Invalidator interface {
	Invalidate(ctx context.Context, name string, id uuid.UUID, action string)
}

// Housekeeping expires stale public content.
type Housekeeping struct {
	store   Housekeeper
	cache   Invalidator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHousekeeping creates a Housekeeping job. cache and m may be nil.
func NewHousekeeping(store Housekeeper, cache Invalidator, m *metrics.Metrics, logger *slog.Logger) *Housekeeping {
	if logger == nil {
		logger = slog.Default()
	}
	return &Housekeeping{store: store, cache: cache, metrics: m, logger: logger}
}

// Run performs one pass. A failing task does not stop the others; their
// errors are joined.
func (h *Housekeeping) Run(ctx context.Context) error {
	tasks := []struct {
		table string
		run   func(context.Context) (int64, error)
	}{
		{"announcements", h.store.DeactivateExpiredAnnouncements},
		{"polls", h.store.ClosePastDuePolls},
	}

	var errs []error
	for _, task := range tasks {
		n, err := task.run(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n == 0 {
			continue
		}
		h.metrics.Housekept(task.table, n)
		if h.cache != nil {
			h.cache.Invalidate(ctx, task.table, uuid.Nil, "expire")
		}
		h.logger.Info("housekeeping expired rows", "table", task.table, "rows", n)
	}
	return errors.Join(errs...)
}
