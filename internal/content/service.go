// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"maps"

	"github.com/google/uuid"

	"clubhouse/internal/authz"
	"clubhouse/internal/cache"
	"clubhouse/internal/metrics"
	"clubhouse/internal/models"
	"clubhouse/internal/store"
)

// ProfileSource loads the acting profile. It must not serve from a cache:
// the mutation check is only as fresh as this read.
type ProfileSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// CacheLogger records that a table's cached reads were dropped.
type CacheLogger interface {
	Log(ctx context.Context, table string, entityID uuid.UUID, action string)
}

// Service is the only way handlers read or write content tables.
type Service struct {
	store    *Store
	profiles ProfileSource
	cache    *cache.QueryCache
	cacheLog CacheLogger
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache serves list reads from qc and drops a table's entries on
// every write to it.
func WithCache(qc *cache.QueryCache) Option {
	return func(s *Service) { s.cache = qc }
}

// WithCacheLog records every invalidation.
func WithCacheLog(l CacheLogger) Option {
	return func(s *Service) { s.cacheLog = l }
}

// WithMetrics counts mutations by table, operation and result.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service over db.
func NewService(db *sql.DB, profiles ProfileSource, opts ...Option) *Service {
	s := &Service{
		store:    NewStore(db),
		profiles: profiles,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize loads the acting profile from the store and returns it if it
// may act on section. Any failure to load it is ErrForbidden.
func (s *Service) Authorize(ctx context.Context, actor uuid.UUID, section authz.SectionKey) (*models.Profile, error) {
	if actor == uuid.Nil {
		return nil, ErrForbidden
	}
	p, err := s.profiles.FindByID(ctx, actor)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.metrics.ProfileFetchFailed()
			s.logger.Warn("acting profile fetch failed, denying", "user_id", actor, "error", err)
		}
		return nil, ErrForbidden
	}
	if !authz.Can(p, section) {
		return nil, ErrForbidden
	}
	return p, nil
}

// List returns rows of the named table.
func (s *Service) List(ctx context.Context, name string, f Filter) ([]models.Row, error) {
	t, ok := Lookup(name)
	if !ok {
		return nil, ErrUnknownTable
	}
	return cache.Remember(ctx, s.cache, t.Name, "list:"+f.key(), func(ctx context.Context) ([]models.Row, error) {
		return s.store.List(ctx, t, f)
	})
}

// Count returns how many rows of the named table match f.
func (s *Service) Count(ctx context.Context, name string, f Filter) (int, error) {
	t, ok := Lookup(name)
	if !ok {
		return 0, ErrUnknownTable
	}
	return cache.Remember(ctx, s.cache, t.Name, "count:"+f.key(), func(ctx context.Context) (int, error) {
		return s.store.Count(ctx, t, f)
	})
}

// Get returns one row, bypassing the cache.
func (s *Service) Get(ctx context.Context, name string, id uuid.UUID) (models.Row, error) {
	t, ok := Lookup(name)
	if !ok {
		return nil, ErrUnknownTable
	}
	return s.store.Get(ctx, t, id)
}

// PublicList returns visible rows of a table anonymous visitors may read.
func (s *Service) PublicList(ctx context.Context, name string, f Filter) ([]models.Row, error) {
	t, ok := Lookup(name)
	if !ok {
		return nil, ErrUnknownTable
	}
	if !t.Public {
		return nil, ErrNotPublic
	}
	f.VisibleOnly = true
	return s.List(ctx, name, f)
}

// PublicFind returns the first visible row whose col equals val.
func (s *Service) PublicFind(ctx context.Context, name, col string, val any) (models.Row, error) {
	rows, err := s.PublicList(ctx, name, Filter{Where: map[string]any{col: val}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Create inserts a row on behalf of actor.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, name string, v Values) (uuid.UUID, error) {
	t, err := s.writable(ctx, actor, name, "create")
	if err != nil {
		return uuid.Nil, err
	}
	if err := t.check(v, true); err != nil {
		return uuid.Nil, s.failed("create", t, err)
	}
	id, err := s.store.Insert(ctx, t, v, actor)
	if err != nil {
		return uuid.Nil, s.failed("create", t, err)
	}
	s.succeeded(ctx, "create", t, id)
	return id, nil
}

// Update writes v to a row on behalf of actor.
func (s *Service) Update(ctx context.Context, actor uuid.UUID, name string, id uuid.UUID, v Values) error {
	t, err := s.writable(ctx, actor, name, "update")
	if err != nil {
		return err
	}
	if err := t.check(v, false); err != nil {
		return s.failed("update", t, err)
	}
	if err := s.store.Update(ctx, t, id, v); err != nil {
		return s.failed("update", t, err)
	}
	s.succeeded(ctx, "update", t, id)
	return nil
}

// Delete removes a row on behalf of actor.
func (s *Service) Delete(ctx context.Context, actor uuid.UUID, name string, id uuid.UUID) error {
	t, ok := Lookup(name)
	if !ok {
		return ErrUnknownTable
	}
	if _, err := s.Authorize(ctx, actor, t.Section); err != nil {
		s.metrics.Mutation(t.Name, "delete", "forbidden")
		return err
	}
	if err := s.store.Delete(ctx, t, id); err != nil {
		return s.failed("delete", t, err)
	}
	s.succeeded(ctx, "delete", t, id)
	return nil
}

// Submit inserts a row from an anonymous public form. Rows of tables with
// a visibility column start hidden until a moderator approves them.
func (s *Service) Submit(ctx context.Context, name string, v Values) (uuid.UUID, error) {
	t, ok := Lookup(name)
	if !ok {
		return uuid.Nil, ErrUnknownTable
	}
	if !t.Submit {
		return uuid.Nil, ErrNotPublic
	}
	if t.Visibility != "" {
		v = maps.Clone(v)
		v[t.Visibility] = false
	}
	if err := t.check(v, true); err != nil {
		return uuid.Nil, s.failed("submit", t, err)
	}
	id, err := s.store.Insert(ctx, t, v, uuid.Nil)
	if err != nil {
		return uuid.Nil, s.failed("submit", t, err)
	}
	s.succeeded(ctx, "submit", t, id)
	return id, nil
}

// Invalidate drops the cached reads of a table after a write made outside
// the Service, such as a poll vote or a housekeeping job.
func (s *Service) Invalidate(ctx context.Context, name string, id uuid.UUID, action string) {
	if s.cache != nil {
		s.cache.InvalidateTable(ctx, name)
	}
	if s.cacheLog != nil {
		s.cacheLog.Log(ctx, name, id, action)
	}
}

func (s *Service) writable(ctx context.Context, actor uuid.UUID, name, op string) (Table, error) {
	t, ok := Lookup(name)
	if !ok {
		return Table{}, ErrUnknownTable
	}
	if t.ReadOnly {
		s.metrics.Mutation(t.Name, op, "forbidden")
		return Table{}, ErrForbidden
	}
	if _, err := s.Authorize(ctx, actor, t.Section); err != nil {
		s.metrics.Mutation(t.Name, op, "forbidden")
		return Table{}, err
	}
	return t, nil
}

func (s *Service) failed(op string, t Table, err error) error {
	s.metrics.Mutation(t.Name, op, "error")
	s.logger.Warn("content mutation failed", "op", op, "table", t.Name, "error", err)
	return &MutationError{Op: op, Table: t.Name, Err: err}
}

func (s *Service) succeeded(ctx context.Context, op string, t Table, id uuid.UUID) {
	s.metrics.Mutation(t.Name, op, "ok")
	s.Invalidate(ctx, t.Name, id, op)
}
