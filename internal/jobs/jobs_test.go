// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package jobs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhouse/internal/metrics"
	"clubhouse/internal/store"
)

type fakeHousekeeper struct {
	announcements int64
	polls         int64
	pollErr       error
}

func (f *fakeHousekeeper) DeactivateExpiredAnnouncements(context.Context) (int64, error) {
	return f.announcements, nil
}

func (f *fakeHousekeeper) ClosePastDuePolls(context.Context) (int64, error) {
	return f.polls, f.pollErr
}

type recordingInvalidator struct{ tables []string }

func (r *recordingInvalidator) Invalidate(_ context.Context, name string, _ uuid.UUID, _ string) {
	r.tables = append(r.tables, name)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestHousekeeping_InvalidatesChangedTables(t *testing.T) {
	inv := &recordingInvalidator{}
	m := metrics.New()
	h := NewHousekeeping(&fakeHousekeeper{announcements: 0, polls: 3}, inv, m, quietLogger())

	require.NoError(t, h.Run(context.Background()))

	assert.Equal(t, []string{"polls"}, inv.tables)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.HousekeepingRowsTotal.WithLabelValues("polls")))
}

func TestHousekeeping_ContinuesAfterFailure(t *testing.T) {
	inv := &recordingInvalidator{}
	boom := errors.New("boom")
	h := NewHousekeeping(&fakeHousekeeper{announcements: 1, pollErr: boom}, inv, nil, quietLogger())

	err := h.Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"announcements"}, inv.tables)
}

func TestHousekeeping_WithStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("UPDATE announcements SET is_active = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE polls SET is_active = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inv := &recordingInvalidator{}
	h := NewHousekeeping(store.NewHousekeepingStore(db), inv, nil, quietLogger())

	require.NoError(t, h.Run(context.Background()))
	assert.Equal(t, []string{"announcements"}, inv.tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(quietLogger())
	err := s.Add("housekeeping", "not a schedule", time.Second, func(context.Context) error { return nil })
	assert.Error(t, err)

	assert.NoError(t, s.Add("housekeeping", "@every 5m", time.Second, func(context.Context) error { return nil }))
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(quietLogger())
	require.NoError(t, s.Add("noop", "@hourly", time.Second, func(context.Context) error { return nil }))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}

func TestCronLoggerAddsError(t *testing.T) {
	var buf bytes.Buffer
	l := cronLogger{logger: slog.New(slog.NewTextHandler(&buf, nil))}

	l.Error(errors.New("panic: nil map"), "panic", "job", "housekeeping")

	assert.Contains(t, buf.String(), "cron: panic")
	assert.Contains(t, buf.String(), "error=\"panic: nil map\"")
}
