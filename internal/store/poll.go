// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clubhouse/internal/models"
)

var (
	// ErrPollClosed is returned when voting on an inactive or expired poll.
	ErrPollClosed = errors.New("poll is closed")
	// ErrAlreadyVoted is returned when the voter already voted on the poll.
	ErrAlreadyVoted = errors.New("already voted")
)

// PollStore handles public poll voting and tallies.
type PollStore struct {
	db *sql.DB
}

// NewPollStore creates a new PollStore.
func NewPollStore(db *sql.DB) *PollStore {
	return &PollStore{db: db}
}

// Results returns the poll with its options in declared order and tallied
// vote counts.
func (s *PollStore) Results(ctx context.Context, pollID uuid.UUID) (*models.PollResults, error) {
	res := &models.PollResults{PollID: pollID}
	var active bool
	var closesAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT question, is_active, closes_at FROM polls WHERE id = $1`, pollID,
	).Scan(&res.Question, &active, &closesAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find poll: %w", err)
	}
	res.Open = isOpen(active, closesAt, time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.label, o.position, COUNT(v.id)
		FROM poll_options o
		LEFT JOIN poll_votes v ON v.option_id = o.id
		WHERE o.poll_id = $1
		GROUP BY o.id, o.label, o.position
		ORDER BY o.position ASC, o.label ASC
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("tally poll: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.PollOption
		if err := rows.Scan(&o.ID, &o.Label, &o.Position, &o.Votes); err != nil {
			return nil, fmt.Errorf("scan poll option: %w", err)
		}
		res.Options = append(res.Options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res.Tally()
	return res, nil
}

// LatestOpen returns the id of the most recently created open poll.
func (s *PollStore) LatestOpen(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM polls
		WHERE is_active AND (closes_at IS NULL OR closes_at > NOW())
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("latest poll: %w", err)
	}
	return id, nil
}

// Vote records one vote. The poll row is locked so a concurrent close
// cannot interleave with the insert. A voter gets one vote per poll.
func (s *PollStore) Vote(ctx context.Context, pollID, optionID uuid.UUID, voterHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote: %w", err)
	}
	defer tx.Rollback()

	var active bool
	var closesAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT is_active, closes_at FROM polls WHERE id = $1 FOR UPDATE`, pollID,
	).Scan(&active, &closesAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock poll: %w", err)
	}
	if !isOpen(active, closesAt, time.Now()) {
		return ErrPollClosed
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO poll_votes (poll_id, option_id, voter_hash)
		SELECT $1, o.id, $3 FROM poll_options o WHERE o.id = $2 AND o.poll_id = $1
		ON CONFLICT (poll_id, voter_hash) DO NOTHING
	`, pollID, optionID, voterHash)
	if err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM poll_options WHERE id = $1 AND poll_id = $2)`,
			optionID, pollID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check option: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadyVoted
	}

	return tx.Commit()
}

func isOpen(active bool, closesAt sql.NullTime, now time.Time) bool {
	return active && (!closesAt.Valid || closesAt.Time.After(now))
}
