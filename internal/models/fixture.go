// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "fmt"

// Outcome is a finished match result from the club's point of view.
type Outcome string

const (
	OutcomeWin  Outcome = "W"
	OutcomeLoss Outcome = "L"
	OutcomeDraw Outcome = "D"
)

// Score holds a fixture's recorded goals. Both are nil until the match
// has been played.
type Score struct {
	IsHome    bool
	HomeGoals *int64
	AwayGoals *int64
}

// Played reports whether both goal counts have been recorded.
func (s Score) Played() bool {
	return s.HomeGoals != nil && s.AwayGoals != nil
}

// Outcome returns the club's result, or "" for an unplayed fixture.
func (s Score) Outcome() Outcome {
	if !s.Played() {
		return ""
	}
	ours, theirs := *s.HomeGoals, *s.AwayGoals
	if !s.IsHome {
		ours, theirs = theirs, ours
	}
	switch {
	case ours > theirs:
		return OutcomeWin
	case ours < theirs:
		return OutcomeLoss
	default:
		return OutcomeDraw
	}
}

// Label formats the result as "W 3-1", club goals first.
func (s Score) Label() string {
	o := s.Outcome()
	if o == "" {
		return ""
	}
	ours, theirs := *s.HomeGoals, *s.AwayGoals
	if !s.IsHome {
		ours, theirs = theirs, ours
	}
	return fmt.Sprintf("%s %d-%d", o, ours, theirs)
}
