// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/google/uuid"

// PollOption is one answer of a poll with its current vote count.
type PollOption struct {
	ID       uuid.UUID
	Label    string
	Position int64
	Votes    int64
	Percent  int
}

// PollResults is a tallied poll ready for display.
type PollResults struct {
	PollID   uuid.UUID
	Question string
	Open     bool
	Total    int64
	Options  []PollOption
}

// Tally fills Total and each option's Percent. Percentages are rounded
// down, so they may sum to less than 100.
func (p *PollResults) Tally() {
	p.Total = 0
	for _, o := range p.Options {
		p.Total += o.Votes
	}
	for i := range p.Options {
		if p.Total == 0 {
			p.Options[i].Percent = 0
			continue
		}
		p.Options[i].Percent = int(p.Options[i].Votes * 100 / p.Total)
	}
}

// Leader returns the option with the most votes, earliest position
// winning ties. ok is false when nobody has voted.
func (p *PollResults) Leader() (PollOption, bool) {
	var best PollOption
	found := false
	for _, o := range p.Options {
		if o.Votes == 0 {
			continue
		}
		if !found || o.Votes > best.Votes {
			best, found = o, true
		}
	}
	return best, found
}
