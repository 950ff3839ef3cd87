// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeKind says what happened to a session or profile.
type ChangeKind string

const (
	ChangeSignedIn       ChangeKind = "signed_in"
	ChangeSignedOut      ChangeKind = "signed_out"
	ChangeSignedUp       ChangeKind = "signed_up"
	ChangeSessionEnded   ChangeKind = "session_ended"
	ChangeProfileUpdated ChangeKind = "profile_updated"
	ChangeProfileDeleted ChangeKind = "profile_deleted"
)

// Change is one published session or profile event.
type Change struct {
	Kind    ChangeKind
	UserID  uuid.UUID
	Email   string
	Session Session
	At      time.Time
}

type subscriber struct {
	id int
	fn func(Change)
}

// Notifier delivers changes to subscribers synchronously, in publish
// order, once per change per subscriber. Publishes are serialized, so a
// subscriber never sees two changes at the same time. Subscribers must
// not publish from inside their callback.
type Notifier struct {
	publishMu sync.Mutex

	mu     sync.RWMutex
	subs   []subscriber
	nextID int
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn and returns a function that removes it. The
// returned function is safe to call more than once.
func (n *Notifier) Subscribe(fn func(Change)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers ch to every current subscriber in subscription order.
// A panicking subscriber is logged and does not stop delivery.
func (n *Notifier) Publish(ch Change) {
	if ch.At.IsZero() {
		ch.At = time.Now()
	}

	n.publishMu.Lock()
	defer n.publishMu.Unlock()

	n.mu.RLock()
	subs := make([]subscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, s := range subs {
		deliver(s.fn, ch)
	}
}

func deliver(fn func(Change), ch Change) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("session change subscriber panicked", "kind", ch.Kind, "panic", r)
		}
	}()
	fn(ch)
}
