// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"clubhouse/internal/identity"
	"clubhouse/internal/models"
	"clubhouse/internal/session"
	"clubhouse/internal/store"
)

type fakeIdentities struct {
	users       map[string]*models.Identity
	passwords   map[string]string
	registerErr error

	requireConfirmation bool
	issued              []uuid.UUID
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{users: map[string]*models.Identity{}, passwords: map[string]string{}}
}

func (f *fakeIdentities) add(email, password string) *models.Identity {
	now := time.Now()
	id := &models.Identity{ID: uuid.New(), Email: email, EmailConfirmedAt: &now}
	f.users[email] = id
	f.passwords[email] = password
	return id
}

func (f *fakeIdentities) Authenticate(_ context.Context, email, password string) (*models.Identity, error) {
	id, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		return nil, identity.NewAuthError(identity.CodeInvalidCredentials, nil)
	}
	return id, nil
}

func (f *fakeIdentities) Register(_ context.Context, email, password, fullName string) (*models.Identity, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if _, ok := f.users[email]; ok {
		return nil, identity.NewAuthError(identity.CodeAlreadyRegistered, nil)
	}
	id := f.add(email, password)
	id.FullName = fullName
	return id, nil
}

func (f *fakeIdentities) RequiresConfirmation() bool { return f.requireConfirmation }

func (f *fakeIdentities) IssueConfirmation(_ context.Context, id uuid.UUID) (string, error) {
	f.issued = append(f.issued, id)
	return "tok-" + id.String(), nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile
	err      error
	calls    int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{}}
}

func (f *fakeProfiles) set(id uuid.UUID, role models.Role, approved bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[id] = &models.Profile{ID: id, Role: role, IsApproved: approved}
}

func (f *fakeProfiles) FindByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeTokens struct {
	mu         sync.Mutex
	data       map[string]*session.Data
	next       int
	getErr     error
	destroyErr error
	destroyed  []string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{data: map[string]*session.Data{}}
}

func (f *fakeTokens) Create(_ context.Context, d *session.Data) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	token := "token-" + string(rune('a'+f.next))
	cp := *d
	f.data[token] = &cp
	return token, nil
}

func (f *fakeTokens) Get(_ context.Context, token string) (*session.Data, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.data[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	return d, nil
}

func (f *fakeTokens) Destroy(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, token)
	if f.destroyErr != nil {
		return f.destroyErr
	}
	delete(f.data, token)
	return nil
}

var errNetwork = errors.New("dial tcp 10.0.0.5:6379: connection refused")

// gatedProfiles pauses a profile read after it has completed, until the
// test releases it.
type gatedProfiles struct {
	*fakeProfiles
	armed   bool
	read    chan struct{}
	release chan struct{}
}

func (g *gatedProfiles) arm() {
	g.armed = true
	g.read = make(chan struct{})
	g.release = make(chan struct{})
}

func (g *gatedProfiles) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := g.fakeProfiles.FindByID(ctx, id)
	if g.armed {
		close(g.read)
		<-g.release
	}
	return p, err
}
