// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth is the session controller: it signs people in and out,
// resolves the session cookie on every request, and publishes every
// identity or profile change to subscribers.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"clubhouse/internal/identity"
	"clubhouse/internal/metrics"
	"clubhouse/internal/models"
	"clubhouse/internal/session"
	"clubhouse/internal/store"
)

// IdentityStore checks and creates credentials.
type IdentityStore interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
	Register(ctx context.Context, email, password, fullName string) (*models.Identity, error)
}

// Confirmer is implemented by identity stores that can require email
// confirmation before first sign-in.
type Confirmer interface {
	RequiresConfirmation() bool
	IssueConfirmation(ctx context.Context, id uuid.UUID) (string, error)
}

// ProfileStore loads profiles. A missing profile is store.ErrNotFound.
type ProfileStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// TokenStore persists session tokens. An unknown token is session.ErrNotFound.
type TokenStore interface {
	Create(ctx context.Context, data *session.Data) (string, error)
	Get(ctx context.Context, token string) (*session.Data, error)
	Destroy(ctx context.Context, token string) error
}

// ConfirmationSender delivers a confirmation token to a new account.
type ConfirmationSender func(ctx context.Context, email, token string)

const (
	defaultCacheSize = 512
	defaultCacheTTL  = 30 * time.Second
)

// Controller owns the sign-in lifecycle.
type Controller struct {
	ids      IdentityStore
	profiles ProfileStore
	tokens   TokenStore
	notifier *Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	confirm  ConfirmationSender

	cacheSize int
	cacheTTL  time.Duration
	cache     *expirable.LRU[uuid.UUID, *models.Profile]

	// epoch counts published changes. A profile read that overlapped a
	// change is returned but not cached.
	cacheMu sync.Mutex
	epoch   uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics records sign-ins, changes and profile fetch failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithProfileCache sets the profile cache size and TTL. A ttl of zero or
// less disables the cache.
func WithProfileCache(size int, ttl time.Duration) Option {
	return func(c *Controller) {
		c.cacheSize = size
		c.cacheTTL = ttl
	}
}

// WithConfirmationSender replaces the default sender, which logs the link.
func WithConfirmationSender(fn ConfirmationSender) Option {
	return func(c *Controller) { c.confirm = fn }
}

// WithNotifier shares an existing notifier instead of creating one.
func WithNotifier(n *Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// NewController wires a controller. Its own profile cache subscribes to
// the notifier so every published change drops the affected profile.
func NewController(ids IdentityStore, profiles ProfileStore, tokens TokenStore, opts ...Option) *Controller {
	c := &Controller{
		ids:       ids,
		profiles:  profiles,
		tokens:    tokens,
		logger:    slog.Default(),
		cacheSize: defaultCacheSize,
		cacheTTL:  defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = NewNotifier()
	}
	if c.confirm == nil {
		c.confirm = c.logConfirmation
	}
	if c.cacheTTL > 0 {
		if c.cacheSize <= 0 {
			c.cacheSize = defaultCacheSize
		}
		c.cache = expirable.NewLRU[uuid.UUID, *models.Profile](c.cacheSize, nil, c.cacheTTL)
	}
	c.notifier.Subscribe(c.forget)
	return c
}

// Subscribe registers fn for every future change and returns an
// unsubscribe function.
func (c *Controller) Subscribe(fn func(Change)) func() {
	return c.notifier.Subscribe(fn)
}

// SignIn checks credentials, creates a session token and loads the
// profile fresh. Failures are *identity.AuthError.
func (c *Controller) SignIn(ctx context.Context, email, password string) (string, Session, error) {
	id, err := c.ids.Authenticate(ctx, email, password)
	if err != nil {
		ae := identity.Classify(err)
		c.metrics.SignIn(string(ae.Code))
		c.logger.Info("sign-in rejected", "email", email, "code", ae.Code)
		return "", Anonymous(), ae
	}

	token, err := c.tokens.Create(ctx, &session.Data{UserID: id.ID, Email: id.Email})
	if err != nil {
		ae := identity.NewAuthError(identity.CodeUnknown, err)
		c.metrics.SignIn(string(ae.Code))
		c.logger.Error("sign-in: session token not created", "email", email, "error", err)
		return "", Anonymous(), ae
	}

	profile, _ := c.loadProfile(ctx, id.ID, true)
	sess := Authenticated(Principal{ID: id.ID, Email: id.Email}, profile)
	c.metrics.SignIn("ok")
	c.publish(Change{Kind: ChangeSignedIn, UserID: id.ID, Email: id.Email, Session: sess})
	return token, sess, nil
}

// SignUp registers a new identity. The database creates its profile as a
// pending moderator. When the identity store requires confirmation a
// token is issued and handed to the confirmation sender. Failures are
// *identity.AuthError.
func (c *Controller) SignUp(ctx context.Context, email, password, fullName string) error {
	id, err := c.ids.Register(ctx, email, password, fullName)
	if err != nil {
		return identity.Classify(err)
	}

	if cf, ok := c.ids.(Confirmer); ok && cf.RequiresConfirmation() {
		token, err := cf.IssueConfirmation(ctx, id.ID)
		if err != nil {
			// The account exists; a failed token only delays confirmation.
			c.logger.Error("sign-up: confirmation token not issued", "email", id.Email, "error", err)
		} else {
			c.confirm(ctx, id.Email, token)
		}
	}

	c.publish(Change{Kind: ChangeSignedUp, UserID: id.ID, Email: id.Email, Session: Anonymous()})
	return nil
}

// SignOut destroys the session token. It always succeeds from the
// caller's point of view: a failed remote call is logged, the returned
// session is anonymous, and ChangeSignedOut is published regardless.
func (c *Controller) SignOut(ctx context.Context, token string) Session {
	current := FromContext(ctx)
	if err := c.tokens.Destroy(ctx, token); err != nil {
		c.logger.Warn("sign-out: session token not destroyed, clearing locally", "user_id", current.UserID(), "error", err)
	}

	sess := Anonymous()
	var email string
	if current.Identity != nil {
		email = current.Identity.Email
	}
	c.publish(Change{Kind: ChangeSignedOut, UserID: current.UserID(), Email: email, Session: sess})
	return sess
}

// Restore resolves a session token into a snapshot. An empty, unknown or
// expired token is anonymous. If the token store cannot be reached the
// session is Loading: nobody can tell who this is yet. A profile that
// fails to load leaves Profile nil, which grants nothing. A profile that
// no longer exists ends the session.
func (c *Controller) Restore(ctx context.Context, token string) Session {
	if token == "" {
		return Anonymous()
	}

	data, err := c.tokens.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return Anonymous()
	}
	if err != nil {
		c.logger.Warn("session lookup failed", "error", err)
		return LoadingSession()
	}

	profile, gone := c.loadProfile(ctx, data.UserID, false)
	if gone {
		if err := c.tokens.Destroy(ctx, token); err != nil {
			c.logger.Warn("ending orphaned session failed", "user_id", data.UserID, "error", err)
		}
		c.publish(Change{Kind: ChangeSessionEnded, UserID: data.UserID, Email: data.Email, Session: Anonymous()})
		return Anonymous()
	}

	return Authenticated(Principal{ID: data.UserID, Email: data.Email}, profile)
}

// ProfileChanged republishes an admin change to a profile. Subscribers,
// including the profile cache, see it before ProfileChanged returns.
func (c *Controller) ProfileChanged(ctx context.Context, id uuid.UUID, kind ChangeKind) {
	c.publish(Change{Kind: kind, UserID: id})
}

// loadProfile returns the profile for id. gone reports that the profile
// does not exist. Any other failure returns (nil, false).
func (c *Controller) loadProfile(ctx context.Context, id uuid.UUID, fresh bool) (profile *models.Profile, gone bool) {
	if c.cache != nil && !fresh {
		if p, ok := c.cache.Get(id); ok {
			c.metrics.CacheHit("profile")
			return clone(p), false
		}
		c.metrics.CacheMiss("profile")
	}

	epoch := c.currentEpoch()
	p, err := c.profiles.FindByID(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, true
	case err != nil:
		c.metrics.ProfileFetchFailed()
		c.logger.Warn("profile fetch failed, treating as unapproved", "user_id", id, "error", err)
		return nil, false
	}

	c.remember(id, p, epoch)
	return clone(p), false
}

func (c *Controller) currentEpoch() uint64 {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	return c.epoch
}

// remember caches p unless a change was published since epoch was read.
func (c *Controller) remember(id uuid.UUID, p *models.Profile, epoch uint64) {
	if c.cache == nil {
		return
	}
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.cache.Add(id, p)
}

func (c *Controller) publish(ch Change) {
	c.metrics.SessionChange(string(ch.Kind))
	c.notifier.Publish(ch)
}

// forget drops the cached profile of whoever a change concerns and
// invalidates profile reads still in flight.
func (c *Controller) forget(ch Change) {
	if c.cache == nil {
		return
	}
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.epoch++
	if ch.UserID != uuid.Nil {
		c.cache.Remove(ch.UserID)
	}
}

func (c *Controller) logConfirmation(_ context.Context, email, token string) {
	c.logger.Info("email confirmation link", "email", email, "url", "/auth/confirm?token="+token)
}

func clone(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
