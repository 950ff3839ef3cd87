// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// newTestStore returns a store backed by an in-process Valkey stand-in.
func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, time.Hour, false), mr
}

func TestSessionCreateAndGet(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	data := &Data{UserID: uuid.New(), Email: "coach@club.test"}
	token, err := store.Create(ctx, data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}
	if ttl := mr.TTL(keyPrefix + token); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	got, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != data.UserID || got.Email != data.Email {
		t.Errorf("Get = %+v, want %+v", got, data)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestSessionGetUnknownAndEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, ""); err != ErrNotFound {
		t.Errorf("Get(\"\") error = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(ctx, "deadbeef"); err != ErrNotFound {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestSessionExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, &Data{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	if _, err := store.Get(ctx, token); err != ErrNotFound {
		t.Errorf("Get after expiry error = %v, want ErrNotFound", err)
	}
}

func TestSessionDestroy(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, _ := store.Create(ctx, &Data{UserID: uuid.New()})
	if err := store.Destroy(ctx, token); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := store.Get(ctx, token); err != ErrNotFound {
		t.Errorf("Get after destroy error = %v, want ErrNotFound", err)
	}
	if err := store.Destroy(ctx, token); err != nil {
		t.Errorf("second Destroy: %v", err)
	}
}

func TestSessionGetWhenValkeyDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "anything")
	if err == nil || err == ErrNotFound {
		t.Fatalf("Get with Valkey down error = %v, want connection error", err)
	}
}

func TestCookieHelpers(t *testing.T) {
	store, _ := newTestStore(t)

	w := httptest.NewRecorder()
	store.SetCookie(w, "tok123")
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || c.Value != "tok123" || !c.HttpOnly || c.MaxAge != 3600 {
		t.Errorf("cookie = %+v", c)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	if got := TokenFromRequest(r); got != "tok123" {
		t.Errorf("TokenFromRequest = %q", got)
	}
	if got := TokenFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Errorf("TokenFromRequest without cookie = %q", got)
	}

	w = httptest.NewRecorder()
	store.ClearCookie(w)
	cleared := w.Result().Cookies()[0]
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Errorf("cleared cookie = %+v", cleared)
	}
}
