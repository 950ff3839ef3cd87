// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"clubhouse/internal/auth"
	"clubhouse/internal/session"
)

// Restorer resolves a session token into the current session.
type Restorer interface {
	Restore(ctx context.Context, token string) auth.Session
}

// LoadSession resolves the session cookie and stores the resulting
// snapshot in the request context, where auth.FromContext finds it.
// It never blocks a request: anonymous and loading sessions pass through
// and the route guard decides what they may see.
func LoadSession(sessions Restorer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Restore(r.Context(), session.TokenFromRequest(r))
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}
