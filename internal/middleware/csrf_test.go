// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func csrfHandler(secure bool) (http.Handler, *string) {
	var seen string
	h := CSRF(secure)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CSRFTokenFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seen
}

// issueToken performs a GET and returns the CSRF cookie it set.
func issueToken(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth", nil))
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c
		}
	}
	t.Fatal("CSRF cookie not set")
	return nil
}

func TestCSRFCookieFlags(t *testing.T) {
	for _, secure := range []bool{true, false} {
		h, _ := csrfHandler(secure)
		c := issueToken(t, h)
		if c.Secure != secure {
			t.Errorf("Secure: got %v, want %v", c.Secure, secure)
		}
		if c.SameSite != http.SameSiteLaxMode {
			t.Errorf("SameSite: got %v, want Lax", c.SameSite)
		}
		if len(c.Value) != csrfTokenLength*2 {
			t.Errorf("token length: got %d", len(c.Value))
		}
	}
}

func TestCSRFRejectsMissingOrWrongToken(t *testing.T) {
	h, _ := csrfHandler(false)
	cookie := issueToken(t, h)

	for name, token := range map[string]string{"missing": "", "wrong": "deadbeef"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
			req.AddCookie(cookie)
			if token != "" {
				req.Header.Set(CSRFHeaderName, token)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != http.StatusForbidden {
				t.Errorf("got %d, want 403", rr.Code)
			}
		})
	}
}

func TestCSRFAcceptsHeaderToken(t *testing.T) {
	h, _ := csrfHandler(false)
	cookie := issueToken(t, h)

	req := httptest.NewRequest(http.MethodPost, "/admin/news", nil)
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeaderName, cookie.Value)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want 200", rr.Code)
	}
}

func TestCSRFAcceptsFormFieldToken(t *testing.T) {
	h, _ := csrfHandler(false)
	cookie := issueToken(t, h)

	form := url.Values{CSRFFormField: {cookie.Value}}
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-out", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want 200", rr.Code)
	}
}

func TestCSRFTokenFromCtx(t *testing.T) {
	h, seen := csrfHandler(false)
	cookie := issueToken(t, h)
	if *seen != cookie.Value {
		t.Errorf("context token %q != cookie token %q", *seen, cookie.Value)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if *seen != cookie.Value {
		t.Error("existing cookie should be reused")
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Error("no new cookie should be issued when one exists")
	}

	if got := CSRFTokenFromCtx(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Errorf("empty context: got %q", got)
	}
}
