// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"clubhouse/internal/auth"
	"clubhouse/internal/identity"
	"clubhouse/internal/middleware"
	"clubhouse/internal/models"
	"clubhouse/internal/render"
	"clubhouse/internal/session"
)

// SessionController is the part of the auth controller the sign-in pages
// drive.
type SessionController interface {
	SignIn(ctx context.Context, email, password string) (string, auth.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) error
	SignOut(ctx context.Context, token string) auth.Session
}

// EmailConfirmer marks an identity confirmed from an emailed token.
type EmailConfirmer interface {
	Confirm(ctx context.Context, token string) (*models.Identity, error)
	RequiresConfirmation() bool
}

// CookieJar writes and clears the session cookie.
type CookieJar interface {
	SetCookie(w http.ResponseWriter, token string)
	ClearCookie(w http.ResponseWriter)
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer *render.Renderer
	ctrl     SessionController
	confirm  EmailConfirmer
	cookies  CookieJar
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, ctrl SessionController, confirm EmailConfirmer, cookies CookieJar) *Auth {
	return &Auth{
		renderer: renderer,
		ctrl:     ctrl,
		confirm:  confirm,
		cookies:  cookies,
	}
}

// Page renders the sign-in and sign-up forms. Someone already signed in
// goes straight on to next.
func (a *Auth) Page(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if auth.FromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, nextTarget(next), http.StatusSeeOther)
		return
	}
	a.page(w, r, http.StatusOK, map[string]any{"Next": next})
}

// SignIn processes the sign-in form.
func (a *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	form := signInForm{
		Email:    formValue(r, "email"),
		Password: r.PostFormValue("password"),
	}
	next := r.PostFormValue("next")
	data := map[string]any{"Next": next, "Email": form.Email}

	if fields := checkForm(form); fields != nil {
		data["Error"] = "Enter your email address and password."
		a.page(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	token, _, err := a.ctrl.SignIn(r.Context(), form.Email, form.Password)
	if err != nil {
		data["Error"] = identity.Classify(err).Message
		a.page(w, r, http.StatusUnauthorized, data)
		return
	}

	a.cookies.SetCookie(w, token)
	middleware.Redirect(w, r, nextTarget(next))
}

// SignUp processes the account creation form. The new profile is a
// pending moderator until an admin approves it.
func (a *Auth) SignUp(w http.ResponseWriter, r *http.Request) {
	form := signUpForm{
		FullName: formValue(r, "full_name"),
		Email:    formValue(r, "email"),
		Password: r.PostFormValue("password"),
	}
	next := r.PostFormValue("next")
	data := map[string]any{"Next": next, "FullName": form.FullName}

	if fields := checkForm(form); fields != nil {
		data["SignUpError"] = signUpProblem(fields)
		a.page(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if err := a.ctrl.SignUp(r.Context(), form.Email, form.Password, form.FullName); err != nil {
		data["SignUpError"] = identity.Classify(err).Message
		a.page(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	msg := "Account created. Sign in below; an administrator will approve your access."
	if a.confirm != nil && a.confirm.RequiresConfirmation() {
		msg = "Account created. Follow the confirmation link sent to your email, then sign in."
	}
	redirectWithFlash(w, r, "/auth", "success", msg)
}

// SignOut ends the session. The cookie is cleared and the visitor is sent
// to the sign-in page whether or not the token store could be reached.
func (a *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	a.ctrl.SignOut(r.Context(), session.TokenFromRequest(r))
	a.cookies.ClearCookie(w)
	middleware.Redirect(w, r, "/auth")
}

// Confirm marks an identity confirmed from the emailed link.
func (a *Auth) Confirm(w http.ResponseWriter, r *http.Request) {
	if a.confirm == nil {
		http.NotFound(w, r)
		return
	}
	id, err := a.confirm.Confirm(r.Context(), r.URL.Query().Get("token"))
	switch {
	case errors.Is(err, identity.ErrInvalidToken):
		redirectWithFlash(w, r, "/auth", "error", "That confirmation link is invalid or has expired.")
		return
	case err != nil:
		serverError(w, "email confirmation failed", err)
		return
	}
	slog.Info("email confirmed", "user_id", id.ID)
	redirectWithFlash(w, r, "/auth", "success", "Email confirmed. You can sign in now.")
}

// Account shows the signed-in user their own profile and whether an
// administrator has approved it yet.
func (a *Auth) Account(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r.Context())
	a.renderer.Page(w, r, "public/account", &render.PageData{
		Title: "Your account",
		Data: map[string]any{
			"Email":    sess.Identity.Email,
			"Profile":  sess.Profile,
			"Sections": sess.Capabilities().Len(),
		},
	})
}

func (a *Auth) page(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	a.renderer.Page(w, r, "public/auth", &render.PageData{
		Title:  "Sign in",
		Status: status,
		Data:   data,
	})
}

// signUpProblem picks the single message shown above the sign-up form.
func signUpProblem(fields map[string]string) string {
	switch {
	case fields["full_name"] != "":
		return "Full name: " + fields["full_name"]
	case fields["email"] != "":
		return "Email: " + fields["email"]
	case fields["password"] != "":
		return "Password must be between 8 and 72 characters."
	}
	return "Please check the form and try again."
}
