// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata and is safe for
// concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// signInForm is the sign-in form.
type signInForm struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,max=72"`
}

// signUpForm is the account creation form. bcrypt ignores input past 72
// bytes, so longer passwords are refused rather than silently truncated.
type signUpForm struct {
	FullName string `form:"full_name" validate:"required,max=120"`
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}

// commentForm is a reader comment on a news article.
type commentForm struct {
	AuthorName  string `form:"author_name" validate:"required,max=80"`
	AuthorEmail string `form:"author_email" validate:"omitempty,email,max=254"`
	Body        string `form:"body" validate:"required,max=2000"`
}

// contactForm is the public contact form.
type contactForm struct {
	Name    string `form:"name" validate:"required,max=120"`
	Email   string `form:"email" validate:"required,email,max=254"`
	Subject string `form:"subject" validate:"max=200"`
	Message string `form:"message" validate:"required,max=5000"`
}

// joinForm is the membership enquiry form.
type joinForm struct {
	FullName      string `form:"full_name" validate:"required,max=120"`
	Email         string `form:"email" validate:"required,email,max=254"`
	Phone         string `form:"phone" validate:"max=40"`
	PreferredTeam string `form:"preferred_team" validate:"max=120"`
	Message       string `form:"message" validate:"max=5000"`
}

// formMessages maps validator tags to what the visitor is told.
var formMessages = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"min":      "This is too short.",
	"max":      "This is too long.",
}

// formNames maps struct field names to their form input names.
var formNames = map[string]string{
	"Email":         "email",
	"Password":      "password",
	"FullName":      "full_name",
	"AuthorName":    "author_name",
	"AuthorEmail":   "author_email",
	"Body":          "body",
	"Name":          "name",
	"Subject":       "subject",
	"Message":       "message",
	"Phone":         "phone",
	"PreferredTeam": "preferred_team",
}

// checkForm validates a form struct and returns per-input messages, or
// nil when the form is valid.
func checkForm(form any) map[string]string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": "The form could not be checked."}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := formNames[fe.Field()]
		if name == "" {
			name = strings.ToLower(fe.Field())
		}
		if _, dup := fields[name]; dup {
			continue
		}
		msg, ok := formMessages[fe.Tag()]
		if !ok {
			msg = "This value is not valid."
		}
		fields[name] = msg
	}
	return fields
}

// formValue reads a trimmed form value.
func formValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}
