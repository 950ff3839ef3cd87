// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package identity

import (
	"errors"
	"fmt"
)

// Code classifies an authentication failure.
type Code string

const (
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeEmailNotConfirmed  Code = "email_not_confirmed"
	CodeAlreadyRegistered  Code = "already_registered"
	CodeUnknown            Code = "unknown"
)

// messages are the fixed user-facing texts. CodeUnknown has none; it
// shows the underlying error instead.
var messages = map[Code]string{
	CodeInvalidCredentials: "Invalid email or password.",
	CodeEmailNotConfirmed:  "Please confirm your email address before signing in.",
	CodeAlreadyRegistered:  "An account with this email already exists.",
}

// AuthError is a classified sign-in or sign-up failure.
type AuthError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError builds an AuthError with the message for code.
func NewAuthError(code Code, err error) *AuthError {
	msg, ok := messages[code]
	if !ok {
		code = CodeUnknown
		msg = "Something went wrong. Please try again."
		if err != nil {
			msg = err.Error()
		}
	}
	return &AuthError{Code: code, Message: msg, Err: err}
}

// Classify returns err as an *AuthError, wrapping anything unclassified
// as CodeUnknown. It returns nil for a nil error.
func Classify(err error) *AuthError {
	if err == nil {
		return nil
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return NewAuthError(CodeUnknown, err)
}

// CodeOf returns the classification of err, or "" for nil.
func CodeOf(err error) Code {
	if ae := Classify(err); ae != nil {
		return ae.Code
	}
	return ""
}
