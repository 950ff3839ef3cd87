// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import "log/slog"

// AuditLog returns a subscriber that writes every change to logger.
func AuditLog(logger *slog.Logger) func(Change) {
	return func(ch Change) {
		logger.Info("auth change",
			"kind", ch.Kind,
			"user_id", ch.UserID,
			"email", ch.Email,
			"state", ch.Session.State().String(),
			"at", ch.At,
		)
	}
}
