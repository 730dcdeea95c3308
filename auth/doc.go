// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth issues and verifies session tokens.

# Session Tokens

Tokens are HS256 JWTs signed with the configured TOKEN_SECRET:

	token, claims, err := auth.IssueToken(secret, studentID, name, models.RoleStudent, ttl, now)
	claims, err := auth.ParseToken(secret, token, clk.Now())

Claims carry the subject (student id or admin username), display name, role
and a random session id (jti). The session id is what the realtime hub keys
subscriptions on, so every login is a separate session.

ParseToken only accepts HS256 and rejects expired tokens and unknown roles.

# Admin Credential

There is a single administrator whose username and password come from
configuration:

	err := auth.CheckAdmin(username, password, cfg.AdminUsername, cfg.AdminPassword)

This is a shared secret, not an account system.

# Random IDs

	id, err := auth.GenerateID(16) // 32 hex chars
*/
package auth
