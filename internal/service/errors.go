// Package service implements the credential lifecycle and the attendance
// registration engine. Business-rule violations are members of the closed
// error set below; handlers map them to HTTP statuses with errors.Is and
// never inspect message text.
package service

import "errors"

// Credential lifecycle failures.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccessNotGranted means the user exists but was never liberated for
	// an event; an admin has to summon them first.
	ErrAccessNotGranted = errors.New("access not granted for an active event")
	// ErrAccessExpired means the user's linked event window already closed.
	ErrAccessExpired = errors.New("access expired: the linked event has ended")
	// ErrInvalidToken is an unknown refresh token hash.
	ErrInvalidToken = errors.New("invalid refresh token")
	// ErrTokenReuse means an already-rotated token was presented again.
	// This is a security signal, not an ordinary failure: the presenter may
	// hold a stolen credential and the client must drop its session instead
	// of retrying.
	ErrTokenReuse = errors.New("refresh token reuse detected")
	// ErrTokenExpired is an ordinary expiry; a fresh login recovers.
	ErrTokenExpired = errors.New("refresh token expired")
)

// Attendance registration failures. All of these are user-correctable
// conditions surfaced as 400s.
var (
	ErrNoActiveEvent      = errors.New("no active event open for registration")
	ErrEventRemoved       = errors.New("event has been removed")
	ErrEventInactive      = errors.New("event is inactive")
	ErrEventMisconfigured = errors.New("event registration window is misconfigured")
	// ErrWindowNotOpen is always wrapped with the opening time so the
	// message can tell the user when to come back.
	ErrWindowNotOpen     = errors.New("registration window not yet open")
	ErrWindowClosed      = errors.New("registration window already closed")
	ErrSummonsRequired   = errors.New("event requires a prior summons")
	ErrCityRequired      = errors.New("city reference is required")
	ErrInvalidCity       = errors.New("invalid city reference")
	ErrInvalidInstrument = errors.New("invalid instrument reference")
)
