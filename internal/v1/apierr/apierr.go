// Package apierr defines the error taxonomy shared by every core component.
//
// Operations in the credential, token, and room packages that can fail
// return one of these sentinels (bare, or wrapped with
// fmt.Errorf("...: %w", ...) for context) rather than an ad-hoc error type.
// The HTTP layer (httpapi) unwraps with errors.Is to pick a status code and
// returns the error text in a JSON body.
package apierr

import "errors"

var (
	// ErrValidation covers malformed signup input (see credential.Signup).
	ErrValidation = errors.New("validation")

	// ErrInvalidCredentials is returned for any login failure. Callers must
	// not distinguish "unknown email" from "wrong password" in the message
	// shown to the user.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound covers unknown rooms, players, or queues.
	ErrNotFound = errors.New("not found")

	// ErrRoomFull is returned when join_room would exceed capacity.
	ErrRoomFull = errors.New("room full")

	// ErrAlreadyInRoom is returned when a player already occupies a room.
	ErrAlreadyInRoom = errors.New("already in room")

	// ErrTokenInvalid covers bad signature, expiry, or malformed tokens.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInternal covers failures in external collaborators (hashing, signing).
	ErrInternal = errors.New("internal error")
)
