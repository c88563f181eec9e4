// Package services defines the business logic for identity, group
// administration, and the message archive. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; the
// handler layer translates them into user-facing messages and HTTP status
// codes, and the websocket gateway turns them into error frames.
package services

import "errors"

// Identity errors.
var (
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned for a wrong email/password pair.
	// Login never reveals which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering an email that already has
	// an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserDeactivated is returned when a deactivated account attempts to
	// authenticate.
	ErrUserDeactivated = errors.New("user is deactivated")
)

// Group directory errors.
var (
	// ErrGroupNotFound indicates the requested group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNotMember indicates the user is neither a member nor the admin of
	// the group.
	ErrNotMember = errors.New("user is not a member of this group")

	// ErrNotAdmin is returned when a member attempts an admin-only
	// operation.
	ErrNotAdmin = errors.New("only the group admin may do this")

	// ErrAlreadyMember is returned when adding a user who is already a
	// member.
	ErrAlreadyMember = errors.New("user is already a member")
)

// Message archive errors.
var (
	// ErrEmptyContent is returned when message content is empty after
	// trimming.
	ErrEmptyContent = errors.New("message content cannot be empty")

	// ErrContentTooLong is returned when message content exceeds the
	// configured maximum length.
	ErrContentTooLong = errors.New("message content too long")

	// ErrMessageNotFound indicates the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrForbiddenDelete is returned when someone other than the sender or
	// the group admin attempts to delete a message.
	ErrForbiddenDelete = errors.New("cannot delete this message")
)
