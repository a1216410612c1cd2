package services

import (
	"errors"
	"fmt"
)

// Kind classifies service errors; handlers map it to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindPermissionDenied
	KindInvalidArgument
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthenticated:
		return "unauthenticated"
	}
	return "internal"
}

// Error is returned by every service operation that fails.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by code so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Kind == e.Kind
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrUserNotFound         = newError(KindNotFound, "user_not_found", "user not found")
	ErrRequestNotFound      = newError(KindNotFound, "request_not_found", "friend request not found")
	ErrNotificationNotFound = newError(KindNotFound, "notification_not_found", "notification not found")
	ErrPostNotFound         = newError(KindNotFound, "post_not_found", "post not found")
	ErrCommentNotFound      = newError(KindNotFound, "comment_not_found", "comment not found")

	ErrAlreadyRequested = newError(KindConflict, "already_requested", "friend request already sent")
	ErrAlreadyFriends   = newError(KindConflict, "already_friends", "users are already friends")
	ErrUsernameTaken    = newError(KindConflict, "username_taken", "username already in use")
	ErrEmailTaken       = newError(KindConflict, "email_taken", "email already in use")

	ErrPermissionDenied = newError(KindPermissionDenied, "permission_denied", "permission denied")
	ErrNotFriends       = newError(KindPermissionDenied, "not_friends", "users are not friends")

	ErrSelfRequest        = newError(KindInvalidArgument, "self_request", "cannot send a friend request to yourself")
	ErrInvalidCredentials = newError(KindUnauthenticated, "invalid_credentials", "invalid credentials")
)

// InvalidArgument reports a malformed input.
func InvalidArgument(msg string) *Error {
	return newError(KindInvalidArgument, "invalid_argument", msg)
}

// Internal wraps a store failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: "internal error", Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// asServiceError passes service errors through and wraps anything else.
func asServiceError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(err)
}
