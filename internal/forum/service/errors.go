package service

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Error kinds returned by the forum services. Every error a service raises is
// an oops error carrying one of the codes below and wrapping the matching
// sentinel, so callers branch with errors.Is and logs keep the code.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrTopicNotFound      = errors.New("topic not found")
	ErrTopicAlreadyExists = errors.New("topic already exists")
	ErrAlreadySubscribed  = errors.New("already subscribed")
	ErrNotSubscribed      = errors.New("not subscribed")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")

	// ErrPasswordMismatch is the login flavour of ErrInvalidPassword.
	ErrPasswordMismatch = fmt.Errorf("%w: does not match", ErrInvalidPassword)
)

// Stable error codes.
const (
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeTopicNotFound      = "TOPIC_NOT_FOUND"
	CodeTopicAlreadyExists = "TOPIC_ALREADY_EXISTS"
	CodeAlreadySubscribed  = "ALREADY_SUBSCRIBED"
	CodeNotSubscribed      = "NOT_SUBSCRIBED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeForbidden          = "FORBIDDEN"
	CodeInternal           = "INTERNAL"
)

var codes = []struct {
	kind error
	code string
}{
	// Order matters: ErrPasswordMismatch wraps ErrInvalidPassword.
	{ErrUserNotFound, CodeUserNotFound},
	{ErrUserAlreadyExists, CodeUserAlreadyExists},
	{ErrInvalidPassword, CodeInvalidPassword},
	{ErrTopicNotFound, CodeTopicNotFound},
	{ErrTopicAlreadyExists, CodeTopicAlreadyExists},
	{ErrAlreadySubscribed, CodeAlreadySubscribed},
	{ErrNotSubscribed, CodeNotSubscribed},
	{ErrInvalidToken, CodeInvalidToken},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrForbidden, CodeForbidden},
}

// Code returns the stable code for err, or CodeInternal for anything that is
// not one of the service error kinds.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.kind) {
			return c.code
		}
	}
	return CodeInternal
}

// Message returns the client-safe message attached to err. Internal errors
// get a generic message so nothing from the store leaks out.
func Message(err error) string {
	if Code(err) == CodeInternal {
		return "internal server error"
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if msg := oopsErr.Public(); msg != "" {
			return msg
		}
	}
	for _, c := range codes {
		if errors.Is(err, c.kind) {
			return c.kind.Error()
		}
	}
	return err.Error()
}

// fail builds a coded error for kind with a client-safe message and optional
// key/value context.
func fail(kind error, msg string, kv ...any) error {
	return oops.
		Code(Code(kind)).
		Public(msg).
		With(kv...).
		Wrap(kind)
}

// internal wraps an unexpected failure (store, hashing, signing) with the
// INTERNAL code.
func internal(err error, op string) error {
	return oops.
		Code(CodeInternal).
		With("operation", op).
		Wrapf(err, "%s", op)
}
