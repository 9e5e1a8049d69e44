package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service error for callers
type ErrorKind string

const (
	KindPolicyViolation   ErrorKind = "policy_violation"
	KindNotFound          ErrorKind = "not_found"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindConflict          ErrorKind = "conflict"
	KindValidation        ErrorKind = "validation"
	KindSettlementFailure ErrorKind = "settlement_failure"
	KindInternal          ErrorKind = "internal"
)

// Error is an inspectable service failure
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind. A target without a message
// matches every error of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Kind sentinels for errors.Is
var (
	ErrPolicyViolation   = &Error{Kind: KindPolicyViolation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrSettlementFailure = &Error{Kind: KindSettlementFailure}
)

// Specific errors returned by repositories on constraint violations
var (
	ErrDuplicateBet    = &Error{Kind: KindConflict, Message: "you already bet on this game"}
	ErrDuplicateEmail  = &Error{Kind: KindConflict, Message: "email is already registered"}
	ErrInviteCodeTaken = &Error{Kind: KindConflict, Message: "invite code is already in use"}
	ErrAlreadyMember   = &Error{Kind: KindConflict, Message: "already a member of this group"}
)

// KindOf returns the kind of a service error, or KindInternal for anything else
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func policyViolation(format string, args ...any) error {
	return &Error{Kind: KindPolicyViolation, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity string) error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func unauthorized(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func settlementFailure(cause error, format string, args ...any) error {
	return &Error{Kind: KindSettlementFailure, Message: fmt.Sprintf(format, args...), Cause: cause}
}
