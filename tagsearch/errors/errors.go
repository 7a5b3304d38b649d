package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	IO             Kind = "io"
	SQL            Kind = "sql"
	Parse          Kind = "parse"
	TagLimit       Kind = "tag_limit"
	UnknownMetatag Kind = "unknown_metatag"
	NotFound       Kind = "not_found"
)

type Error struct {
	Kind    Kind
	Message string
	Metatag string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Metatag != "" {
		base = fmt.Sprintf("%s (metatag=%s)", base, e.Metatag)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// ParseError reports a metatag value that failed its type cast.
func ParseError(format string, args ...any) *Error {
	return &Error{Kind: Parse, Message: fmt.Sprintf(format, args...)}
}

// TagLimitError reports a query whose non-exempt term count exceeds the
// acting user's configured tag limit.
func TagLimitError(count, limit int) *Error {
	return &Error{Kind: TagLimit, Message: fmt.Sprintf("query has %d tags, limit is %d", count, limit)}
}

// UnknownMetatagError reports a metatag name with no registered compiler.
// This is a registry-completeness bug, not user error.
func UnknownMetatagError(name string) *Error {
	return &Error{Kind: UnknownMetatag, Message: "no compiler registered", Metatag: name}
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
