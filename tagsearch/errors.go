package tagsearch

import tserrors "github.com/tagsearch/tagsearch/tagsearch/errors"

// Re-export the error taxonomy so callers only need the root package.
type Error = tserrors.Error
type ErrorKind = tserrors.Kind

const (
	ErrIO             = tserrors.IO
	ErrSQL            = tserrors.SQL
	ErrParse          = tserrors.Parse
	ErrTagLimit       = tserrors.TagLimit
	ErrUnknownMetatag = tserrors.UnknownMetatag
	ErrNotFound       = tserrors.NotFound
)

func NewError(kind ErrorKind, msg string) *Error          { return tserrors.New(kind, msg) }
func Wrap(kind ErrorKind, msg string, cause error) *Error { return tserrors.Wrap(kind, msg, cause) }
func IsKind(err error, kind ErrorKind) bool               { return tserrors.IsKind(err, kind) }
