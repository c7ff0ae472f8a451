package sceneio

import (
	"errors"
	"fmt"
)

// ParseError is the single distinguished error kind for fatal scene-load
// failures: malformed JSON, wrong-multiple vertex or face arrays, unsupported
// face flags, missing required point fields, un-decodable point strings.
// Callers match it with errors.As (or IsParseError) and present the message;
// no partial scene accompanies one.
type ParseError struct {
	Msg   string
	cause error
}

func (e *ParseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error { return e.cause }

// IsParseError reports whether err is, or wraps, a fatal scene parse failure.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

func parseWrapf(cause error, format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), cause: cause}
}
