// Package status defines the closed set of condition codes returned by the
// buffer manager and heap-file layers, following the sentinel-error plus
// Op/Err wrapper pattern the rest of this module's error handling uses.
package status

import (
	"errors"
	"fmt"
)

// Code is one of the fixed condition codes a storage operation can return.
type Code string

const (
	OK              Code = "OK"
	BUFFEREXCEEDED  Code = "BUFFEREXCEEDED"
	PAGEPINNED      Code = "PAGEPINNED"
	PAGENOTPINNED   Code = "PAGENOTPINNED"
	BADBUFFER       Code = "BADBUFFER"
	HASHNOTFOUND    Code = "HASHNOTFOUND"
	HASHTBLERROR    Code = "HASHTBLERROR"
	UNIXERR         Code = "UNIXERR"
	FILEEOF         Code = "FILEEOF"
	FILEEXISTS      Code = "FILEEXISTS"
	BADSCANPARM     Code = "BADSCANPARM"
	INVALIDRECLEN   Code = "INVALIDRECLEN"
	NOSPACE         Code = "NOSPACE"
)

// Error wraps a Code with the operation that produced it and, optionally,
// an underlying cause (an I/O failure surfaced through UNIXERR, say).
type Error struct {
	Op   string
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a *Error for op/code with no underlying cause.
func New(op string, code Code) error {
	return &Error{Op: op, Code: code}
}

// Wrap builds a *Error for op/code that carries cause as its underlying error.
func Wrap(op string, code Code, cause error) error {
	return &Error{Op: op, Code: code, Err: cause}
}

// Is reports whether err (or anything it wraps) carries the given Code.
func Is(err error, code Code) bool {
	for err != nil {
		if c, ok := err.(*Error); ok && c.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// CodeOf extracts the Code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return OK, true
	}
	c, ok := err.(*Error)
	if !ok {
		return "", false
	}
	return c.Code, true
}

func IsBufferExceeded(err error) bool { return Is(err, BUFFEREXCEEDED) }
func IsPagePinned(err error) bool     { return Is(err, PAGEPINNED) }
func IsPageNotPinned(err error) bool  { return Is(err, PAGENOTPINNED) }
func IsHashNotFound(err error) bool   { return Is(err, HASHNOTFOUND) }
func IsFileEOF(err error) bool        { return Is(err, FILEEOF) }
func IsFileExists(err error) bool     { return Is(err, FILEEXISTS) }
func IsNoSpace(err error) bool        { return Is(err, NOSPACE) }
