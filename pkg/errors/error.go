package errors

import (
	"fmt"
)

// transport-level error numbers
const (
	KErrConnectionClosed uint32 = iota + 1
	KErrReadTimeout
	KErrWriteTimeout
	KErrShutdownInProgress
)

var (
	ErrConnectionClosed   = &Error{what: "connection closed", errno: KErrConnectionClosed}
	ErrReadTimeout        = &Error{what: "read timeout", errno: KErrReadTimeout}
	ErrWriteTimeout       = &Error{what: "write timeout", errno: KErrWriteTimeout}
	ErrShutdownInProgress = &Error{what: "shutdown in progress", errno: KErrShutdownInProgress}
)

// Error is a numbered transport error, distinguishable from wire-format
// errors raised by the proto package.
type Error struct {
	what  string
	errno uint32
}

func NewError(what string, errno uint32) *Error {
	return &Error{what: what, errno: errno}
}

func (e *Error) Error() string {
	return fmt.Sprintf("error: %s (%d) ", e.what, e.errno)
}

func (e *Error) ErrNo() uint32 {
	return e.errno
}
