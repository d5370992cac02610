package interp

import (
	"fmt"
)

// Exception is a Python runtime error raised by the program under execution.
type Exception struct {
	// Type is the Python exception class name, e.g. "IndexError"
	Type    string
	Message string
	// Line is the line of the innermost statement that raised, 0 if unknown
	Line int
}

func (e *Exception) Error() string {
	msg := e.Type
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func raise(typ, format string, args ...interface{}) *Exception {
	return &Exception{Type: typ, Message: fmt.Sprintf(format, args...)}
}

func typeErrorf(format string, args ...interface{}) *Exception {
	return raise("TypeError", format, args...)
}

func valueErrorf(format string, args ...interface{}) *Exception {
	return raise("ValueError", format, args...)
}

// atLine stamps the line of the failing statement on an exception that has none yet.
func atLine(err error, line int) error {
	if e, ok := err.(*Exception); ok && e.Line == 0 {
		e.Line = line
	}
	return err
}

// IsException reports whether err is a Python exception of the given type.
func IsException(err error, typ string) bool {
	e, ok := err.(*Exception)
	return ok && e.Type == typ
}
