package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Code is the short machine-readable error code returned to callers.
type Code string

const (
	CodeInvalidScenario  Code = "invalid"
	CodeUnknownOperation Code = "wrong-op"
	CodeWrongStatus      Code = "wrong-status"
	CodeHandler          Code = "handler-error"
	CodeSoftStop         Code = "soft-stop"
	CodeInvalidConfig    Code = "invalid-config"
)

// Sentinels for errors.Is. Matching compares codes only.
var (
	ErrInvalidScenario  = &Error{Code: CodeInvalidScenario}
	ErrUnknownOperation = &Error{Code: CodeUnknownOperation}
	ErrWrongStatus      = &Error{Code: CodeWrongStatus}
	ErrHandler          = &Error{Code: CodeHandler}
	ErrSoftStop         = &Error{Code: CodeSoftStop}
	ErrInvalidConfig    = &Error{Code: CodeInvalidConfig}
)

// Error is the error object returned by the dispatcher.
type Error struct {
	Code     Code   `json:"code"`
	Scenario string `json:"scenario,omitempty"`
	Op       OpName `json:"op,omitempty"`

	// Reason is a handler-specific code such as "theme-not-found".
	Reason string `json:"reason,omitempty"`

	Err error `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Code)
	if e.Scenario != "" {
		msg += " scenario=" + e.Scenario
	}
	if e.Op != "" {
		msg += " op=" + string(e.Op)
	}
	if e.Reason != "" {
		msg += " reason=" + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) MarshalJSON() ([]byte, error) {
	type wire Error
	out := struct {
		*wire
		Message string `json:"message,omitempty"`
	}{wire: (*wire)(e)}
	if e.Err != nil {
		out.Message = e.Err.Error()
	}
	return json.Marshal(out)
}

// CodeOf returns the code carried by err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// SoftStop is returned by handlers that cannot proceed but have not failed.
// The caller keeps its current op/op_args and may retry later.
func SoftStop(reason string) error {
	return &Error{Code: CodeSoftStop, Reason: reason}
}

// IsSoftStop reports whether err is a soft stop.
func IsSoftStop(err error) bool {
	return errors.Is(err, ErrSoftStop)
}

// HandlerError reports a domain-specific handler failure such as a missing
// theme. cause may be nil.
func HandlerError(reason string, cause error) error {
	return &Error{Code: CodeHandler, Reason: reason, Err: cause}
}

// HandlerErrorf is HandlerError with a formatted cause.
func HandlerErrorf(reason, format string, args ...any) error {
	return HandlerError(reason, fmt.Errorf(format, args...))
}
