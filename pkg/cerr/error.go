package cerr

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/agentgate/agentgate/pkg/clog"
)

type Error struct {
	Code    Code
	APICode string         // wire code for the error envelope; Code default if empty
	Msg     string         // message returned to the caller alongside the code
	Err     error          // underlying error, kept for logs only
	Stack   string         // stack trace, captured for error-level codes
	Ctx     map[string]any // extra fields merged into the error envelope
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.HTTPStatusToLevel(code.HTTPCode()) == clog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

// NewAPIError is NewError with an explicit wire code for the envelope.
func NewAPIError(code Code, apiCode, msg string, underlying error) *Error {
	err := NewError(code, msg, underlying)
	err.APICode = apiCode
	return err
}

// WithContext adds a field to the error envelope next to code and message.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Ctx == nil {
		e.Ctx = make(map[string]any)
	}
	e.Ctx[key] = value
	return e
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) apiCode() string {
	if e.APICode != "" {
		return e.APICode
	}
	return e.Code.APICode()
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}
