package errors

import (
	stderrors "errors"
	"fmt"
)

// Error extends the standard error interface with a code, a retry
// classification and context metadata (typically the path and the device).
//
// Error values are immutable. They wrap their cause, so errors.Is and
// errors.As see through them.
type Error interface {
	error

	// Code returns the error code identifying the type of error.
	Code() ErrorCode

	// Classification returns whether the error is retryable or permanent.
	Classification() ErrorClassification

	// Message returns the human-readable error message.
	Message() string

	// Context returns a copy of the attached metadata, or nil.
	Context() map[string]any

	// Unwrap returns the wrapped error, or nil.
	Unwrap() error
}

// codedError is the concrete implementation of Error.
type codedError struct {
	code           ErrorCode
	classification ErrorClassification
	message        string
	context        map[string]any
	cause          error
}

// Error formats as "[CODE] message" or "[CODE] message: cause".
func (e *codedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *codedError) Code() ErrorCode                     { return e.code }
func (e *codedError) Classification() ErrorClassification { return e.classification }
func (e *codedError) Message() string                     { return e.message }
func (e *codedError) Unwrap() error                       { return e.cause }

func (e *codedError) Context() map[string]any {
	if e.context == nil {
		return nil
	}
	ctx := make(map[string]any, len(e.context))
	for k, v := range e.context {
		ctx[k] = v
	}
	return ctx
}

// Is makes coded errors match when their codes and messages match and the
// target's cause, if any, is also in e's chain. Package-level sentinels
// therefore survive WithContext.
func (e *codedError) Is(target error) bool {
	t, ok := target.(*codedError)
	if !ok || e.code != t.code || e.message != t.message {
		return false
	}
	return t.cause == nil || stderrors.Is(e.cause, t.cause)
}

// New creates an Error with the given code and message.
//
// Example:
//
//	var ErrNoDevice = errors.New(errors.CodeNoDevice, "no device registered for scheme")
func New(code ErrorCode, message string) Error {
	return &codedError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
	}
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message. The classification of a wrapped
// Error is preserved. Returns nil if err is nil.
//
// Example:
//
//	if _, err := client.StatObject(ctx, bucket, key, opts); err != nil {
//	    return errors.Wrap(err, errors.CodeNetwork, "failed to stat object")
//	}
func Wrap(err error, code ErrorCode, message string) Error {
	if err == nil {
		return nil
	}
	classification := getDefaultClassification(code)
	if coded, ok := asError(err); ok {
		classification = coded.Classification()
	}
	return &codedError{
		code:           code,
		classification: classification,
		message:        message,
		cause:          err,
	}
}

// Wrapf wraps err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...any) Error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithContext returns err with one more context field. Plain errors are
// converted with FromFS first. Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithContext(err, "path", p.String())
func WithContext(err error, key string, value any) Error {
	if err == nil {
		return nil
	}
	coded, ok := asError(err)
	if !ok {
		coded = FromFS(err, "")
	}
	ctx := coded.Context()
	if ctx == nil {
		ctx = make(map[string]any, 1)
	}
	ctx[key] = value
	return &codedError{
		code:           coded.Code(),
		classification: coded.Classification(),
		message:        coded.Message(),
		context:        ctx,
		cause:          coded.Unwrap(),
	}
}
