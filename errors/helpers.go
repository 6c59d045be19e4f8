package errors

import (
	"context"
	stderrors "errors"
	"io/fs"
	"net"
	"os"
)

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard library errors.As.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func asError(err error) (Error, bool) {
	var coded Error
	if stderrors.As(err, &coded) {
		return coded, true
	}
	return nil, false
}

// GetCode extracts the ErrorCode from the outermost Error in err's chain.
// Returns CodeUnknown if err is nil or carries no code.
//
// Example:
//
//	if errors.GetCode(err) == errors.CodeUnsafeOperation {
//	    log.Warn("refused to delete", "path", p)
//	}
func GetCode(err error) ErrorCode {
	if coded, ok := asError(err); ok {
		return coded.Code()
	}
	return CodeUnknown
}

// GetClassification extracts the classification from err's chain.
// Returns ClassificationPermanent if err is nil or carries none.
func GetClassification(err error) ErrorClassification {
	if coded, ok := asError(err); ok {
		return coded.Classification()
	}
	return ClassificationPermanent
}

// IsRetryable returns true if the error is classified as retryable.
func IsRetryable(err error) bool {
	return GetClassification(err).IsRetryable()
}

// FromFS converts an error from os, io/fs, net or context into an Error
// with a matching code. The original error stays in the chain. Errors that
// already carry a code are returned as they are. Returns nil if err is nil.
//
// Example:
//
//	f, err := os.Open(name)
//	if err != nil {
//	    return errors.FromFS(err, "failed to open file")
//	}
func FromFS(err error, message string) Error {
	if err == nil {
		return nil
	}
	if coded, ok := asError(err); ok {
		return coded
	}
	if message == "" {
		message = err.Error()
	}

	var netErr net.Error
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return Wrap(err, CodeNotFound, message)
	case stderrors.Is(err, fs.ErrExist):
		return Wrap(err, CodeAlreadyExists, message)
	case stderrors.Is(err, fs.ErrPermission):
		return Wrap(err, CodePermission, message)
	case stderrors.Is(err, fs.ErrInvalid):
		return Wrap(err, CodeInvalidInput, message)
	case stderrors.Is(err, stderrors.ErrUnsupported):
		return Wrap(err, CodeNotSupported, message)
	case stderrors.Is(err, context.Canceled):
		return Wrap(err, CodeCanceled, message)
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, os.ErrDeadlineExceeded):
		return Wrap(err, CodeTimeout, message)
	case stderrors.As(err, &netErr):
		return Wrap(err, CodeNetwork, message)
	default:
		return Wrap(err, CodeIO, message)
	}
}
