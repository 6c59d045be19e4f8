package ghfs

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/google/go-github/v67/github"

	"github.com/jmgilman/go/fspath/errors"
)

// statusCode maps a GitHub API status to an error code.
func statusCode(status int) errors.ErrorCode {
	switch status {
	case http.StatusNotFound:
		return errors.CodeNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CodePermission
	case http.StatusConflict, http.StatusUnprocessableEntity, http.StatusBadRequest:
		return errors.CodeInvalidInput
	case http.StatusTooManyRequests:
		return errors.CodeUnavailable
	}
	if status >= 500 {
		return errors.CodeNetwork
	}
	return errors.CodeInternal
}

// wrapError classifies err using the API response. Missing entries also
// match fs.ErrNotExist.
func wrapError(err error, resp *github.Response, message, name string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WithContext(errors.FromFS(err, message), "path", name)
	}

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var ghErr *github.ErrorResponse
	if stderrors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	}
	var rateErr *github.RateLimitError
	if stderrors.As(err, &rateErr) {
		status = http.StatusTooManyRequests
	}

	code := errors.CodeNetwork
	if status != 0 {
		code = statusCode(status)
	}
	if code == errors.CodeNotFound {
		err = fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	}
	return errors.WithContext(errors.WithContext(errors.Wrap(err, code, message), "path", name), "status", status)
}
