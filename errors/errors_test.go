package errors

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeNotFound, "missing")
	require.NotNil(t, err)
	assert.Equal(t, CodeNotFound, err.Code())
	assert.Equal(t, "missing", err.Message())
	assert.Equal(t, ClassificationPermanent, err.Classification())
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "[NOT_FOUND] missing", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeNoDevice, "no device for scheme %q", "docker")
	assert.Equal(t, `[NO_DEVICE] no device for scheme "docker"`, err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, CodeIO, "ignored"))
		assert.Nil(t, Wrapf(nil, CodeIO, "ignored %d", 1))
	})

	t.Run("keeps the chain", func(t *testing.T) {
		err := Wrap(fs.ErrNotExist, CodeNotFound, "stat failed")
		assert.True(t, Is(err, fs.ErrNotExist))
		assert.Equal(t, "[NOT_FOUND] stat failed: file does not exist", err.Error())
	})

	t.Run("preserves classification", func(t *testing.T) {
		inner := New(CodeNetwork, "host unreachable")
		err := Wrap(inner, CodeIO, "read failed")
		assert.Equal(t, CodeIO, err.Code())
		assert.True(t, err.Classification().IsRetryable())
	})
}

func TestWithContext(t *testing.T) {
	base := New(CodeUnsafeOperation, "refusing to remove root")
	err := WithContext(base, "path", "/")
	err = WithContext(err, "device", "local")

	assert.Equal(t, CodeUnsafeOperation, err.Code())
	assert.Equal(t, map[string]any{"path": "/", "device": "local"}, err.Context())
	assert.Nil(t, base.Context(), "original must stay unchanged")
	assert.True(t, Is(err, base), "sentinel identity survives context")

	ctx := err.Context()
	ctx["path"] = "mutated"
	assert.Equal(t, "/", err.Context()["path"])

	assert.Nil(t, WithContext(nil, "k", "v"))
}

func TestFromFS(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not exist", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}, CodeNotFound},
		{"exist", os.ErrExist, CodeAlreadyExists},
		{"permission", fs.ErrPermission, CodePermission},
		{"invalid", fs.ErrInvalid, CodeInvalidInput},
		{"canceled", context.Canceled, CodeCanceled},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"other", fmt.Errorf("boom"), CodeIO},
		{"already coded", New(CodeNoDevice, "x"), CodeNoDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromFS(tt.err, "")
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Code())
			assert.True(t, Is(err, tt.err))
		})
	}

	assert.Nil(t, FromFS(nil, "x"))
}

func TestClassificationHelpers(t *testing.T) {
	assert.Equal(t, CodeUnknown, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(New(CodeNotFound, "x")))
	assert.True(t, IsRetryable(New(CodeTimeout, "x")))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", New(CodeUnavailable, "x"))))
	assert.Equal(t, ClassificationPermanent, getDefaultClassification("SOMETHING_ELSE"))
}
