//go:build !fspathdebug

package fspath

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmgilman/go/fspath/errors"
)

func TestRegistry_MissingDevice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	ctx := WithRegistry(context.Background(), r)

	p := FromString("nowhere://h/etc/hosts")
	assert.False(t, p.Exists(ctx))
	assert.False(t, p.IsDir(ctx))

	data, err := p.ReadContents(ctx)
	assert.Nil(t, data)
	assert.True(t, errors.Is(err, ErrNoDevice))
	assert.Equal(t, errors.CodeNoDevice, errors.GetCode(err))

	_, err = p.WriteContents(ctx, []byte("x"))
	assert.True(t, errors.Is(err, ErrNoDevice))

	assert.Contains(t, buf.String(), "no device registered for scheme")
	assert.Contains(t, buf.String(), "scheme=nowhere")
}
