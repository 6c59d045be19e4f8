package fspath

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/fspath/errors"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(newMemDevice("mem")))

	err := r.Register(newMemDevice("mem"))
	assert.Equal(t, errors.CodeAlreadyExists, errors.GetCode(err))

	err = r.Register(newMemDevice(""))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	err = r.Register(newMemDevice("a/b"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	require.NoError(t, r.Register(newMemDevice("docker")))
	assert.Equal(t, []string{"docker", "mem"}, r.Schemes())
}

func TestRegistry_LookupAndUnregister(t *testing.T) {
	r := NewRegistry()
	dev := newMemDevice("mem")
	require.NoError(t, r.Register(dev))

	got, ok := r.Lookup("mem")
	require.True(t, ok)
	assert.Same(t, dev, got)

	removed, ok := r.Unregister("mem")
	assert.True(t, ok)
	assert.Same(t, dev, removed)

	_, ok = r.Lookup("mem")
	assert.False(t, ok)
}

func TestRegistry_DeviceFor(t *testing.T) {
	dev := newMemDevice("mem")
	r := NewRegistry()
	require.NoError(t, r.Register(dev))

	assert.Same(t, r.Local(), r.DeviceFor(FromString("/tmp")))
	assert.Same(t, dev, r.DeviceFor(FromString("mem://h/x")))
}

func TestRegistry_WithLocalDevice(t *testing.T) {
	local := newMemDevice("local-test")
	r := NewRegistry(WithLocalDevice(local))
	assert.Same(t, local, r.DeviceFor(FromString("/anything")))
}

func TestRegistry_Close(t *testing.T) {
	dev := newMemDevice("mem")
	r := NewRegistry()
	require.NoError(t, r.Register(dev))

	require.NoError(t, r.Close())
	assert.True(t, dev.closed.Load())
	assert.Empty(t, r.Schemes())
}

func TestInitShutdown(t *testing.T) {
	prev := SetDefault(NewRegistry())
	t.Cleanup(func() { SetDefault(prev) })

	dev := newMemDevice("mem")
	require.NoError(t, Init(dev))

	ctx := context.Background()
	p := FromString("mem://h/data")
	_, err := p.WriteContents(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.True(t, p.Exists(ctx))

	require.NoError(t, Shutdown())
	assert.True(t, dev.closed.Load())
	assert.Empty(t, Default().Schemes())
}

func TestWithRegistry(t *testing.T) {
	ctx, dev := memRegistry(t)
	assert.NotSame(t, Default(), RegistryFrom(ctx))
	assert.Same(t, Default(), RegistryFrom(context.Background()))

	p := FromString("mem://h/file")
	_, err := p.WriteContents(ctx, []byte("x"))
	require.NoError(t, err)
	assert.True(t, dev.Exists(ctx, p))
}

func TestRegistry_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := NewRegistry(WithLogger(logger))
	require.NoError(t, r.Register(newMemDevice("mem")))
	assert.Contains(t, buf.String(), "registered device")
	assert.Contains(t, buf.String(), "scheme=mem")
}
