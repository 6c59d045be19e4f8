package fspath

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/fspath/errors"
)

func TestReadContentsAsync_LocalResolvesImmediately(t *testing.T) {
	ctx := context.Background()
	file := tempDir(t).PathAppended("f.txt")
	_, err := file.WriteContents(ctx, []byte("hello"))
	require.NoError(t, err)

	f := file.ReadContentsAsync(ctx, WithLimit(4))
	select {
	case <-f.Done():
	default:
		t.Fatal("local future must be complete on return")
	}

	var got string
	f.Then(func(data []byte, err error) {
		require.NoError(t, err)
		got = string(data)
	})
	assert.Equal(t, "hell", got, "continuation runs inline for local paths")
}

func TestWriteContentsAsync_Local(t *testing.T) {
	ctx := context.Background()
	file := tempDir(t).PathAppended("w.txt")

	n, err := file.WriteContentsAsync(ctx, []byte("abc")).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestContentsAsync_Device(t *testing.T) {
	ctx, _ := memRegistry(t)
	p := FromString("mem://h/data")

	n, err := p.WriteContentsAsync(ctx, []byte("remote")).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	data, err := p.ReadContentsAsync(ctx, WithOffset(2)).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mote", string(data))

	done := make(chan string, 1)
	p.ReadContentsAsync(ctx).Then(func(data []byte, err error) {
		done <- string(data)
	})
	select {
	case got := <-done:
		assert.Equal(t, "remote", got)
	case <-time.After(5 * time.Second):
		t.Fatal("continuation never ran")
	}
}

func TestCopyFile_AcrossDevices(t *testing.T) {
	ctx, dev := memRegistry(t)
	local := tempDir(t).PathAppended("src.txt")
	_, err := local.WriteContents(ctx, []byte("shared"))
	require.NoError(t, err)

	remote := FromString("mem://h/copy.txt")
	require.NoError(t, local.CopyFile(ctx, remote))
	data, err := dev.ReadContents(ctx, remote, -1, 0)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(data))

	back := local.ParentDir().PathAppended("back.txt")
	require.NoError(t, remote.CopyFile(ctx, back))
	data, err = back.ReadContents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(data))
}

func TestCopyFileAsync(t *testing.T) {
	ctx, _ := memRegistry(t)
	local := tempDir(t).PathAppended("src.txt")
	_, err := local.WriteContents(ctx, []byte("async"))
	require.NoError(t, err)

	t.Run("local", func(t *testing.T) {
		dst := local.ParentDir().PathAppended("dst.txt")
		got, err := local.CopyFileAsync(ctx, dst).Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, dst, got)
	})

	t.Run("across devices", func(t *testing.T) {
		remote := FromString("mem://h/a.txt")
		got, err := local.CopyFileAsync(ctx, remote).Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, remote, got)

		data, err := remote.ReadContents(ctx)
		require.NoError(t, err)
		assert.Equal(t, "async", string(data))
	})

	t.Run("same device", func(t *testing.T) {
		src, dst := FromString("mem://h/a.txt"), FromString("mem://h/b.txt")
		got, err := src.CopyFileAsync(ctx, dst).Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, dst, got)
	})

	t.Run("missing source", func(t *testing.T) {
		missing := local.ParentDir().PathAppended("missing")
		got, err := missing.CopyFileAsync(ctx, FromString("mem://h/x")).Wait(ctx)
		assert.True(t, got.IsEmpty())
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	})
}

func TestRenameFile_AcrossDevices(t *testing.T) {
	ctx, dev := memRegistry(t)
	local := tempDir(t).PathAppended("move.txt")
	_, err := local.WriteContents(ctx, []byte("m"))
	require.NoError(t, err)

	remote := FromString("mem://h/move.txt")
	require.NoError(t, local.RenameFile(ctx, remote))
	assert.False(t, local.Exists(ctx))
	assert.True(t, dev.Exists(ctx, remote))
}
