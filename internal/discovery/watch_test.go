// Copyright 2025 James Ross
package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWatchReportsNewPluginFile(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	target := filepath.Join(dir, "plugin_fresh.so")
	require.NoError(t, os.WriteFile(target, []byte{}, 0o644))

	select {
	case ev := <-events:
		assert.Equal(t, target, ev.Path)
		assert.False(t, ev.Removed)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}

func TestWatchIgnoresNonPluginFile(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte{}, 0o644))
	target := filepath.Join(dir, "plugin_real.so")
	require.NoError(t, os.WriteFile(target, []byte{}, 0o644))

	select {
	case ev := <-events:
		assert.Equal(t, target, ev.Path, "the non-plugin file must never surface as an event")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
}

func TestWatchReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "plugin_gone.so")
	require.NoError(t, os.WriteFile(target, []byte{}, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, os.Remove(target))

	select {
	case ev := <-events:
		assert.Equal(t, target, ev.Path)
		assert.True(t, ev.Removed)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for removal event")
	}
}

func TestWatchClosesChannelOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	events, err := Watch(ctx, dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel must close once the context is cancelled")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
