package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaubaer/media-session/pkg/indicator"
	"github.com/blaubaer/media-session/pkg/session"
)

func TestApp_lifecycle(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "configuration.yml")
	require.NoError(t, os.WriteFile(fn, []byte("volume: 0.5\n"), 0600))

	instance := &App{
		ConfigurationFile: fn,
		Headless:          true,
		Provider:          &fakeProvider{},
	}
	require.NoError(t, instance.Initialize())
	assert.Equal(t, indicator.TypeLog, instance.Indicator.GetType())
	assert.Equal(t, 0.5, instance.Manager().Volume())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- instance.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return instance.Manager().Snapshot().Status == session.StatusActive
	}, 5*time.Second, 10*time.Millisecond)
	stream := instance.Manager().Snapshot().Stream
	require.NotNil(t, stream)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}

	assert.False(t, stream.Active())
	assert.False(t, instance.Manager().Mounted())
	require.NoError(t, instance.Dispose())
}

func TestApp_Initialize_savesAbsentConfiguration(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "sub", "configuration.yml")
	instance := &App{
		ConfigurationFile: fn,
		Provider:          &fakeProvider{},
	}
	require.NoError(t, instance.Initialize())
	defer func() {
		_ = instance.Dispose()
	}()

	assert.FileExists(t, fn)

	instance.onVolumeChanged(0.75)
	loaded := NewConfiguration()
	require.NoError(t, loaded.loadFromFile(fn, false))
	assert.Equal(t, 0.75, loaded.Volume)
}

func TestApp_Initialize_illegalConfiguration(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "configuration.yml")
	require.NoError(t, os.WriteFile(fn, []byte("foo: bar\n"), 0600))

	instance := &App{
		ConfigurationFile: fn,
		Provider:          &fakeProvider{},
	}
	assert.Error(t, instance.Initialize())
}
