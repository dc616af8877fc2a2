package session

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaubaer/media-session/pkg/media"
)

func TestManager_Start_audioOnly(t *testing.T) {
	provider := &fakeProvider{}
	instance := NewManager(provider, nil)
	rec := &recorder{}
	instance.Subscribe(rec.observe)

	actual := instance.Start(context.Background(), media.Options{Audio: media.Request{Enabled: true}})

	assert.Equal(t, []Status{StatusLoading, StatusActive}, rec.statuses())
	assert.Equal(t, StatusActive, actual.Status)
	assert.True(t, actual.Active())
	assert.False(t, actual.Loading())
	assert.Empty(t, actual.ErrorMessage)
	require.NotNil(t, actual.Stream)
	assert.Len(t, actual.Stream.AudioTracks(), 1)
	assert.Empty(t, actual.Stream.VideoTracks())
	assert.Equal(t, testDevices, actual.Devices)
	assert.NotEmpty(t, actual.ID)
	assert.Equal(t, actual, instance.Snapshot())
}

func TestManager_Start_defaultsToAudioOnly(t *testing.T) {
	provider := &fakeProvider{}
	instance := NewManager(provider, nil)

	actual := instance.Start(context.Background(), media.Options{})

	assert.Equal(t, []media.Options{media.DefaultOptions}, provider.acquired)
	assert.Equal(t, media.DefaultOptions, actual.Options)
}

func TestManager_Start_permissionDenied(t *testing.T) {
	provider := &fakeProvider{
		onAcquire: func(context.Context, media.Options) error {
			return media.NewAcquisitionError(media.ErrorKindPermissionDenied, errors.New("Permission denied"))
		},
	}
	instance := NewManager(provider, nil)
	rec := &recorder{}
	instance.Subscribe(rec.observe)

	actual := instance.Start(context.Background(), media.Options{})

	assert.Equal(t, []Status{StatusLoading, StatusError}, rec.statuses())
	assert.Equal(t, StatusError, actual.Status)
	assert.Equal(t, "Permission denied", actual.ErrorMessage)
	assert.ErrorIs(t, actual.Err, media.ErrPermissionDenied)
	assert.Nil(t, actual.Stream)
	assert.False(t, actual.Active())
}

func TestManager_Start_errorWithoutMessage(t *testing.T) {
	provider := &fakeProvider{
		onAcquire: func(context.Context, media.Options) error {
			return media.NewAcquisitionError(media.ErrorKindUnknown, nil)
		},
	}
	instance := NewManager(provider, nil)

	actual := instance.Start(context.Background(), media.Options{})

	assert.Equal(t, StatusError, actual.Status)
	assert.Equal(t, UnknownErrorMessage, actual.ErrorMessage)
}

func TestManager_Start_clearsPreviousError(t *testing.T) {
	fail := true
	provider := &fakeProvider{
		onAcquire: func(context.Context, media.Options) error {
			if fail {
				return errors.New("device busy")
			}
			return nil
		},
	}
	instance := NewManager(provider, nil)
	rec := &recorder{}

	assert.Equal(t, StatusError, instance.Start(context.Background(), media.Options{}).Status)

	fail = false
	instance.Subscribe(rec.observe)
	actual := instance.Start(context.Background(), media.Options{})

	assert.Equal(t, StatusActive, actual.Status)
	assert.Empty(t, actual.ErrorMessage)
	assert.NoError(t, actual.Err)
	require.NotEmpty(t, rec.snapshots)
	assert.Equal(t, StatusLoading, rec.snapshots[0].Status)
	assert.Empty(t, rec.snapshots[0].ErrorMessage)
}

func TestManager_Start_exactlyOneOutcome(t *testing.T) {
	outcomes := []func(context.Context, media.Options) error{
		nil,
		func(context.Context, media.Options) error { return errors.New("nope") },
		func(context.Context, media.Options) error { return errors.New("") },
	}
	allOptions := []media.Options{
		{},
		{Audio: media.Request{Enabled: true}},
		{Video: media.Request{Enabled: true}},
		{Video: media.Request{Constraints: &media.Constraints{Width: 640}}, Audio: media.Request{Enabled: true}},
	}

	for _, outcome := range outcomes {
		for _, options := range allOptions {
			instance := NewManager(&fakeProvider{onAcquire: outcome}, nil)

			actual := instance.Start(context.Background(), options)

			active := actual.Status == StatusActive && actual.Stream != nil
			failed := actual.Status == StatusError && actual.ErrorMessage != ""
			assert.True(t, active != failed, "options: %v, snapshot: %+v", options, actual)
			assert.NotEqual(t, StatusLoading, actual.Status)
		}
	}
}

func TestManager_Start_enumerateFailureReleasesStream(t *testing.T) {
	provider := &fakeProvider{
		enumerateFn: func(context.Context) (media.Devices, error) {
			return nil, errors.New("enumeration failed")
		},
	}
	instance := NewManager(provider, nil)

	actual := instance.Start(context.Background(), media.Options{})

	assert.Equal(t, StatusError, actual.Status)
	assert.Equal(t, "enumeration failed", actual.ErrorMessage)
	assert.Len(t, provider.allStreams(), 1)
	assert.Empty(t, provider.liveTracks())
}

func TestManager_Start_routeFailureReleasesStream(t *testing.T) {
	provider := &fakeProvider{}
	instance := NewManager(provider, failingGraph{})

	actual := instance.Start(context.Background(), media.Options{})

	assert.Equal(t, StatusError, actual.Status)
	assert.Contains(t, actual.ErrorMessage, "no audio output")
	assert.Empty(t, provider.liveTracks())
}

func TestManager_Start_releasesPreviousSessionFirst(t *testing.T) {
	provider := &fakeProvider{}
	var liveWhileAcquiring []int
	provider.onAcquire = func(context.Context, media.Options) error {
		liveWhileAcquiring = append(liveWhileAcquiring, len(provider.liveTracks()))
		return nil
	}
	instance := NewManager(provider, nil)

	instance.Start(context.Background(), media.Options{})
	actual := instance.Start(context.Background(), media.Options{})

	assert.Equal(t, []int{0, 0}, liveWhileAcquiring)
	assert.Equal(t, StatusActive, actual.Status)
	assert.Len(t, provider.liveTracks(), 1)
}

func TestManager_Stop(t *testing.T) {
	provider := &fakeProvider{}
	instance := NewManager(provider, nil)
	instance.Start(context.Background(), media.Options{
		Audio: media.Request{Enabled: true},
		Video: media.Request{Enabled: true},
	})
	require.Len(t, provider.liveTracks(), 2)
	rec := &recorder{}
	instance.Subscribe(rec.observe)

	instance.Stop()
	first := instance.Snapshot()
	instance.Stop()
	second := instance.Snapshot()

	assert.Equal(t, StatusIdle, first.Status)
	assert.Equal(t, StatusIdle, second.Status)
	assert.Nil(t, first.Stream)
	assert.Empty(t, provider.liveTracks())
	assert.Equal(t, []Status{StatusIdle}, rec.statuses())
	_, hasRoute := instance.LiveGain()
	assert.False(t, hasRoute)
}

func TestManager_Stop_withoutSession(t *testing.T) {
	instance := NewManager(&fakeProvider{}, nil)
	rec := &recorder{}
	instance.Subscribe(rec.observe)

	instance.Stop()

	assert.Equal(t, StatusIdle, instance.Snapshot().Status)
	assert.Empty(t, rec.statuses())
}

func TestManager_Toggle(t *testing.T) {
	provider := &fakeProvider{}
	instance := NewManager(provider, nil)
	options := media.Options{Video: media.Request{Enabled: true}}

	started := instance.Start(context.Background(), options)
	require.Equal(t, StatusActive, started.Status)

	stopped := instance.Toggle(context.Background())
	assert.Equal(t, StatusIdle, stopped.Status)
	assert.Empty(t, provider.liveTracks())

	restarted := instance.Toggle(context.Background())
	assert.Equal(t, StatusActive, restarted.Status)
	assert.Equal(t, []media.Options{options, options}, provider.acquired)
	assert.Len(t, provider.liveTracks(), 1)
}

func TestManager_Toggle_fromError(t *testing.T) {
	fail := true
	provider := &fakeProvider{
		onAcquire: func(context.Context, media.Options) error {
			if fail {
				return errors.New("busy")
			}
			return nil
		},
	}
	instance := NewManager(provider, nil)
	require.Equal(t, StatusError, instance.Start(context.Background(), media.Options{}).Status)

	fail = false
	actual := instance.Toggle(context.Background())

	assert.Equal(t, StatusActive, actual.Status)
}

func TestManager_SetVolume(t *testing.T) {
	instance := NewManager(&fakeProvider{}, nil)
	assert.Equal(t, 1.0, instance.Volume())

	require.NoError(t, instance.SetVolume(0.3))
	assert.Equal(t, 0.3, instance.Volume())
	_, hasRoute := instance.LiveGain()
	assert.False(t, hasRoute)

	actual := instance.Start(context.Background(), media.Options{})
	assert.Equal(t, 0.3, actual.Volume)
	gain, hasRoute := instance.LiveGain()
	assert.True(t, hasRoute)
	assert.Equal(t, 0.3, gain)

	require.NoError(t, instance.SetVolume(0.7))
	assert.Equal(t, 0.7, instance.Volume())
	gain, _ = instance.LiveGain()
	assert.Equal(t, 0.7, gain)

	assert.ErrorIs(t, instance.SetVolume(math.NaN()), ErrIllegalVolume)
	assert.ErrorIs(t, instance.SetVolume(math.Inf(1)), ErrIllegalVolume)
	assert.Equal(t, 0.7, instance.Volume())
}

func TestManager_Stop_discardsLateAcquisition(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	provider := &fakeProvider{
		onAcquire: func(context.Context, media.Options) error {
			close(entered)
			<-release
			return nil
		},
	}
	instance := NewManager(provider, nil)

	done := make(chan Snapshot)
	go func() {
		done <- instance.Start(context.Background(), media.Options{})
	}()
	<-entered
	assert.Equal(t, StatusLoading, instance.Snapshot().Status)

	instance.Stop()
	assert.Equal(t, StatusIdle, instance.Snapshot().Status)

	close(release)
	select {
	case actual := <-done:
		assert.Equal(t, StatusIdle, actual.Status)
		assert.Nil(t, actual.Stream)
	case <-time.After(5 * time.Second):
		t.Fatal("start did not return")
	}

	assert.Len(t, provider.allStreams(), 1)
	assert.Empty(t, provider.liveTracks())
	assert.Equal(t, StatusIdle, instance.Snapshot().Status)
}

func TestManager_Stop_cancelsPendingAcquisition(t *testing.T) {
	entered := make(chan struct{})
	provider := &fakeProvider{
		onAcquire: func(ctx context.Context, _ media.Options) error {
			close(entered)
			<-ctx.Done()
			return media.ClassifyError(ctx.Err())
		},
	}
	instance := NewManager(provider, nil)

	done := make(chan Snapshot)
	go func() {
		done <- instance.Start(context.Background(), media.Options{})
	}()
	<-entered

	instance.Stop()

	select {
	case actual := <-done:
		assert.Equal(t, StatusIdle, actual.Status)
		assert.Empty(t, actual.ErrorMessage)
	case <-time.After(5 * time.Second):
		t.Fatal("start did not return")
	}
}
