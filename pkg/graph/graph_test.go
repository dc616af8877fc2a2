package graph

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaubaer/media-session/pkg/media"
)

func TestGainNode_Process(t *testing.T) {
	instance := NewGainNode(0.5)
	in := media.Samples{Data: []float32{1, -0.5, 0.25}, Channels: 1, SampleRate: 48000}

	actual := instance.Process(in)

	assert.Equal(t, []float32{0.5, -0.25, 0.125}, actual.Data)
	assert.Equal(t, []float32{1, -0.5, 0.25}, in.Data)
	assert.Equal(t, 48000, actual.SampleRate)

	instance.SetGain(2)
	assert.Equal(t, 2.0, instance.Gain())
	assert.Equal(t, []float32{2, -1, 0.5}, instance.Process(in).Data)
}

func TestLevelMeter_Write(t *testing.T) {
	instance := &LevelMeter{}

	require.NoError(t, instance.Write(media.Samples{Data: []float32{0.5, -0.5, 0.5, -0.5}}))

	peak, rms := instance.Level()
	assert.InDelta(t, 0.5, peak, 0.0001)
	assert.InDelta(t, 0.5, rms, 0.0001)
	assert.Equal(t, uint64(1), instance.Chunks())
}

func TestContext_Connect(t *testing.T) {
	meter := &LevelMeter{}
	instance := NewContext(meter)
	track := newFeedingTrack("a1")
	stream := media.NewSimpleStream("s1", track, media.NewBaseTrack("v1", media.TrackKindVideo, ""))

	route, err := instance.Connect(stream, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, route.Sources())
	assert.Equal(t, 1, instance.Routes())

	track.feed <- media.Samples{Data: []float32{1, -1}, Channels: 1}
	assert.Eventually(t, func() bool {
		peak, _ := meter.Level()
		return meter.Chunks() == 1 && peak == 0.5
	}, time.Second, time.Millisecond)

	route.SetGain(0.25)
	assert.Equal(t, 0.25, route.Gain())
	track.feed <- media.Samples{Data: []float32{1, -1}, Channels: 1}
	assert.Eventually(t, func() bool {
		peak, _ := meter.Level()
		return meter.Chunks() == 2 && peak == 0.25
	}, time.Second, time.Millisecond)

	require.NoError(t, route.Close())
	require.NoError(t, route.Close())
	assert.Equal(t, 0, instance.Routes())
	assert.True(t, track.finished())
}

func TestContext_Close(t *testing.T) {
	instance := NewContext(nil)
	track := newFeedingTrack("a1")

	route, err := instance.Connect(media.NewSimpleStream("s1", track), 1)
	require.NoError(t, err)

	require.NoError(t, instance.Close())
	assert.True(t, track.finished())
	assert.Equal(t, 0, instance.Routes())
	assert.Equal(t, 1.0, route.Gain())

	_, err = instance.Connect(media.NewSimpleStream("s2"), 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, Discard, instance.Destination())
}

type feedingTrack struct {
	*media.BaseTrack
	feed chan media.Samples

	done  bool
	mutex sync.Mutex
}

func newFeedingTrack(id string) *feedingTrack {
	return &feedingTrack{
		BaseTrack: media.NewBaseTrack(id, media.TrackKindAudio, "test"),
		feed:      make(chan media.Samples),
	}
}

func (this *feedingTrack) ReadSamples(ctx context.Context) (media.Samples, error) {
	select {
	case <-ctx.Done():
		this.mutex.Lock()
		this.done = true
		this.mutex.Unlock()
		return media.Samples{}, ctx.Err()
	case v := <-this.feed:
		return v, nil
	}
}

func (this *feedingTrack) finished() bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.done
}
