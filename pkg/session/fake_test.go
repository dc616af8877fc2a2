package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/blaubaer/media-session/pkg/media"
)

var testDevices = media.Devices{
	{ID: "mic-1", Label: "Built-in Microphone", Kind: media.DeviceKindAudioInput},
	{ID: "cam-1", Label: "Built-in Camera", Kind: media.DeviceKindVideoInput},
	{ID: "spk-1", Label: "Speakers", Kind: media.DeviceKindAudioOutput},
}

type fakeProvider struct {
	// onAcquire is called (if set) before a stream is created. A non-nil
	// error is returned to the caller instead of the stream.
	onAcquire   func(ctx context.Context, options media.Options) error
	enumerateFn func(ctx context.Context) (media.Devices, error)

	acquired []media.Options
	streams  []*media.SimpleStream
	mutex    sync.Mutex
}

func (this *fakeProvider) Acquire(ctx context.Context, options media.Options) (media.Stream, error) {
	if v := this.onAcquire; v != nil {
		if err := v(ctx, options); err != nil {
			return nil, err
		}
	}

	this.mutex.Lock()
	defer this.mutex.Unlock()

	this.acquired = append(this.acquired, options)
	n := len(this.acquired)
	stream := media.NewSimpleStream(fmt.Sprintf("stream-%d", n))
	if options.Audio.IsRequested() {
		stream.AddTrack(media.NewBaseTrack(fmt.Sprintf("audio-%d", n), media.TrackKindAudio, "Built-in Microphone"))
	}
	if options.Video.IsRequested() {
		stream.AddTrack(media.NewBaseTrack(fmt.Sprintf("video-%d", n), media.TrackKindVideo, "Built-in Camera"))
	}
	this.streams = append(this.streams, stream)
	return stream, nil
}

func (this *fakeProvider) EnumerateDevices(ctx context.Context) (media.Devices, error) {
	if v := this.enumerateFn; v != nil {
		return v(ctx)
	}
	return testDevices, nil
}

func (this *fakeProvider) allStreams() []*media.SimpleStream {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	result := make([]*media.SimpleStream, len(this.streams))
	copy(result, this.streams)
	return result
}

func (this *fakeProvider) liveTracks() (result []media.Track) {
	for _, s := range this.allStreams() {
		for _, t := range s.Tracks() {
			if t.State() == media.TrackStateLive {
				result = append(result, t)
			}
		}
	}
	return
}

type recorder struct {
	snapshots []Snapshot
	mutex     sync.Mutex
}

func (this *recorder) observe(s Snapshot) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	this.snapshots = append(this.snapshots, s)
}

func (this *recorder) statuses() (result []Status) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	for _, s := range this.snapshots {
		result = append(result, s.Status)
	}
	return
}

type failingGraph struct{}

func (failingGraph) Connect(media.Stream, float64) (AudioRoute, error) {
	return nil, fmt.Errorf("no audio output")
}

func (failingGraph) Close() error { return nil }
