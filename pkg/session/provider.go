package session

import (
	"context"

	"github.com/blaubaer/media-session/pkg/graph"
	"github.com/blaubaer/media-session/pkg/media"
)

// CaptureProvider opens capture streams and lists the available devices.
// Errors should be (or wrap) *media.AcquisitionError.
type CaptureProvider interface {
	Acquire(ctx context.Context, options media.Options) (media.Stream, error)
	EnumerateDevices(ctx context.Context) (media.Devices, error)
}

// AudioGraph routes the audio of a stream through one gain stage.
type AudioGraph interface {
	Connect(stream media.Stream, gain float64) (AudioRoute, error)
	Close() error
}

type AudioRoute interface {
	SetGain(float64)
	Gain() float64

	// Close returns after the route released everything it holds.
	Close() error
}

// NewAudioGraph creates an AudioGraph with its own graph.Context.
func NewAudioGraph(destination graph.Destination) AudioGraph {
	return &graphContext{graph.NewContext(destination)}
}

type graphContext struct {
	*graph.Context
}

func (this *graphContext) Connect(stream media.Stream, gain float64) (AudioRoute, error) {
	r, err := this.Context.Connect(stream, gain)
	if err != nil {
		return nil, err
	}
	return r, nil
}
