package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/blaubaer/media-session/pkg/media"
)

type fakeProvider struct {
	err   error
	count atomic.Int32
}

func (this *fakeProvider) Acquire(_ context.Context, options media.Options) (media.Stream, error) {
	if err := this.err; err != nil {
		return nil, err
	}
	n := this.count.Add(1)
	result := media.NewSimpleStream(fmt.Sprintf("stream-%d", n))
	if options.Audio.IsRequested() {
		result.AddTrack(media.NewBaseTrack(fmt.Sprintf("audio-%d", n), media.TrackKindAudio, "Microphone"))
	}
	if options.Video.IsRequested() {
		result.AddTrack(media.NewBaseTrack(fmt.Sprintf("video-%d", n), media.TrackKindVideo, "Camera"))
	}
	return result, nil
}

func (this *fakeProvider) EnumerateDevices(context.Context) (media.Devices, error) {
	return media.Devices{
		{ID: "mic-1", Label: "Microphone", Kind: media.DeviceKindAudioInput},
		{ID: "cam-1", Label: "Camera", Kind: media.DeviceKindVideoInput},
	}, nil
}
