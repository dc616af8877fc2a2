package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pion/webrtc/v4"

	"github.com/blaubaer/media-session/pkg/media"
)

func newTrack(source mediadevices.Track, label string) media.Track {
	if source.Kind() == webrtc.RTPCodecTypeAudio {
		base := media.NewBaseTrack(source.ID(), media.TrackKindAudio, label)
		base.StopFunc = source.Close
		return &audioTrack{BaseTrack: base, source: source}
	}
	base := media.NewBaseTrack(source.ID(), media.TrackKindVideo, label)
	base.StopFunc = source.Close
	return base
}

type chunkReader interface {
	Read() (chunk wave.Audio, release func(), err error)
}

type audioTrack struct {
	*media.BaseTrack
	source mediadevices.Track

	reader     chunkReader
	readerErr  error
	readerOnce sync.Once
}

// ReadSamples blocks until the driver delivers the next chunk. Stopping the
// track unblocks it.
func (this *audioTrack) ReadSamples(ctx context.Context) (media.Samples, error) {
	if err := ctx.Err(); err != nil {
		return media.Samples{}, err
	}

	this.readerOnce.Do(func() {
		if this.reader != nil {
			return
		}
		at, ok := this.source.(*mediadevices.AudioTrack)
		if !ok {
			this.readerErr = fmt.Errorf("track %s does not provide audio samples", this.ID())
			return
		}
		this.reader = at.NewReader(true)
	})
	if this.readerErr != nil {
		return media.Samples{}, this.readerErr
	}

	chunk, release, err := this.reader.Read()
	if err != nil {
		return media.Samples{}, err
	}
	if release != nil {
		defer release()
	}
	return toSamples(chunk)
}

func toSamples(chunk wave.Audio) (media.Samples, error) {
	info := chunk.ChunkInfo()
	result := media.Samples{
		Channels:   info.Channels,
		SampleRate: info.SamplingRate,
	}

	switch v := chunk.(type) {
	case *wave.Float32Interleaved:
		result.Data = make([]float32, len(v.Data))
		copy(result.Data, v.Data)
	case *wave.Int16Interleaved:
		result.Data = make([]float32, len(v.Data))
		for i, s := range v.Data {
			result.Data[i] = float32(s) / 32768
		}
	default:
		return media.Samples{}, fmt.Errorf("unsupported audio chunk format %T", chunk)
	}
	return result, nil
}
