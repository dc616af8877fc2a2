package media

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

type TrackKind uint8

const (
	TrackKindAudio = TrackKind(0)
	TrackKindVideo = TrackKind(1)
)

func (this *TrackKind) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "audio":
		*this = TrackKindAudio
		return nil
	case "video":
		*this = TrackKindVideo
		return nil
	default:
		return fmt.Errorf("illegal-track-kind: %s", plain)
	}
}

func (this TrackKind) String() string {
	switch this {
	case TrackKindAudio:
		return "audio"
	case TrackKindVideo:
		return "video"
	default:
		return fmt.Sprintf("illegal-track-kind-%d", this)
	}
}

type TrackState uint8

const (
	TrackStateLive  = TrackState(0)
	TrackStateEnded = TrackState(1)
)

func (this TrackState) String() string {
	switch this {
	case TrackStateLive:
		return "live"
	case TrackStateEnded:
		return "ended"
	default:
		return fmt.Sprintf("illegal-track-state-%d", this)
	}
}

// Track is a single audio or video track of a Stream.
type Track interface {
	ID() string
	Kind() TrackKind
	Label() string
	State() TrackState

	// Stop ends the track and releases the underlying device. Calling it
	// more than once is allowed.
	Stop() error
}

// Samples is one chunk of interleaved PCM audio in the range [-1, 1].
type Samples struct {
	Data       []float32
	Channels   int
	SampleRate int
}

func (this Samples) Frames() int {
	if this.Channels <= 0 {
		return len(this.Data)
	}
	return len(this.Data) / this.Channels
}

// SampleReader is implemented by audio tracks which can hand out their
// captured samples.
type SampleReader interface {
	ReadSamples(ctx context.Context) (Samples, error)
}

// BaseTrack implements the bookkeeping part of Track. StopFunc (if any) is
// called exactly once by Stop.
type BaseTrack struct {
	id    string
	kind  TrackKind
	label string

	StopFunc func() error

	ended    atomic.Bool
	stopOnce sync.Once
	stopErr  error
}

func NewBaseTrack(id string, kind TrackKind, label string) *BaseTrack {
	return &BaseTrack{
		id:    id,
		kind:  kind,
		label: label,
	}
}

func (this *BaseTrack) ID() string      { return this.id }
func (this *BaseTrack) Kind() TrackKind { return this.kind }
func (this *BaseTrack) Label() string   { return this.label }

func (this *BaseTrack) State() TrackState {
	if this.ended.Load() {
		return TrackStateEnded
	}
	return TrackStateLive
}

func (this *BaseTrack) Stop() error {
	this.stopOnce.Do(func() {
		this.ended.Store(true)
		if v := this.StopFunc; v != nil {
			this.stopErr = v()
		}
	})
	return this.stopErr
}

func (this *BaseTrack) String() string {
	return fmt.Sprintf("%v:%s", this.kind, this.id)
}
