package indicator

import (
	"iter"

	"github.com/blaubaer/media-session/pkg/common"
	"github.com/blaubaer/media-session/pkg/media"
)

// NewContext creates a Context which is on if the given stream is active.
func NewContext(stream media.Stream) Context {
	return &streamContext{stream}
}

type streamContext struct {
	stream media.Stream
}

func (this *streamContext) State() State {
	if v := this.stream; v != nil && v.Active() {
		return StateOn
	}
	return StateOff
}

func (this *streamContext) Tracks() iter.Seq2[media.Track, error] {
	v := this.stream
	if v == nil || !v.Active() {
		return common.Iter2Err[media.Track]()
	}
	var live []media.Track
	for _, t := range v.Tracks() {
		if t.State() == media.TrackStateLive {
			live = append(live, t)
		}
	}
	return common.Iter2Err(live...)
}
