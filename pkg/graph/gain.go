package graph

import (
	"math"
	"sync/atomic"

	"github.com/blaubaer/media-session/pkg/media"
)

// GainNode scales the amplitude of the samples passing through it.
type GainNode struct {
	gain atomic.Uint64
}

func NewGainNode(gain float64) *GainNode {
	result := &GainNode{}
	result.SetGain(gain)
	return result
}

func (this *GainNode) SetGain(v float64) {
	this.gain.Store(math.Float64bits(v))
}

func (this *GainNode) Gain() float64 {
	return math.Float64frombits(this.gain.Load())
}

// Process returns a scaled copy of in. The input is never modified.
func (this *GainNode) Process(in media.Samples) media.Samples {
	gain := float32(this.Gain())
	out := in
	out.Data = make([]float32, len(in.Data))
	if gain == 1 {
		copy(out.Data, in.Data)
		return out
	}
	for i, v := range in.Data {
		out.Data[i] = v * gain
	}
	return out
}
