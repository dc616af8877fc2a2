package graph

import (
	"math"
	"sync"

	"github.com/blaubaer/media-session/pkg/media"
)

// Destination is the end of every route.
type Destination interface {
	Write(media.Samples) error
}

var Discard Destination = discard{}

type discard struct{}

func (discard) Write(media.Samples) error { return nil }

// LevelMeter keeps the peak and RMS level of the most recent chunk written
// to it.
type LevelMeter struct {
	peak   float64
	rms    float64
	chunks uint64
	mutex  sync.RWMutex
}

func (this *LevelMeter) Write(s media.Samples) error {
	var peak, sum float64
	for _, v := range s.Data {
		a := math.Abs(float64(v))
		if a > peak {
			peak = a
		}
		sum += float64(v) * float64(v)
	}
	var rms float64
	if n := len(s.Data); n > 0 {
		rms = math.Sqrt(sum / float64(n))
	}

	this.mutex.Lock()
	defer this.mutex.Unlock()
	this.peak = peak
	this.rms = rms
	this.chunks++
	return nil
}

func (this *LevelMeter) Level() (peak, rms float64) {
	this.mutex.RLock()
	defer this.mutex.RUnlock()
	return this.peak, this.rms
}

func (this *LevelMeter) Chunks() uint64 {
	this.mutex.RLock()
	defer this.mutex.RUnlock()
	return this.chunks
}
