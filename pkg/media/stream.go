package media

import (
	"errors"
	"fmt"
	"sync"
)

// Stream is one open capture session: a set of tracks obtained together.
type Stream interface {
	ID() string
	Tracks() []Track
	AudioTracks() []Track
	VideoTracks() []Track

	// Active reports whether at least one track is still live.
	Active() bool

	// Stop stops every track of the stream.
	Stop() error
}

type SimpleStream struct {
	id     string
	tracks []Track
	mutex  sync.RWMutex
}

func NewSimpleStream(id string, tracks ...Track) *SimpleStream {
	return &SimpleStream{
		id:     id,
		tracks: tracks,
	}
}

func (this *SimpleStream) ID() string {
	return this.id
}

func (this *SimpleStream) AddTrack(t Track) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	this.tracks = append(this.tracks, t)
}

func (this *SimpleStream) Tracks() []Track {
	this.mutex.RLock()
	defer this.mutex.RUnlock()
	result := make([]Track, len(this.tracks))
	copy(result, this.tracks)
	return result
}

func (this *SimpleStream) AudioTracks() []Track {
	return this.tracksOfKind(TrackKindAudio)
}

func (this *SimpleStream) VideoTracks() []Track {
	return this.tracksOfKind(TrackKindVideo)
}

func (this *SimpleStream) tracksOfKind(kind TrackKind) (result []Track) {
	this.mutex.RLock()
	defer this.mutex.RUnlock()
	for _, t := range this.tracks {
		if t.Kind() == kind {
			result = append(result, t)
		}
	}
	return
}

func (this *SimpleStream) Active() bool {
	this.mutex.RLock()
	defer this.mutex.RUnlock()
	for _, t := range this.tracks {
		if t.State() == TrackStateLive {
			return true
		}
	}
	return false
}

func (this *SimpleStream) Stop() error {
	var errs []error
	for _, t := range this.Tracks() {
		if err := t.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("cannot stop track %s: %w", t.ID(), err))
		}
	}
	return errors.Join(errs...)
}

func (this *SimpleStream) String() string {
	return this.id
}
