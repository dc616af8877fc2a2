package graph

import (
	"context"
	"errors"
	"io"
	"sync"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/media-session/pkg/media"
)

var ErrClosed = errors.New("audio context closed")

// Context owns every route created by it. Closing the context closes all of
// its routes.
type Context struct {
	destination Destination
	routes      map[*Route]struct{}
	closed      bool
	mutex       sync.Mutex
}

func NewContext(destination Destination) *Context {
	if destination == nil {
		destination = Discard
	}
	return &Context{
		destination: destination,
		routes:      make(map[*Route]struct{}),
	}
}

func (this *Context) Destination() Destination {
	return this.destination
}

// Connect creates a source for every audio track of the given stream which
// can be read from and connects them through one gain node to the
// destination of this context.
func (this *Context) Connect(stream media.Stream, gain float64) (*Route, error) {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	if this.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	route := &Route{
		owner:    this,
		streamID: stream.ID(),
		gain:     NewGainNode(gain),
		cancel:   cancel,
	}
	for _, track := range stream.AudioTracks() {
		reader, ok := track.(media.SampleReader)
		if !ok {
			log.With("stream", stream.ID()).
				With("track", track.ID()).
				Debug("Track does not provide samples; not routed.")
			continue
		}
		route.sources++
		route.wg.Add(1)
		go route.pump(ctx, track, reader, this.destination)
	}
	this.routes[route] = struct{}{}

	log.With("stream", stream.ID()).
		With("sources", route.sources).
		With("gain", gain).
		Debug("Audio route connected.")

	return route, nil
}

func (this *Context) Routes() int {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return len(this.routes)
}

func (this *Context) Close() error {
	this.mutex.Lock()
	if this.closed {
		this.mutex.Unlock()
		return nil
	}
	this.closed = true
	routes := make([]*Route, 0, len(this.routes))
	for r := range this.routes {
		routes = append(routes, r)
	}
	this.mutex.Unlock()

	for _, r := range routes {
		_ = r.Close()
	}
	return nil
}

func (this *Context) forget(r *Route) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	delete(this.routes, r)
}

// Route is the path of one stream's audio through the gain stage.
type Route struct {
	owner    *Context
	streamID string
	gain     *GainNode
	sources  int

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func (this *Route) SetGain(v float64) {
	this.gain.SetGain(v)
}

func (this *Route) Gain() float64 {
	return this.gain.Gain()
}

// Sources returns how many tracks feed this route.
func (this *Route) Sources() int {
	return this.sources
}

// Close disconnects the route and returns after every source stopped.
func (this *Route) Close() error {
	this.closeOnce.Do(func() {
		this.cancel()
		this.wg.Wait()
		this.owner.forget(this)
		log.With("stream", this.streamID).
			Debug("Audio route closed.")
	})
	return nil
}

func (this *Route) pump(ctx context.Context, track media.Track, reader media.SampleReader, destination Destination) {
	defer this.wg.Done()

	logger := log.With("stream", this.streamID).
		With("track", track.ID())

	for {
		samples, err := reader.ReadSamples(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || track.State() == media.TrackStateEnded {
				logger.Debug("Source detached.")
			} else {
				logger.WithError(err).
					Warn("Cannot read samples from track. Source detached.")
			}
			return
		}
		if err := destination.Write(this.gain.Process(samples)); err != nil {
			logger.WithError(err).
				Warn("Cannot write samples to destination. Source detached.")
			return
		}
	}
}
