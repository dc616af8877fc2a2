package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	log "github.com/echocat/slf4g"
	"github.com/google/uuid"

	"github.com/blaubaer/media-session/pkg/graph"
	"github.com/blaubaer/media-session/pkg/media"
)

const UnknownErrorMessage = "Unknown error occurred"

var (
	ErrIllegalVolume = errors.New("illegal volume")
	ErrDisposed      = errors.New("session manager disposed")
)

// Manager owns at most one capture session at a time: it acquires the
// stream, exposes it together with the available devices, routes its audio
// through a gain stage and releases everything again.
//
// Start, Stop and Toggle are expected to be called one after another by the
// host. Stop (and Unmount) may be called while a Start is still waiting for
// the provider; the late result is discarded in that case.
type Manager struct {
	provider CaptureProvider
	graph    AudioGraph

	id           string
	status       Status
	stream       media.Stream
	route        AudioRoute
	errorMessage string
	err          error
	devices      media.Devices
	volume       float64
	options      media.Options

	mounted           bool
	disposed          bool
	generation        uint64
	cancelAcquisition context.CancelFunc

	observers      map[uint64]Observer
	observerOrder  []uint64
	nextObserverId uint64

	mutex sync.Mutex
}

// NewManager creates a Manager using the given provider. If audioGraph is
// nil the Manager creates its own one which discards the routed audio.
func NewManager(provider CaptureProvider, audioGraph AudioGraph) *Manager {
	if audioGraph == nil {
		audioGraph = NewAudioGraph(graph.Discard)
	}
	return &Manager{
		provider:  provider,
		graph:     audioGraph,
		status:    StatusIdle,
		volume:    1,
		options:   media.DefaultOptions,
		observers: make(map[uint64]Observer),
	}
}

// Start acquires a new capture session with the given options. An already
// held session is released completely before the new one is requested.
// Failures are never returned; they are reflected by the returned Snapshot
// (and all notifications) with Status StatusError.
func (this *Manager) Start(ctx context.Context, options media.Options) Snapshot {
	options = options.OrDefault()

	this.Stop()

	var gen uint64
	var acquisitionCtx context.Context
	var disposed bool
	this.update(func() bool {
		this.generation++
		gen = this.generation
		this.id = uuid.NewString()
		this.options = options
		this.errorMessage = ""
		this.err = nil

		if this.disposed {
			disposed = true
			return true
		}

		var cancel context.CancelFunc
		acquisitionCtx, cancel = context.WithCancel(ctx)
		this.cancelAcquisition = cancel
		this.status = StatusLoading
		return true
	})
	if disposed {
		return this.fail(gen, log.With("disposed", true), ErrDisposed)
	}

	logger := log.With("session", this.sessionId()).
		With("options", options)
	if err := options.Validate(); err != nil {
		return this.fail(gen, logger, err)
	}

	logger.Debug("Acquire capture stream...")

	stream, err := this.provider.Acquire(acquisitionCtx, options)
	if err != nil {
		return this.fail(gen, logger, err)
	}
	logger = logger.With("stream", stream.ID())

	devices, err := this.provider.EnumerateDevices(acquisitionCtx)
	if err != nil {
		this.stopStream(logger, stream)
		return this.fail(gen, logger, err)
	}

	return this.activate(gen, logger, stream, devices)
}

func (this *Manager) activate(gen uint64, logger log.Logger, stream media.Stream, devices media.Devices) Snapshot {
	var superseded bool
	var routeErr error
	snapshot := this.update(func() bool {
		if gen != this.generation {
			superseded = true
			return false
		}

		route, err := this.graph.Connect(stream, this.volume)
		if err != nil {
			routeErr = fmt.Errorf("cannot route audio of stream %s: %w", stream.ID(), err)
			return false
		}

		this.releaseCancellation()
		this.stream = stream
		this.route = route
		this.devices = devices
		this.status = StatusActive
		return true
	})

	if superseded {
		logger.Info("Acquisition was superseded. Release late arrived stream.")
		this.stopStream(logger, stream)
		return snapshot
	}
	if routeErr != nil {
		this.stopStream(logger, stream)
		return this.fail(gen, logger, routeErr)
	}

	logger.With("tracks", len(stream.Tracks())).
		With("devices", len(devices)).
		Info("Capture session active.")
	return snapshot
}

func (this *Manager) fail(gen uint64, logger log.Logger, err error) Snapshot {
	msg := err.Error()
	if msg == "" {
		msg = UnknownErrorMessage
	}

	var superseded bool
	snapshot := this.update(func() bool {
		if gen != this.generation {
			superseded = true
			return false
		}
		this.releaseCancellation()
		this.status = StatusError
		this.errorMessage = msg
		this.err = err
		return true
	})

	if superseded {
		logger.WithError(err).
			Debug("Acquisition failed after it was superseded.")
	} else {
		logger.WithError(err).
			Error("Cannot access media devices.")
	}
	return snapshot
}

// Stop releases the held session: every track is stopped and the audio
// route is closed before Stop returns. Without a held session it does
// nothing, except cancelling a pending acquisition.
func (this *Manager) Stop() {
	this.update(func() bool {
		this.generation++
		pending := this.cancelAcquisition != nil
		this.releaseCancellation()

		if this.stream == nil {
			if pending && this.status == StatusLoading {
				this.status = StatusIdle
				log.With("session", this.id).
					Info("Pending acquisition cancelled.")
				return true
			}
			return false
		}

		this.releaseLocked()
		this.status = StatusIdle
		return true
	})
}

// Toggle stops an active session or starts a new one with the last used
// options.
func (this *Manager) Toggle(ctx context.Context) Snapshot {
	this.mutex.Lock()
	active := this.stream != nil && this.stream.Active()
	options := this.options
	this.mutex.Unlock()

	if active {
		this.Stop()
		return this.Snapshot()
	}
	return this.Start(ctx, options)
}

// SetVolume sets the gain which is applied to the captured audio. It is
// applied immediately if a session is active.
func (this *Manager) SetVolume(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrIllegalVolume, v)
	}
	this.update(func() bool {
		if this.volume == v {
			return false
		}
		this.volume = v
		if r := this.route; r != nil {
			r.SetGain(v)
		}
		return true
	})
	return nil
}

func (this *Manager) Volume() float64 {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.volume
}

// LiveGain returns the gain of the active audio route.
func (this *Manager) LiveGain() (float64, bool) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if r := this.route; r != nil {
		return r.Gain(), true
	}
	return 0, false
}

func (this *Manager) Snapshot() Snapshot {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.snapshotLocked()
}

// Subscribe registers an observer which is called after every change. The
// returned function removes it again.
func (this *Manager) Subscribe(o Observer) (unsubscribe func()) {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	this.nextObserverId++
	id := this.nextObserverId
	this.observers[id] = o
	this.observerOrder = append(this.observerOrder, id)

	return func() {
		this.mutex.Lock()
		defer this.mutex.Unlock()
		delete(this.observers, id)
		for i, candidate := range this.observerOrder {
			if candidate == id {
				this.observerOrder = append(this.observerOrder[:i], this.observerOrder[i+1:]...)
				break
			}
		}
	}
}

func (this *Manager) sessionId() string {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.id
}

// update runs fn while holding the lock and notifies all observers outside
// of it if fn reports a change.
func (this *Manager) update(fn func() (changed bool)) Snapshot {
	this.mutex.Lock()
	changed := fn()
	snapshot := this.snapshotLocked()
	var observers []Observer
	if changed {
		observers = make([]Observer, 0, len(this.observerOrder))
		for _, id := range this.observerOrder {
			observers = append(observers, this.observers[id])
		}
	}
	this.mutex.Unlock()

	for _, o := range observers {
		o(snapshot)
	}
	return snapshot
}

func (this *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		ID:           this.id,
		Status:       this.status,
		Stream:       this.stream,
		ErrorMessage: this.errorMessage,
		Err:          this.err,
		Devices:      this.devices.Clone(),
		Volume:       this.volume,
		Options:      this.options,
	}
}

func (this *Manager) releaseCancellation() {
	if c := this.cancelAcquisition; c != nil {
		c()
		this.cancelAcquisition = nil
	}
}

// releaseLocked stops all tracks first, so route sources see their tracks
// ending, and closes the route afterward.
func (this *Manager) releaseLocked() {
	logger := log.With("session", this.id)
	if s := this.stream; s != nil {
		logger = logger.With("stream", s.ID())
		this.stopStream(logger, s)
	}
	if r := this.route; r != nil {
		if err := r.Close(); err != nil {
			logger.WithError(err).
				Warn("Cannot close audio route.")
		}
	}
	this.stream = nil
	this.route = nil
	logger.Info("Capture session released.")
}

func (this *Manager) stopStream(logger log.Logger, stream media.Stream) {
	if err := stream.Stop(); err != nil {
		logger.WithError(err).
			Warn("Cannot stop all tracks of stream.")
	}
}
