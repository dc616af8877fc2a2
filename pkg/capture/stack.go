package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/echocat/slf4g"
	"github.com/google/uuid"
	"github.com/pion/mediadevices"

	"github.com/blaubaer/media-session/pkg/common"
	"github.com/blaubaer/media-session/pkg/media"
)

// Stack opens capture streams and enumerates devices using the drivers
// registered with pion/mediadevices.
type Stack struct {
	AcquireTimeout time.Duration

	getUserMedia func(mediadevices.MediaStreamConstraints) (mediadevices.MediaStream, error)
	enumerate    func() []mediadevices.MediaDeviceInfo

	initialized bool
	mutex       sync.RWMutex
}

func (this *Stack) SetupConfiguration(using common.FlagHolder) {
	using.Flag("capture.acquireTimeout", "How long to wait for the platform to hand out a stream. 0 means wait forever.").
		Envar("MS_CAPTURE_ACQUIRE_TIMEOUT").
		DurationVar(&this.AcquireTimeout)
}

func (this *Stack) Initialize() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	if this.initialized {
		return nil
	}

	if this.getUserMedia == nil {
		this.getUserMedia = mediadevices.GetUserMedia
	}
	if this.enumerate == nil {
		this.enumerate = mediadevices.EnumerateDevices
	}

	this.initialized = true
	return nil
}

func (this *Stack) Dispose() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	this.initialized = false
	return nil
}

func (this *Stack) EnumerateDevices(ctx context.Context) (media.Devices, error) {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	if !this.initialized {
		return nil, fmt.Errorf("not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, media.ClassifyError(err)
	}

	return toDevices(this.enumerate()), nil
}

type acquireResult struct {
	stream mediadevices.MediaStream
	err    error
}

// Acquire asks the platform for a stream matching the given options. If ctx
// is done before the platform answers, ErrAborted is returned and the
// stream (if it still arrives) is closed right away.
func (this *Stack) Acquire(ctx context.Context, options media.Options) (media.Stream, error) {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	if !this.initialized {
		return nil, fmt.Errorf("not initialized")
	}

	if v := this.AcquireTimeout; v > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v)
		defer cancel()
	}

	options = options.OrDefault()
	if err := options.Validate(); err != nil {
		return nil, err
	}
	logger := log.With("options", options)
	for _, unsupported := range unsupportedConstraints(options) {
		logger.With("constraint", unsupported).
			Debug("Constraint is not supported by the capture drivers and will be ignored.")
	}

	rCh := make(chan acquireResult, 1)
	go func(constraints mediadevices.MediaStreamConstraints) {
		stream, err := this.getUserMedia(constraints)
		rCh <- acquireResult{stream, err}
	}(toConstraints(options))

	select {
	case <-ctx.Done():
		go func() {
			if r := <-rCh; r.stream != nil {
				closeSource(logger, r.stream)
			}
		}()
		return nil, media.NewAcquisitionError(media.ErrorKindAborted, ctx.Err())
	case r := <-rCh:
		if r.err != nil {
			return nil, media.ClassifyError(r.err)
		}
		return this.wrap(r.stream), nil
	}
}

func (this *Stack) wrap(source mediadevices.MediaStream) media.Stream {
	labels := make(map[string]string)
	for _, d := range this.enumerate() {
		labels[d.DeviceID] = d.Label
	}

	result := media.NewSimpleStream(uuid.NewString())
	for _, t := range source.GetTracks() {
		result.AddTrack(newTrack(t, labels[t.ID()]))
	}
	return result
}

func closeSource(logger log.Logger, stream mediadevices.MediaStream) {
	for _, t := range stream.GetTracks() {
		if err := t.Close(); err != nil {
			logger.WithError(err).
				With("track", t.ID()).
				Warn("Cannot close track of late arrived stream.")
		}
	}
}
