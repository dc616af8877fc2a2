package logger

import (
	"strings"
	"sync"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/media-session/pkg/indicator"
)

// Logger reports every change of the capture state to the log. It is the
// default signal as it requires no external system.
type Logger struct {
	Logger log.Logger

	mutex       sync.Mutex
	initialized bool
	last        indicator.State
	lastTracks  string
}

func (this *Logger) Initialize() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	if this.Logger == nil {
		this.Logger = log.GetLogger("indicator")
	}
	this.initialized = false
	return nil
}

func (this *Logger) Ensure(ctx indicator.Context) error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	var labels []string
	for track, err := range ctx.Tracks() {
		if err != nil {
			return err
		}
		labels = append(labels, track.Kind().String()+":"+track.Label())
	}
	tracks := strings.Join(labels, ",")

	state := ctx.State()
	if this.initialized && state == this.last && tracks == this.lastTracks {
		return nil
	}
	this.initialized, this.last, this.lastTracks = true, state, tracks

	l := this.logger().With("state", state)
	if tracks != "" {
		l = l.With("tracks", tracks)
	}
	switch state {
	case indicator.StateOn:
		l.Info("Capturing.")
	default:
		l.Info("Not capturing.")
	}
	return nil
}

func (this *Logger) Update() error {
	return nil
}

func (this *Logger) Dispose() error {
	return nil
}

func (this *Logger) GetType() indicator.Type {
	return indicator.TypeLog
}

func (this *Logger) logger() log.Logger {
	if v := this.Logger; v != nil {
		return v
	}
	return log.GetLogger("indicator")
}
