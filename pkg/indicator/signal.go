// Package indicator signals to the outside world that a capture session is
// active, e.g. by switching on an "on air" light.
package indicator

import (
	"iter"

	"github.com/blaubaer/media-session/pkg/media"
)

type Signal interface {
	Ensure(Context) error
	Update() error
	Dispose() error

	GetType() Type
}

type Context interface {
	State() State
	Tracks() iter.Seq2[media.Track, error]
}
