package session

import (
	"github.com/blaubaer/media-session/pkg/media"
)

// Snapshot is the state of a Manager as exposed to its host.
type Snapshot struct {
	// ID identifies the current (or last) acquisition. It changes with every
	// Start.
	ID           string
	Status       Status
	Stream       media.Stream
	ErrorMessage string
	Err          error
	Devices      media.Devices
	Volume       float64
	Options      media.Options
}

func (this Snapshot) Loading() bool {
	return this.Status == StatusLoading
}

func (this Snapshot) Active() bool {
	return this.Status == StatusActive && this.Stream != nil
}

func (this Snapshot) HasError() bool {
	return this.Status == StatusError
}

// Observer is notified after every change of a Manager's state.
type Observer func(Snapshot)
