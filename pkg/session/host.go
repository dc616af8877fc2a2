package session

import (
	"context"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/media-session/pkg/media"
)

// Mount is called by the host once it starts to use this Manager. It starts
// the first acquisition with the given options.
func (this *Manager) Mount(ctx context.Context, options media.Options) Snapshot {
	this.mutex.Lock()
	this.mounted = true
	this.mutex.Unlock()

	return this.Start(ctx, options)
}

// SetOptions changes the capture options. While mounted, a change fully
// tears down the current session before a new one is requested. Equal
// options do nothing.
func (this *Manager) SetOptions(ctx context.Context, options media.Options) Snapshot {
	options = options.OrDefault()

	this.mutex.Lock()
	mounted := this.mounted
	unchanged := this.options.Equal(options)
	if !mounted {
		this.options = options
	}
	snapshot := this.snapshotLocked()
	this.mutex.Unlock()

	if !mounted || unchanged {
		return snapshot
	}

	log.With("session", snapshot.ID).
		With("from", snapshot.Options).
		With("to", options).
		Info("Capture options changed.")

	this.Stop()
	return this.Start(ctx, options)
}

// Unmount is called by the host if it does not use this Manager anymore.
// It releases the current session and discards any acquisition which is
// still in flight.
func (this *Manager) Unmount() {
	this.mutex.Lock()
	this.mounted = false
	this.mutex.Unlock()

	this.Stop()
}

func (this *Manager) Mounted() bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.mounted
}

// Dispose unmounts the Manager and closes its audio graph. The Manager
// cannot be started again afterward.
func (this *Manager) Dispose() error {
	this.Unmount()

	this.mutex.Lock()
	if this.disposed {
		this.mutex.Unlock()
		return nil
	}
	this.disposed = true
	this.mutex.Unlock()

	return this.graph.Close()
}
