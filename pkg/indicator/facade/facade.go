package facade

import (
	"fmt"
	"sync"

	"github.com/blaubaer/media-session/pkg/indicator"
	"github.com/blaubaer/media-session/pkg/indicator/homeassistant"
	"github.com/blaubaer/media-session/pkg/indicator/hue"
	"github.com/blaubaer/media-session/pkg/indicator/logger"
)

// Facade is the configured indicator.Signal. Before Initialize and after
// Dispose every call is a no-op.
type Facade struct {
	indicator.Signal

	lock sync.RWMutex
}

func (this *Facade) Initialize(conf *Configuration, saveConfFunc func() error) error {
	this.lock.Lock()
	defer this.lock.Unlock()

	if this.Signal != nil {
		return nil
	}

	switch conf.Type {
	case indicator.TypeLog:
		var buf logger.Logger
		if err := buf.Initialize(); err != nil {
			return err
		}
		this.Signal = &buf
	case indicator.TypeHue:
		var buf hue.Hue
		if err := buf.Initialize(&conf.Hue, saveConfFunc); err != nil {
			return err
		}
		this.Signal = &buf
	case indicator.TypeHomeAssistant:
		var buf homeassistant.HomeAssistant
		if err := buf.Initialize(&conf.HomeAssistant, saveConfFunc); err != nil {
			return err
		}
		this.Signal = &buf
	default:
		return fmt.Errorf("unsupported indicator type: %v", conf.Type)
	}

	return nil
}

func (this *Facade) Ensure(c indicator.Context) error {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if v := this.Signal; v != nil {
		return v.Ensure(c)
	}
	return nil
}

func (this *Facade) Update() error {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if v := this.Signal; v != nil {
		return v.Update()
	}
	return nil
}

func (this *Facade) Dispose() error {
	this.lock.Lock()
	defer this.lock.Unlock()

	defer func() {
		this.Signal = nil
	}()

	if v := this.Signal; v != nil {
		return v.Dispose()
	}
	return nil
}

func (this *Facade) GetType() indicator.Type {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if v := this.Signal; v != nil {
		return v.GetType()
	}
	return indicator.TypeDefault
}
