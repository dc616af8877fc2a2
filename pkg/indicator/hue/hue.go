package hue

import (
	"fmt"
	"sync"
	"time"

	"github.com/amimof/huego"
	log "github.com/echocat/slf4g"

	"github.com/blaubaer/media-session/pkg/common"
	"github.com/blaubaer/media-session/pkg/credentials"
	"github.com/blaubaer/media-session/pkg/indicator"
)

const appName = "github.com/blaubaer/media-session"

// bridge is the part of *huego.Bridge this signal talks to.
type bridge interface {
	GetLights() ([]huego.Light, error)
	GetGroups() ([]huego.Group, error)
	SetLightState(int, huego.State) (*huego.Response, error)
	SetGroupState(int, huego.State) (*huego.Response, error)
}

// Hue switches every matching light or group on while a capture session is
// active.
type Hue struct {
	conf         *Configuration
	saveConfFunc func() error

	credentials credentials.Credentials
	targets     []*target
	mutex       sync.Mutex

	newBridge func(credentials.Credentials) (bridge, error)
}

type target struct {
	kind  Kind
	id    int
	name  string
	state *huego.State
}

func (this *target) String() string {
	return fmt.Sprintf("%v %q#%d", this.kind, this.name, this.id)
}

func (this *Hue) Initialize(conf *Configuration, saveConfFunc func() error) error {
	this.conf = conf
	this.saveConfFunc = saveConfFunc

	v, err := this.resolveCredentials()
	if err != nil {
		return err
	}
	this.credentials = v

	return this.Update()
}

// Update rediscovers all lights and groups matching the configured name.
func (this *Hue) Update() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	b, err := this.bridge()
	if err != nil {
		return err
	}

	var targets []*target
	if this.conf.Kinds.Has(KindLight) {
		candidates, err := b.GetLights()
		if err != nil {
			return fmt.Errorf("cannot discover lights of bridge %s: %w", this.credentials.HueBridge, err)
		}
		for _, candidate := range candidates {
			if this.conf.Name.MatchString(candidate.Name) {
				targets = append(targets, newTarget(KindLight, candidate.ID, candidate.Name, candidate.State))
			}
		}
	}
	if this.conf.Kinds.Has(KindGroup) {
		candidates, err := b.GetGroups()
		if err != nil {
			return fmt.Errorf("cannot discover groups of bridge %s: %w", this.credentials.HueBridge, err)
		}
		for _, candidate := range candidates {
			if this.conf.Name.MatchString(candidate.Name) {
				targets = append(targets, newTarget(KindGroup, candidate.ID, candidate.Name, candidate.State))
			}
		}
	}

	if len(targets) == 0 {
		log.With("name", this.conf.Name).
			Warn("No hue light or group matches the configured name.")
	}
	this.targets = targets
	return nil
}

func newTarget(kind Kind, id int, name string, state *huego.State) *target {
	if state == nil {
		state = &huego.State{}
	}
	return &target{kind, id, name, state}
}

func (this *Hue) Ensure(ctx indicator.Context) error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	b, err := this.bridge()
	if err != nil {
		return err
	}

	state := ctx.State()
	for _, t := range this.targets {
		newState, err := this.ensureState(state, t)
		if err != nil {
			return err
		}
		if newState == nil {
			continue
		}
		switch t.kind {
		case KindGroup:
			_, err = b.SetGroupState(t.id, *newState)
		default:
			_, err = b.SetLightState(t.id, *newState)
		}
		if err != nil {
			return fmt.Errorf("cannot switch to hue state %v for %v: %w", state, t, err)
		}
		t.state = newState
		log.With("target", t).
			With("state", state).
			Debug("Hue target switched.")
	}
	return nil
}

// ensureState returns the state the target has to be switched to or nil if
// it is already as required.
func (this *Hue) ensureState(state indicator.State, t *target) (*huego.State, error) {
	current := t.state
	switch state {
	case indicator.StateOn:
		if !current.On || current.Bri != this.conf.Brightness || current.Hue != this.conf.Hue || current.Sat != this.conf.Saturation {
			return &huego.State{
				On:  true,
				Bri: this.conf.Brightness,
				Hue: this.conf.Hue,
				Sat: this.conf.Saturation,
			}, nil
		}
	case indicator.StateOff:
		if current.On {
			return &huego.State{On: false}, nil
		}
	default:
		return nil, fmt.Errorf("cannot ensure hue state for %v: %v", t, state)
	}
	return nil, nil
}

func (this *Hue) bridge() (bridge, error) {
	v := this.credentials
	if v.IsHueZero() {
		return nil, fmt.Errorf("not paired with hue bridge")
	}
	if f := this.newBridge; f != nil {
		return f(v)
	}
	return huego.New(v.HueBridge, v.HueUser), nil
}

func (this *Hue) resolveCredentials() (credentials.Credentials, error) {
	if u := this.conf.User; u != "" {
		b, err := this.discoverBridge()
		if err != nil {
			return credentials.Credentials{}, err
		}
		return credentials.Credentials{
			HueBridge: b.Host,
			HueUser:   u,
		}, nil
	}

	if !this.conf.Pair {
		v, err := this.readCredentials()
		if err != nil {
			return credentials.Credentials{}, err
		}
		if !v.IsHueZero() {
			return v, nil
		}
	}

	return this.pair()
}

func (this *Hue) discoverBridge() (*huego.Bridge, error) {
	if this.conf.Bridge != "" {
		return &huego.Bridge{Host: this.conf.Bridge}, nil
	}
	result, err := huego.Discover()
	if err != nil {
		return nil, fmt.Errorf("cannot discover hue bridge: %w", err)
	}
	return result, nil
}

func isLinkButtonNotPressed(err error) bool {
	v, ok := common.AsError[*huego.APIError](err)
	return ok && v.Type == 101
}

func (this *Hue) pair() (credentials.Credentials, error) {
	b, err := this.discoverBridge()
	if err != nil {
		return credentials.Credentials{}, err
	}

	log.With("bridge", b.Host).
		Info("Press the link button of the hue bridge to pair...")
	for {
		user, err := b.CreateUser(appName)
		if isLinkButtonNotPressed(err) {
			time.Sleep(time.Second)
			continue
		}
		if err != nil {
			return credentials.Credentials{}, fmt.Errorf("was not able to pair with %s: %w", b.Host, err)
		}

		v := credentials.Credentials{
			HueBridge: b.Host,
			HueUser:   user,
		}
		if err := this.storeCredentials(v); err != nil {
			log.WithError(err).
				Warn("Cannot store credentials. Pairing might be required again next time.")
		}

		log.With("bridge", b.Host).
			Info("Successfully paired.")
		return v, nil
	}
}

func (this *Hue) readCredentials() (credentials.Credentials, error) {
	var v credentials.Credentials
	if _, err := v.ReadFromStore(); err != nil {
		return credentials.Credentials{}, err
	}
	if v.HueBridge == "" {
		v.HueBridge = this.conf.Bridge
	}
	if v.HueUser == "" {
		v.HueUser = this.conf.User
	}
	return v, nil
}

func (this *Hue) storeCredentials(v credentials.Credentials) error {
	supported, err := v.WriteToStore()
	if err != nil {
		return err
	}
	if supported {
		return nil
	}

	this.conf.Bridge = v.HueBridge
	this.conf.User = v.HueUser
	if f := this.saveConfFunc; f != nil {
		return f()
	}
	return nil
}

func (this *Hue) Dispose() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	this.conf = nil
	this.saveConfFunc = nil
	this.targets = nil
	return nil
}

func (this *Hue) GetType() indicator.Type {
	return indicator.TypeHue
}
