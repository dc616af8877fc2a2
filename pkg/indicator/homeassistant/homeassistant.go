package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/media-session/pkg/common"
	"github.com/blaubaer/media-session/pkg/credentials"
	"github.com/blaubaer/media-session/pkg/indicator"
)

const DefaultServer = "http://homeassistant.local:8123/"

// HomeAssistant mirrors the capture state into an input_boolean entity of a
// Home Assistant instance. The captured tracks are stored as attribute.
type HomeAssistant struct {
	conf         *Configuration
	saveConfFunc func() error
	mutex        sync.RWMutex

	lastState atomic.Pointer[state]

	client http.Client
	prompt func(cred *credentials.Credentials) error
}

func (this *HomeAssistant) Initialize(conf *Configuration, saveConfFunc func() error) error {
	this.conf = conf
	this.saveConfFunc = saveConfFunc
	return this.Update()
}

// Update checks if Home Assistant is reachable with the current credentials.
func (this *HomeAssistant) Update() error {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	rsp, err := this.do(http.MethodGet, "/api/", nil)
	if err != nil {
		return err
	}
	defer closeBody(rsp)
	if rsp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - %s", rsp.StatusCode, rsp.Status)
	}
	return nil
}

func (this *HomeAssistant) Ensure(ctx indicator.Context) error {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	target := state{
		timestamp: time.Now(),
		state:     ctx.State(),
		tracks:    stateAttrTracks{},
	}
	for track, err := range ctx.Tracks() {
		if err != nil {
			return err
		}
		target.tracks = append(target.tracks, stateAttrTrack{
			Kind:  track.Kind().String(),
			Label: track.Label(),
			Id:    track.ID(),
		})
	}

	logger := log.With("entityId", this.conf.EntityId)

	if v := this.lastState.Load(); v != nil &&
		v.timestamp.Add(this.conf.DeadZoneInterval).After(time.Now()) &&
		v.isEqualTo(&target) {
		logger.Debug("Entity is already in requested state (within dead zone). No update needed.")
		return nil
	}

	current, attributes, found, err := this.get()
	if err != nil {
		return err
	}
	if !found {
		logger.Info("Entity not found. It will be created now...")
		attributes["icon"] = "mdi:record-rec"
		attributes["friendly_name"] = strings.TrimPrefix(this.conf.EntityId, "input_boolean.")
	} else if target.isEqualTo(current) {
		logger.Debug("Entity is already in requested state. No update needed.")
		this.lastState.Store(current)
		return nil
	}

	attributes["editable"] = false
	attributes[attrTracks] = target.tracks
	body, err := json.Marshal(statePostRequest{
		State:      target.state,
		Attributes: attributes,
	})
	if err != nil {
		return err
	}

	rsp, err := this.do(http.MethodPost, "/api/states/"+this.conf.EntityId, body)
	if err != nil {
		return err
	}
	defer closeBody(rsp)
	if rsp.StatusCode != http.StatusOK && rsp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d - %s", rsp.StatusCode, rsp.Status)
	}

	logger.With("state", target.state).
		Debug("Entity updated.")
	this.lastState.Store(&target)
	return nil
}

func (this *HomeAssistant) get() (_ *state, attributes map[string]any, found bool, _ error) {
	rsp, err := this.do(http.MethodGet, "/api/states/"+this.conf.EntityId, nil)
	if err != nil {
		return nil, nil, false, err
	}
	defer closeBody(rsp)

	switch rsp.StatusCode {
	case http.StatusOK:
		var payload stateGetResponse
		if err := json.NewDecoder(rsp.Body).Decode(&payload); err != nil {
			return nil, nil, false, fmt.Errorf("failed to decode response body: %w", err)
		}
		result := state{
			timestamp: time.Now(),
			state:     payload.State,
		}
		if result.tracks, err = payload.tracks(); err != nil {
			log.WithError(err).
				With("entityId", this.conf.EntityId).
				Info("Cannot read previous tracks. Ignoring...")
		}
		attributes = payload.Attributes
		if attributes == nil {
			attributes = make(map[string]any)
		}
		return &result, attributes, true, nil
	case http.StatusNotFound:
		return nil, make(map[string]any), false, nil
	default:
		return nil, nil, false, fmt.Errorf("unexpected status code: %d - %s", rsp.StatusCode, rsp.Status)
	}
}

func (this *HomeAssistant) loadCredentials() (credentials.Credentials, error) {
	var v credentials.Credentials
	if _, err := v.ReadFromStore(); err != nil {
		return credentials.Credentials{}, err
	}
	if v.HomeAssistantServer == "" {
		v.HomeAssistantServer = this.conf.Server
	}
	if v.HomeAssistantToken == "" {
		v.HomeAssistantToken = this.conf.Token
	}
	return v, nil
}

func (this *HomeAssistant) storeCredentials(cred credentials.Credentials) error {
	supported, err := cred.WriteToStore()
	if err != nil {
		return err
	}
	if supported {
		return nil
	}

	this.conf.Server = cred.HomeAssistantServer
	this.conf.Token = cred.HomeAssistantToken
	if f := this.saveConfFunc; f != nil {
		return f()
	}
	return nil
}

// resolveCredentials returns the known credentials or, if they are missing
// or were rejected, asks the user on the terminal for new ones.
func (this *HomeAssistant) resolveCredentials(rejected bool) (credentials.Credentials, error) {
	cred, err := this.loadCredentials()
	if err != nil {
		return credentials.Credentials{}, err
	}
	if !rejected && !cred.IsHomeAssistantZero() {
		return cred, nil
	}

	if rejected {
		log.With("server", cred.HomeAssistantServer).
			Error("Home Assistant rejected the token.")
	} else {
		log.Info("Server URL and long lived token are required to access Home Assistant.")
	}

	for {
		cred.HomeAssistantServer = ""
		cred.HomeAssistantToken = ""
		if err := this.requestCredentials(&cred); err != nil {
			return credentials.Credentials{}, err
		}

		serverOk, tokenOk, err := this.check(cred)
		if err != nil {
			return credentials.Credentials{}, err
		}
		if serverOk && tokenOk {
			if err := this.storeCredentials(cred); err != nil {
				return credentials.Credentials{}, fmt.Errorf("cannot store credentials: %w", err)
			}
			return cred, nil
		}

		if !serverOk {
			log.With("server", cred.HomeAssistantServer).
				Error("Provided Home Assistant server URL is invalid.")
		} else {
			log.With("server", cred.HomeAssistantServer).
				Error("Provided Home Assistant long lived token is invalid.")
		}
	}
}

func (this *HomeAssistant) requestCredentials(cred *credentials.Credentials) error {
	if f := this.prompt; f != nil {
		return f(cred)
	}
	if err := (common.Prompt{
		Name:       fmt.Sprintf("Home Assistant server URL (empty = %s)", DefaultServer),
		CanBeEmpty: true,
	}).RequestString(&cred.HomeAssistantServer); err != nil {
		return fmt.Errorf("cannot request server url: %w", err)
	}
	if cred.HomeAssistantServer == "" {
		cred.HomeAssistantServer = DefaultServer
	}
	if err := (common.Prompt{
		Name:   "Home Assistant long lived token",
		Secret: true,
	}).RequestString(&cred.HomeAssistantToken); err != nil {
		return fmt.Errorf("cannot request token: %w", err)
	}
	return nil
}

func (this *HomeAssistant) check(cred credentials.Credentials) (serverOk, tokenOk bool, _ error) {
	rsp, err := this.request(cred, http.MethodGet, "/api/", nil)
	if err != nil {
		return false, false, err
	}
	defer closeBody(rsp)

	switch rsp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true, false, nil
	case http.StatusOK:
		return true, true, nil
	default:
		return false, false, nil
	}
}

func (this *HomeAssistant) request(cred credentials.Credentials, method, path string, body []byte) (*http.Response, error) {
	timeout := this.conf.RequestTimeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	ctx, cancelFunc := context.WithTimeout(context.Background(), timeout)

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(cred.HomeAssistantServer, "/")+path, bodyReader)
	if err != nil {
		cancelFunc()
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.HomeAssistantToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err := this.client.Do(req)
	if err != nil {
		cancelFunc()
		return nil, fmt.Errorf("failed to access %v: %w", req.URL, err)
	}
	rsp.Body = &cancelOnClose{rsp.Body, cancelFunc}
	return rsp, nil
}

func (this *HomeAssistant) do(method, path string, body []byte) (*http.Response, error) {
	cred, err := this.resolveCredentials(false)
	if err != nil {
		return nil, err
	}

	for {
		rsp, err := this.request(cred, method, path, body)
		if err != nil {
			return nil, err
		}
		switch rsp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			closeBody(rsp)
			if cred, err = this.resolveCredentials(true); err != nil {
				return nil, err
			}
		default:
			return rsp, nil
		}
	}
}

func (this *HomeAssistant) Dispose() error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	this.conf = nil
	this.saveConfFunc = nil
	this.client.CloseIdleConnections()
	return nil
}

func (this *HomeAssistant) GetType() indicator.Type {
	return indicator.TypeHomeAssistant
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (this *cancelOnClose) Close() error {
	defer this.cancel()
	return this.ReadCloser.Close()
}

func closeBody(rsp *http.Response) {
	_, _ = io.Copy(io.Discard, rsp.Body)
	_ = rsp.Body.Close()
}
