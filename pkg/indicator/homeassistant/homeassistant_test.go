package homeassistant

import (
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaubaer/media-session/pkg/common"
	"github.com/blaubaer/media-session/pkg/credentials"
	"github.com/blaubaer/media-session/pkg/indicator"
	"github.com/blaubaer/media-session/pkg/media"
)

func TestHomeAssistant_Ensure(t *testing.T) {
	server := newFakeServer("secret")
	defer server.Close()
	instance := newTestInstance(t, server.URL, "secret")

	mic := media.NewBaseTrack("a1", media.TrackKindAudio, "Microphone")
	require.NoError(t, instance.Ensure(fixedContext{indicator.StateOn, []media.Track{mic}}))

	actual := server.entity()
	require.NotNil(t, actual)
	assert.Equal(t, "on", actual["state"])
	attributes := actual["attributes"].(map[string]any)
	assert.Equal(t, false, attributes["editable"])
	assert.Equal(t, []any{map[string]any{"kind": "audio", "label": "Microphone", "id": "a1"}}, attributes["tracks"])
	assert.Equal(t, 1, server.posts())

	require.NoError(t, instance.Ensure(fixedContext{indicator.StateOn, []media.Track{mic}}))
	assert.Equal(t, 1, server.posts(), "within dead zone nothing is written")

	require.NoError(t, instance.Ensure(fixedContext{indicator.StateOff, nil}))
	assert.Equal(t, 2, server.posts())
	assert.Equal(t, "off", server.entity()["state"])
}

func TestHomeAssistant_Ensure_reuseRemoteState(t *testing.T) {
	server := newFakeServer("secret")
	defer server.Close()
	instance := newTestInstance(t, server.URL, "secret")
	instance.conf.DeadZoneInterval = 0

	require.NoError(t, instance.Ensure(fixedContext{indicator.StateOff, nil}))
	assert.Equal(t, 1, server.posts())

	require.NoError(t, instance.Ensure(fixedContext{indicator.StateOff, nil}))
	assert.Equal(t, 1, server.posts(), "remote is already in the requested state")
}

func TestHomeAssistant_rejectedToken(t *testing.T) {
	server := newFakeServer("secret")
	defer server.Close()
	instance := newTestInstance(t, server.URL, "wrong")

	var prompted int
	instance.prompt = func(cred *credentials.Credentials) error {
		prompted++
		cred.HomeAssistantServer = server.URL
		cred.HomeAssistantToken = "secret"
		return nil
	}

	require.NoError(t, instance.Update())
	assert.Equal(t, 1, prompted)
	assert.Equal(t, "secret", instance.conf.Token)
}

func TestNormalizeEntityIdPart(t *testing.T) {
	assert.Equal(t, "my_host_local", normalizeEntityIdPart(" My-Host.local "))
	assert.Equal(t, "a_b", normalizeEntityIdPart("a#b"))
}

func newTestInstance(t testing.TB, server, token string) *HomeAssistant {
	conf := NewConfiguration()
	conf.Server = server
	conf.Token = token
	conf.EntityId = "input_boolean.test_capture"
	result := &HomeAssistant{
		conf: &conf,
		prompt: func(*credentials.Credentials) error {
			t.Fatal("unexpected prompt")
			return nil
		},
	}
	t.Cleanup(func() {
		_ = result.Dispose()
	})
	return result
}

type fakeServer struct {
	*httptest.Server
	token string

	mutex     sync.Mutex
	stored    map[string]any
	postCount int
}

func newFakeServer(token string) *fakeServer {
	result := &fakeServer{token: token}
	result.Server = httptest.NewServer(http.HandlerFunc(result.handle))
	return result
}

func (this *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+this.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	this.mutex.Lock()
	defer this.mutex.Unlock()

	switch {
	case r.URL.Path == "/api/":
		_, _ = w.Write([]byte(`{"message":"API running."}`))
	case r.Method == http.MethodGet && r.URL.Path == "/api/states/input_boolean.test_capture":
		if this.stored == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		payload := map[string]any{
			"entity_id":    "input_boolean.test_capture",
			"state":        this.stored["state"],
			"attributes":   this.stored["attributes"],
			"last_changed": time.Now(),
			"last_updated": time.Now(),
		}
		_ = json.NewEncoder(w).Encode(payload)
	case r.Method == http.MethodPost && r.URL.Path == "/api/states/input_boolean.test_capture":
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		created := this.stored == nil
		this.stored = payload
		this.postCount++
		if created {
			w.WriteHeader(http.StatusCreated)
		}
		_ = json.NewEncoder(w).Encode(payload)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (this *fakeServer) entity() map[string]any {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.stored
}

func (this *fakeServer) posts() int {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.postCount
}

type fixedContext struct {
	state  indicator.State
	tracks []media.Track
}

func (this fixedContext) State() indicator.State {
	return this.state
}

func (this fixedContext) Tracks() iter.Seq2[media.Track, error] {
	return common.Iter2Err(this.tracks...)
}
