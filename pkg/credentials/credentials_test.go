package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_Merge(t *testing.T) {
	instance := Credentials{HueBridge: "10.0.0.2", HueUser: "old"}

	instance.Merge(Credentials{HueUser: "new", HomeAssistantServer: "http://ha:8123"})

	assert.Equal(t, Credentials{
		HueBridge:           "10.0.0.2",
		HueUser:             "new",
		HomeAssistantServer: "http://ha:8123",
	}, instance)
	assert.False(t, instance.IsHueZero())
	assert.True(t, instance.IsHomeAssistantZero())
	assert.False(t, instance.IsZero())
}

func TestCredentials_MarshalBinary(t *testing.T) {
	given := Credentials{HomeAssistantServer: "http://ha:8123", HomeAssistantToken: "secret"}

	b, err := given.MarshalBinary()
	require.NoError(t, err)
	assert.JSONEq(t, `{"homeAssistant_server":"http://ha:8123","homeAssistant_token":"secret"}`, string(b))

	var actual Credentials
	require.NoError(t, actual.UnmarshalBinary(b))
	assert.Equal(t, given, actual)
}
