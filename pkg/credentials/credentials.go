package credentials

import (
	"encoding/json"
)

const appName = "github.com/blaubaer/media-session"

type Credentials struct {
	HueBridge string `json:"hue_bridge,omitempty"`
	HueUser   string `json:"hue_user,omitempty"`

	HomeAssistantServer string `json:"homeAssistant_server,omitempty"`
	HomeAssistantToken  string `json:"homeAssistant_token,omitempty"`
}

func (this *Credentials) IsZero() bool {
	return this.IsHueZero() && this.IsHomeAssistantZero()
}

func (this *Credentials) IsHueZero() bool {
	return this.HueBridge == "" || this.HueUser == ""
}

func (this *Credentials) IsHomeAssistantZero() bool {
	return this.HomeAssistantServer == "" || this.HomeAssistantToken == ""
}

// Merge takes over every field of o which is set.
func (this *Credentials) Merge(o Credentials) {
	if o.HueBridge != "" {
		this.HueBridge = o.HueBridge
	}
	if o.HueUser != "" {
		this.HueUser = o.HueUser
	}
	if o.HomeAssistantServer != "" {
		this.HomeAssistantServer = o.HomeAssistantServer
	}
	if o.HomeAssistantToken != "" {
		this.HomeAssistantToken = o.HomeAssistantToken
	}
}

func (this *Credentials) MarshalBinary() (data []byte, err error) {
	return json.Marshal(this)
}

func (this *Credentials) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, this)
}
