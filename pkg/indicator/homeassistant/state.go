package homeassistant

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/blaubaer/media-session/pkg/indicator"
)

const attrTracks = "tracks"

type stateGetResponse struct {
	EntityId    string          `json:"entity_id"`
	State       indicator.State `json:"state"`
	Attributes  map[string]any  `json:"attributes"`
	LastChanged time.Time       `json:"last_changed"`
	LastUpdated time.Time       `json:"last_updated"`
}

func (this *stateGetResponse) tracks() (result stateAttrTracks, _ error) {
	if plain, ok := this.Attributes[attrTracks]; ok {
		b, err := json.Marshal(plain)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type statePostRequest struct {
	State      indicator.State `json:"state"`
	Attributes map[string]any  `json:"attributes,omitempty"`
}

type stateAttrTracks []stateAttrTrack

type stateAttrTrack struct {
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
	Id    string `json:"id,omitempty"`
}

type state struct {
	timestamp time.Time
	state     indicator.State
	tracks    stateAttrTracks
}

func (this *state) isEqualTo(o *state) bool {
	return this.state == o.state &&
		slices.Equal(this.tracks, o.tracks)
}
