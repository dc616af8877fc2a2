package facade

import (
	"github.com/blaubaer/media-session/pkg/common"
	"github.com/blaubaer/media-session/pkg/indicator"
	"github.com/blaubaer/media-session/pkg/indicator/homeassistant"
	"github.com/blaubaer/media-session/pkg/indicator/hue"
)

func NewConfiguration() Configuration {
	return Configuration{
		Type:          indicator.TypeDefault,
		Hue:           hue.NewConfiguration(),
		HomeAssistant: homeassistant.NewConfiguration(),
	}
}

type Configuration struct {
	Type          indicator.Type              `yaml:"type"`
	Hue           hue.Configuration           `yaml:"hue,omitempty"`
	HomeAssistant homeassistant.Configuration `yaml:"homeAssistant,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("indicator", "Indicator which signals an active capture session. All possible values: "+indicator.AllTypes.String()).
		Envar("MS_INDICATOR").
		SetValue(&this.Type)

	this.Hue.SetupConfiguration(using)
	this.HomeAssistant.SetupConfiguration(using)
}
