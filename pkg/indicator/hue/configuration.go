package hue

import "github.com/blaubaer/media-session/pkg/common"

func NewConfiguration() Configuration {
	return Configuration{
		Name: common.MustNewRegexp("^OnAir"),

		Brightness: 254,
		Hue:        65535,
		Saturation: 254,
	}
}

type Configuration struct {
	Pair   bool   `yaml:"pair,omitempty"`
	Bridge string `yaml:"bridge,omitempty"`
	User   string `yaml:"user,omitempty"`

	Name  common.Regexp `yaml:"target"`
	Kinds Kinds         `yaml:"kinds,omitempty"`

	Brightness uint8  `yaml:"brightness"`
	Hue        uint16 `yaml:"hue"`
	Saturation uint8  `yaml:"saturation"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("indicator.hue.pair", "If true this application will pair again with the hue bridge. This is implicitly done if this application is not paired yet.").
		Envar("MS_INDICATOR_HUE_PAIR").
		BoolVar(&this.Pair)
	using.Flag("indicator.hue.bridge", "Usually the bridge is detected automatically. Specify it explicitly if there is more than one.").
		Envar("MS_INDICATOR_HUE_BRIDGE").
		StringVar(&this.Bridge)
	using.Flag("indicator.hue.user", "Usually this is set while pairing and will then be persisted.").
		Envar("MS_INDICATOR_HUE_USER").
		StringVar(&this.User)
	using.Flag("indicator.hue.name", "Name as regex of the lights/groups which signal an active capture session.").
		Envar("MS_INDICATOR_HUE_NAME").
		SetValue(&this.Name)
	using.Flag("indicator.hue.kind", "Kind(s) of what should be handled. Possible values: "+AllKinds.String()).
		Envar("MS_INDICATOR_HUE_KIND").
		SetValue(&this.Kinds)

	using.Flag("indicator.hue.brightness", "Brightness of the light while capturing; from 1 (minimum) to 254 (maximum).").
		Envar("MS_INDICATOR_HUE_BRIGHTNESS").
		Uint8Var(&this.Brightness)
	using.Flag("indicator.hue.hue", "Hue of the light while capturing; wraps between 0 and 65535. Both 0 and 65535 are red, 25500 is green and 46920 is blue.").
		Envar("MS_INDICATOR_HUE_HUE").
		Uint16Var(&this.Hue)
	using.Flag("indicator.hue.saturation", "Saturation of the light while capturing. 254 is the most saturated (colored) and 0 the least (white).").
		Envar("MS_INDICATOR_HUE_SATURATION").
		Uint8Var(&this.Saturation)
}
