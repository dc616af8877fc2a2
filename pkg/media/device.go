package media

import (
	"fmt"
	"strings"
)

type DeviceKind uint8

const (
	DeviceKindVideoInput  = DeviceKind(0)
	DeviceKindAudioInput  = DeviceKind(1)
	DeviceKindAudioOutput = DeviceKind(2)
)

var (
	AllDeviceKinds = DeviceKinds{
		DeviceKindVideoInput,
		DeviceKindAudioInput,
		DeviceKindAudioOutput,
	}
)

func (this *DeviceKind) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "videoinput", "video", "camera":
		*this = DeviceKindVideoInput
		return nil
	case "audioinput", "audio", "microphone":
		*this = DeviceKindAudioInput
		return nil
	case "audiooutput", "speaker":
		*this = DeviceKindAudioOutput
		return nil
	default:
		return fmt.Errorf("illegal-device-kind: %s", plain)
	}
}

func (this DeviceKind) String() string {
	v, err := this.MarshalText()
	if err != nil {
		return fmt.Sprintf("illegal-device-kind-%d", this)
	}
	return string(v)
}

func (this DeviceKind) MarshalText() (text []byte, err error) {
	switch this {
	case DeviceKindVideoInput:
		return []byte("videoinput"), nil
	case DeviceKindAudioInput:
		return []byte("audioinput"), nil
	case DeviceKindAudioOutput:
		return []byte("audiooutput"), nil
	default:
		return nil, fmt.Errorf("illegal device kind: %d", this)
	}
}

func (this *DeviceKind) UnmarshalText(text []byte) error {
	return this.Set(string(text))
}

type DeviceKinds []DeviceKind

func (this DeviceKinds) Strings() []string {
	result := make([]string, len(this))
	for i, v := range this {
		result[i] = v.String()
	}
	return result
}

func (this DeviceKinds) String() string {
	return strings.Join(this.Strings(), ",")
}

// DeviceInfo describes one capture or playback device, like the browser's
// MediaDeviceInfo.
type DeviceInfo struct {
	ID      string     `json:"id" yaml:"id"`
	GroupID string     `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	Label   string     `json:"label,omitempty" yaml:"label,omitempty"`
	Kind    DeviceKind `json:"kind" yaml:"kind"`
}

func (this DeviceInfo) String() string {
	if this.Label == "" {
		return fmt.Sprintf("[%v] %s", this.Kind, this.ID)
	}
	return fmt.Sprintf("[%v] %s (%s)", this.Kind, this.Label, this.ID)
}

type Devices []DeviceInfo

func (this Devices) IsZero() bool {
	return len(this) <= 0
}

func (this Devices) HasContent() bool {
	return !this.IsZero()
}

func (this Devices) OfKind(kind DeviceKind) (result Devices) {
	for _, v := range this {
		if v.Kind == kind {
			result = append(result, v)
		}
	}
	return
}

func (this Devices) Clone() Devices {
	if this == nil {
		return nil
	}
	result := make(Devices, len(this))
	copy(result, this)
	return result
}
