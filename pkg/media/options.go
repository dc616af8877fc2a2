package media

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// DefaultOptions is used whenever the options were left unspecified.
	DefaultOptions = Options{
		Audio:     Request{Enabled: true},
		Specified: true,
	}

	ErrNothingRequested = errors.New("at least one of audio or video must be requested")
)

// Constraints narrows down which device and which format a requested track
// should be captured with. Zero values mean "any".
type Constraints struct {
	DeviceID string `yaml:"deviceId,omitempty"`

	Width     int     `yaml:"width,omitempty"`
	Height    int     `yaml:"height,omitempty"`
	FrameRate float64 `yaml:"frameRate,omitempty"`

	SampleRate       int  `yaml:"sampleRate,omitempty"`
	ChannelCount     int  `yaml:"channelCount,omitempty"`
	EchoCancellation bool `yaml:"echoCancellation,omitempty"`
	NoiseSuppression bool `yaml:"noiseSuppression,omitempty"`
	AutoGainControl  bool `yaml:"autoGainControl,omitempty"`
}

func (this Constraints) IsZero() bool {
	return this == Constraints{}
}

func (this Constraints) String() string {
	var parts []string
	add := func(name string, v any) {
		parts = append(parts, fmt.Sprintf("%s=%v", name, v))
	}
	if this.DeviceID != "" {
		add("deviceId", this.DeviceID)
	}
	if this.Width > 0 {
		add("width", this.Width)
	}
	if this.Height > 0 {
		add("height", this.Height)
	}
	if this.FrameRate > 0 {
		add("frameRate", this.FrameRate)
	}
	if this.SampleRate > 0 {
		add("sampleRate", this.SampleRate)
	}
	if this.ChannelCount > 0 {
		add("channelCount", this.ChannelCount)
	}
	if this.EchoCancellation {
		add("echoCancellation", true)
	}
	if this.NoiseSuppression {
		add("noiseSuppression", true)
	}
	if this.AutoGainControl {
		add("autoGainControl", true)
	}
	return strings.Join(parts, ",")
}

// Request is either a plain "capture this kind of track" or a set of
// constraints for it. Constraints imply Enabled.
type Request struct {
	Enabled     bool         `yaml:"enabled"`
	Constraints *Constraints `yaml:"constraints,omitempty"`
}

func (this Request) IsRequested() bool {
	return this.Enabled || this.Constraints != nil
}

func (this Request) IsZero() bool {
	return !this.IsRequested()
}

func (this Request) Equal(o Request) bool {
	if this.IsRequested() != o.IsRequested() {
		return false
	}
	if !this.IsRequested() {
		return true
	}
	return this.constraints() == o.constraints()
}

func (this Request) constraints() Constraints {
	if v := this.Constraints; v != nil {
		return *v
	}
	return Constraints{}
}

func (this Request) String() string {
	if !this.IsRequested() {
		return "false"
	}
	if c := this.constraints(); !c.IsZero() {
		return "{" + c.String() + "}"
	}
	return "true"
}

// Options are the capture options of one session.
//
// The zero value means "unspecified" and resolves to DefaultOptions. To
// request explicitly that neither audio nor video should be captured
// Specified has to be set.
type Options struct {
	Video Request `yaml:"video"`
	Audio Request `yaml:"audio"`

	Specified bool `yaml:"-"`
}

// Explicitly returns a copy of these options which is never resolved to
// DefaultOptions.
func (this Options) Explicitly() Options {
	this.Specified = true
	return this
}

func (this Options) IsZero() bool {
	return !this.Specified && this.Video.IsZero() && this.Audio.IsZero()
}

// OrDefault resolves unspecified options to DefaultOptions.
func (this Options) OrDefault() Options {
	if this.IsZero() {
		return DefaultOptions
	}
	return this
}

// Validate fails with ErrNothingRequested if neither audio nor video is
// requested.
func (this Options) Validate() error {
	if !this.Video.IsRequested() && !this.Audio.IsRequested() {
		return NewAcquisitionError(ErrorKindUnknown, ErrNothingRequested)
	}
	return nil
}

func (this Options) Equal(o Options) bool {
	return this.Video.Equal(o.Video) && this.Audio.Equal(o.Audio)
}

func (this Options) String() string {
	return fmt.Sprintf("video=%v,audio=%v", this.Video, this.Audio)
}
