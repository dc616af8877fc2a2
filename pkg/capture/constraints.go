package capture

import (
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/prop"

	"github.com/blaubaer/media-session/pkg/media"
)

func toConstraints(options media.Options) (result mediadevices.MediaStreamConstraints) {
	if r := options.Video; r.IsRequested() {
		c := constraintsOf(r)
		result.Video = func(target *mediadevices.MediaTrackConstraints) {
			if c.DeviceID != "" {
				target.DeviceID = prop.String(c.DeviceID)
			}
			if c.Width > 0 {
				target.Width = prop.Int(c.Width)
			}
			if c.Height > 0 {
				target.Height = prop.Int(c.Height)
			}
			if c.FrameRate > 0 {
				target.FrameRate = prop.Float(float32(c.FrameRate))
			}
		}
	}
	if r := options.Audio; r.IsRequested() {
		c := constraintsOf(r)
		result.Audio = func(target *mediadevices.MediaTrackConstraints) {
			if c.DeviceID != "" {
				target.DeviceID = prop.String(c.DeviceID)
			}
			if c.SampleRate > 0 {
				target.SampleRate = prop.Int(c.SampleRate)
			}
			if c.ChannelCount > 0 {
				target.ChannelCount = prop.Int(c.ChannelCount)
			}
		}
	}
	return
}

func unsupportedConstraints(options media.Options) (result []string) {
	c := constraintsOf(options.Audio)
	if c.EchoCancellation {
		result = append(result, "echoCancellation")
	}
	if c.NoiseSuppression {
		result = append(result, "noiseSuppression")
	}
	if c.AutoGainControl {
		result = append(result, "autoGainControl")
	}
	return
}

func constraintsOf(r media.Request) media.Constraints {
	if v := r.Constraints; v != nil {
		return *v
	}
	return media.Constraints{}
}

func toDevices(in []mediadevices.MediaDeviceInfo) media.Devices {
	result := make(media.Devices, 0, len(in))
	for _, v := range in {
		kind, ok := toDeviceKind(v.Kind)
		if !ok {
			continue
		}
		result = append(result, media.DeviceInfo{
			ID:    v.DeviceID,
			Label: v.Label,
			Kind:  kind,
		})
	}
	return result
}

func toDeviceKind(in mediadevices.MediaDeviceType) (media.DeviceKind, bool) {
	switch in {
	case mediadevices.VideoInput:
		return media.DeviceKindVideoInput, true
	case mediadevices.AudioInput:
		return media.DeviceKindAudioInput, true
	case mediadevices.AudioOutput:
		return media.DeviceKindAudioOutput, true
	default:
		return 0, false
	}
}
