package app

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/blaubaer/media-session/pkg/common"
	"github.com/blaubaer/media-session/pkg/indicator/facade"
	"github.com/blaubaer/media-session/pkg/media"
)

func NewConfiguration() Configuration {
	return Configuration{
		Capture:         media.DefaultOptions,
		Volume:          1,
		Indicator:       facade.NewConfiguration(),
		RefreshInterval: 5 * time.Minute,
	}
}

type Configuration struct {
	PreventAutoSave bool `yaml:"preventAutoSave"`

	Capture   media.Options        `yaml:"capture"`
	Volume    float64              `yaml:"volume"`
	Indicator facade.Configuration `yaml:"indicator,omitempty"`
	Metrics   MetricsConfiguration `yaml:"metrics,omitempty"`

	RefreshInterval time.Duration `yaml:"refreshInterval,omitempty"`
}

type MetricsConfiguration struct {
	Listen string `yaml:"listen,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("preventAutoSave", "If provided the configuration will NOT automatically be saved upon changes.").
		Envar("MS_PREVENT_AUTO_SAVE").
		BoolVar(&this.PreventAutoSave)
	using.Flag("capture.audio", "Capture audio.").
		Envar("MS_CAPTURE_AUDIO").
		BoolVar(&this.Capture.Audio.Enabled)
	using.Flag("capture.audio.device", "ID of the microphone to capture from.").
		Envar("MS_CAPTURE_AUDIO_DEVICE").
		SetValue(deviceFlag{&this.Capture.Audio})
	using.Flag("capture.video", "Capture video.").
		Envar("MS_CAPTURE_VIDEO").
		BoolVar(&this.Capture.Video.Enabled)
	using.Flag("capture.video.device", "ID of the camera to capture from.").
		Envar("MS_CAPTURE_VIDEO_DEVICE").
		SetValue(deviceFlag{&this.Capture.Video})
	using.Flag("volume", "Initial volume of the captured audio; 1 leaves it unchanged.").
		Envar("MS_VOLUME").
		Float64Var(&this.Volume)
	using.Flag("metrics.listen", "Address to serve Prometheus metrics on, e.g. ':9100'. Empty disables it.").
		Envar("MS_METRICS_LISTEN").
		StringVar(&this.Metrics.Listen)
	using.Flag("refreshInterval", "How often the indicator should be refreshed.").
		Envar("MS_REFRESH_INTERVAL").
		DurationVar(&this.RefreshInterval)

	this.Indicator.SetupConfiguration(using)
}

// Merge takes over everything of o which was explicitly set.
func (this *Configuration) Merge(o Configuration) error {
	return mergo.Merge(this, o, mergo.WithOverride, mergo.WithTransformers(mergeTransformers{}))
}

type mergeTransformers struct{}

// Transformer prevents values without exported fields (which mergo treats
// as always set) from overriding with their zero value.
func (mergeTransformers) Transformer(t reflect.Type) func(dst, src reflect.Value) error {
	if t == reflect.TypeOf(common.Regexp{}) {
		return func(dst, src reflect.Value) error {
			if v := src.Interface().(common.Regexp); v.HasContent() && dst.CanSet() {
				dst.Set(src)
			}
			return nil
		}
	}
	return nil
}

// deviceFlag selects a device of a Request, which implies it is enabled.
type deviceFlag struct {
	*media.Request
}

func (this deviceFlag) Set(plain string) error {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil
	}
	if this.Constraints == nil {
		this.Constraints = &media.Constraints{}
	}
	this.Constraints.DeviceID = plain
	this.Enabled = true
	return nil
}

func (this deviceFlag) String() string {
	if v := this.Constraints; v != nil {
		return v.DeviceID
	}
	return ""
}

func (this *Configuration) loadFrom(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(this); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (this *Configuration) loadFromFile(fn string, ignoreNotFound bool) error {
	f, err := os.Open(fn)
	if os.IsNotExist(err) && ignoreNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", fn, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := this.loadFrom(f); err != nil {
		return fmt.Errorf("cannot load configuration file %q: %w", fn, err)
	}
	return nil
}

func (this *Configuration) saveTo(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(this); err != nil {
		return err
	}
	return enc.Close()
}

func (this *Configuration) saveToFile(fn string) error {
	_ = os.MkdirAll(filepath.Dir(fn), 0700)

	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", fn, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := this.saveTo(f); err != nil {
		return fmt.Errorf("cannot write file %q: %w", fn, err)
	}
	return nil
}

func defaultConfigurationFile() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		fs, err := os.Stat(appData)
		if err == nil && fs.IsDir() {
			return filepath.Join(appData, "media-session", "configuration.yml")
		}
	}

	u, err := user.Current()
	if err != nil {
		return "configuration.yml"
	}
	return filepath.Join(u.HomeDir, ".config", "media-session", "configuration.yml")
}
