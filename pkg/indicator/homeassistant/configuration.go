package homeassistant

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/blaubaer/media-session/pkg/common"
)

func NewConfiguration() Configuration {
	return Configuration{
		EntityId:         fmt.Sprintf("input_boolean.computer_%s_capture", computerId),
		DeadZoneInterval: time.Minute,
		RequestTimeout:   time.Second * 30,
	}
}

var forbiddenEntityIdChars = regexp.MustCompile("[^a-z0-9_]")

func normalizeEntityIdPart(id string) string {
	id = strings.TrimSpace(strings.ToLower(id))
	id = strings.NewReplacer("-", "_", ".", "_").Replace(id)
	return forbiddenEntityIdChars.ReplaceAllString(id, "_")
}

var computerId = func() string {
	if result, err := os.Hostname(); err == nil && result != "" {
		return normalizeEntityIdPart(result)
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("cannot generate entity id: %w", err))
	}
	return hex.EncodeToString(buf)
}()

type Configuration struct {
	Server   string `yaml:"server,omitempty"`
	Token    string `yaml:"token,omitempty"`
	EntityId string `yaml:"entityId"`

	DeadZoneInterval time.Duration `yaml:"deadZoneInterval,omitempty"`
	RequestTimeout   time.Duration `yaml:"requestTimeout,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("indicator.homeAssistant.server", "URL of the Home Assistant instance.").
		Envar("MS_INDICATOR_HOMEASSISTANT_SERVER").
		StringVar(&this.Server)
	using.Flag("indicator.homeAssistant.token", "Long lived token to access the Home Assistant instance.").
		Envar("MS_INDICATOR_HOMEASSISTANT_TOKEN").
		StringVar(&this.Token)
	using.Flag("indicator.homeAssistant.entityId", "Entity ID which reflects the capture state.").
		Envar("MS_INDICATOR_HOMEASSISTANT_ENTITY_ID").
		StringVar(&this.EntityId)
	using.Flag("indicator.homeAssistant.deadZoneInterval", "For how long the last written state is trusted before Home Assistant is asked again.").
		Envar("MS_INDICATOR_HOMEASSISTANT_DEAD_ZONE_INTERVAL").
		DurationVar(&this.DeadZoneInterval)
	using.Flag("indicator.homeAssistant.requestTimeout", "Timeout of every request against Home Assistant.").
		Envar("MS_INDICATOR_HOMEASSISTANT_REQUEST_TIMEOUT").
		DurationVar(&this.RequestTimeout)
}
