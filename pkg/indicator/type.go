package indicator

import (
	"fmt"
	"strings"
)

type Type uint8

const (
	TypeLog           = Type(0)
	TypeHue           = Type(1)
	TypeHomeAssistant = Type(2)

	TypeDefault = TypeLog
)

var (
	AllTypes = Types{
		TypeLog,
		TypeHue,
		TypeHomeAssistant,
	}
)

func (this *Type) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "log", "":
		*this = TypeLog
		return nil
	case "hue":
		*this = TypeHue
		return nil
	case "homeassistant", "home-assistant", "ha":
		*this = TypeHomeAssistant
		return nil
	default:
		return fmt.Errorf("illegal-indicator-type: %s", plain)
	}
}

func (this Type) String() string {
	v, err := this.MarshalText()
	if err != nil {
		return fmt.Sprintf("illegal-indicator-type-%d", this)
	}
	return string(v)
}

func (this Type) MarshalText() (text []byte, err error) {
	switch this {
	case TypeLog:
		return []byte("log"), nil
	case TypeHue:
		return []byte("hue"), nil
	case TypeHomeAssistant:
		return []byte("homeAssistant"), nil
	default:
		return nil, fmt.Errorf("illegal indicator type: %d", this)
	}
}

func (this *Type) UnmarshalText(text []byte) error {
	return this.Set(string(text))
}

type Types []Type

func (this Types) Strings() []string {
	result := make([]string, len(this))
	for i, v := range this {
		result[i] = v.String()
	}
	return result
}

func (this Types) String() string {
	return strings.Join(this.Strings(), ",")
}
