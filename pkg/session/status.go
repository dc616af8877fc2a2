package session

import (
	"fmt"
	"strings"
)

type Status uint8

const (
	StatusIdle    = Status(0)
	StatusLoading = Status(1)
	StatusActive  = Status(2)
	StatusError   = Status(3)
)

var (
	AllStatuses = Statuses{
		StatusIdle,
		StatusLoading,
		StatusActive,
		StatusError,
	}
)

func (this *Status) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "idle":
		*this = StatusIdle
		return nil
	case "loading":
		*this = StatusLoading
		return nil
	case "active":
		*this = StatusActive
		return nil
	case "error":
		*this = StatusError
		return nil
	default:
		return fmt.Errorf("illegal-session-status: %s", plain)
	}
}

func (this Status) String() string {
	v, err := this.MarshalText()
	if err != nil {
		return fmt.Sprintf("illegal-session-status-%d", this)
	}
	return string(v)
}

func (this Status) MarshalText() (text []byte, err error) {
	switch this {
	case StatusIdle:
		return []byte("idle"), nil
	case StatusLoading:
		return []byte("loading"), nil
	case StatusActive:
		return []byte("active"), nil
	case StatusError:
		return []byte("error"), nil
	default:
		return nil, fmt.Errorf("illegal session status: %d", this)
	}
}

func (this *Status) UnmarshalText(text []byte) error {
	return this.Set(string(text))
}

type Statuses []Status

func (this Statuses) Strings() []string {
	result := make([]string, len(this))
	for i, v := range this {
		result[i] = v.String()
	}
	return result
}

func (this Statuses) String() string {
	return strings.Join(this.Strings(), ",")
}
