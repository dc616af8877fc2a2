package common

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	log "github.com/echocat/slf4g"
)

type settable interface {
	IsZero() bool
	Set(string) error
}

// Prompt asks the user on the terminal for a value.
type Prompt struct {
	Name       string
	CanBeEmpty bool
	Secret     bool

	Stdin  io.ReadCloser
	Stdout io.Writer
}

// Request prompts until of is not zero anymore (or, if CanBeEmpty, after the
// first answer). It does nothing if of already has content.
func (this Prompt) Request(of settable) error {
	if !of.IsZero() {
		return nil
	}

	cfg := &readline.Config{
		Stdin:  this.Stdin,
		Stdout: this.Stdout,
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stderr
	}
	l, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("could not read from terminal for prompt %q: %w", this.Name, err)
	}
	defer func() {
		_ = l.Close()
	}()

	prompt := fmt.Sprintf("Enter %s: ", this.Name)
	l.SetPrompt(prompt)
	l.ResetHistory()
	for of.IsZero() {
		var line string
		if this.Secret {
			var b []byte
			b, err = l.ReadPassword(prompt)
			line = string(b)
		} else {
			line, err = l.Readline()
		}
		if err != nil {
			return fmt.Errorf("could not read from terminal for prompt %q: %w", this.Name, err)
		}
		if err := of.Set(line); err != nil {
			log.WithError(err).
				With("prompt", this.Name).
				Error("Illegal value.")
		}
		if this.CanBeEmpty {
			return nil
		}
	}
	return nil
}

func (this Prompt) RequestString(of *string) error {
	buf := promptString(*of)
	if err := this.Request(&buf); err != nil {
		return err
	}
	*of = string(buf)
	return nil
}

type promptString string

func (v promptString) IsZero() bool {
	return v == ""
}

func (v *promptString) Set(s string) error {
	*v = promptString(s)
	return nil
}
