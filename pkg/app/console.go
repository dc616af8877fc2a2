package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	log "github.com/echocat/slf4g"

	"github.com/blaubaer/media-session/pkg/media"
	"github.com/blaubaer/media-session/pkg/session"
)

type levelMeter interface {
	Level() (peak, rms float64)
}

// Console controls a session.Manager with simple text commands.
type Console struct {
	Manager *session.Manager
	Meter   levelMeter

	Stdin  io.ReadCloser
	Stdout io.Writer

	// OnVolumeChanged is called (if set) after the volume was changed.
	OnVolumeChanged func(float64)
}

type command struct {
	name  string
	usage string
	run   func(this *Console, ctx context.Context, args []string) error
}

var errQuit = errors.New("quit")

var commands []command

func init() {
	commands = []command{
		{"start", "Starts a new capture session.", (*Console).start},
		{"stop", "Stops the current capture session.", (*Console).stop},
		{"toggle", "Stops the active session or starts a new one.", (*Console).toggle},
		{"volume", "[value] Shows or sets the volume; 0 is silent, 1 unchanged.", (*Console).volume},
		{"devices", "Lists the devices known after the last acquisition.", (*Console).devices},
		{"status", "Shows the state of the session.", (*Console).status},
		{"video", "on|off Enables or disables video capture.", (*Console).video},
		{"audio", "on|off Enables or disables audio capture.", (*Console).audio},
		{"level", "Shows the peak and RMS level of the captured audio.", (*Console).level},
		{"help", "Shows this help.", (*Console).help},
		{"quit", "Exits the application.", (*Console).quit},
	}
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// Execute runs one command line. It returns true if the console should be
// left.
func (this *Console) Execute(ctx context.Context, line string) (quit bool, _ error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	c, ok := findCommand(strings.ToLower(fields[0]))
	if !ok {
		return false, fmt.Errorf("unknown command %q; enter 'help' for all commands", fields[0])
	}
	if err := c.run(this, ctx, fields[1:]); errors.Is(err, errQuit) {
		return true, nil
	} else if err != nil {
		return false, err
	}
	return false, nil
}

// Run reads commands until quit, end of input or ctx is done.
func (this *Console) Run(ctx context.Context) error {
	items := make([]readline.PrefixCompleterInterface, len(commands))
	for i, c := range commands {
		items[i] = readline.PcItem(c.name)
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "media-session> ",
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdin:           this.Stdin,
		Stdout:          this.Stdout,
	})
	if err != nil {
		return fmt.Errorf("cannot open console: %w", err)
	}
	defer func() {
		_ = l.Close()
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.Close()
		case <-done:
		}
	}()

	for {
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := this.Execute(ctx, line)
		if err != nil {
			this.printf("%v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}
}

func (this *Console) start(ctx context.Context, _ []string) error {
	s := this.Manager.Start(ctx, this.Manager.Snapshot().Options)
	this.printSnapshot(s)
	return nil
}

func (this *Console) stop(context.Context, []string) error {
	this.Manager.Stop()
	this.printSnapshot(this.Manager.Snapshot())
	return nil
}

func (this *Console) toggle(ctx context.Context, _ []string) error {
	this.printSnapshot(this.Manager.Toggle(ctx))
	return nil
}

func (this *Console) volume(_ context.Context, args []string) error {
	if len(args) == 0 {
		this.printf("volume: %g\n", this.Manager.Volume())
		return nil
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("illegal volume %q: %w", args[0], err)
	}
	if err := this.Manager.SetVolume(v); err != nil {
		return err
	}
	if f := this.OnVolumeChanged; f != nil {
		f(v)
	}
	log.With("volume", v).Info("Volume changed.")
	this.printf("volume: %g\n", v)
	return nil
}

func (this *Console) devices(context.Context, []string) error {
	s := this.Manager.Snapshot()
	if len(s.Devices) == 0 {
		this.printf("no devices known yet\n")
		return nil
	}
	for _, d := range s.Devices {
		this.printf("%-12v %-24s %s\n", d.Kind, d.ID, d.Label)
	}
	return nil
}

func (this *Console) status(context.Context, []string) error {
	this.printSnapshot(this.Manager.Snapshot())
	return nil
}

func (this *Console) video(ctx context.Context, args []string) error {
	return this.switchRequest(ctx, args, func(o *media.Options) *media.Request { return &o.Video })
}

func (this *Console) audio(ctx context.Context, args []string) error {
	return this.switchRequest(ctx, args, func(o *media.Options) *media.Request { return &o.Audio })
}

func (this *Console) switchRequest(ctx context.Context, args []string, of func(*media.Options) *media.Request) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one argument: on or off")
	}
	var enabled bool
	switch strings.ToLower(args[0]) {
	case "on":
		enabled = true
	case "off":
	default:
		return fmt.Errorf("expected on or off, but got %q", args[0])
	}

	options := this.Manager.Snapshot().Options.Explicitly()
	target := of(&options)
	target.Enabled = enabled
	if !enabled {
		target.Constraints = nil
	}
	this.printSnapshot(this.Manager.SetOptions(ctx, options))
	return nil
}

func (this *Console) level(context.Context, []string) error {
	if this.Meter == nil {
		return fmt.Errorf("no level meter available")
	}
	peak, rms := this.Meter.Level()
	this.printf("peak: %.3f rms: %.3f\n", peak, rms)
	return nil
}

func (this *Console) help(context.Context, []string) error {
	for _, c := range commands {
		this.printf("  %-8s %s\n", c.name, c.usage)
	}
	return nil
}

func (this *Console) quit(context.Context, []string) error {
	return errQuit
}

func (this *Console) printSnapshot(s session.Snapshot) {
	this.printf("status: %v\n", s.Status)
	this.printf("options: %v\n", s.Options)
	if s.HasError() {
		this.printf("error: %s\n", s.ErrorMessage)
	}
	if v := s.Stream; v != nil {
		for _, t := range v.Tracks() {
			this.printf("track: %v %s (%v)\n", t.Kind(), t.Label(), t.State())
		}
	}
}

func (this *Console) printf(format string, args ...any) {
	w := this.Stdout
	if w == nil {
		w = os.Stdout
	}
	_, _ = fmt.Fprintf(w, format, args...)
}
