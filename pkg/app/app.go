package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	log "github.com/echocat/slf4g"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blaubaer/media-session/pkg/capture"
	"github.com/blaubaer/media-session/pkg/common"
	"github.com/blaubaer/media-session/pkg/graph"
	"github.com/blaubaer/media-session/pkg/indicator"
	"github.com/blaubaer/media-session/pkg/indicator/facade"
	"github.com/blaubaer/media-session/pkg/metrics"
	"github.com/blaubaer/media-session/pkg/session"
)

// App hosts one session.Manager: it mounts it, mirrors its state to the
// configured indicator and to metrics and controls it from the console.
type App struct {
	Capture           capture.Stack
	Indicator         facade.Facade
	ConfigurationFile string
	Headless          bool

	Stdin  io.ReadCloser
	Stdout io.Writer

	// Provider replaces Capture as source of streams if set.
	Provider session.CaptureProvider

	configFromFlags Configuration
	config          Configuration
	meter           *graph.LevelMeter
	manager         *session.Manager
	metrics         *metrics.Metrics
	registry        *prometheus.Registry
	mutex           sync.Mutex
}

func (this *App) SetupConfiguration(using common.FlagHolder) {
	this.Capture.SetupConfiguration(using)
	this.configFromFlags.SetupConfiguration(using)

	using.Flag("configuration", "Defines the file from which the configuration should be loaded and/or stored to.").
		Short('c').
		Envar("MS_CONFIGURATION").
		StringVar(&this.ConfigurationFile)
	using.Flag("headless", "Do not open the interactive console; run until terminated.").
		Envar("MS_HEADLESS").
		BoolVar(&this.Headless)
}

func (this *App) Initialize() (rErr error) {
	success := false
	defer func() {
		if !success {
			if err := this.Dispose(); err != nil && rErr == nil {
				rErr = err
			}
		}
	}()

	this.config = NewConfiguration()
	if err := this.config.loadFromFile(this.configurationFile(), true); err != nil {
		return err
	}
	if err := this.config.Merge(this.configFromFlags); err != nil {
		return fmt.Errorf("cannot merge configuration from flags: %w", err)
	}

	provider := this.Provider
	if provider == nil {
		if err := this.Capture.Initialize(); err != nil {
			return err
		}
		provider = &this.Capture
	}

	this.meter = &graph.LevelMeter{}
	this.manager = session.NewManager(provider, session.NewAudioGraph(this.meter))
	if err := this.manager.SetVolume(this.config.Volume); err != nil {
		return fmt.Errorf("illegal configured volume %v: %w", this.config.Volume, err)
	}

	this.registry = prometheus.NewRegistry()
	this.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	this.metrics = metrics.NewMetrics(this.registry)

	if err := this.Indicator.Initialize(&this.config.Indicator, this.alwaysSaveConf); err != nil {
		return err
	}

	if err := this.saveConf(false); err != nil {
		return err
	}

	success = true
	return nil
}

// Run mounts the manager and keeps everything in sync with it until the
// console is left or ctx is done.
func (this *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	snapshots := make(chan session.Snapshot, 1)
	unsubscribe := this.manager.Subscribe(func(s session.Snapshot) {
		this.metrics.Observe(s)
		for {
			select {
			case snapshots <- s:
				return
			default:
			}
			select {
			case <-snapshots:
			default:
			}
		}
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		this.syncIndicator(ctx, snapshots)
	}()

	if listen := this.config.Metrics.Listen; listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := this.serveMetrics(ctx, listen); err != nil {
				log.WithError(err).
					With("listen", listen).
					Error("Cannot serve metrics.")
			}
		}()
	}

	s := this.manager.Mount(ctx, this.config.Capture)
	defer this.manager.Unmount()
	if s.HasError() {
		log.With("error", s.ErrorMessage).
			Warn("First capture session could not be started.")
	}

	if this.Headless {
		<-ctx.Done()
		return nil
	}

	c := Console{
		Manager:         this.manager,
		Meter:           this.meter,
		Stdin:           this.Stdin,
		Stdout:          this.Stdout,
		OnVolumeChanged: this.onVolumeChanged,
	}
	return c.Run(ctx)
}

func (this *App) onVolumeChanged(v float64) {
	this.mutex.Lock()
	this.config.Volume = v
	this.mutex.Unlock()

	if err := this.alwaysSaveConf(); err != nil {
		log.WithError(err).
			Warn("Cannot save changed volume.")
	}
}

func (this *App) syncIndicator(ctx context.Context, snapshots <-chan session.Snapshot) {
	var last session.Snapshot
	ensure := func() {
		if err := this.Indicator.Ensure(indicator.NewContext(last.Stream)); err != nil {
			log.WithError(err).
				Error("Cannot ensure indicator state.")
		}
	}

	interval := this.config.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Indicator loop interrupted.")
			return
		case last = <-snapshots:
			ensure()
		case <-ticker.C:
			if err := this.Indicator.Update(); err != nil {
				log.WithError(err).
					Error("Cannot update indicator.")
				continue
			}
			ensure()
		}
	}
}

func (this *App) serveMetrics(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(this.registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sCtx, sCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer sCancel()
		_ = server.Shutdown(sCtx)
	}()

	log.With("listen", listen).
		Info("Serving metrics.")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (this *App) Manager() *session.Manager {
	return this.manager
}

func (this *App) configurationFile() string {
	if v := this.ConfigurationFile; v != "" {
		return v
	}
	return defaultConfigurationFile()
}

func (this *App) alwaysSaveConf() error {
	return this.saveConf(true)
}

func (this *App) saveConf(always bool) error {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	if this.config.PreventAutoSave {
		log.Debug("Automatic save of configuration disabled.")
		return nil
	}

	fn := this.configurationFile()
	if !always {
		_, err := os.Stat(fn)
		if os.IsNotExist(err) {
			log.With("file", fn).Info("Configuration absent.")
		} else if err != nil {
			return err
		} else {
			return nil
		}
	}

	if err := this.config.saveToFile(fn); err != nil {
		return err
	}

	log.With("file", fn).Info("Configuration saved.")
	return nil
}

// Dispose switches the indicator off and releases everything.
func (this *App) Dispose() error {
	disposeManager := func() error {
		if v := this.manager; v != nil {
			return v.Dispose()
		}
		return nil
	}
	return common.JoinDispose(
		disposeManager,
		func() error { return this.Indicator.Ensure(indicator.NewContext(nil)) },
		this.Indicator.Dispose,
		this.Capture.Dispose,
	)
}
