package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blaubaer/media-session/pkg/common"
	"github.com/blaubaer/media-session/pkg/media"
	"github.com/blaubaer/media-session/pkg/session"
)

// Metrics reflects the snapshots of a session.Manager as Prometheus metrics.
type Metrics struct {
	Acquisitions *prometheus.CounterVec
	Stops        prometheus.Counter
	Active       prometheus.Gauge
	Volume       prometheus.Gauge
	Devices      prometheus.Gauge
	Tracks       *prometheus.GaugeVec

	mutex      sync.Mutex
	lastID     string
	lastStatus session.Status
}

// NewMetrics creates all metrics and registers them at the given registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Acquisitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "media_session_acquisitions_total",
			Help: "Total number of finished acquisitions by result",
		}, []string{"result"}),
		Stops: factory.NewCounter(prometheus.CounterOpts{
			Name: "media_session_stops_total",
			Help: "Total number of sessions which went from active back to idle",
		}),
		Active: factory.NewGauge(prometheus.GaugeOpts{
			Name: "media_session_active",
			Help: "1 if a capture session is active, 0 otherwise",
		}),
		Volume: factory.NewGauge(prometheus.GaugeOpts{
			Name: "media_session_volume",
			Help: "Current volume of the gain stage",
		}),
		Devices: factory.NewGauge(prometheus.GaugeOpts{
			Name: "media_session_devices",
			Help: "Number of devices known after the last successful acquisition",
		}),
		Tracks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "media_session_tracks",
			Help: "Number of tracks of the active stream by kind",
		}, []string{"kind"}),
	}
}

// Observe is a session.Observer.
func (this *Metrics) Observe(s session.Snapshot) {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	transition := s.ID != this.lastID || s.Status != this.lastStatus
	if transition && this.lastStatus == session.StatusLoading && s.ID == this.lastID {
		switch s.Status {
		case session.StatusActive:
			this.Acquisitions.WithLabelValues("success").Inc()
		case session.StatusError:
			this.Acquisitions.WithLabelValues(errorResult(s.Err)).Inc()
		}
	}
	if transition && this.lastStatus == session.StatusActive && s.Status != session.StatusActive {
		this.Stops.Inc()
	}
	this.lastID, this.lastStatus = s.ID, s.Status

	this.Volume.Set(s.Volume)
	this.Devices.Set(float64(len(s.Devices)))

	var audio, video int
	if s.Active() {
		this.Active.Set(1)
		audio = len(s.Stream.AudioTracks())
		video = len(s.Stream.VideoTracks())
	} else {
		this.Active.Set(0)
	}
	this.Tracks.WithLabelValues(media.TrackKindAudio.String()).Set(float64(audio))
	this.Tracks.WithLabelValues(media.TrackKindVideo.String()).Set(float64(video))
}

func errorResult(err error) string {
	if v, ok := common.AsError[*media.AcquisitionError](media.ClassifyError(err)); ok {
		return v.Kind.String()
	}
	return media.ErrorKindUnknown.String()
}
