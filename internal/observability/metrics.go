package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// fetch/convert loop and the API.
type Metrics struct {
	FilesDownloaded    *prometheus.CounterVec // labels: product
	DownloadErrors     *prometheus.CounterVec // labels: product
	ListingErrors      *prometheus.CounterVec // labels: product
	ConversionsDone    *prometheus.CounterVec // labels: product
	ConversionErrors   *prometheus.CounterVec // labels: product
	ConversionDuration *prometheus.HistogramVec
	LastRainScore      *prometheus.GaugeVec // labels: product
	PollCycles         prometheus.Counter
	FetcherRunning     prometheus.Gauge

	CacheLookups *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesDownloaded,
		m.DownloadErrors,
		m.ListingErrors,
		m.ConversionsDone,
		m.ConversionErrors,
		m.ConversionDuration,
		m.LastRainScore,
		m.PollCycles,
		m.FetcherRunning,
		m.CacheLookups,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesDownloaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "files_downloaded_total",
			Help:      "Radar composite files downloaded from CHMI.",
		}, []string{"product"}),
		DownloadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "download_errors_total",
			Help:      "Failed composite downloads.",
		}, []string{"product"}),
		ListingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "listing_errors_total",
			Help:      "Failed CHMI directory index fetches.",
		}, []string{"product"}),
		ConversionsDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "conversions_total",
			Help:      "HDF5 composites converted to PNG.",
		}, []string{"product"}),
		ConversionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "conversion_errors_total",
			Help:      "Failed HDF5 to PNG conversions.",
		}, []string{"product"}),
		ConversionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "radarview",
			Name:      "conversion_duration_seconds",
			Help:      "Duration of a single HDF5 to PNG conversion.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"product"}),
		LastRainScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "radarview",
			Name:      "last_rain_score",
			Help:      "Rain score of the most recently converted composite (0..1).",
		}, []string{"product"}),
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "poll_cycles_total",
			Help:      "Completed poll cycles over all products.",
		}),
		FetcherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radarview",
			Name:      "fetcher_running",
			Help:      "1 while the fetch loop is active, 0 after shutdown.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "cache_lookups_total",
			Help:      "API response cache lookups by result.",
		}, []string{"result"}),
	}
}
