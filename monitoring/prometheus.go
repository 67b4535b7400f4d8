package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type AuthOutcome string

var (
	AuthWindowOpened     AuthOutcome = "window_opened"
	AuthWindowRefreshed  AuthOutcome = "window_refreshed"
	AuthGranted          AuthOutcome = "granted"
	AuthNoToken          AuthOutcome = "no_token"
	AuthInvalidSignature AuthOutcome = "invalid_signature"
	AuthPermitConsumed   AuthOutcome = "permit_consumed"
	AuthPermitMissing    AuthOutcome = "permit_missing"
)

type nodePromMetrics struct {
	nodeUpUnixSeconds prometheus.Gauge
	chainHeight       prometheus.Gauge
	appendedBlocks    prometheus.Counter
	appendFailures    prometheus.Counter
	appendLatency     prometheus.Histogram
	blockSizeBytes    prometheus.Histogram
	chainViolations   prometheus.Gauge
	authOutcomes      *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	panicCount        prometheus.Counter
}

func newNodePromMetrics() *nodePromMetrics {
	return &nodePromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "notary_node_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the node",
			},
		),
		chainHeight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "notary_chain_length",
				Help: "The number of blocks in the chain, genesis included",
			},
		),
		appendedBlocks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "notary_appended_blocks_total",
				Help: "The total number of blocks appended since start",
			},
		),
		appendFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "notary_append_failures_total",
				Help: "The total number of appends aborted by a store or link failure",
			},
		),
		appendLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "notary_append_latency_seconds",
				Help: "Latency in second of the append read-modify-write",
			},
		),
		blockSizeBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "notary_block_size_bytes",
				Help:    "The serialized block size in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 2, 12),
			},
		),
		chainViolations: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "notary_chain_violations",
				Help: "Number of violating heights found by the last chain validation",
			},
		),
		authOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notary_authorization_outcomes_total",
				Help: "Authorization window events by outcome",
			},
			[]string{"outcome"},
		),
		httpRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notary_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "notary_recovered_panics_total",
				Help: "The total number of panics recovered in background goroutines",
			},
		),
	}
}

var (
	nodeMetrics *nodePromMetrics
	initOnce    sync.Once
)

// InitMetrics registers the collectors once. Every recorder calls it, so
// packages used without a running node (tests, CLI tools) never hit a nil.
func InitMetrics() {
	initOnce.Do(func() {
		nodeMetrics = newNodePromMetrics()
		nodeMetrics.nodeUpUnixSeconds.SetToCurrentTime()
	})
}

func metrics() *nodePromMetrics {
	InitMetrics()
	return nodeMetrics
}

func RegisterMetrics(mux *http.ServeMux) {
	InitMetrics()
	mux.Handle("/metrics", promhttp.Handler())
}

func SetChainLength(length uint64) {
	metrics().chainHeight.Set(float64(length))
}

func IncreaseAppendedBlocks() {
	metrics().appendedBlocks.Inc()
}

func IncreaseAppendFailures() {
	metrics().appendFailures.Inc()
}

func RecordAppendLatency(duration time.Duration) {
	metrics().appendLatency.Observe(duration.Seconds())
}

func RecordBlockSizeBytes(sizeBytes int) {
	metrics().blockSizeBytes.Observe(float64(sizeBytes))
}

func SetChainViolations(count int) {
	metrics().chainViolations.Set(float64(count))
}

func RecordAuthOutcome(outcome AuthOutcome) {
	metrics().authOutcomes.With(prometheus.Labels{
		"outcome": string(outcome),
	}).Inc()
}

func RecordHTTPRequest(route string, code int) {
	metrics().httpRequests.With(prometheus.Labels{
		"route": route,
		"code":  strconv.Itoa(code),
	}).Inc()
}

func IncreasePanicCount() {
	metrics().panicCount.Inc()
}
