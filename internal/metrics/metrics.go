// Package metrics holds the Prometheus instruments of the album server.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// Metrics holds all Prometheus metrics for the album server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec   // album_requests_total{route,status}
	RequestDuration *prometheus.HistogramVec // album_request_duration_seconds{route}

	// Hierarchy metrics
	FoldersDeleted     prometheus.Counter     // album_folders_deleted_total
	ItemsDeleted       prometheus.Counter     // album_items_deleted_total
	BlobDeleteFailures prometheus.Counter     // album_blob_delete_failures_total
	ItemMoves          *prometheus.CounterVec // album_item_moves_total{result}

	// Blob metrics
	BlobBytesStored prometheus.Counter // album_blob_bytes_stored_total

	gatherer prometheus.Gatherer
}

// Init initializes the process-wide metrics on registry (the default
// registry when nil). Later calls return the same instance.
func Init(registry *prometheus.Registry) *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = New(registry)
	})
	return metricsInstance
}

// New registers a fresh set of metrics on registry. Tests use it with their
// own registry; the server goes through Init.
func New(registry *prometheus.Registry) *Metrics {
	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if registry != nil {
		reg, gatherer = registry, registry
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "album_requests_total",
			Help: "Total HTTP requests by route and status",
		}, []string{"route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "album_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		FoldersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "album_folders_deleted_total",
			Help: "Folders removed by subtree deletes",
		}),

		ItemsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "album_items_deleted_total",
			Help: "Items removed by item and subtree deletes",
		}),

		BlobDeleteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "album_blob_delete_failures_total",
			Help: "Blob deletions that failed and left an orphaned blob",
		}),

		ItemMoves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "album_item_moves_total",
			Help: "Item moves by result",
		}, []string{"result"}),

		BlobBytesStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "album_blob_bytes_stored_total",
			Help: "Uncompressed bytes written to the blob store",
		}),

		gatherer: gatherer,
	}
}

// Get returns the instance created by Init, nil before that
func Get() *Metrics {
	return metricsInstance
}

// RecordRequest records one served request
func (m *Metrics) RecordRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordSubtreeDelete records the outcome of one cascade delete
func (m *Metrics) RecordSubtreeDelete(folders, items, blobFailures int) {
	if m == nil {
		return
	}
	m.FoldersDeleted.Add(float64(folders))
	m.ItemsDeleted.Add(float64(items))
	m.BlobDeleteFailures.Add(float64(blobFailures))
}

// RecordItemDelete records a single item delete
func (m *Metrics) RecordItemDelete(blobFailed bool) {
	if m == nil {
		return
	}
	m.ItemsDeleted.Inc()
	if blobFailed {
		m.BlobDeleteFailures.Inc()
	}
}

// RecordMove records an item move; result is "committed" or "failed"
func (m *Metrics) RecordMove(result string) {
	if m == nil {
		return
	}
	m.ItemMoves.WithLabelValues(result).Inc()
}

// RecordBlobStored records bytes accepted by the blob store
func (m *Metrics) RecordBlobStored(bytes int64) {
	if m == nil {
		return
	}
	m.BlobBytesStored.Add(float64(bytes))
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
