package aws

import (
	"context"
	"time"

	"github.com/mahirjain10/s3-thumbnailer/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StorageTypeLabel string = "storage_type"
	OperationLabel   string = "operation"
)

type objectStore interface {
	GetObject(ctx context.Context, bucket string, key string) (*types.StoredObject, error)
	PutObject(ctx context.Context, bucket string, key string, body []byte, contentType string) error
	Type() string
}

type StoreWithMetrics struct {
	store          objectStore
	latency        *prometheus.HistogramVec
	requestCounter *prometheus.CounterVec
	errorCounter   *prometheus.CounterVec
}

func NewStoreWithMetrics(store objectStore, metricRegistry prometheus.Registerer) *StoreWithMetrics {
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "request_latency_seconds",
			Subsystem: "object_storage",
			Namespace: "thumbnailer",
			Help:      "the time it took to finish a request to object storage",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{StorageTypeLabel, OperationLabel},
	)

	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "requests_total",
			Namespace: "thumbnailer",
			Subsystem: "object_storage",
			Help:      "count of requests to object storage that finished",
		},
		[]string{StorageTypeLabel, OperationLabel},
	)

	errorCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "request_errors_total",
			Namespace: "thumbnailer",
			Subsystem: "object_storage",
			Help:      "count of failed requests to object storage",
		},
		[]string{StorageTypeLabel, OperationLabel},
	)

	metricRegistry.MustRegister(latency, requestCounter, errorCounter)

	return &StoreWithMetrics{
		store:          store,
		latency:        latency,
		requestCounter: requestCounter,
		errorCounter:   errorCounter,
	}
}

func (w *StoreWithMetrics) GetObject(ctx context.Context, bucket string, key string) (*types.StoredObject, error) {
	startTime := time.Now()
	obj, err := w.store.GetObject(ctx, bucket, key)
	w.observe("get", startTime, err)
	return obj, err
}

func (w *StoreWithMetrics) PutObject(ctx context.Context, bucket string, key string, body []byte, contentType string) error {
	startTime := time.Now()
	err := w.store.PutObject(ctx, bucket, key, body, contentType)
	w.observe("put", startTime, err)
	return err
}

func (w *StoreWithMetrics) Type() string {
	return w.store.Type()
}

func (w *StoreWithMetrics) observe(op string, startTime time.Time, err error) {
	storageType := w.store.Type()
	w.latency.WithLabelValues(storageType, op).Observe(time.Since(startTime).Seconds())
	w.requestCounter.WithLabelValues(storageType, op).Inc()
	if err != nil {
		w.errorCounter.WithLabelValues(storageType, op).Inc()
	}
}
