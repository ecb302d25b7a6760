package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration продолжительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// BatchesReceived пакеты телеметрии по способу приема
	BatchesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_batches_received_total",
			Help: "Total number of telemetry batches received",
		},
		[]string{"mode"},
	)

	// BatchesRejected пакеты, не принятые в очередь
	BatchesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_batches_rejected_total",
			Help: "Total number of telemetry batches rejected",
		},
		[]string{"reason"},
	)

	// RowsProcessed строки телеметрии по результату разбора
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_rows_total",
			Help: "Total number of telemetry rows by outcome",
		},
		[]string{"outcome"},
	)

	// FieldsDefaulted поля, получившие значение по умолчанию
	FieldsDefaulted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_fields_defaulted_total",
			Help: "Total number of fields substituted with their default",
		},
		[]string{"field"},
	)

	// DerivationLatency задержка вычисления состояний
	DerivationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "station_derivation_latency_seconds",
			Help:    "Station state derivation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// StationQuality последняя оценка качества станции
	StationQuality = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "station_quality_score",
			Help: "Latest quality score per station",
		},
		[]string{"station_id", "production_line"},
	)

	// StationTemperatureIntensity интенсивность перегрева станции
	StationTemperatureIntensity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "station_temperature_intensity",
			Help: "Overheat intensity per station (0..1)",
		},
		[]string{"station_id"},
	)

	// StationAlerts активные флаги аномалий (0/1)
	StationAlerts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "station_alert_active",
			Help: "Whether an alert is active for a station",
		},
		[]string{"station_id", "alert"},
	)

	// StationsWithData станции с данными в последнем снимке
	StationsWithData = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stations_with_data",
			Help: "Number of stations with data in the latest snapshot",
		},
	)

	// QueueSize размер очереди обработки
	QueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "processing_queue_size",
			Help: "Current size of the processing queue",
		},
	)

	// CacheOperations операции с кэшем снимков
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_cache_operations_total",
			Help: "Total number of snapshot cache operations",
		},
		[]string{"operation", "status"},
	)
)
