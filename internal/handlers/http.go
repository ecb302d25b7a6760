package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"factory-floor/internal/analytics"
	"factory-floor/internal/cache"
	"factory-floor/internal/ingest"
	"factory-floor/internal/metrics"
	"factory-floor/internal/models"
	"factory-floor/internal/stations"
)

// maxBodyBytes ограничение размера пакета телеметрии
const maxBodyBytes = 8 << 20

// Handler обработчик HTTP запросов
type Handler struct {
	processor *analytics.Processor
	cache     cache.SnapshotStore
	logger    zerolog.Logger
}

// NewHandler создает новый обработчик
func NewHandler(processor *analytics.Processor, store cache.SnapshotStore, logger zerolog.Logger) *Handler {
	return &Handler{
		processor: processor,
		cache:     store,
		logger:    logger.With().Str("component", "http").Logger(),
	}
}

// Routes настраивает маршруты
func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Post("/telemetry", h.instrument("/telemetry", h.SubmitTelemetry))
	r.Post("/telemetry/async", h.instrument("/telemetry/async", h.SubmitTelemetryAsync))
	r.Get("/stations", h.instrument("/stations", h.GetStations))
	r.Get("/stations/{stationID}", h.instrument("/stations/{stationID}", h.GetStation))
	r.Get("/lines", h.instrument("/lines", h.GetLines))
	r.Get("/layout", h.instrument("/layout", h.GetLayout))
	r.Get("/health", h.HealthCheck)
	r.Get("/stats", h.instrument("/stats", h.GetStats))

	// Prometheus metrics endpoint
	r.Handle("/prometheus", promhttp.Handler())

	return r
}

// statusRecorder запоминает код ответа для метрик
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument считает запросы и их длительность по endpoint
func (h *Handler) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// SubmitTelemetry обрабатывает POST /telemetry: синхронное вычисление снимка
func (h *Handler) SubmitTelemetry(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.decodeBatch(w, r)
	if !ok {
		return
	}

	snapshot, err := h.processor.Apply(r.Context(), batch)
	if err != nil {
		h.processorError(w, err)
		return
	}
	metrics.BatchesReceived.WithLabelValues("sync").Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "derived",
		"batch_id":    snapshot.BatchID,
		"sequence":    snapshot.Sequence,
		"empty":       snapshot.Empty,
		"diagnostics": snapshot.Diagnostics,
	})
}

// SubmitTelemetryAsync обрабатывает POST /telemetry/async: постановка в очередь
func (h *Handler) SubmitTelemetryAsync(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.decodeBatch(w, r)
	if !ok {
		return
	}

	seq, err := h.processor.Submit(batch)
	if err != nil {
		h.processorError(w, err)
		return
	}
	metrics.BatchesReceived.WithLabelValues("async").Inc()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":   "accepted",
		"sequence": seq,
	})
}

func (h *Handler) decodeBatch(w http.ResponseWriter, r *http.Request) (ingest.Batch, bool) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	batch, err := ingest.Decode(r.Header.Get("Content-Type"), body)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			status = http.StatusUnsupportedMediaType
		case errors.As(err, &tooLarge):
			status = http.StatusRequestEntityTooLarge
		}
		metrics.BatchesRejected.WithLabelValues("decode").Inc()
		h.logger.Warn().Err(err).Msg("failed to decode telemetry batch")
		writeError(w, status, err.Error())
		return ingest.Batch{}, false
	}
	return batch, true
}

func (h *Handler) processorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analytics.ErrQueueFull):
		metrics.BatchesRejected.WithLabelValues("queue_full").Inc()
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, analytics.ErrProcessorStopped):
		metrics.BatchesRejected.WithLabelValues("stopped").Inc()
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// currentSnapshot последний снимок: память процесса, затем кэш, затем пустой
func (h *Handler) currentSnapshot(r *http.Request) models.Snapshot {
	if latest := h.processor.Latest(); latest != nil {
		return *latest
	}

	cached, err := h.cache.LatestSnapshot(r.Context())
	if err != nil {
		metrics.CacheOperations.WithLabelValues("get_snapshot", "error").Inc()
		h.logger.Error().Err(err).Msg("failed to read cached snapshot")
	} else if cached != nil {
		metrics.CacheOperations.WithLabelValues("get_snapshot", "success").Inc()
		// снимок мог быть сохранен с другой схемой цеха
		cached.Stations = h.processor.Deriver().Align(cached.Stations)
		return *cached
	}
	return h.processor.Empty()
}

// GetStations обрабатывает GET /stations
func (h *Handler) GetStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentSnapshot(r))
}

// GetStation обрабатывает GET /stations/{stationID}
func (h *Handler) GetStation(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationID")
	snapshot := h.currentSnapshot(r)

	state, ok := snapshot.Station(stationID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown station: "+stationID)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetLines обрабатывает GET /lines
func (h *Handler) GetLines(w http.ResponseWriter, r *http.Request) {
	snapshot := h.currentSnapshot(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id": snapshot.BatchID,
		"empty":    snapshot.Empty,
		"lines":    stations.Lines(snapshot.Stations),
	})
}

// GetLayout обрабатывает GET /layout
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	d := h.processor.Deriver()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stations": d.Definitions(),
		"flows":    d.Flows(),
	})
}

// HealthCheck обрабатывает GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	cacheOK := h.cache.Ping(r.Context()) == nil

	status := "healthy"
	httpStatus := http.StatusOK

	if !cacheOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"cache":     cacheOK,
		"timestamp": time.Now(),
	})
}

// GetStats обрабатывает GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	cacheStats := h.cache.Stats()
	if n, err := h.cache.BatchesStored(r.Context()); err == nil {
		cacheStats["batches_stored"] = n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"processor": h.processor.GetStats(),
		"cache":     cacheStats,
		"timestamp": time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
