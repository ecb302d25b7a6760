package analytics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"factory-floor/internal/ingest"
	"factory-floor/internal/metrics"
	"factory-floor/internal/models"
	"factory-floor/internal/stations"
)

var (
	// ErrQueueFull очередь пакетов заполнена
	ErrQueueFull = errors.New("processing queue is full")
	// ErrProcessorStopped обработчик остановлен
	ErrProcessorStopped = errors.New("processor is stopped")
)

// job пакет с номером, присвоенным при приеме
type job struct {
	seq   uint64
	batch ingest.Batch
}

// Processor принимает пакеты телеметрии и публикует самый свежий снимок.
// Снимок публикуется только если его номер больше текущего, поэтому
// при нескольких воркерах побеждает последний принятый пакет.
type Processor struct {
	deriver *stations.Deriver
	mapping stations.FieldMapping
	logger  zerolog.Logger

	seq      atomic.Uint64
	mu       sync.RWMutex
	latest   *models.Snapshot
	derived  atomic.Uint64
	stale    atomic.Uint64
	replaced atomic.Uint64

	jobsChan    chan job
	resultsChan chan models.Snapshot
	stopChan    chan struct{}
	stopOnce    sync.Once
	stopped     atomic.Bool
	closed      bool // под mu
	wg          sync.WaitGroup
}

// NewProcessor создает новый обработчик
func NewProcessor(deriver *stations.Deriver, mapping stations.FieldMapping, queueSize int, logger zerolog.Logger) *Processor {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Processor{
		deriver:     deriver,
		mapping:     mapping,
		logger:      logger.With().Str("component", "processor").Logger(),
		jobsChan:    make(chan job, queueSize),
		resultsChan: make(chan models.Snapshot, queueSize),
		stopChan:    make(chan struct{}),
	}
}

// Start запускает обработчики в goroutines
func (p *Processor) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.processBatches()
	}
}

// Stop останавливает воркеры и закрывает канал результатов.
// Пакеты, оставшиеся в очереди, отбрасываются.
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.stopChan)
		p.wg.Wait()

		p.mu.Lock()
		p.closed = true
		close(p.resultsChan)
		p.mu.Unlock()
	})
}

// Submit ставит пакет в очередь, не блокируясь. Возвращает номер пакета.
func (p *Processor) Submit(batch ingest.Batch) (uint64, error) {
	if p.stopped.Load() {
		return 0, ErrProcessorStopped
	}
	seq := p.seq.Add(1)
	select {
	case p.jobsChan <- job{seq: seq, batch: batch}:
		metrics.QueueSize.Set(float64(len(p.jobsChan)))
		return seq, nil
	default:
		return 0, ErrQueueFull
	}
}

// Apply синхронно вычисляет и публикует снимок пакета
func (p *Processor) Apply(ctx context.Context, batch ingest.Batch) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}
	if p.stopped.Load() {
		return models.Snapshot{}, ErrProcessorStopped
	}
	snapshot := p.derive(p.seq.Add(1), batch)
	p.publish(snapshot)
	return snapshot, nil
}

// Results канал опубликованных снимков
func (p *Processor) Results() <-chan models.Snapshot {
	return p.resultsChan
}

// Latest последний опубликованный снимок или nil
func (p *Processor) Latest() *models.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Empty снимок без данных: все станции в состоянии UNKNOWN
func (p *Processor) Empty() models.Snapshot {
	res := p.deriver.Derive(nil, nil)
	return models.Snapshot{
		Empty:       true,
		Stations:    res.States,
		Diagnostics: res.Diagnostics,
	}
}

// Deriver возвращает используемый вычислитель состояний
func (p *Processor) Deriver() *stations.Deriver {
	return p.deriver
}

// processBatches обрабатывает пакеты из канала
func (p *Processor) processBatches() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case j := <-p.jobsChan:
			metrics.QueueSize.Set(float64(len(p.jobsChan)))
			p.publish(p.derive(j.seq, j.batch))
		}
	}
}

// derive выполняет вычисление состояний для пакета
func (p *Processor) derive(seq uint64, batch ingest.Batch) models.Snapshot {
	start := time.Now()
	res := p.deriver.Derive(batch.Data, p.mapping.Merge(batch.Mapping))
	metrics.DerivationLatency.Observe(time.Since(start).Seconds())

	diag := res.Diagnostics
	metrics.RowsProcessed.WithLabelValues("accepted").Add(float64(diag.RowsAccepted))
	metrics.RowsProcessed.WithLabelValues("dropped").Add(float64(diag.RowsDropped))
	for field, n := range diag.DefaultedFields {
		metrics.FieldsDefaulted.WithLabelValues(field).Add(float64(n))
	}
	p.derived.Add(1)

	return models.Snapshot{
		BatchID:     uuid.NewString(),
		Sequence:    seq,
		DerivedAt:   time.Now().UTC(),
		Empty:       res.Empty(),
		Stations:    res.States,
		Diagnostics: diag,
	}
}

// publish заменяет последний снимок, если этот новее
func (p *Processor) publish(snapshot models.Snapshot) {
	p.mu.Lock()
	if p.latest != nil && p.latest.Sequence >= snapshot.Sequence {
		p.mu.Unlock()
		p.stale.Add(1)
		p.logger.Debug().
			Uint64("sequence", snapshot.Sequence).
			Msg("discarding superseded snapshot")
		return
	}
	p.latest = &snapshot

	// Отправляют только под mu, поэтому после вытеснения место в канале есть.
	// Если потребитель отстает, старейший невзятый снимок заменяется новым.
	if !p.closed {
		select {
		case p.resultsChan <- snapshot:
		default:
			select {
			case old := <-p.resultsChan:
				p.replaced.Add(1)
				p.logger.Debug().
					Uint64("sequence", old.Sequence).
					Uint64("replaced_by", snapshot.Sequence).
					Msg("results channel full, replacing oldest pending snapshot")
			default:
			}
			p.resultsChan <- snapshot
		}
	}
	p.mu.Unlock()

	p.logger.Info().
		Str("batch_id", snapshot.BatchID).
		Uint64("sequence", snapshot.Sequence).
		Int("rows", snapshot.Diagnostics.RowsTotal).
		Int("dropped", snapshot.Diagnostics.RowsDropped).
		Bool("empty", snapshot.Empty).
		Msg("snapshot published")
}

// GetStats возвращает статистику обработчика
func (p *Processor) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"stations":         len(p.deriver.Definitions()),
		"queue_size":       len(p.jobsChan),
		"queue_capacity":   cap(p.jobsChan),
		"batches_derived":  p.derived.Load(),
		"batches_stale":    p.stale.Load(),
		"results_replaced": p.replaced.Load(),
		"last_sequence":    uint64(0),
		"last_derived_at":  nil,
	}
	if latest := p.Latest(); latest != nil {
		stats["last_sequence"] = latest.Sequence
		stats["last_derived_at"] = latest.DerivedAt
	}
	return stats
}
