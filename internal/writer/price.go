package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/price-relay/internal/model"
)

const insertPriceSQL = `
	INSERT INTO token_prices (received_at, session_id, conn_id, token, address, symbol, price, decimals, confidence, source_ts)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (address, source_ts, received_at) DO NOTHING
`

// PriceWriter consumes PriceUpdates from hub sessions and writes them to the
// token_prices table.
type PriceWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	input chan model.PriceUpdate

	// Database
	db BatchSender

	// Batching
	batch   []model.PriceRow
	batchMu sync.Mutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewPriceWriter creates a new PriceWriter.
func NewPriceWriter(cfg WriterConfig, db BatchSender, logger *slog.Logger) *PriceWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultWriterConfig().BufferSize
	}
	return &PriceWriter{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan model.PriceUpdate, cfg.BufferSize),
		batch:  make([]model.PriceRow, 0, cfg.BatchSize),
	}
}

// Record queues u for writing without blocking. Updates are dropped with a
// warning when the queue is full.
func (w *PriceWriter) Record(u model.PriceUpdate) {
	select {
	case w.input <- u:
		w.batchMu.Lock()
		w.metrics.Received++
		w.batchMu.Unlock()
	default:
		w.batchMu.Lock()
		w.metrics.Dropped++
		w.batchMu.Unlock()
		w.logger.Warn("price writer buffer full, dropping update",
			"conn", u.ConnID,
			"token", u.Token,
		)
	}
}

// Start begins consuming updates and writing to the database.
func (w *PriceWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("price writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer, flushing what is already queued.
func (w *PriceWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping price writer")

	if w.cancel != nil {
		w.cancel()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("price writer stopped")
	case <-ctx.Done():
		w.logger.Warn("price writer stop timed out")
	}

	// Drain and final flush
drain:
	for {
		select {
		case u := <-w.input:
			w.appendRows(u)
		default:
			break drain
		}
	}
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *PriceWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the input queue and accumulates batches.
func (w *PriceWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case u := <-w.input:
			if w.appendRows(u) {
				w.flush(w.ctx)
			}
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *PriceWriter) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flush(w.ctx)
		}
	}
}

// appendRows adds the update's rows to the batch and reports whether the
// batch is full.
func (w *PriceWriter) appendRows(u model.PriceUpdate) bool {
	rows := u.Rows()

	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	w.batch = append(w.batch, rows...)
	return len(w.batch) >= w.cfg.BatchSize
}

// flush writes the current batch to the database.
func (w *PriceWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]model.PriceRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed prices",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *PriceWriter) batchInsert(ctx context.Context, rows []model.PriceRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertPriceSQL,
			r.ReceivedAt, r.SessionID, r.ConnID, r.Token, r.Address,
			r.Symbol, r.Price, r.Decimals, r.Confidence, r.SourceTS)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
