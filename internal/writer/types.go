package writer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the number of updates queued before Record drops.
	BufferSize int
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: time.Second,
		BufferSize:    1000,
	}
}

// WriterMetrics tracks writer counters.
type WriterMetrics struct {
	Received  int64 // Updates accepted by Record
	Dropped   int64 // Updates dropped because the queue was full
	Inserts   int64 // Rows inserted
	Conflicts int64 // Rows skipped by ON CONFLICT
	Flushes   int64
	Errors    int64
}

// BatchSender is the subset of *pgxpool.Pool the writer uses.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}
