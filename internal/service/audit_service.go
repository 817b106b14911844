package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/metrics"
)

type AuditRepository interface {
	CreateBatch(ctx context.Context, entries []*domain.AuditLog) error
}

// Auditor records who changed what. AuditService is the production one.
type Auditor interface {
	LogAsync(ctx context.Context, entry AuditEntry)
}

type nopAuditor struct{}

func (nopAuditor) LogAsync(context.Context, AuditEntry) {}

// AuditOptions tunes the write-behind queue. Zero values take the defaults.
type AuditOptions struct {
	BufferSize      int
	BatchSize       int
	FlushInterval   time.Duration
	ShutdownTimeout time.Duration
}

func (o AuditOptions) withDefaults() AuditOptions {
	if o.BufferSize <= 0 {
		o.BufferSize = 10_000
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
	return o
}

// AuditService writes audit rows behind the request. Rows are grouped into
// batches that flush when full or when FlushInterval passes.
type AuditService struct {
	repo    AuditRepository
	log     *zap.Logger
	metrics *metrics.Collector
	opts    AuditOptions
	queue   chan *domain.AuditLog
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAuditService(repo AuditRepository, log *zap.Logger, m *metrics.Collector, opts AuditOptions) *AuditService {
	opts = opts.withDefaults()
	svc := &AuditService{
		repo:    repo,
		log:     log,
		metrics: m,
		opts:    opts,
		queue:   make(chan *domain.AuditLog, opts.BufferSize),
		done:    make(chan struct{}),
	}
	go svc.run()
	return svc
}

// LogAsync queues entry. A full queue, or one already shut down, drops it
// and counts the drop.
func (s *AuditService) LogAsync(_ context.Context, entry AuditEntry) {
	row := entry.row()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.metrics.AuditDropped()
		s.log.Warn("audit service is shut down, dropping entry",
			zap.String("action", string(row.Action)),
			zap.String("resource_type", row.ResourceType),
			zap.String("resource_id", row.ResourceID),
		)
		return
	}
	select {
	case s.queue <- row:
	default:
		s.metrics.AuditDropped()
		s.log.Warn("audit queue full, dropping entry",
			zap.String("action", string(row.Action)),
			zap.String("resource_type", row.ResourceType),
			zap.String("resource_id", row.ResourceID),
		)
	}
}

// Shutdown flushes what is queued. Entries still pending after
// ShutdownTimeout are lost.
func (s *AuditService) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-time.After(s.opts.ShutdownTimeout):
		s.log.Warn("audit shutdown timed out", zap.Int("pending", len(s.queue)))
	}
}

func (s *AuditService) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]*domain.AuditLog, 0, s.opts.BatchSize)
	for {
		select {
		case row, ok := <-s.queue:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, row)
			if len(batch) >= s.opts.BatchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			s.flush(batch)
			batch = batch[:0]
		}
	}
}

func (s *AuditService) flush(batch []*domain.AuditLog) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.log.Error("persisting audit batch", zap.Int("rows", len(batch)), zap.Error(err))
		return
	}
	for range batch {
		s.metrics.AuditWritten()
	}
}
