package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/metrics"
)

type memAuditRepo struct {
	mu      sync.Mutex
	batches [][]*domain.AuditLog
	block   chan struct{}
}

func (r *memAuditRepo) CreateBatch(_ context.Context, rows []*domain.AuditLog) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]*domain.AuditLog(nil), rows...))
	return nil
}

func (r *memAuditRepo) rows() []*domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditLog
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func TestAuditService_FlushesOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := &memAuditRepo{}
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewAuditService(repo, zap.NewNop(), m, AuditOptions{FlushInterval: time.Hour})

	caller := &domain.Caller{UserID: 4, Role: domain.RoleNurse, IP: "10.1.1.1", RequestID: "req-1"}
	svc.LogAsync(context.Background(), auditEntry(caller, domain.ActionUpdate, "diagnosis", "9"))
	svc.LogAsync(context.Background(), auditEntry(nil, domain.ActionRead, "patient", "2"))
	svc.Shutdown()

	require.Len(t, repo.batches, 1)
	rows := repo.rows()
	require.Len(t, rows, 2)
	first := rows[0]
	require.NotNil(t, first.UserID)
	assert.Equal(t, uint(4), *first.UserID)
	assert.Equal(t, domain.RoleNurse, first.UserRole)
	assert.Equal(t, "10.1.1.1", first.IPAddress)
	assert.Equal(t, "req-1", first.RequestID)
	assert.Equal(t, "diagnosis", first.ResourceType)
	assert.Nil(t, rows[1].UserID)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuditEntriesTotal))
}

func TestAuditService_FlushesFullBatches(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := &memAuditRepo{}
	svc := NewAuditService(repo, zap.NewNop(), nil, AuditOptions{BatchSize: 2, FlushInterval: time.Hour})

	for i := 0; i < 5; i++ {
		svc.LogAsync(context.Background(), AuditEntry{Action: domain.ActionCreate, ResourceType: "episode"})
	}
	svc.Shutdown()

	sizes := make([]int, 0, len(repo.batches))
	for _, b := range repo.batches {
		sizes = append(sizes, len(b))
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestAuditService_FlushesOnInterval(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := &memAuditRepo{}
	svc := NewAuditService(repo, zap.NewNop(), nil, AuditOptions{FlushInterval: 10 * time.Millisecond})
	defer svc.Shutdown()

	svc.LogAsync(context.Background(), AuditEntry{Action: domain.ActionDelete, ResourceType: "allergies", ResourceID: "3"})

	require.Eventually(t, func() bool { return len(repo.rows()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "3", repo.rows()[0].ResourceID)
}

func TestAuditService_DropsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := &memAuditRepo{block: make(chan struct{})}
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewAuditService(repo, zap.NewNop(), m, AuditOptions{BufferSize: 1, BatchSize: 1, FlushInterval: time.Hour})

	// At most one row is blocked in CreateBatch and one waits in the queue.
	for i := 0; i < 5; i++ {
		svc.LogAsync(context.Background(), AuditEntry{Action: domain.ActionRead, ResourceType: "episode"})
	}
	close(repo.block)
	svc.Shutdown()

	dropped := testutil.ToFloat64(m.AuditBufferDropped)
	assert.GreaterOrEqual(t, dropped, 3.0)
	assert.Equal(t, 5.0, dropped+float64(len(repo.rows())))
}

func TestAuditService_LogAfterShutdownIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := &memAuditRepo{}
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewAuditService(repo, zap.NewNop(), m, AuditOptions{})

	svc.LogAsync(context.Background(), AuditEntry{Action: domain.ActionCreate, ResourceType: "episode"})
	svc.Shutdown()

	assert.NotPanics(t, func() {
		svc.LogAsync(context.Background(), AuditEntry{Action: domain.ActionUpdate, ResourceType: "episode"})
	})
	svc.Shutdown()

	assert.Len(t, repo.rows(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditBufferDropped))
}
