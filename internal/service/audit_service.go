package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carebase/carebase/internal/domain"
	"github.com/carebase/carebase/pkg/metrics"
)

// RequestMeta carries transport-level request identity into audit entries.
// Handlers fill it from the request-id middleware and the client address.
type RequestMeta struct {
	RequestID string
	ClientIP  string
}

type AuditRepository interface {
	Save(ctx context.Context, entry *domain.AuditLog) error
}

// AuditService persists audit entries asynchronously so that audit I/O
// never sits on the request path.
type AuditService struct {
	repo      AuditRepository
	metrics   *metrics.Collector
	log       *zap.Logger
	entries   chan *domain.AuditLog
	done      chan struct{}
	closeOnce sync.Once
}

const auditBufferSize = 10_000

func NewAuditService(repo AuditRepository, collector *metrics.Collector, log *zap.Logger) *AuditService {
	svc := &AuditService{
		repo:    repo,
		metrics: collector,
		log:     log,
		entries: make(chan *domain.AuditLog, auditBufferSize),
		done:    make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// LogAsync enqueues an audit entry for async persistence.
// If the buffer is full, the entry is dropped and a warning is emitted.
func (s *AuditService) LogAsync(ctx context.Context, entry AuditEntry) {
	al := &domain.AuditLog{
		OccurredAt:   time.Now().UTC(),
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		RequestID:    entry.RequestID,
		ClientIP:     entry.ClientIP,
	}

	select {
	case s.entries <- al:
	default:
		s.metrics.AuditBufferDropped.Inc()
		s.log.Warn("audit log buffer full, dropping entry",
			zap.String("action", string(entry.Action)),
			zap.String("resource", entry.ResourceType),
		)
	}
}

// Shutdown stops accepting entries and waits for the worker to drain the
// buffer, giving up after a deadline. Safe to call more than once.
func (s *AuditService) Shutdown() {
	s.closeOnce.Do(func() { close(s.entries) })
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("audit service shutdown timed out; some entries may be lost")
	}
}

func (s *AuditService) worker() {
	defer close(s.done)
	for entry := range s.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Save(ctx, entry); err != nil {
			s.log.Error("failed to persist audit log", zap.Error(err))
		} else {
			s.metrics.AuditEntriesTotal.Inc()
		}
		cancel()
	}
}
