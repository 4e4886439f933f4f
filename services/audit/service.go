package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/endpoint-authz/authz"
	"github.com/upb/endpoint-authz/middleware"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/repositories"
	"github.com/upb/endpoint-authz/services"
	"go.uber.org/zap"
)

// AuditEvent represents an event to be audited
type AuditEvent struct {
	Log *models.AuditLog
}

// AuditService handles asynchronous audit logging
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting events and waits for queued ones to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return services.ErrAuditStopped
	}
	s.stopped = true
	pending := len(s.eventChan)
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking.
// It returns ErrAuditBufferFull when the queue is full.
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return services.ErrAuditStopped
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)),
			zap.String("operation", event.Log.Operation))
		return services.ErrAuditBufferFull
	}
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)),
				zap.String("operation", event.Log.Operation))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// Callback records one endpoint_call entry per authorized or forbidden call.
// A full buffer surfaces to the caller as ErrAuditBufferFull.
func (s *AuditService) Callback() authz.Callback[models.Session] {
	return func(ctx context.Context, info authz.EndpointInfo, session models.Session) error {
		client := middleware.GetClientInfoFromContext(ctx)
		log := models.NewAuditLog(models.AuditActionEndpointCall, info.ServiceID, info.OperationID()).
			WithSession(session).
			WithRequest(client.RequestID, client.IPAddress, client.UserAgent)
		if hints := info.Hints(); len(hints) > 0 {
			log.WithDetails(map[string]interface{}{"hints": hints})
		}
		return s.LogEvent(&AuditEvent{Log: log})
	}
}

// LogTokenIssued records that a development token was minted for subject
func (s *AuditService) LogTokenIssued(ctx context.Context, subject string, roles []models.UserRole) error {
	client := middleware.GetClientInfoFromContext(ctx)
	log := models.NewAuditLog(models.AuditActionTokenIssued, "auth", "auth.IssueToken").
		WithSession(models.Authenticated(subject, "", roles...)).
		WithRequest(client.RequestID, client.IPAddress, client.UserAgent).
		WithDetails(map[string]interface{}{"roles": roles})
	return s.LogEvent(&AuditEvent{Log: log})
}
