package sync

import (
	"context"
	"errors"
	stdsync "sync"

	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is triggered while another run
// against the same list is still active. The engine is not reentrant-safe.
var ErrRunInProgress = errors.New("a sync run is already in progress")

// ErrArchivalDisabled is returned by the report accessors when no archiver
// is configured.
var ErrArchivalDisabled = errors.New("run report archival is disabled")

// Service exposes the engine to the CLI and the HTTP surface, guards
// against overlapping runs, and remembers the last result for the status
// endpoint.
type Service struct {
	engine   *Engine
	archiver *Archiver // nil when report archival is disabled
	logger   *zap.Logger

	mu      stdsync.Mutex
	running bool
	last    *Result
}

// NewService wires a sync service. archiver may be nil.
func NewService(engine *Engine, archiver *Archiver, logger *zap.Logger) *Service {
	return &Service{engine: engine, archiver: archiver, logger: logger}
}

// Run performs one reconciliation run. The returned Result is non-nil even
// on aggregate failure; err is non-nil for fatal errors, aggregate partial
// failures, and overlapping triggers.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	result, err := s.engine.Run(ctx)
	if result != nil {
		s.mu.Lock()
		s.last = result
		s.mu.Unlock()

		if s.archiver != nil {
			// A failed archive never fails the run; the report also lives
			// in the result and the logs.
			if object, archiveErr := s.archiver.Archive(ctx, result); archiveErr != nil {
				s.logger.Warn("Failed to archive run report", zap.Error(archiveErr))
			} else {
				s.logger.Info("Archived run report", zap.String("object", object))
			}
		}
	}
	return result, err
}

// LastResult returns the most recent run's result, or nil before any run.
func (s *Service) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Reports lists the archived run reports.
func (s *Service) Reports(ctx context.Context) ([]string, error) {
	if s.archiver == nil {
		return nil, ErrArchivalDisabled
	}
	return s.archiver.List(ctx)
}

// Report returns one archived run report by name.
func (s *Service) Report(ctx context.Context, name string) ([]byte, error) {
	if s.archiver == nil {
		return nil, ErrArchivalDisabled
	}
	return s.archiver.Fetch(ctx, name)
}
