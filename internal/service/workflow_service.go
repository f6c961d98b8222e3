package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/internal/repository"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
)

type snapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
	Close() error
}

type eventSink interface {
	Dispatch(ctx context.Context, events ...models.WorkflowEvent) error
}

var (
	approverRoles  = []models.UserRole{models.RoleManager, models.RoleAdmin}
	collectorRoles = []models.UserRole{models.RoleCollector, models.RoleManager, models.RoleAdmin}
	adminRoles     = []models.UserRole{models.RoleAdmin}
)

// WorkflowService is the lease, vacate, ledger and administration engine. Every
// mutating call is a serialized load, validate, mutate, check, save cycle on a
// private copy of the snapshot; nothing is written unless all steps succeed.
type WorkflowService struct {
	store     snapshotStore
	cache     *CacheService
	events    eventSink
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	now   func() time.Time
	newID func() string

	mu sync.Mutex
}

// NewWorkflowService wires the engine. cache, events and metrics may be nil.
func NewWorkflowService(store snapshotStore, cache *CacheService, events eventSink, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WorkflowService{
		store:     store,
		cache:     cache,
		events:    events,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Init verifies the store is reachable and its contents are consistent.
func (s *WorkflowService) Init(ctx context.Context) error {
	snapshot, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := snapshot.CheckInvariants(); err != nil {
		s.logger.Error("stored snapshot is inconsistent", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored snapshot is inconsistent")
	}
	s.metrics.RecordWorkflow("init", "ok", snapshot.Version)
	s.logger.Info("workflow engine ready", zap.Int64("version", snapshot.Version), zap.Int("houses", len(snapshot.Houses)))
	return nil
}

// Close releases the store.
func (s *WorkflowService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}

// GetSnapshot returns the full current state, from cache when available.
func (s *WorkflowService) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, hit := s.cache.Lookup(ctx); hit {
		return cached, nil
	}
	snapshot, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Store(ctx, snapshot)
	return snapshot, nil
}

func (s *WorkflowService) load(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()
	snapshot, err := s.store.Load(ctx)
	s.metrics.ObserveStore("load", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load state")
	}
	snapshot.Normalize()
	return snapshot, nil
}

type mutation func(working *models.Snapshot) ([]models.WorkflowEvent, error)

// mutate runs fn against a copy of the current snapshot and commits the copy.
// The returned snapshot is the committed state and is owned by the caller.
func (s *WorkflowService) mutate(ctx context.Context, op string, actor models.Actor, fn mutation) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		s.metrics.RecordWorkflow(op, appErrors.ErrInternal.Code, 0)
		return nil, err
	}
	working := current.Clone()

	events, err := fn(working)
	if err != nil {
		s.metrics.RecordWorkflow(op, appErrors.FromError(err).Code, current.Version)
		return nil, err
	}
	if err := working.CheckInvariants(); err != nil {
		s.logger.Error("mutation rejected by invariant check", zap.String("operation", op), zap.Error(err))
		s.metrics.RecordWorkflow(op, appErrors.ErrInternal.Code, current.Version)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "operation would leave state inconsistent")
	}

	start := time.Now()
	err = s.store.Save(ctx, working)
	s.metrics.ObserveStore("save", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrStaleSnapshot) {
			s.metrics.RecordWorkflow(op, appErrors.ErrConflict.Code, current.Version)
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "state changed concurrently, retry the operation")
		}
		s.metrics.RecordWorkflow(op, appErrors.ErrInternal.Code, current.Version)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save state")
	}

	s.afterCommit(ctx, op, actor, working, events)
	return working, nil
}

func (s *WorkflowService) afterCommit(ctx context.Context, op string, actor models.Actor, committed *models.Snapshot, events []models.WorkflowEvent) {
	s.metrics.RecordWorkflow(op, "ok", committed.Version)
	s.logger.Info("workflow committed",
		zap.String("operation", op),
		zap.String("actor", actor.UserID),
		zap.Int64("version", committed.Version),
	)

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("snapshot cache not invalidated", zap.String("operation", op), zap.Error(err))
	}

	if s.events == nil || len(events) == 0 {
		return
	}
	ts := s.now()
	for i := range events {
		events[i].ID = s.newID()
		events[i].ActorID = actor.UserID
		events[i].Version = committed.Version
		events[i].OccurredAt = ts
	}
	if err := s.events.Dispatch(ctx, events...); err != nil {
		s.logger.Warn("workflow events not dispatched", zap.String("operation", op), zap.Error(err))
	}
}

func (s *WorkflowService) validate(payload interface{}, message string) error {
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

func requireAuthenticated(actor models.Actor) error {
	if actor.UserID == "" || !actor.Role.Valid() {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	return nil
}

func requireRole(actor models.Actor, roles ...models.UserRole) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.HasRole(roles...) {
		return appErrors.Clone(appErrors.ErrForbidden, "role "+string(actor.Role)+" is not permitted to perform this operation")
	}
	return nil
}

func event(t models.EventType, entityID string, attrs map[string]string) models.WorkflowEvent {
	return models.WorkflowEvent{Type: t, EntityID: entityID, Attributes: attrs}
}

func stringPtr(v string) *string {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}
