package cascade

import (
	"context"
	"time"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/core/tx"
	"github.com/enxxi/v-board/pkg/logger"
)

// Notifier receives the blob URLs of tombstoned attachments. Called inside
// the deleting transaction so the hand-off commits atomically with the
// tombstones; the actual blob deletion happens later, outside the engine.
type Notifier interface {
	AttachmentsTombstoned(ctx context.Context, plan *Plan) error
}

// Recorder persists an audit record of an executed cascade, inside the
// same transaction. Tombstoned rows stay addressable by id; the record
// explains when and why they went away.
type Recorder interface {
	RecordCascade(ctx context.Context, plan *Plan, deletedAt time.Time) error
}

// Result reports what one Delete invocation did.
type Result struct {
	// AlreadyDeleted is true when the root was tombstoned before the call;
	// the invocation was an idempotent no-op.
	AlreadyDeleted bool

	// DeletedAt is the single timestamp written to every row.
	DeletedAt time.Time

	// Affected counts rows actually written (rows tombstoned concurrently
	// by another cascade are not counted).
	Affected int64

	Plan *Plan
}

// Engine is the cascading soft-delete facade: resolve the closure, then
// tombstone it in one transaction. The caller is trusted to have
// authorized the operation on the root entity.
type Engine struct {
	store     Store
	txManager tx.Manager
	notifier  Notifier
	recorder  Recorder
	now       func() time.Time
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithNotifier attaches the attachment blob hand-off.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithRecorder attaches the cascade audit recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithClock overrides the tombstone clock. Tests only.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine with explicit dependencies. The persistence
// handle always arrives here, never through package state.
func NewEngine(store Store, txManager tx.Manager, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		txManager: txManager,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Delete cascades a soft delete from the root entity. Either every row in
// the closure gets the same tombstone timestamp or none do.
//
// Failure modes: NOT_FOUND if the root never existed; RESOLUTION_FAILURE
// if the read phase fails (no side effects, retry as-is);
// TRANSACTION_FAILURE if the write phase or commit fails (rolled back,
// retryable). Deleting an already-tombstoned root succeeds without writes.
func (e *Engine) Delete(ctx context.Context, rootID id.ID, rootKind Kind) (*Result, error) {
	resolver := NewResolver(e.store)
	plan, err := resolver.Resolve(ctx, rootID, rootKind)
	if err != nil {
		return nil, err
	}

	if plan.Empty() {
		logger.Debug(ctx, "cascade skipped, root already tombstoned",
			"root_kind", string(rootKind),
			"root_id", rootID.String(),
		)
		return &Result{AlreadyDeleted: true, Plan: plan}, nil
	}

	deletedAt := e.now().UTC()
	applier := NewApplier(e.store)

	result := &Result{DeletedAt: deletedAt, Plan: plan}
	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		affected, err := applier.Apply(ctx, plan, deletedAt)
		if err != nil {
			return err
		}
		result.Affected = affected

		if e.notifier != nil && len(plan.Attachments) > 0 {
			if err := e.notifier.AttachmentsTombstoned(ctx, plan); err != nil {
				return err
			}
		}

		if e.recorder != nil {
			if err := e.recorder.RecordCascade(ctx, plan, deletedAt); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.NewTransactionFailure(err)
	}

	logger.Info(ctx, "cascade applied",
		"root_kind", string(rootKind),
		"root_id", rootID.String(),
		"rows", result.Affected,
		"planned", plan.Size(),
	)
	return result, nil
}
