// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/security"
	"bibliolab/internal/core/tx"
	"bibliolab/internal/domain/audit"
	"bibliolab/pkg/logger"
)

// LifecycleService provides CRUD and the soft-delete lifecycle for any entity
// implementing entity.HasLifecycle. Entity packages embed it and add their
// named queries.
type LifecycleService[T entity.HasLifecycle] struct {
	repo      Repository[T]
	txManager tx.Manager
	policy    security.MutationPolicy
	recorder  audit.Recorder
	hooks     *HookRegistry[T]
	clock     func() time.Time

	// entityName for error messages and audit records
	entityName string
}

// LifecycleServiceConfig configures the lifecycle service.
type LifecycleServiceConfig[T entity.HasLifecycle] struct {
	Repo       Repository[T]
	TxManager  tx.Manager
	Policy     security.MutationPolicy
	Recorder   audit.Recorder   // Optional, defaults to audit.Nop
	Clock      func() time.Time // Optional, defaults to time.Now
	EntityName string
}

// NewLifecycleService creates a new lifecycle service.
func NewLifecycleService[T entity.HasLifecycle](cfg LifecycleServiceConfig[T]) *LifecycleService[T] {
	s := &LifecycleService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		policy:     cfg.Policy,
		recorder:   cfg.Recorder,
		hooks:      NewHookRegistry[T](),
		clock:      cfg.Clock,
		entityName: cfg.EntityName,
	}
	if s.txManager == nil {
		s.txManager = tx.Nop{}
	}
	if s.recorder == nil {
		s.recorder = audit.Nop{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// Hooks returns the hook registry for external registration.
func (s *LifecycleService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// Now returns the service clock reading in UTC.
func (s *LifecycleService[T]) Now() time.Time {
	return s.clock().UTC()
}

// EntityName returns the name used in errors and audit records.
func (s *LifecycleService[T]) EntityName() string {
	return s.entityName
}

// TxManager exposes the transaction manager to embedding services.
func (s *LifecycleService[T]) TxManager() tx.Manager {
	return s.txManager
}

// Authorize checks the mutation policy for a record owned by ownerID.
func (s *LifecycleService[T]) Authorize(ctx context.Context, action security.Action, ownerID id.ID) error {
	return s.policy.Authorize(ctx, action, ownerID)
}

func (s *LifecycleService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *LifecycleService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", entityID.String())
}

func (s *LifecycleService[T]) record(ctx context.Context, action audit.Action, e T, snapshot any) error {
	return s.recorder.Record(ctx, audit.Event{
		EntityType: s.entityName,
		EntityID:   e.GetID(),
		Action:     action,
		ActorID:    appctx.GetUserID(ctx),
		OccurredAt: e.LifecycleState().UpdatedAt,
		Snapshot:   snapshot,
	})
}

// Create stores a new record. The acting user becomes the owner of Ownable records.
func (s *LifecycleService[T]) Create(ctx context.Context, e T) error {
	if owned, ok := any(e).(entity.Ownable); ok {
		if user := appctx.GetUser(ctx); user != nil {
			owned.AssignOwner(user.ID())
		}
	}
	e.LifecycleState().Stamp(s.Now())

	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return s.record(ctx, audit.ActionCreate, e, e)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterCreate, e); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "id", e.GetID(), "error", err)
	}

	logger.Info(ctx, "record created", "entity", s.entityName, "id", e.GetID())
	return nil
}

// GetByID retrieves a record visible in view.
func (s *LifecycleService[T]) GetByID(ctx context.Context, entityID id.ID, view View) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID, view)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID)
	}
	return e, nil
}

// List retrieves records with filtering.
func (s *LifecycleService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	if filter.View == "" {
		filter.View = ViewDefault
	}
	return s.repo.List(ctx, filter)
}

// Update applies mutate to an active record owned by the caller (or any record for admins).
// Soft-deleted records are not visible to updates and yield NotFound.
func (s *LifecycleService[T]) Update(ctx context.Context, entityID id.ID, mutate func(T) error) (T, error) {
	var updated T

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetForUpdate(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if e.LifecycleState().IsDeleted() {
			return apperror.NewNotFound(s.entityName, entityID.String())
		}
		if err := s.policy.Authorize(ctx, security.ActionUpdate, e.OwnerID()); err != nil {
			return err
		}

		if err := mutate(e); err != nil {
			return s.normalizeValidationErr(err)
		}
		if err := e.Validate(ctx); err != nil {
			return s.normalizeValidationErr(err)
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, e); err != nil {
			return err
		}

		e.LifecycleState().Touch(s.Now())
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		if err := s.record(ctx, audit.ActionUpdate, e, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return updated, err
	}

	if err := s.hooks.Run(ctx, AfterUpdate, updated); err != nil {
		logger.Warn(ctx, "after-update hook failed", "entity", s.entityName, "id", entityID, "error", err)
	}
	return updated, nil
}

// SoftDelete marks a record deleted. A second call on the same record fails with ALREADY_DELETED.
func (s *LifecycleService[T]) SoftDelete(ctx context.Context, entityID id.ID) error {
	var deleted T

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entityID, ViewAll)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if err := s.policy.Authorize(ctx, security.ActionDelete, e.OwnerID()); err != nil {
			return err
		}

		now := s.Now()
		if err := e.LifecycleState().MarkDeleted(now); err != nil {
			if errors.Is(err, entity.ErrAlreadyDeleted) {
				return apperror.NewAlreadyDeleted(s.entityName, entityID.String())
			}
			return err
		}

		// The repository re-checks deleted = false in the UPDATE itself, so a
		// concurrent delete that committed after our read still surfaces here.
		if err := s.repo.SoftDelete(ctx, entityID, now); err != nil {
			if apperror.IsAlreadyDeleted(err) {
				return apperror.NewAlreadyDeleted(s.entityName, entityID.String())
			}
			return s.normalizeGetErr(err, entityID)
		}
		if err := s.record(ctx, audit.ActionSoftDelete, e, e); err != nil {
			return err
		}
		deleted = e
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterDelete, deleted); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "entity", s.entityName, "id", entityID, "error", err)
	}

	logger.Info(ctx, "record soft-deleted", "entity", s.entityName, "id", entityID)
	return nil
}

// Restore returns a soft-deleted record to the default view.
// Restoring an active record is a no-op that returns it unchanged.
func (s *LifecycleService[T]) Restore(ctx context.Context, entityID id.ID) (T, error) {
	var (
		restored T
		changed  bool
	)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entityID, ViewAll)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if err := s.policy.Authorize(ctx, security.ActionRestore, e.OwnerID()); err != nil {
			return err
		}

		now := s.Now()
		changed, err = s.repo.Restore(ctx, entityID, now)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		restored = e
		if !changed {
			return nil
		}

		e.LifecycleState().Restore(now)
		return s.record(ctx, audit.ActionRestore, e, e)
	})
	if err != nil {
		return restored, err
	}

	if changed {
		if err := s.hooks.Run(ctx, AfterRestore, restored); err != nil {
			logger.Warn(ctx, "after-restore hook failed", "entity", s.entityName, "id", entityID, "error", err)
		}
		logger.Info(ctx, "record restored", "entity", s.entityName, "id", entityID)
	}
	return restored, nil
}

// HardDelete physically removes a record. Only callers allowed the hard_delete action may do this.
func (s *LifecycleService[T]) HardDelete(ctx context.Context, entityID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entityID, ViewAll)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if err := s.policy.Authorize(ctx, security.ActionHardDelete, e.OwnerID()); err != nil {
			return err
		}

		if err := s.repo.HardDelete(ctx, entityID); err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		e.LifecycleState().Touch(s.Now())
		return s.record(ctx, audit.ActionHardDelete, e, nil)
	})
	if err != nil {
		return err
	}

	logger.Warn(ctx, "record hard-deleted", "entity", s.entityName, "id", entityID)
	return nil
}
