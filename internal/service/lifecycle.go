package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/townsquareapp/townsquare-server/internal/domain"
	"github.com/townsquareapp/townsquare-server/internal/errors"
	"github.com/townsquareapp/townsquare-server/internal/store"
)

// LifecycleService drives content status and visibility from creation
// defaults, owner actions, and billing events. Visibility is a coupled
// attribute of status transitions, not a state machine of its own.
//
// Every transition persists through the optimistic save: a transition
// racing a concurrent edit fails with CONFLICT and the caller retries
// against a freshly read version. Nothing is retried here — retrying a
// billing event could double-apply it.
type LifecycleService struct {
	store   store.Store
	archive store.ArchiveLog
	logger  *slog.Logger
}

// NewLifecycleService creates a new lifecycle service.
func NewLifecycleService(store store.Store, archive store.ArchiveLog, logger *slog.Logger) *LifecycleService {
	return &LifecycleService{
		store:   store,
		archive: archive,
		logger:  logger,
	}
}

// InitialState returns the status and visibility a freshly created
// record starts in. Paid categories wait restricted until billing
// confirms a subscription.
func (s *LifecycleService) InitialState(category domain.Category) (domain.Status, domain.Visibility) {
	if category.Paid() {
		return domain.StatusRequiresActiveSubscription, domain.VisibilityRestricted
	}
	return domain.StatusActive, domain.VisibilityPublic
}

// OnPaymentConfirmed handles the billing collaborator's payment
// confirmation: the record goes live. Already-active records are a
// no-op; any other state is not a defined transition.
func (s *LifecycleService) OnPaymentConfirmed(ctx context.Context, contentID string) (*domain.Content, error) {
	return s.transition(ctx, contentID, "payment confirmed", func(c *domain.Content) error {
		switch c.Status {
		case domain.StatusActive:
			return nil
		case domain.StatusRequiresActiveSubscription:
			c.Status = domain.StatusActive
			c.Visibility = domain.VisibilityPublic
			return nil
		default:
			return errors.InvalidTransitionf("payment confirmation is not defined for status %s", c.Status)
		}
	})
}

// OnPaymentFailed handles a failed payment: the record is flagged from
// any state, visibility untouched.
func (s *LifecycleService) OnPaymentFailed(ctx context.Context, contentID string) (*domain.Content, error) {
	return s.transition(ctx, contentID, "payment failed", func(c *domain.Content) error {
		c.Status = domain.StatusPaymentFailed
		return nil
	})
}

// OnSubscriptionCanceled handles a canceled or deleted subscription:
// the record returns to awaiting payment and drops out of public view,
// from any state.
func (s *LifecycleService) OnSubscriptionCanceled(ctx context.Context, contentID string) (*domain.Content, error) {
	return s.transition(ctx, contentID, "subscription canceled", func(c *domain.Content) error {
		c.Status = domain.StatusRequiresActiveSubscription
		c.Visibility = domain.VisibilityRestricted
		return nil
	})
}

// Cancel is the owner-facing manual cancellation. Only active records
// can be cancelled; visibility is untouched. A snapshot is archived
// before the transition — archive failure is logged, never surfaced.
func (s *LifecycleService) Cancel(ctx context.Context, actorID, contentID string) (*domain.Content, error) {
	return s.transition(ctx, contentID, "cancel", func(c *domain.Content) error {
		if !c.IsAdministrator(actorID) {
			return errors.Forbidden("you do not have permission to cancel this content")
		}
		switch c.Status {
		case domain.StatusCancelled:
			return nil
		case domain.StatusActive:
			s.archiveSnapshot(ctx, c)
			c.Status = domain.StatusCancelled
			c.Touch(actorID)
			return nil
		default:
			return errors.InvalidTransitionf("cannot cancel content with status %s", c.Status)
		}
	})
}

// Reactivate undoes a manual cancellation. Legal only from CANCELLED;
// reactivating from EXPIRED or PAYMENT_FAILED is not a defined
// transition. Visibility is untouched.
func (s *LifecycleService) Reactivate(ctx context.Context, actorID, contentID string) (*domain.Content, error) {
	return s.transition(ctx, contentID, "reactivate", func(c *domain.Content) error {
		if !c.IsAdministrator(actorID) {
			return errors.Forbidden("you do not have permission to reactivate this content")
		}
		switch c.Status {
		case domain.StatusActive:
			return nil
		case domain.StatusCancelled:
			c.Status = domain.StatusActive
			c.Touch(actorID)
			return nil
		default:
			return errors.InvalidTransitionf("cannot reactivate content with status %s", c.Status)
		}
	})
}

// transition loads the record, applies mutate, and saves with the version
// it was read at. A mutate that leaves status and visibility unchanged is
// an idempotent success: nothing is written.
func (s *LifecycleService) transition(ctx context.Context, contentID, trigger string, mutate func(*domain.Content) error) (*domain.Content, error) {
	c, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	before, beforeVis := c.Status, c.Visibility
	if err := mutate(c); err != nil {
		return nil, err
	}
	if c.Status == before && c.Visibility == beforeVis {
		return c, nil
	}

	if err := s.store.SaveContent(ctx, c); err != nil {
		return nil, mapStoreError(err)
	}

	s.logger.Info("content lifecycle transition",
		"content_id", c.ID,
		"trigger", trigger,
		"from_status", before,
		"to_status", c.Status,
		"from_visibility", beforeVis,
		"to_visibility", c.Visibility,
	)
	return c, nil
}

// archiveSnapshot appends an immutable snapshot to the audit log.
// Best-effort: failure is logged and never blocks the primary mutation.
func (s *LifecycleService) archiveSnapshot(ctx context.Context, c *domain.Content) {
	rec := domain.NewArchiveRecord(uuid.NewString(), c)
	if err := s.archive.Append(ctx, rec); err != nil {
		s.logger.Warn("archive write failed",
			"content_id", c.ID,
			"error", err,
		)
	}
}

// mapStoreError translates store sentinels into domain errors.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errors.NotFound("content not found").WithCause(err)
	case errors.Is(err, store.ErrVersionConflict):
		return errors.Conflict("content was modified concurrently, re-read and retry").WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return errors.AlreadyExists("content already exists").WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return errors.Validation("invalid request parameters").WithCause(err)
	default:
		return err
	}
}
