// Package plan enforces subscription tier ceilings before any side effect.
package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/saasvalidator/page-service/internal/config"
	"github.com/saasvalidator/page-service/internal/logger"
	"github.com/saasvalidator/page-service/internal/models"
)

// Limits is the resource ceiling for one tier. Zero or below = unlimited.
type Limits struct {
	MaxPages        int
	MaxEventsPerDay int64
}

// UserGetter resolves an owner to their account.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ActivePageCounter reports the owner's current non-archived page count.
type ActivePageCounter interface {
	CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

// EventCounter accumulates the owner's event volume for the current period.
type EventCounter interface {
	Increment(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// Enforcer admits or rejects requests against the plan tier table.
// Rejections never mutate page or user state; the period event counter is
// enforcement bookkeeping and counts denied attempts like any rate limiter.
type Enforcer struct {
	users  UserGetter
	pages  ActivePageCounter
	events EventCounter
	limits map[models.Plan]Limits
	logger logger.Logger
}

// NewEnforcer creates an Enforcer from the configured tier table.
func NewEnforcer(
	users UserGetter,
	pages ActivePageCounter,
	events EventCounter,
	planTable map[string]config.PlanLimits,
	log logger.Logger,
) *Enforcer {
	limits := make(map[models.Plan]Limits, len(planTable))
	for name, l := range planTable {
		limits[models.Plan(name)] = Limits{
			MaxPages:        l.MaxPages,
			MaxEventsPerDay: l.MaxEventsPerDay,
		}
	}

	return &Enforcer{
		users:  users,
		pages:  pages,
		events: events,
		limits: limits,
		logger: log,
	}
}

// AuthorizeCreatePage admits a page creation request. It denies with
// models.ErrQuotaExceeded once the owner's active page count has reached
// the tier ceiling, and with models.ErrUnknownOwner when the owner cannot
// be resolved.
func (e *Enforcer) AuthorizeCreatePage(ctx context.Context, ownerID uuid.UUID) error {
	limits, err := e.resolveLimits(ctx, ownerID)
	if err != nil {
		return err
	}

	if limits.MaxPages <= 0 {
		return nil
	}

	active, err := e.pages.CountActiveByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("count active pages: %w", err)
	}

	if active >= limits.MaxPages {
		e.logger.Info("Page creation denied by plan ceiling",
			logger.String("owner_id", ownerID.String()),
			logger.Int("active_pages", active),
			logger.Int("max_pages", limits.MaxPages),
		)
		return models.ErrQuotaExceeded
	}

	return nil
}

// AuthorizeRecordEvent admits an analytics event for the owner, bumping
// their period counter. It denies with models.ErrQuotaExceeded above the
// tier ceiling.
func (e *Enforcer) AuthorizeRecordEvent(ctx context.Context, ownerID uuid.UUID) error {
	limits, err := e.resolveLimits(ctx, ownerID)
	if err != nil {
		return err
	}

	if limits.MaxEventsPerDay <= 0 {
		return nil
	}

	count, err := e.events.Increment(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("track event volume: %w", err)
	}

	if count > limits.MaxEventsPerDay {
		return models.ErrQuotaExceeded
	}

	return nil
}

// resolveLimits looks up the owner and returns their tier ceiling.
func (e *Enforcer) resolveLimits(ctx context.Context, ownerID uuid.UUID) (Limits, error) {
	user, err := e.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Limits{}, models.ErrUnknownOwner
		}
		return Limits{}, fmt.Errorf("resolve owner: %w", err)
	}

	limits, ok := e.limits[user.Plan]
	if !ok {
		// Unknown tiers fall back to the free ceiling rather than
		// granting unlimited resources.
		e.logger.Warn("Owner has unconfigured plan tier",
			logger.String("owner_id", ownerID.String()),
			logger.String("plan", string(user.Plan)),
		)
		limits = e.limits[models.PlanFree]
	}

	return limits, nil
}
