// Package service implements the landing page lifecycle, slug allocation
// and analytics orchestration.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saasvalidator/page-service/internal/logger"
	"github.com/saasvalidator/page-service/internal/metrics"
	"github.com/saasvalidator/page-service/internal/models"
	"github.com/saasvalidator/page-service/internal/slug"
)

// PageRepository is the store contract the service operates against.
// All row mutations are single conditional statements executed by the
// store, so the landing page row is the unit of mutual exclusion.
type PageRepository interface {
	Create(ctx context.Context, page *models.LandingPage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LandingPage, error)
	GetBySlug(ctx context.Context, ownerID uuid.UUID, slug string) (*models.LandingPage, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.LandingPage, error)
	SlugExists(ctx context.Context, ownerID uuid.UUID, slug string) (bool, error)
	UpdateTitle(ctx context.Context, ownerID, id uuid.UUID, title string) (*models.LandingPage, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, content *string) (bool, error)
	IncrementCounter(ctx context.Context, id uuid.UUID, kind models.EventKind, at time.Time) (*models.Analytics, error)
}

// Authorizer admits requests against plan ceilings. It runs before any
// side effect; a denial leaves page state untouched.
type Authorizer interface {
	AuthorizeCreatePage(ctx context.Context, ownerID uuid.UUID) error
	AuthorizeRecordEvent(ctx context.Context, ownerID uuid.UUID) error
}

// PageService coordinates plan enforcement, slug allocation, the status
// state machine and analytics aggregation.
type PageService struct {
	pages     PageRepository
	enforcer  Authorizer
	allocator *slug.Allocator
	metrics   *metrics.Metrics
	logger    logger.Logger
	now       func() time.Time
}

// NewPageService creates a PageService.
func NewPageService(
	pages PageRepository,
	enforcer Authorizer,
	m *metrics.Metrics,
	log logger.Logger,
) *PageService {
	return &PageService{
		pages:     pages,
		enforcer:  enforcer,
		allocator: slug.NewAllocator(pages),
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

// CreatePage creates a draft page for the owner. The plan ceiling is
// checked first, then a slug is allocated from the title. A slug conflict
// caused by a concurrent insert surfaces as models.ErrSlugConflict; the
// caller decides whether to retry.
func (s *PageService) CreatePage(ctx context.Context, ownerID uuid.UUID, title string) (*models.LandingPage, error) {
	if err := s.enforcer.AuthorizeCreatePage(ctx, ownerID); err != nil {
		if errors.Is(err, models.ErrQuotaExceeded) {
			s.metrics.QuotaDenials.WithLabelValues("create_page").Inc()
		}
		return nil, err
	}

	pageSlug, err := s.allocator.Allocate(ctx, ownerID, title)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	page := &models.LandingPage{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   title,
		Slug:    pageSlug,
		Status:  models.StatusDraft,
		Analytics: models.Analytics{
			LastUpdated: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.pages.Create(ctx, page); err != nil {
		return nil, err
	}

	s.metrics.PagesCreated.Inc()
	s.logger.Info("Landing page created",
		logger.String("page_id", page.ID.String()),
		logger.String("owner_id", ownerID.String()),
		logger.String("slug", pageSlug),
	)

	return page, nil
}

// StartGeneration moves an owner's draft page into generating so the
// content pipeline can pick it up.
func (s *PageService) StartGeneration(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error) {
	page, err := s.getOwnedPage(ctx, ownerID, pageID)
	if err != nil {
		return nil, err
	}

	if page.Title == "" {
		return nil, models.ErrInvalidTitle
	}

	return s.transition(ctx, page, models.EventStartGeneration, nil)
}

// CompleteGeneration publishes a generating page with the content the
// pipeline produced on the owner's behalf. This is the sole writer of page
// content; a result without content cannot be published.
func (s *PageService) CompleteGeneration(ctx context.Context, ownerID, pageID uuid.UUID, content string) (*models.LandingPage, error) {
	if content == "" {
		return nil, models.ErrMissingContent
	}

	page, err := s.getOwnedPage(ctx, ownerID, pageID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, page, models.EventGenerationSucceeded, &content)
}

// FailGeneration returns the owner's generating page to draft.
func (s *PageService) FailGeneration(ctx context.Context, ownerID, pageID uuid.UUID, reason string) (*models.LandingPage, error) {
	page, err := s.getOwnedPage(ctx, ownerID, pageID)
	if err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, page, models.EventGenerationFailed, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Warn("Content generation failed",
		logger.String("page_id", pageID.String()),
		logger.String("reason", reason),
	)
	return updated, nil
}

// Archive soft-deletes an owner's page. The slug becomes reclaimable and
// the page stops accepting analytics events.
func (s *PageService) Archive(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error) {
	page, err := s.getOwnedPage(ctx, ownerID, pageID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, page, models.EventArchive, nil)
}

// Unpublish takes an owner's published page back to draft.
func (s *PageService) Unpublish(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error) {
	page, err := s.getOwnedPage(ctx, ownerID, pageID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, page, models.EventUnpublish, nil)
}

// transition evaluates the state machine against the freshly read page and
// applies the result with an update conditioned on the previous status.
// Losing that condition means another transition won the race, which is
// reported as models.ErrInvalidTransition against the page's new state.
func (s *PageService) transition(
	ctx context.Context,
	page *models.LandingPage,
	event models.Event,
	content *string,
) (*models.LandingPage, error) {
	next, err := page.Status.Apply(event)
	if err != nil {
		return nil, err
	}

	applied, err := s.pages.UpdateStatus(ctx, page.ID, page.Status, next, content)
	if err != nil {
		return nil, err
	}
	if !applied {
		if _, readErr := s.pages.GetByID(ctx, page.ID); readErr != nil {
			return nil, readErr
		}
		return nil, models.ErrInvalidTransition
	}

	s.metrics.Transitions.WithLabelValues(string(event)).Inc()

	page.Status = next
	if content != nil {
		page.Content = *content
	}
	page.UpdatedAt = s.now().UTC()
	return page, nil
}

// RecordEvent counts one view or conversion against the page. Archived
// pages reject events before any quota counting; the increment itself is a
// server-side atomic add, so concurrent events are never lost.
func (s *PageService) RecordEvent(ctx context.Context, pageID uuid.UUID, kind models.EventKind) (*models.Analytics, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown event kind %q", models.ErrNotFound, kind)
	}

	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if !page.Active() {
		return nil, models.ErrPageNotAcceptingEvents
	}

	if err := s.enforcer.AuthorizeRecordEvent(ctx, page.OwnerID); err != nil {
		if errors.Is(err, models.ErrQuotaExceeded) {
			s.metrics.QuotaDenials.WithLabelValues("record_event").Inc()
		}
		return nil, err
	}

	snapshot, err := s.pages.IncrementCounter(ctx, pageID, kind, s.now().UTC())
	if err != nil {
		return nil, err
	}

	// Soft invariant: conversions exceeding views is permitted but worth
	// flagging for the analytics dashboard.
	if snapshot.Conversions > snapshot.Views {
		s.logger.Warn("Conversions exceed views",
			logger.String("page_id", pageID.String()),
			logger.Int64("views", snapshot.Views),
			logger.Int64("conversions", snapshot.Conversions),
		)
	}

	s.metrics.AnalyticsEvents.WithLabelValues(string(kind)).Inc()
	return snapshot, nil
}

// GetPage is the public lookup used by the rendering layer. Archived pages
// are not returned.
func (s *PageService) GetPage(ctx context.Context, ownerID uuid.UUID, pageSlug string) (*models.LandingPage, error) {
	return s.pages.GetBySlug(ctx, ownerID, pageSlug)
}

// GetPageByID returns one of the owner's pages for the dashboard.
func (s *PageService) GetPageByID(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error) {
	return s.getOwnedPage(ctx, ownerID, pageID)
}

// ListPages returns all of the owner's pages, archived included.
func (s *PageService) ListPages(ctx context.Context, ownerID uuid.UUID) ([]models.LandingPage, error) {
	return s.pages.ListByOwner(ctx, ownerID)
}

// UpdateTitle renames an owner's page. The slug is not re-derived; it
// stays stable for published URLs.
func (s *PageService) UpdateTitle(ctx context.Context, ownerID, pageID uuid.UUID, req *models.PageUpdateRequest) (*models.LandingPage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.pages.UpdateTitle(ctx, ownerID, pageID, *req.Title)
}

// getOwnedPage loads a page and hides it from non-owners.
func (s *PageService) getOwnedPage(ctx context.Context, ownerID, pageID uuid.UUID) (*models.LandingPage, error) {
	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return page, nil
}
