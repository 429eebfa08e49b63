package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saasvalidator/page-service/internal/logger"
	"github.com/saasvalidator/page-service/internal/metrics"
	"github.com/saasvalidator/page-service/internal/models"
	"github.com/saasvalidator/page-service/internal/service"
)

// memRepo is an in-memory PageRepository. The mutex stands in for the
// store's row-level atomicity: increments and conditional status updates
// are applied under it, exactly one winner per race.
type memRepo struct {
	mu    sync.Mutex
	pages map[uuid.UUID]*models.LandingPage
}

func newMemRepo() *memRepo {
	return &memRepo{pages: make(map[uuid.UUID]*models.LandingPage)}
}

func (r *memRepo) Create(_ context.Context, page *models.LandingPage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.pages {
		if existing.OwnerID == page.OwnerID && existing.Slug == page.Slug && existing.Active() {
			return models.ErrSlugConflict
		}
	}

	clone := *page
	r.pages[page.ID] = &clone
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*models.LandingPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, ok := r.pages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *page
	return &clone, nil
}

func (r *memRepo) GetBySlug(_ context.Context, ownerID uuid.UUID, slug string) (*models.LandingPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, page := range r.pages {
		if page.OwnerID == ownerID && page.Slug == slug && page.Active() {
			clone := *page
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.LandingPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pages := []models.LandingPage{}
	for _, page := range r.pages {
		if page.OwnerID == ownerID {
			pages = append(pages, *page)
		}
	}
	return pages, nil
}

func (r *memRepo) SlugExists(_ context.Context, ownerID uuid.UUID, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, page := range r.pages {
		if page.OwnerID == ownerID && page.Slug == slug && page.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) CountActiveByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, page := range r.pages {
		if page.OwnerID == ownerID && page.Active() {
			count++
		}
	}
	return count, nil
}

func (r *memRepo) UpdateTitle(_ context.Context, ownerID, id uuid.UUID, title string) (*models.LandingPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, ok := r.pages[id]
	if !ok || page.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	page.Title = title
	page.UpdatedAt = time.Now().UTC()
	clone := *page
	return &clone, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.Status, content *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, ok := r.pages[id]
	if !ok || page.Status != from {
		return false, nil
	}
	page.Status = to
	if content != nil {
		page.Content = *content
	}
	page.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *memRepo) IncrementCounter(_ context.Context, id uuid.UUID, kind models.EventKind, at time.Time) (*models.Analytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, ok := r.pages[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !page.Active() {
		return nil, models.ErrPageNotAcceptingEvents
	}

	switch kind {
	case models.EventKindView:
		page.Analytics.Views++
	case models.EventKindConversion:
		page.Analytics.Conversions++
	}
	if at.After(page.Analytics.LastUpdated) {
		page.Analytics.LastUpdated = at
	}

	snapshot := page.Analytics
	return &snapshot, nil
}

// allowAll is an Authorizer that admits everything.
type allowAll struct{}

func (allowAll) AuthorizeCreatePage(_ context.Context, _ uuid.UUID) error  { return nil }
func (allowAll) AuthorizeRecordEvent(_ context.Context, _ uuid.UUID) error { return nil }

// denyCreate denies page creation with a quota error.
type denyCreate struct{ allowAll }

func (denyCreate) AuthorizeCreatePage(_ context.Context, _ uuid.UUID) error {
	return models.ErrQuotaExceeded
}

func newTestService(repo service.PageRepository, auth service.Authorizer) *service.PageService {
	return service.NewPageService(repo, auth, metrics.NewNop(), logger.NewNop())
}

func TestPageService_CreatePage(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()

	page, err := svc.CreatePage(context.Background(), ownerID, "My Cool Idea!! ")
	require.NoError(t, err)

	assert.Equal(t, "my-cool-idea", page.Slug)
	assert.Equal(t, models.StatusDraft, page.Status)
	assert.Equal(t, ownerID, page.OwnerID)
	assert.Equal(t, "My Cool Idea!! ", page.Title)
}

func TestPageService_CreatePage_DuplicateTitle(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	first, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)
	second, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)

	assert.Equal(t, "launch", first.Slug)
	assert.Equal(t, "launch-2", second.Slug)
}

func TestPageService_CreatePage_SameSlugAcrossOwners(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ctx := context.Background()

	first, err := svc.CreatePage(ctx, uuid.New(), "Launch")
	require.NoError(t, err)
	second, err := svc.CreatePage(ctx, uuid.New(), "Launch")
	require.NoError(t, err)

	// Slug uniqueness is scoped per owner.
	assert.Equal(t, "launch", first.Slug)
	assert.Equal(t, "launch", second.Slug)
}

func TestPageService_CreatePage_EmptyTitle(t *testing.T) {
	t.Helper()

	svc := newTestService(newMemRepo(), allowAll{})

	_, err := svc.CreatePage(context.Background(), uuid.New(), "!!! ???")
	assert.ErrorIs(t, err, models.ErrInvalidTitle)
}

func TestPageService_CreatePage_QuotaDeniedIsNonMutating(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, denyCreate{})
	ownerID := uuid.New()

	_, err := svc.CreatePage(context.Background(), ownerID, "Launch")
	assert.ErrorIs(t, err, models.ErrQuotaExceeded)

	pages, listErr := svc.ListPages(context.Background(), ownerID)
	require.NoError(t, listErr)
	assert.Empty(t, pages, "denied creation must not insert a page")
}

func TestPageService_GenerationFailureReturnsToDraft(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Beta Waitlist")
	require.NoError(t, err)

	_, err = svc.StartGeneration(ctx, ownerID, page.ID)
	require.NoError(t, err)

	failed, err := svc.FailGeneration(ctx, ownerID, page.ID, "model timeout")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, failed.Status)

	// The page is back in draft, so analytics events are accepted again.
	snapshot, err := svc.RecordEvent(ctx, page.ID, models.EventKindView)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.Views)
}

func TestPageService_PublishFlow(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)

	_, err = svc.StartGeneration(ctx, ownerID, page.ID)
	require.NoError(t, err)

	published, err := svc.CompleteGeneration(ctx, ownerID, page.ID, "<h1>Launch</h1>")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Status)
	assert.Equal(t, "<h1>Launch</h1>", published.Content)

	unpublished, err := svc.Unpublish(ctx, ownerID, page.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, unpublished.Status)
}

func TestPageService_ArchivedPageRejectsEvents(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)

	_, err = svc.StartGeneration(ctx, ownerID, page.ID)
	require.NoError(t, err)
	_, err = svc.CompleteGeneration(ctx, ownerID, page.ID, "content")
	require.NoError(t, err)

	_, err = svc.RecordEvent(ctx, page.ID, models.EventKindView)
	require.NoError(t, err)

	_, err = svc.Archive(ctx, ownerID, page.ID)
	require.NoError(t, err)

	_, err = svc.RecordEvent(ctx, page.ID, models.EventKindView)
	assert.ErrorIs(t, err, models.ErrPageNotAcceptingEvents)

	stored, err := repo.GetByID(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Analytics.Views, "archived page counters must not change")
}

func TestPageService_ArchiveTwiceFails(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)

	_, err = svc.Archive(ctx, ownerID, page.ID)
	require.NoError(t, err)

	_, err = svc.Archive(ctx, ownerID, page.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestPageService_ArchivedSlugIsReclaimable(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)
	_, err = svc.Archive(ctx, ownerID, page.ID)
	require.NoError(t, err)

	replacement, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)
	assert.Equal(t, "launch", replacement.Slug)
}

func TestPageService_RecordEvent_Concurrent(t *testing.T) {
	t.Helper()

	const callers = 100

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errCh := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, recordErr := svc.RecordEvent(ctx, page.ID, models.EventKindView); recordErr != nil {
				errCh <- recordErr
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for recordErr := range errCh {
		t.Fatalf("RecordEvent() error = %v", recordErr)
	}

	stored, err := repo.GetByID(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(callers), stored.Analytics.Views, "no increment may be lost")
}

func TestPageService_RecordEvent_TimestampNeverMovesBackward(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)

	first, err := svc.RecordEvent(ctx, page.ID, models.EventKindView)
	require.NoError(t, err)

	second, err := svc.RecordEvent(ctx, page.ID, models.EventKindConversion)
	require.NoError(t, err)

	assert.False(t, second.LastUpdated.Before(first.LastUpdated))
}

func TestPageService_GetPage_HidesArchived(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)

	found, err := svc.GetPage(ctx, ownerID, "launch")
	require.NoError(t, err)
	assert.Equal(t, page.ID, found.ID)

	_, err = svc.Archive(ctx, ownerID, page.ID)
	require.NoError(t, err)

	_, err = svc.GetPage(ctx, ownerID, "launch")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPageService_OwnershipIsEnforced(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, uuid.New(), "Launch")
	require.NoError(t, err)

	_, err = svc.Archive(ctx, uuid.New(), page.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPageService_GenerationCallbacksEnforceOwnership(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)
	_, err = svc.StartGeneration(ctx, ownerID, page.ID)
	require.NoError(t, err)

	// Another authenticated user must not be able to publish content onto
	// or fail someone else's generating page.
	intruder := uuid.New()
	_, err = svc.CompleteGeneration(ctx, intruder, page.ID, "<h1>hijacked</h1>")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.FailGeneration(ctx, intruder, page.ID, "sabotage")
	assert.ErrorIs(t, err, models.ErrNotFound)

	current, err := svc.GetPageByID(ctx, ownerID, page.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerating, current.Status)
	assert.Empty(t, current.Content)

	published, err := svc.CompleteGeneration(ctx, ownerID, page.ID, "<h1>Launch</h1>")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Status)
}

func TestPageService_CompleteGeneration_RequiresContent(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)
	_, err = svc.StartGeneration(ctx, ownerID, page.ID)
	require.NoError(t, err)

	_, err = svc.CompleteGeneration(ctx, ownerID, page.ID, "")
	assert.ErrorIs(t, err, models.ErrMissingContent)

	// The page keeps waiting for a real result.
	current, err := svc.GetPageByID(ctx, ownerID, page.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerating, current.Status)
}

func TestPageService_StartGeneration_RequiresTitle(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)

	// Clear the title behind the service's back.
	repo.mu.Lock()
	repo.pages[page.ID].Title = ""
	repo.mu.Unlock()

	_, err = svc.StartGeneration(ctx, ownerID, page.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTitle)
}

func TestPageService_UpdateTitle_RequiresFields(t *testing.T) {
	t.Helper()

	repo := newMemRepo()
	svc := newTestService(repo, allowAll{})
	ownerID := uuid.New()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, ownerID, "Launch")
	require.NoError(t, err)

	_, err = svc.UpdateTitle(ctx, ownerID, page.ID, &models.PageUpdateRequest{})
	assert.ErrorIs(t, err, models.ErrNoFieldsToUpdate)

	title := "Relaunch"
	updated, err := svc.UpdateTitle(ctx, ownerID, page.ID, &models.PageUpdateRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Relaunch", updated.Title)
	assert.Equal(t, "launch", updated.Slug, "slug stays stable across renames")
}
