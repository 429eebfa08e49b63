package plan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/saasvalidator/page-service/internal/config"
	"github.com/saasvalidator/page-service/internal/logger"
	"github.com/saasvalidator/page-service/internal/models"
	"github.com/saasvalidator/page-service/internal/plan"
)

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return user, nil
}

type fakePageCounter struct {
	count int
}

func (f *fakePageCounter) CountActiveByOwner(_ context.Context, _ uuid.UUID) (int, error) {
	return f.count, nil
}

type fakeEventCounter struct {
	count int64
}

func (f *fakeEventCounter) Increment(_ context.Context, _ uuid.UUID) (int64, error) {
	f.count++
	return f.count, nil
}

func testPlanTable() map[string]config.PlanLimits {
	return map[string]config.PlanLimits{
		"free": {MaxPages: 3, MaxEventsPerDay: 5},
		"pro":  {MaxPages: 25, MaxEventsPerDay: 100000},
		"team": {MaxPages: 0, MaxEventsPerDay: 0},
	}
}

func newEnforcer(
	users *fakeUsers,
	pages *fakePageCounter,
	events *fakeEventCounter,
) *plan.Enforcer {
	return plan.NewEnforcer(users, pages, events, testPlanTable(), logger.NewNop())
}

func TestEnforcer_AuthorizeCreatePage_Ceiling(t *testing.T) {
	t.Helper()

	ownerID := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		ownerID: {ID: ownerID, Plan: models.PlanFree},
	}}

	testCases := []struct {
		name    string
		active  int
		wantErr error
	}{
		{name: "one below ceiling allows", active: 2},
		{name: "at ceiling denies", active: 3, wantErr: models.ErrQuotaExceeded},
		{name: "above ceiling denies", active: 4, wantErr: models.ErrQuotaExceeded},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enforcer := newEnforcer(users, &fakePageCounter{count: tc.active}, &fakeEventCounter{})

			err := enforcer.AuthorizeCreatePage(context.Background(), ownerID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("AuthorizeCreatePage() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestEnforcer_AuthorizeCreatePage_UnlimitedTier(t *testing.T) {
	t.Helper()

	ownerID := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		ownerID: {ID: ownerID, Plan: models.PlanTeam},
	}}

	// A huge active count must never deny an unlimited tier.
	enforcer := newEnforcer(users, &fakePageCounter{count: 1000000}, &fakeEventCounter{})

	if err := enforcer.AuthorizeCreatePage(context.Background(), ownerID); err != nil {
		t.Errorf("AuthorizeCreatePage() error = %v, want nil for team tier", err)
	}
}

func TestEnforcer_AuthorizeCreatePage_UnknownOwner(t *testing.T) {
	t.Helper()

	enforcer := newEnforcer(&fakeUsers{users: map[uuid.UUID]*models.User{}},
		&fakePageCounter{}, &fakeEventCounter{})

	err := enforcer.AuthorizeCreatePage(context.Background(), uuid.New())
	if !errors.Is(err, models.ErrUnknownOwner) {
		t.Errorf("AuthorizeCreatePage() error = %v, want ErrUnknownOwner", err)
	}
}

func TestEnforcer_AuthorizeRecordEvent_Ceiling(t *testing.T) {
	t.Helper()

	ownerID := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		ownerID: {ID: ownerID, Plan: models.PlanFree},
	}}

	events := &fakeEventCounter{}
	enforcer := newEnforcer(users, &fakePageCounter{}, events)
	ctx := context.Background()

	// Free tier allows 5 events per period.
	for i := 0; i < 5; i++ {
		if err := enforcer.AuthorizeRecordEvent(ctx, ownerID); err != nil {
			t.Fatalf("AuthorizeRecordEvent() #%d error = %v, want nil", i+1, err)
		}
	}

	if err := enforcer.AuthorizeRecordEvent(ctx, ownerID); !errors.Is(err, models.ErrQuotaExceeded) {
		t.Errorf("AuthorizeRecordEvent() #6 error = %v, want ErrQuotaExceeded", err)
	}
}

func TestEnforcer_AuthorizeRecordEvent_UnlimitedTierSkipsCounting(t *testing.T) {
	t.Helper()

	ownerID := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		ownerID: {ID: ownerID, Plan: models.PlanTeam},
	}}

	events := &fakeEventCounter{}
	enforcer := newEnforcer(users, &fakePageCounter{}, events)

	if err := enforcer.AuthorizeRecordEvent(context.Background(), ownerID); err != nil {
		t.Fatalf("AuthorizeRecordEvent() error = %v, want nil for team tier", err)
	}
	if events.count != 0 {
		t.Errorf("event counter = %d, want 0 for unlimited tier", events.count)
	}
}

func TestEnforcer_UnconfiguredPlanFallsBackToFree(t *testing.T) {
	t.Helper()

	ownerID := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		ownerID: {ID: ownerID, Plan: models.Plan("legacy")},
	}}

	enforcer := newEnforcer(users, &fakePageCounter{count: 3}, &fakeEventCounter{})

	err := enforcer.AuthorizeCreatePage(context.Background(), ownerID)
	if !errors.Is(err, models.ErrQuotaExceeded) {
		t.Errorf("AuthorizeCreatePage() error = %v, want free-tier ErrQuotaExceeded", err)
	}
}
