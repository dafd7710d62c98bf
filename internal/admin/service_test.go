package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jredh-dev/lostfound/internal/claims"
	"github.com/jredh-dev/lostfound/internal/items"
	"github.com/jredh-dev/lostfound/pkg/models"
)

func newOfflineAdmin(t *testing.T) *Service {
	t.Helper()
	offline := items.NewOffline(nil)
	return NewService(items.NewService(offline, offline, "", nil), claims.NewService(nil, nil, nil, nil))
}

func TestDashboard(t *testing.T) {
	d := newOfflineAdmin(t).Dashboard()
	assert.InDelta(t, 0.68, d.ClaimRate, 1e-9)
	assert.Equal(t, 24, d.ItemsLast7Days)
	assert.Equal(t, 102, d.ItemsLast30Days)
	assert.Equal(t, []string{"Library Atrium", "Engineering West", "Student Center"}, d.HotspotBuildings)
}

func TestUsers(t *testing.T) {
	now := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	s := newOfflineAdmin(t)
	s.now = func() time.Time { return now }

	users := s.Users()
	require.Len(t, users, 2)
	assert.Equal(t, models.RoleUser, users[0].Role)
	assert.Equal(t, "admin-001", users[1].ID)
	assert.Equal(t, models.RoleAdmin, users[1].Role)
	assert.True(t, users[1].CreatedAt.Before(users[0].CreatedAt))
}

func TestFlaggedAndPending(t *testing.T) {
	s := newOfflineAdmin(t)
	ctx := context.Background()

	assert.Len(t, s.FlaggedReports(ctx), 5)

	pending, err := s.PendingClaims(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ClaimStatusPending, pending[0].Status)
	assert.Equal(t, "lost-001", pending[0].ItemID)
}
