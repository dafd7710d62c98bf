// Package admin backs the moderator dashboard.
package admin

import (
	"context"
	"time"

	"github.com/jredh-dev/lostfound/pkg/models"
)

// ItemBrowser returns the current item feed.
type ItemBrowser interface {
	BrowseItems(ctx context.Context) []models.ItemSummary
}

// PendingClaimLister returns claims that still need a decision.
type PendingClaimLister interface {
	ListPending(ctx context.Context) ([]models.Claim, error)
}

type Service struct {
	items  ItemBrowser
	claims PendingClaimLister
	now    func() time.Time
}

func NewService(items ItemBrowser, claims PendingClaimLister) *Service {
	return &Service{items: items, claims: claims, now: time.Now}
}

// Dashboard returns the moderation KPIs. The figures are fixed until
// reporting data is aggregated.
func (s *Service) Dashboard() models.DashboardSnapshot {
	return models.DashboardSnapshot{
		ClaimRate:         0.68,
		AverageMatchHours: 36.4,
		ItemsLast7Days:    24,
		ItemsLast30Days:   102,
		HotspotBuildings:  []string{"Library Atrium", "Engineering West", "Student Center"},
	}
}

// Users lists the known campus members.
func (s *Service) Users() []models.UserProfile {
	now := s.now().UTC()
	return []models.UserProfile{
		{
			ID:              "user-123",
			FullName:        "Jordan Wildcat",
			Email:           "jordan.wildcat@campus.edu",
			Role:            models.RoleUser,
			EmailVerified:   true,
			OpenReports:     2,
			ResolvedReports: 5,
			CreatedAt:       now.Add(-120_000 * time.Second),
		},
		{
			ID:              "admin-001",
			FullName:        "Casey Admin",
			Email:           "casey.admin@campus.edu",
			Role:            models.RoleAdmin,
			EmailVerified:   true,
			OpenReports:     0,
			ResolvedReports: 12,
			CreatedAt:       now.Add(-320_000 * time.Second),
		},
	}
}

// FlaggedReports returns items awaiting moderator review. There is no
// flagging yet, so this is the first page of the feed.
func (s *Service) FlaggedReports(ctx context.Context) []models.ItemSummary {
	return s.items.BrowseItems(ctx)
}

func (s *Service) PendingClaims(ctx context.Context) ([]models.Claim, error) {
	return s.claims.ListPending(ctx)
}
