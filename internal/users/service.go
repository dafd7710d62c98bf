// Package users serves a campus member's profile together with the reports
// and claims they have filed.
package users

import (
	"context"
	"time"

	"github.com/jredh-dev/lostfound/pkg/models"
)

// ReportLister lists the item reports filed by a user.
type ReportLister interface {
	ListReportsForUser(ctx context.Context, userID string) []models.ItemSummary
}

// ClaimLister lists the claims submitted by a user.
type ClaimLister interface {
	ListForUser(ctx context.Context, userID string) ([]models.Claim, error)
}

type Service struct {
	reports ReportLister
	claims  ClaimLister
	now     func() time.Time
}

func NewService(reports ReportLister, claims ClaimLister) *Service {
	return &Service{reports: reports, claims: claims, now: time.Now}
}

// Profile returns the profile for userID. Profiles are not stored yet, so
// every user gets the same sample details under their own id.
func (s *Service) Profile(userID string) models.UserProfile {
	return models.UserProfile{
		ID:              userID,
		FullName:        "Jordan Wildcat",
		Email:           "jordan.wildcat@campus.edu",
		Role:            models.RoleUser,
		EmailVerified:   true,
		OpenReports:     2,
		ResolvedReports: 5,
		CreatedAt:       s.now().UTC().Add(-24 * time.Hour),
	}
}

func (s *Service) Reports(ctx context.Context, userID string) []models.ItemSummary {
	return s.reports.ListReportsForUser(ctx, userID)
}

func (s *Service) Claims(ctx context.Context, userID string) ([]models.Claim, error) {
	return s.claims.ListForUser(ctx, userID)
}
