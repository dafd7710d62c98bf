package models

import "time"

// UserRole distinguishes moderators from regular users.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// UserProfile is the public profile of a campus user.
type UserProfile struct {
	ID              string    `json:"id"`
	FullName        string    `json:"fullName"`
	Email           string    `json:"email"`
	Role            UserRole  `json:"role"`
	EmailVerified   bool      `json:"emailVerified"`
	OpenReports     int       `json:"openReports"`
	ResolvedReports int       `json:"resolvedReports"`
	CreatedAt       time.Time `json:"createdAt"`
}

// DashboardSnapshot holds the moderator dashboard KPIs.
type DashboardSnapshot struct {
	ClaimRate         float64  `json:"claimRate"`
	AverageMatchHours float64  `json:"averageMatchHours"`
	ItemsLast7Days    int      `json:"itemsLast7Days"`
	ItemsLast30Days   int      `json:"itemsLast30Days"`
	HotspotBuildings  []string `json:"hotspotBuildings"`
}
