package models

import (
	"strings"
	"time"
)

// Page size bounds applied by SearchQuery.Normalize.
const (
	MinPageSize     = 1
	MaxPageSize     = 50
	DefaultPageSize = 12
)

// ItemSummary is the list projection of an item.
type ItemSummary struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Status       Status     `json:"status"`
	LocationText string     `json:"locationText"`
	CampusZone   Zone       `json:"campusZone,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`
	Tags         []string   `json:"tags"`
	DocURLs      []string   `json:"docUrls"`
}

// ItemDetail is the full item record.
type ItemDetail struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Status       Status     `json:"status"`
	Description  string     `json:"description"`
	LocationText string     `json:"locationText"`
	CampusZone   Zone       `json:"campusZone,omitempty"`
	Custody      string     `json:"custody,omitempty"`
	StatusNote   string     `json:"statusNote,omitempty"`
	ReporterID   string     `json:"reporterId"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	Tags         []string   `json:"tags"`
	DocURLs      []string   `json:"docUrls"`
}

// Summary projects the detail onto its list form.
func (d ItemDetail) Summary() ItemSummary {
	return ItemSummary{
		ID:           d.ID,
		Title:        d.Title,
		Status:       d.Status,
		LocationText: d.LocationText,
		CampusZone:   d.CampusZone,
		CreatedAt:    d.CreatedAt,
		LastSeenAt:   d.LastSeenAt,
		Tags:         d.Tags,
		DocURLs:      d.DocURLs,
	}
}

// UpdateStatusRequest changes an item's status and optionally attaches a note.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=140"`
}

// SearchQuery filters the item feed. Zero Status and Zone mean "any".
type SearchQuery struct {
	Status   Status
	Zone     Zone
	Text     string
	Page     int
	PageSize int
}

// Normalize clamps the page to >= 0 and the page size to [MinPageSize, MaxPageSize].
func (q SearchQuery) Normalize() SearchQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.PageSize < MinPageSize {
		q.PageSize = MinPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Text = strings.TrimSpace(q.Text)
	return q
}

// Matches reports whether an item satisfies every filter in the query.
// Text matching is a case-insensitive substring test over the title,
// the description and each tag.
func (q SearchQuery) Matches(d ItemDetail) bool {
	if q.Status != "" && d.Status != q.Status {
		return false
	}
	if q.Zone != "" && d.CampusZone != q.Zone {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.Title), text) ||
		strings.Contains(strings.ToLower(d.Description), text) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return true
		}
	}
	return false
}

// SearchResult is one page of a filtered item feed.
type SearchResult struct {
	Items      []ItemSummary `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalItems int           `json:"totalItems"`
}
