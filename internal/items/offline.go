package items

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jredh-dev/lostfound/internal/database"
	"github.com/jredh-dev/lostfound/pkg/models"
)

// SampleReporterID owns every item in the offline catalog.
const SampleReporterID = "user-123"

// Offline serves a fixed sample catalog when no document store is
// configured. Writes are echoed back and never stored.
type Offline struct {
	now func() time.Time
}

// NewOffline creates the offline backend. Catalog timestamps are relative to
// now, which defaults to time.Now.
func NewOffline(now func() time.Time) *Offline {
	if now == nil {
		now = time.Now
	}
	return &Offline{now: now}
}

// catalog returns the sample items, newest first.
func (o *Offline) catalog() []models.ItemDetail {
	now := o.now().UTC()
	at := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}
	return []models.ItemDetail{
		{
			ID:           "lost-001",
			Title:        "Blue Backpack",
			Status:       models.StatusLost,
			Description:  "Navy backpack with a laptop sleeve and a keychain on the zip.",
			LocationText: "Library Atrium",
			CampusZone:   models.ZoneLibrary,
			ReporterID:   SampleReporterID,
			CreatedAt:    now.Add(-30 * time.Minute),
			LastSeenAt:   at(time.Hour),
			Tags:         []string{"backpack", "electronics"},
			DocURLs:      []string{},
		},
		{
			ID:           "found-002",
			Title:        "Campus ID Card",
			Status:       models.StatusFound,
			Description:  "Student ID card handed in at the front desk.",
			LocationText: "Student Union Desk",
			CampusZone:   models.ZoneMain,
			Custody:      "Student Union front desk",
			ReporterID:   SampleReporterID,
			CreatedAt:    now.Add(-45 * time.Minute),
			LastSeenAt:   at(90 * time.Minute),
			Tags:         []string{"id", "card"},
			DocURLs:      []string{},
		},
		{
			ID:           "found-003",
			Title:        "Black Umbrella",
			Status:       models.StatusFound,
			Description:  "Folding umbrella left under a table.",
			LocationText: "Canteen seating area",
			CampusZone:   models.ZoneCanteen,
			Custody:      "Canteen cashier",
			ReporterID:   SampleReporterID,
			CreatedAt:    now.Add(-3 * time.Hour),
			LastSeenAt:   at(4 * time.Hour),
			Tags:         []string{"umbrella"},
			DocURLs:      []string{},
		},
		{
			ID:           "lost-004",
			Title:        "Graphing Calculator",
			Status:       models.StatusLost,
			Description:  "TI-84 with initials scratched on the back.",
			LocationText: "Chemistry lab 2",
			CampusZone:   models.ZoneLabs,
			ReporterID:   SampleReporterID,
			CreatedAt:    now.Add(-26 * time.Hour),
			LastSeenAt:   at(30 * time.Hour),
			Tags:         []string{"calculator", "electronics"},
			DocURLs:      []string{},
		},
		{
			ID:           "claimed-005",
			Title:        "Water Bottle",
			Status:       models.StatusClaimed,
			Description:  "Steel bottle with stickers, returned to its owner.",
			LocationText: "Gym locker room",
			CampusZone:   models.ZoneGym,
			StatusNote:   "Collected by owner",
			ReporterID:   SampleReporterID,
			CreatedAt:    now.Add(-72 * time.Hour),
			LastSeenAt:   at(75 * time.Hour),
			UpdatedAt:    at(48 * time.Hour),
			Tags:         []string{"bottle"},
			DocURLs:      []string{},
		},
	}
}

// placeholder stands in for an id the catalog does not know.
func (o *Offline) placeholder(id string) models.ItemDetail {
	now := o.now().UTC()
	seen := now.Add(-2 * time.Hour)
	return models.ItemDetail{
		ID:           id,
		Title:        "Sample Item",
		Status:       models.StatusLost,
		Description:  "Placeholder description",
		LocationText: "Unknown hallway",
		CampusZone:   models.ZoneOther,
		ReporterID:   SampleReporterID,
		CreatedAt:    now,
		LastSeenAt:   &seen,
		Tags:         []string{"sample"},
		DocURLs:      []string{"https://example.com/image.jpg"},
	}
}

func (o *Offline) Search(_ context.Context, q models.SearchQuery) models.SearchResult {
	return searchPage(o.catalog(), q.Normalize())
}

// Get returns the catalog entry for id, or a placeholder item carrying id.
func (o *Offline) Get(_ context.Context, id string) (*models.ItemDetail, error) {
	for _, d := range o.catalog() {
		if d.ID == id {
			return &d, nil
		}
	}
	d := o.placeholder(id)
	return &d, nil
}

func (o *Offline) Create(_ context.Context, id string, r models.Report, reporterID string) (models.ItemDetail, error) {
	if id == "" {
		id = fmt.Sprintf("%s-%s", r.Kind(), uuid.NewString())
	}
	fields := EncodeReport(r, reporterID, o.now())
	return DecodeDetail(database.Document{ID: id, Fields: fields})
}

func (o *Offline) UpdateStatus(_ context.Context, current models.ItemDetail, req models.UpdateStatusRequest) (models.ItemDetail, error) {
	now := o.now().UTC()
	current.Status = req.Status
	if note := strings.TrimSpace(req.Note); note != "" {
		current.StatusNote = note
	}
	current.UpdatedAt = &now
	return current, nil
}

// Similar has nothing to match against; the Service supplies a placeholder.
func (o *Offline) Similar(context.Context, models.ItemDetail) []models.ItemSummary {
	return []models.ItemSummary{}
}

// ListByReporter returns the whole catalog whoever asks.
func (o *Offline) ListByReporter(context.Context, string) []models.ItemSummary {
	return summaries(o.catalog())
}
