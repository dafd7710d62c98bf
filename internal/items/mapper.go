package items

import (
	"strings"
	"time"

	"github.com/jredh-dev/lostfound/internal/database"
	"github.com/jredh-dev/lostfound/pkg/models"
)

// Collection is the store collection holding item documents.
const Collection = "items"

// Item document field names.
const (
	fieldTitle        = "title"
	fieldDescription  = "description"
	fieldStatus       = "status"
	fieldLocationText = "locationText"
	fieldCampusZone   = "campusZone"
	fieldLastSeenAt   = "lastSeenAt"
	fieldTags         = "tags"
	fieldDocURLs      = "docUrls"
	fieldReporterID   = "reporterId"
	fieldCreatedAt    = "createdAt"
	fieldUpdatedAt    = "updatedAt"
	fieldStatusNote   = "statusNote"
	fieldCustody      = "custody"
)

// DecodeError reports a stored document that cannot be turned into an item.
type DecodeError = database.DecodeError

// DecodeDetail maps a stored item document to an ItemDetail.
func DecodeDetail(doc database.Document) (models.ItemDetail, error) {
	d := decoder{database.NewDecoder(doc)}

	rawStatus := d.Str(fieldStatus)
	if d.Err == nil && strings.TrimSpace(rawStatus) == "" {
		d.Fail(fieldStatus, "missing")
	}
	status := d.status(rawStatus)
	createdAt := d.Timestamp(fieldCreatedAt)
	if d.Err == nil && createdAt == nil {
		d.Fail(fieldCreatedAt, "missing")
	}

	detail := models.ItemDetail{
		ID:           doc.ID,
		Title:        d.Str(fieldTitle),
		Status:       status,
		Description:  d.Str(fieldDescription),
		LocationText: d.Str(fieldLocationText),
		CampusZone:   d.zone(d.Str(fieldCampusZone)),
		Custody:      d.Str(fieldCustody),
		StatusNote:   d.Str(fieldStatusNote),
		ReporterID:   d.Str(fieldReporterID),
		LastSeenAt:   d.Timestamp(fieldLastSeenAt),
		UpdatedAt:    d.Timestamp(fieldUpdatedAt),
		Tags:         d.List(fieldTags),
		DocURLs:      d.List(fieldDocURLs),
	}
	if d.Err != nil {
		return models.ItemDetail{}, d.Err
	}
	detail.CreatedAt = *createdAt
	return detail, nil
}

// DecodeSummary maps a stored item document to an ItemSummary.
func DecodeSummary(doc database.Document) (models.ItemSummary, error) {
	detail, err := DecodeDetail(doc)
	if err != nil {
		return models.ItemSummary{}, err
	}
	return detail.Summary(), nil
}

// EncodeReport builds the document written for a new item.
func EncodeReport(r models.Report, reporterID string, createdAt time.Time) map[string]any {
	fields := map[string]any{
		fieldTitle:        r.Title(),
		fieldDescription:  r.Description(),
		fieldStatus:       r.Kind().StorageValue(),
		fieldLocationText: r.LocationText(),
		fieldTags:         r.Tags(),
		fieldDocURLs:      r.DocURLs(),
		fieldReporterID:   reporterID,
		fieldCreatedAt:    createdAt.UTC(),
	}
	if zone := r.CampusZone(); !zone.IsZero() {
		fields[fieldCampusZone] = zone.String()
	}
	if seen := r.LastSeenAt(); seen != nil {
		fields[fieldLastSeenAt] = seen.UTC()
	}
	if custody := r.Custody(); custody != "" {
		fields[fieldCustody] = custody
	}
	return fields
}

// encodeStatusUpdate builds the merge written by a status change. A blank
// note leaves any existing note in place.
func encodeStatusUpdate(req models.UpdateStatusRequest, at time.Time) map[string]any {
	fields := map[string]any{
		fieldStatus:    req.Status.StorageValue(),
		fieldUpdatedAt: at.UTC(),
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		fields[fieldStatusNote] = note
	}
	return fields
}

// decoder adds the item enums to the generic field reader.
type decoder struct {
	*database.Decoder
}

func (d decoder) status(raw string) models.Status {
	s, err := models.ParseStatus(raw)
	if err != nil {
		d.Fail(fieldStatus, err.Error())
	}
	return s
}

func (d decoder) zone(raw string) models.Zone {
	z, err := models.ParseZone(raw)
	if err != nil {
		d.Fail(fieldCampusZone, err.Error())
	}
	return z
}
