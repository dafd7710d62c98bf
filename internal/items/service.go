package items

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jredh-dev/lostfound/pkg/apperrors"
	"github.com/jredh-dev/lostfound/pkg/logger"
	"github.com/jredh-dev/lostfound/pkg/models"
	"github.com/jredh-dev/lostfound/pkg/provenance"
	"github.com/jredh-dev/lostfound/pkg/validation"
)

// Service is the entry point for item reports. It authenticates and
// validates requests, gates attachment URLs, enforces ownership on status
// changes and delegates storage to a Backend.
type Service struct {
	backend  Backend
	offline  *Offline
	bucket   string
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates the item service. offline answers single-item reads
// when the backend's store is unreachable; bucket is the storage bucket
// attachment URLs must point into.
func NewService(backend Backend, offline *Offline, bucket string, log *zap.Logger) *Service {
	return &Service{
		backend:  backend,
		offline:  offline,
		bucket:   strings.TrimSpace(bucket),
		validate: validation.New(),
		log:      logger.OrNop(log).With(zap.String("component", "item_service")),
		now:      time.Now,
	}
}

func (s *Service) CreateLostItem(ctx context.Context, req models.LostReport, reporterID string) (models.ItemDetail, error) {
	if err := s.checkWrite(reporterID, req); err != nil {
		return models.ItemDetail{}, err
	}
	return s.create(ctx, models.NewLostReport(req), reporterID)
}

func (s *Service) CreateFoundItem(ctx context.Context, req models.FoundReport, reporterID string) (models.ItemDetail, error) {
	if err := s.checkWrite(reporterID, req); err != nil {
		return models.ItemDetail{}, err
	}
	return s.create(ctx, models.NewFoundReport(req), reporterID)
}

func (s *Service) create(ctx context.Context, r models.Report, reporterID string) (models.ItemDetail, error) {
	urls := r.DocURLs()
	itemID, err := provenance.ResolveItemID(s.bucket, urls)
	if err != nil {
		return models.ItemDetail{}, err
	}
	if itemID != "" {
		if err := provenance.EnsureScoped(s.bucket, itemID, urls); err != nil {
			return models.ItemDetail{}, err
		}
	}
	return s.backend.Create(ctx, itemID, r, reporterID)
}

// FindByID returns the item with id. When the store cannot be reached the
// offline catalog answers instead.
func (s *Service) FindByID(ctx context.Context, id string) (models.ItemDetail, error) {
	detail, err := s.backend.Get(ctx, id)
	switch {
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		s.log.Warn("item store unavailable, serving sample item", zap.String("item_id", id), zap.Error(err))
		detail, err = s.offline.Get(ctx, id)
		if err != nil {
			return models.ItemDetail{}, err
		}
	case err != nil:
		return models.ItemDetail{}, err
	case detail == nil:
		return models.ItemDetail{}, apperrors.Clone(apperrors.ErrNotFound, "item not found: "+id)
	}
	return *detail, nil
}

// UpdateStatus changes an item's status. Only the original reporter may,
// and ownership is settled before the request body is looked at.
func (s *Service) UpdateStatus(ctx context.Context, id string, req models.UpdateStatusRequest, callerID string) (models.ItemDetail, error) {
	if strings.TrimSpace(callerID) == "" {
		return models.ItemDetail{}, apperrors.Clone(apperrors.ErrUnauthenticated, "")
	}
	current, err := s.backend.Get(ctx, id)
	if err != nil {
		return models.ItemDetail{}, err
	}
	if current == nil {
		return models.ItemDetail{}, apperrors.Clone(apperrors.ErrNotFound, "item not found: "+id)
	}
	if current.ReporterID != callerID {
		return models.ItemDetail{}, apperrors.Clone(apperrors.ErrForbidden, "you can only update your own reports")
	}
	if err := s.checkWrite(callerID, req); err != nil {
		return models.ItemDetail{}, err
	}
	return s.backend.UpdateStatus(ctx, *current, req)
}

func (s *Service) SearchItems(ctx context.Context, status models.Status, zone models.Zone, query string, page, pageSize int) models.SearchResult {
	return s.backend.Search(ctx, models.SearchQuery{
		Status:   status,
		Zone:     zone,
		Text:     query,
		Page:     page,
		PageSize: pageSize,
	}.Normalize())
}

// BrowseItems returns the first page of the unfiltered feed.
func (s *Service) BrowseItems(ctx context.Context) []models.ItemSummary {
	return s.SearchItems(ctx, "", "", "", 0, models.DefaultPageSize).Items
}

// FindSimilar returns found items that may match id. When nothing matches
// it returns a single placeholder built from the reference item.
func (s *Service) FindSimilar(ctx context.Context, id string) ([]models.ItemSummary, error) {
	ref, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if matches := s.backend.Similar(ctx, ref); len(matches) > 0 {
		return matches, nil
	}
	return []models.ItemSummary{{
		ID:           ref.ID + "-match",
		Title:        "Possible Match",
		Status:       models.StatusFound,
		LocationText: ref.LocationText,
		CampusZone:   ref.CampusZone,
		CreatedAt:    s.now().UTC(),
		LastSeenAt:   ref.LastSeenAt,
		Tags:         ref.Tags,
		DocURLs:      ref.DocURLs,
	}}, nil
}

func (s *Service) ListReportsForUser(ctx context.Context, userID string) []models.ItemSummary {
	return s.backend.ListByReporter(ctx, userID)
}

// checkWrite rejects anonymous callers, then validates the request body.
func (s *Service) checkWrite(callerID string, req any) error {
	if strings.TrimSpace(callerID) == "" {
		return apperrors.Clone(apperrors.ErrUnauthenticated, "")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Wrap(err, apperrors.ErrValidation, validation.Message(err))
	}
	return nil
}
