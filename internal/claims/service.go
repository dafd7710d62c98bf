// Package claims handles ownership claims on reported items and their
// review by finders or moderators.
package claims

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jredh-dev/lostfound/internal/database"
	"github.com/jredh-dev/lostfound/internal/metrics"
	"github.com/jredh-dev/lostfound/internal/notify"
	"github.com/jredh-dev/lostfound/pkg/apperrors"
	"github.com/jredh-dev/lostfound/pkg/logger"
	"github.com/jredh-dev/lostfound/pkg/models"
	"github.com/jredh-dev/lostfound/pkg/validation"
)

// Placeholder values returned when no store is configured.
const (
	FallbackClaimID    = "claim-fallback"
	placeholderItemID  = "item-001"
	placeholderOwnerID = "user-456"
)

// Service submits, reviews and lists claims. With a nil store it answers
// from deterministic placeholders and writes nothing.
type Service struct {
	store    database.DocumentStore
	events   notify.Publisher
	validate *validator.Validate
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService builds a claim service. A nil publisher drops claim events.
func NewService(store database.DocumentStore, events notify.Publisher, log *zap.Logger, m *metrics.Metrics) *Service {
	if events == nil {
		events = notify.Nop{}
	}
	return &Service{
		store:    store,
		events:   events,
		validate: validation.New(),
		log:      logger.OrNop(log).With(zap.String("component", "claim_service")),
		metrics:  m,
		now:      time.Now,
	}
}

// Submit files a pending claim by claimantID on itemID.
func (s *Service) Submit(ctx context.Context, itemID string, req models.SubmitClaimRequest, claimantID string) (models.Claim, error) {
	if strings.TrimSpace(claimantID) == "" {
		return models.Claim{}, apperrors.Clone(apperrors.ErrUnauthenticated, "")
	}
	if strings.TrimSpace(itemID) == "" {
		return models.Claim{}, apperrors.Clone(apperrors.ErrValidation, "itemId is required")
	}
	if err := s.validate.Struct(req); err != nil {
		return models.Claim{}, apperrors.Wrap(err, apperrors.ErrValidation, validation.Message(err))
	}

	now := s.now()
	fields := encodeSubmission(itemID, claimantID, req, now)
	if s.store == nil {
		return Decode(database.Document{ID: FallbackClaimID, Fields: fields}, now)
	}

	id := s.store.NewID(Collection)
	if err := s.store.Set(ctx, Collection, id, fields); err != nil {
		s.metrics.StoreError("set")
		return models.Claim{}, apperrors.Wrap(err, apperrors.ErrStoreFailure, "failed to save claim")
	}
	s.log.Info("claim submitted",
		zap.String("claim_id", id),
		zap.String("item_id", itemID),
		zap.String("claimant_id", claimantID))
	claim, err := Decode(database.Document{ID: id, Fields: fields}, now)
	if err != nil {
		return models.Claim{}, err
	}
	s.publish(ctx, notify.ClaimSubmitted, claim)
	return claim, nil
}

// Review records an approve or reject decision on a claim.
func (s *Service) Review(ctx context.Context, claimID string, status models.ClaimStatus, reviewerID string) (models.Claim, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return models.Claim{}, apperrors.Clone(apperrors.ErrUnauthenticated, "")
	}
	if status != models.ClaimStatusApproved && status != models.ClaimStatusRejected {
		return models.Claim{}, apperrors.Clone(apperrors.ErrValidation, "status must be approved or rejected")
	}

	now := s.now().UTC()
	if s.store == nil {
		submitted := now.Add(-15 * time.Minute)
		return models.Claim{
			ID:          claimID,
			ItemID:      "item-123",
			ClaimantID:  "user-789",
			Status:      status,
			SubmittedAt: submitted,
			ReviewedAt:  &now,
			ReviewerID:  reviewerID,
		}, nil
	}

	if _, err := s.get(ctx, claimID); err != nil {
		return models.Claim{}, err
	}
	if err := s.store.Merge(ctx, Collection, claimID, encodeDecision(status, reviewerID, now)); err != nil {
		s.metrics.StoreError("merge")
		return models.Claim{}, apperrors.Wrap(err, apperrors.ErrStoreFailure, "failed to update claim")
	}
	s.log.Info("claim reviewed",
		zap.String("claim_id", claimID),
		zap.String("status", status.String()),
		zap.String("reviewer_id", reviewerID))
	claim, err := s.get(ctx, claimID)
	if err != nil {
		return models.Claim{}, err
	}
	s.publish(ctx, notify.ClaimReviewed, claim)
	return claim, nil
}

// publish emits a claim event. The claim is already stored, so a failed
// publish is logged and not returned.
func (s *Service) publish(ctx context.Context, t notify.EventType, c models.Claim) {
	err := s.events.Publish(ctx, notify.Event{
		Type:       t,
		ClaimID:    c.ID,
		ItemID:     c.ItemID,
		ClaimantID: c.ClaimantID,
		ReviewerID: c.ReviewerID,
		Status:     c.Status.String(),
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.log.Warn("failed to publish claim event",
			zap.String("type", string(t)),
			zap.String("claim_id", c.ID),
			zap.Error(err))
	}
}

func (s *Service) ListForItem(ctx context.Context, itemID string) ([]models.Claim, error) {
	if s.store == nil {
		return []models.Claim{s.placeholder(itemID, placeholderOwnerID, models.ClaimStatusPending)}, nil
	}
	return s.list(ctx, fieldItemID, itemID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Claim, error) {
	if s.store == nil {
		return []models.Claim{s.placeholder(placeholderItemID, userID, models.ClaimStatusPending)}, nil
	}
	return s.list(ctx, fieldClaimantID, userID)
}

// ListPending returns claims awaiting a decision, newest first.
func (s *Service) ListPending(ctx context.Context) ([]models.Claim, error) {
	if s.store == nil {
		return []models.Claim{s.placeholder("lost-001", placeholderOwnerID, models.ClaimStatusPending)}, nil
	}
	return s.list(ctx, fieldStatus, models.ClaimStatusPending.StorageValue())
}

func (s *Service) get(ctx context.Context, claimID string) (models.Claim, error) {
	doc, err := s.store.Get(ctx, Collection, claimID)
	if err != nil {
		s.metrics.StoreError("get")
		return models.Claim{}, apperrors.Wrap(err, apperrors.ErrStoreUnavailable, "claim store unavailable")
	}
	if doc == nil {
		return models.Claim{}, apperrors.Clone(apperrors.ErrNotFound, "claim not found: "+claimID)
	}
	c, err := Decode(*doc, s.now())
	if err != nil {
		return models.Claim{}, apperrors.Wrap(err, apperrors.ErrStoreFailure, "stored claim is malformed")
	}
	return c, nil
}

// list returns claims with field == value, newest first. Without the
// composite index the ordering is done here instead of in the store.
func (s *Service) list(ctx context.Context, field, value string) ([]models.Claim, error) {
	query := database.Query{
		Collection: Collection,
		OrderBy:    fieldSubmittedAt,
		Descending: true,
	}.Where(field, value)

	docs, err := s.store.Find(ctx, query)
	if errors.Is(err, database.ErrIndexUnready) {
		s.log.Warn("composite index not ready, sorting claims client-side", zap.String("field", field), zap.Error(err))
		unordered := query
		unordered.OrderBy = ""
		unordered.Descending = false
		docs, err = s.store.Find(ctx, unordered)
	}
	if err != nil {
		s.metrics.StoreError("find")
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable, "claim store unavailable")
	}

	now := s.now()
	out := make([]models.Claim, 0, len(docs))
	for _, doc := range docs {
		c, err := Decode(doc, now)
		if err != nil {
			s.log.Warn("skipping malformed claim document", zap.String("doc_id", doc.ID), zap.Error(err))
			s.metrics.DocumentSkipped(Collection)
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b models.Claim) int {
		return b.SubmittedAt.Compare(a.SubmittedAt)
	})
	return out, nil
}

func (s *Service) placeholder(itemID, claimantID string, status models.ClaimStatus) models.Claim {
	return models.Claim{
		ID:          "claim-001",
		ItemID:      itemID,
		ClaimantID:  claimantID,
		Status:      status,
		SubmittedAt: s.now().UTC().Add(-30 * time.Minute),
	}
}
