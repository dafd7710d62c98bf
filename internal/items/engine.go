package items

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jredh-dev/lostfound/internal/database"
	"github.com/jredh-dev/lostfound/internal/metrics"
	"github.com/jredh-dev/lostfound/pkg/apperrors"
	"github.com/jredh-dev/lostfound/pkg/logger"
	"github.com/jredh-dev/lostfound/pkg/models"
)

// Engine serves items from a document store. Reads that fail for any reason
// other than a missing index are answered from the offline catalog.
type Engine struct {
	store   database.DocumentStore
	offline *Offline
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewEngine creates an engine over store. offline answers degraded reads.
func NewEngine(store database.DocumentStore, offline *Offline, log *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		store:   store,
		offline: offline,
		log:     logger.OrNop(log).With(zap.String("component", "item_engine")),
		metrics: m,
		now:     time.Now,
	}
}

func (e *Engine) Search(ctx context.Context, q models.SearchQuery) models.SearchResult {
	q = q.Normalize()
	query := recentItems()
	if !q.Status.IsZero() {
		query = query.Where(fieldStatus, q.Status.StorageValue())
	}
	if !q.Zone.IsZero() {
		query = query.Where(fieldCampusZone, q.Zone.String())
	}

	details, strategy, err := e.find(ctx, query)
	if err != nil {
		e.log.Error("item search failed, serving sample catalog",
			zap.String("status", q.Status.String()),
			zap.String("zone", q.Zone.String()),
			zap.String("query", q.Text),
			zap.Error(err))
		e.metrics.ObserveSearch(metrics.StrategyOffline)
		return e.offline.Search(ctx, q)
	}
	e.metrics.ObserveSearch(strategy)
	return searchPage(details, q)
}

func (e *Engine) Get(ctx context.Context, id string) (*models.ItemDetail, error) {
	doc, err := e.store.Get(ctx, Collection, id)
	if err != nil {
		e.metrics.StoreError("get")
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable, "item store unavailable")
	}
	if doc == nil {
		return nil, nil
	}
	detail, err := DecodeDetail(*doc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreFailure, "stored item is malformed")
	}
	return &detail, nil
}

func (e *Engine) Create(ctx context.Context, id string, r models.Report, reporterID string) (models.ItemDetail, error) {
	if id == "" {
		id = e.store.NewID(Collection)
	}
	fields := EncodeReport(r, reporterID, e.now())
	err := e.store.Create(ctx, Collection, id, fields)
	if errors.Is(err, database.ErrAlreadyExists) {
		return models.ItemDetail{}, apperrors.Wrap(err, apperrors.ErrConflict, "item already exists: "+id)
	}
	if err != nil {
		e.metrics.StoreError("create")
		return models.ItemDetail{}, apperrors.Wrap(err, apperrors.ErrStoreFailure, "failed to save item")
	}
	e.log.Info("item created",
		zap.String("item_id", id),
		zap.String("status", r.Kind().String()),
		zap.String("reporter_id", reporterID))
	return DecodeDetail(database.Document{ID: id, Fields: fields})
}

func (e *Engine) UpdateStatus(ctx context.Context, current models.ItemDetail, req models.UpdateStatusRequest) (models.ItemDetail, error) {
	if err := e.store.Merge(ctx, Collection, current.ID, encodeStatusUpdate(req, e.now())); err != nil {
		e.metrics.StoreError("merge")
		return models.ItemDetail{}, apperrors.Wrap(err, apperrors.ErrStoreFailure, "failed to update item status")
	}
	updated, err := e.Get(ctx, current.ID)
	if err != nil {
		return models.ItemDetail{}, err
	}
	if updated == nil {
		return models.ItemDetail{}, apperrors.Clone(apperrors.ErrNotFound, "item not found: "+current.ID)
	}
	return *updated, nil
}

// Similar returns recent found items in the reference item's zone, without
// the reference itself. Failures are logged and yield no matches.
func (e *Engine) Similar(ctx context.Context, ref models.ItemDetail) []models.ItemSummary {
	query := database.Query{
		Collection: Collection,
		OrderBy:    fieldCreatedAt,
		Descending: true,
		Limit:      SimilarLimit,
	}.Where(fieldStatus, models.StatusFound.StorageValue())
	if !ref.CampusZone.IsZero() {
		query = query.Where(fieldCampusZone, ref.CampusZone.String())
	}

	docs, err := e.store.Find(ctx, query)
	if err != nil {
		e.metrics.StoreError("find")
		e.log.Warn("similar item lookup failed", zap.String("item_id", ref.ID), zap.Error(err))
		return []models.ItemSummary{}
	}
	out := make([]models.ItemSummary, 0, len(docs))
	for _, d := range e.decodeAll(docs) {
		if d.ID != ref.ID {
			out = append(out, d.Summary())
		}
	}
	return out
}

func (e *Engine) ListByReporter(ctx context.Context, reporterID string) []models.ItemSummary {
	details, _, err := e.find(ctx, recentItems().Where(fieldReporterID, reporterID))
	if err != nil {
		e.log.Error("listing reports failed, serving sample catalog",
			zap.String("reporter_id", reporterID), zap.Error(err))
		return e.offline.ListByReporter(ctx, reporterID)
	}
	mine := details[:0]
	for _, d := range details {
		if d.ReporterID == reporterID {
			mine = append(mine, d)
		}
	}
	return summaries(mine)
}

// recentItems is the newest-first, capped scan every item query starts from.
func recentItems() database.Query {
	return database.Query{
		Collection: Collection,
		OrderBy:    fieldCreatedAt,
		Descending: true,
		Limit:      MaxFetch,
	}
}

// find runs query and, if the store reports a missing composite index, runs
// it again without filters. Callers filter the result themselves, so both
// paths return the same items as long as the collection fits under MaxFetch.
func (e *Engine) find(ctx context.Context, query database.Query) ([]models.ItemDetail, string, error) {
	strategy := metrics.StrategyIndexed
	docs, err := e.store.Find(ctx, query)
	if errors.Is(err, database.ErrIndexUnready) {
		e.log.Warn("composite index not ready, filtering client-side", zap.Error(err))
		strategy = metrics.StrategyFallback
		unfiltered := query
		unfiltered.Filters = nil
		docs, err = e.store.Find(ctx, unfiltered)
	}
	if err != nil {
		e.metrics.StoreError("find")
		return nil, strategy, err
	}
	return e.decodeAll(docs), strategy, nil
}

// decodeAll drops documents that fail to decode.
func (e *Engine) decodeAll(docs []database.Document) []models.ItemDetail {
	out := make([]models.ItemDetail, 0, len(docs))
	for _, doc := range docs {
		detail, err := DecodeDetail(doc)
		if err != nil {
			e.log.Warn("skipping malformed item document", zap.String("doc_id", doc.ID), zap.Error(err))
			e.metrics.DocumentSkipped(Collection)
			continue
		}
		out = append(out, detail)
	}
	return out
}
