package items

import (
	"context"

	"github.com/jredh-dev/lostfound/pkg/models"
)

// Fetch limits applied to every store query. Search totals are counted over
// at most MaxFetch documents, so they undercount larger collections.
// TODO: replace with a store count aggregation once totals must be exact.
const (
	MaxFetch     = 200
	SimilarLimit = 8
)

// Backend is where the Service reads and writes items. Engine serves them
// from a document store; Offline serves a fixed sample catalog. The choice
// is made once at start-up.
type Backend interface {
	// Search never fails; a backend that cannot reach its data degrades.
	Search(ctx context.Context, q models.SearchQuery) models.SearchResult
	// Get returns nil, nil when no item has the id.
	Get(ctx context.Context, id string) (*models.ItemDetail, error)
	// Create stores a new item. An empty id asks the backend to allocate one.
	Create(ctx context.Context, id string, r models.Report, reporterID string) (models.ItemDetail, error)
	UpdateStatus(ctx context.Context, current models.ItemDetail, req models.UpdateStatusRequest) (models.ItemDetail, error)
	Similar(ctx context.Context, ref models.ItemDetail) []models.ItemSummary
	ListByReporter(ctx context.Context, reporterID string) []models.ItemSummary
}

// Paginate returns the [page*pageSize, page*pageSize+pageSize) window of
// list, clamped to its bounds, and the length of list.
func Paginate[T any](list []T, page, pageSize int) ([]T, int) {
	total := len(list)
	page = max(page, 0)
	// page*pageSize may overflow, so compare against total first.
	if pageSize <= 0 || page > total/pageSize {
		return []T{}, total
	}
	from := page * pageSize
	to := from + min(pageSize, total-from)
	out := make([]T, to-from)
	copy(out, list[from:to])
	return out, total
}

// searchPage filters details with q and cuts out the requested page. The
// store-backed and offline paths both go through here.
func searchPage(details []models.ItemDetail, q models.SearchQuery) models.SearchResult {
	matched := make([]models.ItemSummary, 0, len(details))
	for _, d := range details {
		if q.Matches(d) {
			matched = append(matched, d.Summary())
		}
	}
	items, total := Paginate(matched, q.Page, q.PageSize)
	return models.SearchResult{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalItems: total,
	}
}

func summaries(details []models.ItemDetail) []models.ItemSummary {
	out := make([]models.ItemSummary, 0, len(details))
	for _, d := range details {
		out = append(out, d.Summary())
	}
	return out
}
