package items

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jredh-dev/lostfound/internal/database"
	"github.com/jredh-dev/lostfound/pkg/apperrors"
	"github.com/jredh-dev/lostfound/pkg/models"
	"github.com/jredh-dev/lostfound/pkg/provenance"
)

const testBucket = "lostfound-demo.appspot.com"

func newTestService(t *testing.T, bucket string) (*Service, *database.Memory, *observer.ObservedLogs) {
	t.Helper()
	engine, store, _ := newTestEngine(t)
	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewService(engine, NewOffline(fixedClock), bucket, zap.New(core))
	svc.now = fixedClock
	return svc, store, logs
}

func idCardReport(urls ...string) models.FoundReport {
	return models.FoundReport{
		ReportFields: models.ReportFields{
			Title:        "Campus ID",
			Description:  "Student card found near the fountain",
			LocationText: "Main quad",
			CampusZone:   models.ZoneMain,
			Tags:         []string{"id", "card"},
			DocURLs:      urls,
		},
		Custody: "Security office",
	}
}

func TestCreateFoundThenFindAndSearch(t *testing.T) {
	svc, _, _ := newTestService(t, testBucket)
	ctx := context.Background()

	created, err := svc.CreateFoundItem(ctx, idCardReport(), "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusFound, created.Status)
	assert.Equal(t, "user-1", created.ReporterID)

	got, err := svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	res := svc.SearchItems(ctx, models.StatusFound, "", "", 0, 12)
	require.Len(t, res.Items, 1)
	assert.Equal(t, created.ID, res.Items[0].ID)
	assert.Equal(t, 1, res.TotalItems)

	assert.Empty(t, svc.SearchItems(ctx, models.StatusLost, "", "", 0, 12).Items)
	assert.Len(t, svc.BrowseItems(ctx), 1)
}

func TestSearchItemsClampsPaging(t *testing.T) {
	svc, _, _ := newTestService(t, testBucket)
	res := svc.SearchItems(context.Background(), "", "", "", -3, 500)
	assert.Equal(t, 0, res.Page)
	assert.Equal(t, models.MaxPageSize, res.PageSize)

	res = svc.SearchItems(context.Background(), "", "", "", 0, 0)
	assert.Equal(t, models.MinPageSize, res.PageSize)
}

func TestSearchItemsHugePageIsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, testBucket)
	_, err := svc.CreateFoundItem(ctx, idCardReport(), "finder-1")
	require.NoError(t, err)

	res := svc.SearchItems(ctx, "", "", "", 1<<62, 3)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.TotalItems)

	offline := NewOffline(fixedClock)
	res = NewService(offline, offline, testBucket, nil).SearchItems(ctx, "", "", "", 1<<62, 3)
	assert.Empty(t, res.Items)
	assert.Positive(t, res.TotalItems)
}

func TestCreateDerivesIDFromAttachments(t *testing.T) {
	svc, store, _ := newTestService(t, testBucket)
	ctx := context.Background()

	created, err := svc.CreateFoundItem(ctx, idCardReport(
		"gs://lostfound-demo.appspot.com/items/item-77/front.jpg",
		"https://firebasestorage.googleapis.com/v0/b/lostfound-demo.appspot.com/o/items%2Fitem-77%2Fback.png?alt=media",
		"  ",
	), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "item-77", created.ID)
	assert.Len(t, created.DocURLs, 2)

	doc, err := store.Get(ctx, Collection, "item-77")
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestCreateDoesNotReplaceExistingItem(t *testing.T) {
	svc, _, _ := newTestService(t, testBucket)
	ctx := context.Background()
	url := "gs://lostfound-demo.appspot.com/items/ABC/photo.jpg"

	first, err := svc.CreateFoundItem(ctx, idCardReport(url), "finder-1")
	require.NoError(t, err)

	second := idCardReport(url)
	second.Title = "Hijacked"
	_, err = svc.CreateFoundItem(ctx, second, "someone-else")
	assert.True(t, errors.Is(err, apperrors.ErrConflict), "got %v", err)

	stored, err := svc.FindByID(ctx, "ABC")
	require.NoError(t, err)
	assert.Equal(t, "Campus ID", stored.Title)
	assert.Equal(t, "finder-1", stored.ReporterID)
	assert.Equal(t, first.CreatedAt, stored.CreatedAt)
}

func TestCreateRejectsBadAttachments(t *testing.T) {
	tests := []struct {
		name   string
		bucket string
		urls   []string
		kind   *apperrors.Error
	}{
		{
			name:   "ids disagree",
			bucket: testBucket,
			urls: []string{
				"gs://lostfound-demo.appspot.com/items/item-1/a.jpg",
				"gs://lostfound-demo.appspot.com/items/item-2/b.jpg",
			},
			kind: apperrors.ErrValidation,
		},
		{
			name:   "foreign bucket",
			bucket: testBucket,
			urls:   []string{"gs://someone-else.appspot.com/items/item-1/a.jpg"},
			kind:   apperrors.ErrValidation,
		},
		{
			name:   "disallowed extension",
			bucket: testBucket,
			urls:   []string{"gs://lostfound-demo.appspot.com/items/item-1/notes.pdf"},
			kind:   apperrors.ErrValidation,
		},
		{
			name:   "bucket not configured",
			bucket: "",
			urls:   []string{"gs://lostfound-demo.appspot.com/items/item-1/a.jpg"},
			kind:   apperrors.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(t, tt.bucket)
			_, err := svc.CreateFoundItem(context.Background(), idCardReport(tt.urls...), "user-1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind))
			assert.Equal(t, tt.kind.Status, apperrors.FromError(err).Status)

			docs, err := store.Find(context.Background(), database.Query{Collection: Collection})
			require.NoError(t, err)
			assert.Empty(t, docs, "nothing is written when attachments are rejected")
		})
	}
}

func TestCreateWithoutAttachmentsNeedsNoBucket(t *testing.T) {
	svc, _, _ := newTestService(t, "")
	_, err := svc.CreateLostItem(context.Background(), models.LostReport{ReportFields: models.ReportFields{
		Title:        "Keys",
		Description:  "Three keys",
		LocationText: "Parking lot B",
	}}, "user-1")
	assert.NoError(t, err)
}

func TestCreateChecksCallerBeforePayload(t *testing.T) {
	svc, _, _ := newTestService(t, testBucket)
	ctx := context.Background()

	_, err := svc.CreateLostItem(ctx, models.LostReport{}, " ")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))

	_, err = svc.CreateLostItem(ctx, models.LostReport{ReportFields: models.ReportFields{
		Title:        "  ",
		Description:  "Three keys",
		LocationText: "Parking lot B",
	}}, "user-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "title is required")

	tags := make([]string, 11)
	for i := range tags {
		tags[i] = "tag"
	}
	report := idCardReport()
	report.Tags = tags
	_, err = svc.CreateFoundItem(ctx, report, "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tags must have at most 10 entries")
}

func TestUpdateStatusOwnership(t *testing.T) {
	for _, status := range models.Statuses {
		t.Run(status.String(), func(t *testing.T) {
			svc, _, _ := newTestService(t, testBucket)
			ctx := context.Background()
			created, err := svc.CreateFoundItem(ctx, idCardReport(), "owner")
			require.NoError(t, err)

			_, err = svc.UpdateStatus(ctx, created.ID, models.UpdateStatusRequest{Status: status}, "intruder")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrForbidden))

			_, err = svc.UpdateStatus(ctx, created.ID, models.UpdateStatusRequest{Note: strings.Repeat("x", 500)}, "intruder")
			assert.True(t, errors.Is(err, apperrors.ErrForbidden), "an invalid body from a non-reporter is still forbidden")

			unchanged, err := svc.FindByID(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusFound, unchanged.Status)

			updated, err := svc.UpdateStatus(ctx, created.ID, models.UpdateStatusRequest{Status: status, Note: "checked"}, "owner")
			require.NoError(t, err)
			assert.Equal(t, status, updated.Status)
			assert.Equal(t, "checked", updated.StatusNote)
		})
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	svc, store, _ := newTestService(t, testBucket)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "nope", models.UpdateStatusRequest{Status: models.StatusClaimed}, "owner")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	created, err := svc.CreateFoundItem(ctx, idCardReport(), "owner")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, created.ID, models.UpdateStatusRequest{}, "owner")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = svc.UpdateStatus(ctx, "nope", models.UpdateStatusRequest{Status: models.StatusClaimed}, "")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))

	store.FailWith(database.OpGet, errors.New("unavailable"))
	_, err = svc.UpdateStatus(ctx, "nope", models.UpdateStatusRequest{Status: models.StatusClaimed}, "owner")
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
}

func TestFindByID(t *testing.T) {
	svc, store, logs := newTestService(t, testBucket)
	ctx := context.Background()

	_, err := svc.FindByID(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, err.Error(), "item not found: missing")

	store.FailWith(database.OpGet, errors.New("unavailable"))
	d, err := svc.FindByID(ctx, "found-002")
	require.NoError(t, err)
	assert.Equal(t, "Campus ID Card", d.Title)

	d, err = svc.FindByID(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, "Sample Item", d.Title)
	assert.Equal(t, 2, logs.FilterMessage("item store unavailable, serving sample item").Len())
}

func TestFindSimilar(t *testing.T) {
	svc, _, _ := newTestService(t, testBucket)
	ctx := context.Background()

	lost, err := svc.CreateLostItem(ctx, models.LostReport{ReportFields: models.ReportFields{
		Title:        "ID card",
		Description:  "Lost my card",
		LocationText: "Main hall",
		CampusZone:   models.ZoneMain,
		Tags:         []string{"id"},
	}}, "user-2")
	require.NoError(t, err)

	matches, err := svc.FindSimilar(ctx, lost.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, lost.ID+"-match", matches[0].ID)
	assert.Equal(t, "Possible Match", matches[0].Title)
	assert.Equal(t, models.StatusFound, matches[0].Status)
	assert.Equal(t, models.ZoneMain, matches[0].CampusZone)
	assert.Equal(t, testNow, matches[0].CreatedAt)

	found, err := svc.CreateFoundItem(ctx, idCardReport(), "user-1")
	require.NoError(t, err)
	matches, err = svc.FindSimilar(ctx, lost.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{found.ID}, resultIDs(matches))

	_, err = svc.FindSimilar(ctx, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestListReportsForUser(t *testing.T) {
	svc, _, _ := newTestService(t, testBucket)
	ctx := context.Background()

	mine, err := svc.CreateFoundItem(ctx, idCardReport(), "user-1")
	require.NoError(t, err)
	_, err = svc.CreateFoundItem(ctx, idCardReport(), "user-2")
	require.NoError(t, err)

	assert.Equal(t, []string{mine.ID}, resultIDs(svc.ListReportsForUser(ctx, "user-1")))
}

func TestServiceOverOfflineBackend(t *testing.T) {
	offline := NewOffline(fixedClock)
	svc := NewService(offline, offline, testBucket, nil)
	svc.now = fixedClock
	ctx := context.Background()

	assert.Len(t, svc.BrowseItems(ctx), 5)

	d, err := svc.FindByID(ctx, "whatever")
	require.NoError(t, err)
	assert.Equal(t, "Sample Item", d.Title)

	_, err = svc.UpdateStatus(ctx, "lost-001", models.UpdateStatusRequest{Status: models.StatusFound}, "user-9")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	updated, err := svc.UpdateStatus(ctx, "lost-001", models.UpdateStatusRequest{Status: models.StatusFound}, SampleReporterID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, updated.Status)

	matches, err := svc.FindSimilar(ctx, "lost-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"lost-001-match"}, resultIDs(matches))

	created, err := svc.CreateLostItem(ctx, models.LostReport{ReportFields: models.ReportFields{
		Title: "Pen", Description: "Blue pen", LocationText: "Room 4",
		DocURLs: []string{"gs://lostfound-demo.appspot.com/items/item-9/pen.webp"},
	}}, "user-9")
	require.NoError(t, err)
	assert.Equal(t, "item-9", created.ID)
}

func TestProvenanceErrorSurfacesReason(t *testing.T) {
	svc, _, _ := newTestService(t, testBucket)
	_, err := svc.CreateFoundItem(context.Background(), idCardReport("gs://lostfound-demo.appspot.com/photos/a.jpg"), "user-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, &provenance.Error{Reason: provenance.ReasonMissingPrefix}))
	assert.Contains(t, apperrors.FromError(err).Message, string(provenance.ReasonMissingPrefix))
}
