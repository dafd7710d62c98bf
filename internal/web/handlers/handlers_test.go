package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jredh-dev/lostfound/internal/admin"
	"github.com/jredh-dev/lostfound/internal/claims"
	"github.com/jredh-dev/lostfound/internal/database"
	"github.com/jredh-dev/lostfound/internal/items"
	"github.com/jredh-dev/lostfound/internal/token"
	"github.com/jredh-dev/lostfound/internal/users"
	"github.com/jredh-dev/lostfound/pkg/models"
)

const testBucket = "lostfound-demo.appspot.com"

type testEnv struct {
	router *chi.Mux
	tokens *token.Service
	store  *database.Memory
}

func newTestEnv(t *testing.T, bucket string) *testEnv {
	t.Helper()
	log := zap.NewNop()
	store := database.NewMemory()
	offline := items.NewOffline(nil)
	itemService := items.NewService(items.NewEngine(store, offline, log, nil), offline, bucket, log)
	claimService := claims.NewService(store, nil, log, nil)
	tokens := token.New("handler-test-key", "lostfound.test", nil)

	h := New(
		itemService,
		claimService,
		users.NewService(itemService, claimService),
		admin.NewService(itemService, claimService),
		tokens,
		log,
	)
	r := chi.NewRouter()
	r.Get("/health", h.Health)
	h.Routes(r)
	return &testEnv{router: r, tokens: tokens, store: store}
}

func (e *testEnv) bearer(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	raw, err := e.tokens.GenerateToken(userID, userID+"@campus.edu", roles, time.Hour)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) do(t *testing.T, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	assert.Equal(t, w.Code, body.Error.Status)
	return body
}

const foundBody = `{
	"title": "Campus ID Card",
	"description": "Found on a bench",
	"locationText": "Student Union Desk",
	"campusZone": "Main",
	"tags": ["id", "card"],
	"custody": "Front desk"
}`

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testBucket)
	w := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateFoundThenGetAndSearch(t *testing.T) {
	env := newTestEnv(t, testBucket)
	alice := env.bearer(t, "alice")

	w := env.do(t, http.MethodPost, "/api/items/found", foundBody, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.ItemDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.StatusFound, created.Status)
	assert.Equal(t, "alice", created.ReporterID)
	assert.Contains(t, w.Body.String(), `"locationText":"Student Union Desk"`)
	assert.Contains(t, w.Body.String(), `"status":"found"`)

	w = env.do(t, http.MethodGet, "/api/items/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.ItemDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Front desk", got.Custody)

	w = env.do(t, http.MethodGet, "/api/items/search?status=FOUND&page=0&pageSize=12", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res models.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.TotalItems)
	assert.Equal(t, 12, res.PageSize)
	require.Len(t, res.Items, 1)
	assert.Equal(t, created.ID, res.Items[0].ID)

	w = env.do(t, http.MethodGet, "/api/items", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var feed []models.ItemSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Len(t, feed, 1)
}

func TestCreateRequiresIdentity(t *testing.T) {
	env := newTestEnv(t, testBucket)

	for name, bearer := range map[string]string{"no token": "", "bad token": "forged.token.value"} {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/items/lost", `{}`, bearer)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "UNAUTHENTICATED", decodeError(t, w).Error.Code)
		})
	}
}

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t, testBucket)
	alice := env.bearer(t, "alice")

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		message string
	}{
		{"unknown status filter", http.MethodGet, "/api/items/search?status=misplaced", "", `unknown status: "misplaced"`},
		{"unknown zone filter", http.MethodGet, "/api/items/search?zone=Moon", "", `unknown campus zone: "Moon"`},
		{"non-numeric page", http.MethodGet, "/api/items/search?page=two", "", "page must be an integer"},
		{"malformed body", http.MethodPost, "/api/items/lost", `{"title":`, "malformed request body"},
		{"missing fields", http.MethodPost, "/api/items/lost", `{"title":"Keys"}`, "description is required"},
		{"unknown zone in body", http.MethodPost, "/api/items/lost", `{"title":"Keys","campusZone":"Moon"}`, `unknown campus zone: "Moon"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body, alice)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
			assert.Contains(t, body.Error.Message, tt.message)
		})
	}
}

func TestGetUnknownItem(t *testing.T) {
	env := newTestEnv(t, testBucket)
	w := env.do(t, http.MethodGet, "/api/items/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Error.Code)
}

func TestUpdateStatusOwnership(t *testing.T) {
	env := newTestEnv(t, testBucket)
	alice, bob := env.bearer(t, "alice"), env.bearer(t, "bob")

	w := env.do(t, http.MethodPost, "/api/items/found", foundBody, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.ItemDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := "/api/items/" + created.ID + "/status"

	w = env.do(t, http.MethodPatch, path, `{"status":"claimed"}`, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch, path, `{}`, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch, path, `{"status":"claimed","note":"picked up"}`, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.ItemDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, models.StatusClaimed, updated.Status)
	assert.Equal(t, "picked up", updated.StatusNote)
}

func TestAttachmentsNeedConfiguredBucket(t *testing.T) {
	env := newTestEnv(t, "")
	body := `{"title":"Keys","description":"Red lanyard","locationText":"Gate 1",
		"docUrls":["gs://lostfound-demo.appspot.com/items/item-1/keys.jpg"]}`

	w := env.do(t, http.MethodPost, "/api/items/lost", body, env.bearer(t, "alice"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "CONFIGURATION_ERROR", decodeError(t, w).Error.Code)
}

func TestClaimLifecycle(t *testing.T) {
	env := newTestEnv(t, testBucket)
	alice, carol := env.bearer(t, "alice"), env.bearer(t, "carol")

	w := env.do(t, http.MethodPost, "/api/items/found", foundBody, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	var item models.ItemDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))

	w = env.do(t, http.MethodPost, "/api/items/"+item.ID+"/claims",
		`{"secretDetail":"Photo has a red scarf","justification":"It is my card"}`, carol)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secretDetail")
	assert.NotContains(t, w.Body.String(), "red scarf")
	var claim models.Claim
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &claim))
	assert.Equal(t, models.ClaimStatusPending, claim.Status)

	w = env.do(t, http.MethodGet, "/api/items/"+item.ID+"/claims", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Claim
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, claim.ID, list[0].ID)

	w = env.do(t, http.MethodPatch, "/api/claims/"+claim.ID+"/decision?status=approved", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPatch, "/api/claims/"+claim.ID+"/decision?status=maybe", "", alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, "/api/claims/"+claim.ID+"/decision?status=approved", "", alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reviewed models.Claim
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reviewed))
	assert.Equal(t, models.ClaimStatusApproved, reviewed.Status)
	assert.Equal(t, "alice", reviewed.ReviewerID)

	w = env.do(t, http.MethodGet, "/api/users/carol/claims", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestUserRoutes(t *testing.T) {
	env := newTestEnv(t, testBucket)
	w := env.do(t, http.MethodPost, "/api/items/found", foundBody, env.bearer(t, "alice"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/users/alice", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "alice", profile.ID)

	w = env.do(t, http.MethodGet, "/api/users/alice/reports", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var reports []models.ItemSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	assert.Len(t, reports, 1)

	w = env.do(t, http.MethodGet, "/api/users/bob/reports", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t, testBucket)

	w := env.do(t, http.MethodGet, "/api/admin/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/dashboard", "", env.bearer(t, "alice"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, w).Error.Code)

	admin := env.bearer(t, "admin-001", token.RoleAdmin)
	for _, path := range []string{
		"/api/admin/dashboard",
		"/api/admin/users",
		"/api/admin/reports/flagged",
		"/api/admin/claims/pending",
	} {
		w = env.do(t, http.MethodGet, path, "", admin)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = env.do(t, http.MethodGet, "/api/admin/dashboard", "", admin)
	var snap models.DashboardSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 102, snap.ItemsLast30Days)
}

func TestStoreOutageDegradesReads(t *testing.T) {
	env := newTestEnv(t, testBucket)
	env.store.FailWith(database.OpFind, assert.AnError)
	env.store.FailWith(database.OpGet, assert.AnError)

	w := env.do(t, http.MethodGet, "/api/items/search?status=lost", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res models.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.TotalItems)

	w = env.do(t, http.MethodGet, "/api/items/lost-001", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/items/lost-001/claims", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", decodeError(t, w).Error.Code)
}
