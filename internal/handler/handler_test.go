package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propnest/internal/auth"
	"propnest/internal/catalog"
	"propnest/internal/filter"
	"propnest/internal/model"
	"propnest/internal/preference"
	"propnest/internal/repository"
	"propnest/internal/service"
	"propnest/internal/shortlist"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	mu        sync.Mutex
	buildings []model.Building
	flags     map[string]bool
}

func (f *fakeStore) ListBuildings(context.Context) ([]model.Building, error) {
	return f.buildings, nil
}

func (f *fakeStore) GetBuilding(_ context.Context, idOrSlug string) (*model.Building, error) {
	for _, b := range f.buildings {
		if b.ID == idOrSlug || b.Slug == idOrSlug {
			b := b
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ListListings(context.Context, string) ([]model.Listing, error) {
	return []model.Listing{}, nil
}

func (f *fakeStore) GetScores(context.Context, uuid.UUID, []string) (map[string]model.MatchScore, error) {
	return map[string]model.MatchScore{}, nil
}

func (f *fakeStore) SimilarBuildings(context.Context, string, int) ([]model.Building, error) {
	return []model.Building{}, nil
}

func (f *fakeStore) BatchUpdateEmbeddings(_ context.Context, items []model.EmbeddingItem) (int, []string) {
	return len(items), nil
}

func (f *fakeStore) LogSearch(context.Context, string, []model.Filter, int, []string, int) error {
	return nil
}

func (f *fakeStore) IsShortlisted(_ context.Context, userID uuid.UUID, buildingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[userID.String()+":"+buildingID], nil
}

func (f *fakeStore) UpsertShortlist(_ context.Context, userID uuid.UUID, buildingID string, shortlisted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasBuilding(buildingID) {
		return repository.ErrNotFound
	}
	f.flags[userID.String()+":"+buildingID] = shortlisted
	return nil
}

func (f *fakeStore) hasBuilding(id string) bool {
	for _, b := range f.buildings {
		if b.ID == id {
			return true
		}
	}
	return false
}

func (f *fakeStore) ShortlistedIDs(_ context.Context, userID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []string{}
	for _, b := range f.buildings {
		if f.flags[userID.String()+":"+b.ID] {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

const testAdminToken = "test-admin-token"

type testAPI struct {
	router   *gin.Engine
	store    *fakeStore
	verifier *auth.Verifier
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	c, err := catalog.Default()
	require.NoError(t, err)
	verifier, err := auth.NewVerifier("test-secret", "", "")
	require.NoError(t, err)

	store := &fakeStore{
		flags: map[string]bool{},
		buildings: []model.Building{
			{ID: "A", Slug: "prestige-lakeside", Name: "Prestige Lakeside", Locality: "Indiranagar",
				BHK: []int64{2, 3}, MinPrice: 6_000_000, MaxPrice: 9_500_000},
			{ID: "B", Slug: "sobha-royal", Name: "Sobha Royal", Locality: "Koramangala",
				BHK: []int64{4}, MinPrice: 22_000_000, MaxPrice: 30_000_000},
		},
	}
	controller := shortlist.NewController(store, nil, nil, zap.NewNop())
	svc := service.NewBuildingService(store,
		filter.NewEvaluator(filter.WithBrackets(c.Brackets())),
		preference.NewMapper(c),
		zap.NewNop(),
		service.WithShortlists(controller),
	)

	buildings := NewBuildingHandler(svc)
	shortlists := NewShortlistHandler(controller)
	preferences := NewPreferenceHandler(svc)
	embeddings := NewEmbeddingHandler(svc)

	router := gin.New()
	router.Use(RequestLogger(zap.NewNop()))
	api := router.Group("/api/v1", Session(verifier))
	api.POST("/buildings/search", buildings.Search)
	api.GET("/buildings/map", buildings.Map)
	api.GET("/buildings/:id", buildings.Get)
	api.POST("/preferences/filters", preferences.Filters)
	api.POST("/shortlist/:buildingId/toggle", shortlists.Toggle)
	api.GET("/shortlist", shortlists.List)
	api.POST("/embeddings/batch", AdminOnly(testAdminToken), embeddings.BatchUpdate)
	api.GET("/catalog", NewCatalogHandler(c).Get)

	return &testAPI{router: router, store: store, verifier: verifier}
}

func (a *testAPI) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestBuildingSearch(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/buildings/search",
		`{"filters":[{"type":"LOCALITY","value":["Indiranagar"]},{"type":"BUDGET","value":["50L - 1Cr"]}]}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "A", resp.Results[0].ID)
	assert.Equal(t, 1, resp.Total)
}

func TestBuildingSearch_BadRequests(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"filters":`},
		{"unknown filter type", `{"filters":[{"type":"FLOOR","value":["3"]}]}`},
		{"unknown bracket", `{"filters":[{"type":"BUDGET","value":["cheap"]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, "/api/v1/buildings/search", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestBuildingGet(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/v1/buildings/prestige-lakeside", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail model.BuildingDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "A", detail.ID)
	assert.Equal(t, "₹60 L - ₹95 L", detail.PriceLabel)

	w = api.do(http.MethodGet, "/api/v1/buildings/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuildingMap_InvalidPrecision(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/buildings/map?precision=x", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/buildings/map?precision=12", "", "").Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/buildings/map", "", "").Code)
}

func TestShortlistToggle(t *testing.T) {
	api := newTestAPI(t)
	userID := uuid.New()
	token, err := api.verifier.Issue(auth.Session{UserID: userID}, time.Hour)
	require.NoError(t, err)

	// anonymous: auth required, nothing written
	w := api.do(http.MethodPost, "/api/v1/shortlist/A/toggle", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var anon model.ToggleShortlistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &anon))
	assert.True(t, anon.AuthRequired)
	require.Len(t, anon.Notifications, 1)
	assert.Equal(t, shortlist.KindAuthRequired, anon.Notifications[0].Kind)
	assert.Empty(t, api.store.flags)

	w = api.do(http.MethodPost, "/api/v1/shortlist/A/toggle", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var added model.ToggleShortlistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.True(t, added.Shortlisted)
	assert.Equal(t, []string{"A"}, added.Shortlist)

	w = api.do(http.MethodGet, "/api/v1/shortlist", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var snap model.Result[[]string]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, model.StatusSuccess, snap.Status)
	assert.Equal(t, []string{"A"}, snap.Data)

	// search results carry the flag
	w = api.do(http.MethodPost, "/api/v1/buildings/search", `{}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	var resp model.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Shortlisted)
	assert.False(t, resp.Results[1].Shortlisted)

	w = api.do(http.MethodPost, "/api/v1/shortlist/A/toggle", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var removed model.ToggleShortlistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &removed))
	assert.False(t, removed.Shortlisted)
	assert.Equal(t, "Removed from shortlist", removed.Notifications[0].Title)
}

func TestShortlistToggle_UnknownBuilding(t *testing.T) {
	api := newTestAPI(t)
	token, err := api.verifier.Issue(auth.Session{UserID: uuid.New()}, time.Hour)
	require.NoError(t, err)

	w := api.do(http.MethodPost, "/api/v1/shortlist/nope/toggle", "", token)
	require.Equal(t, http.StatusNotFound, w.Code)
	var resp model.ToggleShortlistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Shortlisted)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Building not found", resp.Notifications[0].Title)
	assert.Empty(t, api.store.flags)
}

func TestShortlistList_RequiresSession(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/v1/shortlist", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"auth_required":true`)
}

func TestSession_InvalidToken(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/shortlist/A/toggle", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired session")
}

func TestPreferenceFilters(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/preferences/filters",
		`{"preferences":{"bhk":[2],"budget_lakh":100,"localities":["indiranagar"]}}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.PreferenceFiltersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []model.Filter{
		{Type: model.FilterLocality, Value: []string{"Indiranagar"}},
		{Type: model.FilterBHK, Value: []string{"2 BHK"}},
		{Type: model.FilterBudget, Value: []string{"Under 50L", "50L - 1Cr"}},
	}, resp.Filters)

	w = api.do(http.MethodPost, "/api/v1/preferences/filters",
		`{"preferences":{"bhk":[0],"budget_lakh":100}}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (a *testAPI) admin(body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/embeddings/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(AdminTokenHeader, token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func embeddingBody(t *testing.T, ids ...string) string {
	t.Helper()
	req := model.EmbeddingBatchRequest{}
	for _, id := range ids {
		req.Embeddings = append(req.Embeddings, model.EmbeddingItem{BuildingID: id, Embedding: make([]float32, EmbeddingDimensions)})
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return string(body)
}

func TestEmbeddingBatch(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name       string
		body       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{"no token", embeddingBody(t, "A"), "", http.StatusUnauthorized, "Invalid admin token"},
		{"wrong token", embeddingBody(t, "A"), "guess", http.StatusUnauthorized, "Invalid admin token"},
		{"short vector", `{"embeddings":[{"building_id":"A","embedding":[0.1,0.2]}]}`, testAdminToken, http.StatusBadRequest, "index 0, expected 1536"},
		{"duplicate building", embeddingBody(t, "A", "B", "A"), testAdminToken, http.StatusBadRequest, "index 0 and 2"},
		{"empty batch", `{"embeddings":[]}`, testAdminToken, http.StatusBadRequest, `"error"`},
		{"stored", embeddingBody(t, "A", "B"), testAdminToken, http.StatusOK, `"success":2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.admin(tt.body, tt.token)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestAdminOnly_DisabledWithoutToken(t *testing.T) {
	router := gin.New()
	router.POST("/admin", AdminOnly(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set(AdminTokenHeader, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCatalog(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/v1/catalog", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Localities     []catalog.Locality `json:"localities"`
		BudgetBrackets []filter.Bracket   `json:"budget_brackets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Localities, 10)
	require.Len(t, body.BudgetBrackets, 6)
	assert.Equal(t, int64(5_000_000), body.BudgetBrackets[1].Min)
}

func TestRequestLogger_TraceID(t *testing.T) {
	api := newTestAPI(t)

	traceID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	req.Header.Set(TraceHeader, traceID)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, traceID, w.Header().Get(TraceHeader))

	w = api.do(http.MethodGet, "/api/v1/catalog", "", "")
	_, err := uuid.Parse(w.Header().Get(TraceHeader))
	assert.NoError(t, err)
}

type stubLimiter struct {
	allow bool
	err   error
	hits  int
}

func (s *stubLimiter) Allow(context.Context, string, string, int64) (bool, error) {
	s.hits++
	return s.allow, s.err
}

func TestMapsKey(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		apiKey     string
		limiter    *stubLimiter
		wantStatus int
		wantBody   string
	}{
		{"get", http.MethodGet, "maps-secret", nil, http.StatusOK, `{"apiKey":"maps-secret"}`},
		{"post", http.MethodPost, "maps-secret", nil, http.StatusOK, `{"apiKey":"maps-secret"}`},
		{"preflight", http.MethodOptions, "maps-secret", nil, http.StatusOK, "ok"},
		{"preflight without key", http.MethodOptions, "", nil, http.StatusOK, "ok"},
		{"put", http.MethodPut, "maps-secret", nil, http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`},
		{"delete", http.MethodDelete, "maps-secret", nil, http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`},
		{"missing key", http.MethodGet, "", nil, http.StatusBadRequest, `{"error":"Maps API key not configured"}`},
		{"rate limited", http.MethodGet, "maps-secret", &stubLimiter{allow: false}, http.StatusTooManyRequests, `{"error":"Too many requests"}`},
		{"limiter down", http.MethodGet, "maps-secret", &stubLimiter{err: errors.New("redis down")}, http.StatusOK, `{"apiKey":"maps-secret"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var limiter RateLimiter
			if tt.limiter != nil {
				limiter = tt.limiter
			}
			router := gin.New()
			router.Any("/functions/v1/maps-key", NewMapsKeyHandler(tt.apiKey, limiter, 30).Serve)

			req := httptest.NewRequest(tt.method, "/functions/v1/maps-key", bytes.NewReader(nil))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if strings.HasPrefix(tt.wantBody, "{") {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			} else {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "content-type")
		})
	}
}
