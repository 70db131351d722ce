package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"propnest/internal/auth"
	"propnest/internal/cache"
	"propnest/internal/currency"
	"propnest/internal/filter"
	"propnest/internal/geo"
	"propnest/internal/model"
	"propnest/internal/preference"
	"propnest/internal/repository"
	"propnest/internal/score"
	"propnest/internal/search"
)

// ErrInvalidRequest marks a request the caller has to fix
var ErrInvalidRequest = errors.New("invalid request")

// IsValidationError reports whether err should be answered with 400
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, preference.ErrInvalidPreferences) ||
		filter.IsValidationError(err)
}

// IsNotFound reports whether err means the requested building does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// BuildingStore is the persistence the building service reads from
type BuildingStore interface {
	ListBuildings(ctx context.Context) ([]model.Building, error)
	GetBuilding(ctx context.Context, idOrSlug string) (*model.Building, error)
	ListListings(ctx context.Context, buildingID string) ([]model.Listing, error)
	GetScores(ctx context.Context, userID uuid.UUID, buildingIDs []string) (map[string]model.MatchScore, error)
	SimilarBuildings(ctx context.Context, buildingID string, limit int) ([]model.Building, error)
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
	LogSearch(ctx context.Context, term string, filters []model.Filter, resultCount int, buildingIDs []string, responseTimeMs int) error
}

// BuildingCache keeps the fetched building list until the next refetch
type BuildingCache interface {
	GetBuildings(ctx context.Context) ([]model.Building, error)
	SetBuildings(ctx context.Context, buildings []model.Building) error
	InvalidateBuildings(ctx context.Context) error
}

// ShortlistSource answers which buildings a user has shortlisted
type ShortlistSource interface {
	Snapshot(ctx context.Context, userID uuid.UUID) model.Result[[]string]
}

// BuildingService handles building discovery business logic
type BuildingService struct {
	store      BuildingStore
	cache      BuildingCache
	evaluator  *filter.Evaluator
	mapper     *preference.Mapper
	shortlists ShortlistSource
	logger     *zap.Logger

	defaultLimit int
	maxLimit     int
}

// Option configures a BuildingService
type Option func(*BuildingService)

// WithCache keeps the building list in c
func WithCache(c BuildingCache) Option {
	return func(s *BuildingService) { s.cache = c }
}

// WithShortlists marks results the signed-in user has shortlisted
func WithShortlists(src ShortlistSource) Option {
	return func(s *BuildingService) { s.shortlists = src }
}

// WithLimits sets the default and maximum page size
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *BuildingService) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// NewBuildingService creates a new building service
func NewBuildingService(
	store BuildingStore,
	evaluator *filter.Evaluator,
	mapper *preference.Mapper,
	logger *zap.Logger,
	opts ...Option,
) *BuildingService {
	s := &BuildingService{
		store:        store,
		evaluator:    evaluator,
		mapper:       mapper,
		logger:       logger,
		defaultLimit: 20,
		maxLimit:     100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Buildings returns every building, from the cache when it holds a copy.
// A cache failure falls through to the store.
func (s *BuildingService) Buildings(ctx context.Context) ([]model.Building, error) {
	if s.cache != nil {
		buildings, err := s.cache.GetBuildings(ctx)
		if err == nil {
			return buildings, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("building cache read failed", zap.Error(err))
		}
	}

	buildings, err := s.store.ListBuildings(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetBuildings(ctx, buildings); err != nil {
			s.logger.Warn("building cache write failed", zap.Error(err))
		}
	}
	return buildings, nil
}

// Refresh drops the cached building list so the next read refetches it
func (s *BuildingService) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateBuildings(ctx)
}

// Search narrows the catalogue by term, collections and filters, attaches the
// session user's scores and shortlist flags, sorts and paginates.
// session may be nil.
func (s *BuildingService) Search(ctx context.Context, session *auth.Session, req *model.BuildingSearchRequest) (*model.SearchResponse, error) {
	startTime := time.Now()

	options, err := s.normalizeOptions(req.Options)
	if err != nil {
		return nil, err
	}
	if err := s.evaluator.Validate(req.Filters); err != nil {
		return nil, err
	}

	buildings, err := s.Buildings(ctx)
	if err != nil {
		return nil, err
	}

	reduced := search.Reduce(buildings, req.Search, req.Collections)
	matched, err := s.evaluator.Apply(reduced, req.Filters)
	if err != nil {
		return nil, err
	}

	results, err := s.decorate(ctx, session, matched)
	if err != nil {
		return nil, err
	}
	sortResults(results, options.SortBy)

	total := len(results)
	page := paginate(results, options.Offset, options.Limit)
	took := time.Since(startTime).Milliseconds()

	// Log search (non-blocking)
	go func() {
		ids := make([]string, len(page))
		for i, r := range page {
			ids[i] = r.ID
		}
		if err := s.store.LogSearch(context.Background(), req.Search, req.Filters, total, ids, int(took)); err != nil {
			s.logger.Warn("failed to log search", zap.Error(err))
		}
	}()

	totalPages := 0
	if total > 0 {
		totalPages = (total + options.Limit - 1) / options.Limit
	}

	return &model.SearchResponse{
		Results:    page,
		Total:      total,
		Page:       options.Offset/options.Limit + 1,
		PageSize:   options.Limit,
		TotalPages: totalPages,
		HasMore:    options.Offset+len(page) < total,
		Took:       took,
	}, nil
}

// GetBuilding returns a building page: the building, its listings and the
// session user's score and shortlist flag
func (s *BuildingService) GetBuilding(ctx context.Context, session *auth.Session, idOrSlug string) (*model.BuildingDetail, error) {
	b, err := s.store.GetBuilding(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	listings, err := s.store.ListListings(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	results, err := s.decorate(ctx, session, []model.Building{*b})
	if err != nil {
		return nil, err
	}

	return &model.BuildingDetail{
		BuildingResult: results[0],
		Listings:       listings,
	}, nil
}

// Similar returns the buildings closest to idOrSlug by embedding
func (s *BuildingService) Similar(ctx context.Context, idOrSlug string, limit int) ([]model.BuildingResult, error) {
	if limit <= 0 || limit > s.maxLimit {
		limit = 6
	}

	b, err := s.store.GetBuilding(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	similar, err := s.store.SimilarBuildings(ctx, b.ID, limit)
	if err != nil {
		return nil, err
	}

	results := make([]model.BuildingResult, 0, len(similar))
	for _, sb := range similar {
		results = append(results, newResult(sb))
	}
	return results, nil
}

// MapClusters groups the buildings of the given collections by geohash cell
func (s *BuildingService) MapClusters(ctx context.Context, precision uint, collections []string) ([]model.MapCluster, error) {
	buildings, err := s.Buildings(ctx)
	if err != nil {
		return nil, err
	}

	clusters, err := geo.Cluster(search.ByCollections(buildings, collections), precision)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return clusters, nil
}

// UpdateEmbeddings stores building embeddings and drops the cached list
func (s *BuildingService) UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success, errs := s.store.BatchUpdateEmbeddings(ctx, items)
	if success > 0 {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("building cache invalidation failed", zap.Error(err))
		}
	}
	return success, errs
}

// PreferenceFilters maps onboarding answers to filters and an SEO summary
func (s *BuildingService) PreferenceFilters(req *model.PreferenceRequest) (*model.PreferenceFiltersResponse, error) {
	if err := s.mapper.Validate(req.Preferences); err != nil {
		return nil, err
	}
	return &model.PreferenceFiltersResponse{
		Filters: s.mapper.ToFilters(req.Preferences, req.StrictFeatures),
		SEO:     s.mapper.Describe(req.Preferences),
	}, nil
}

// PreferenceResults maps onboarding answers to filters and runs the search
func (s *BuildingService) PreferenceResults(ctx context.Context, session *auth.Session, req *model.PreferenceRequest) (*model.PreferenceResultsResponse, error) {
	mapped, err := s.PreferenceFilters(req)
	if err != nil {
		return nil, err
	}

	options := req.Options
	if options == nil {
		options = &model.SearchOptions{SortBy: model.SortByMatch}
	}

	resp, err := s.Search(ctx, session, &model.BuildingSearchRequest{
		Filters: mapped.Filters,
		Options: options,
	})
	if err != nil {
		return nil, err
	}

	return &model.PreferenceResultsResponse{
		PreferenceFiltersResponse: *mapped,
		Search:                    resp,
	}, nil
}

// decorate turns buildings into result cards with price labels, and with
// scores and shortlist flags when a user is signed in
func (s *BuildingService) decorate(ctx context.Context, session *auth.Session, buildings []model.Building) ([]model.BuildingResult, error) {
	results := make([]model.BuildingResult, 0, len(buildings))
	for _, b := range buildings {
		results = append(results, newResult(b))
	}
	if session == nil || len(results) == 0 {
		return results, nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	scores, err := s.store.GetScores(ctx, session.UserID, ids)
	if err != nil {
		return nil, err
	}

	shortlisted := s.shortlisted(ctx, session.UserID)
	for i := range results {
		if ms, ok := scores[results[i].ID]; ok {
			p := score.Present(ms)
			results[i].Score = &p
		}
		_, results[i].Shortlisted = shortlisted[results[i].ID]
	}
	return results, nil
}

// shortlisted returns the user's shortlist as a set. A failed or pending
// fetch leaves every flag false rather than failing the page.
func (s *BuildingService) shortlisted(ctx context.Context, userID uuid.UUID) map[string]struct{} {
	set := map[string]struct{}{}
	if s.shortlists == nil {
		return set
	}

	snap := s.shortlists.Snapshot(ctx, userID)
	if snap.IsFailure() {
		s.logger.Warn("shortlist unavailable", zap.String("user_id", userID.String()), zap.Error(snap.Err()))
		return set
	}
	for _, id := range snap.Data {
		set[id] = struct{}{}
	}
	return set
}

func (s *BuildingService) normalizeOptions(in *model.SearchOptions) (model.SearchOptions, error) {
	options := model.SearchOptions{Limit: s.defaultLimit}
	if in != nil {
		options = *in
	}
	if options.Limit <= 0 {
		options.Limit = s.defaultLimit
	}
	if options.Limit > s.maxLimit {
		options.Limit = s.maxLimit
	}
	if options.Offset < 0 {
		options.Offset = 0
	}

	switch options.SortBy {
	case "", model.SortByMatch, model.SortByPriceAsc, model.SortByPriceDesc, model.SortByName:
	default:
		return options, fmt.Errorf("%w: unknown sort %q", ErrInvalidRequest, options.SortBy)
	}
	return options, nil
}

func newResult(b model.Building) model.BuildingResult {
	return model.BuildingResult{
		Building:   b,
		PriceLabel: currency.FormatRange(b.MinPrice, b.MaxPrice),
	}
}

// sortResults orders results in place. An empty order ranks by match score,
// which keeps catalogue order when nothing is scored.
func sortResults(results []model.BuildingResult, sortBy string) {
	switch sortBy {
	case model.SortByPriceAsc:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].MinPrice < results[j].MinPrice
		})
	case model.SortByPriceDesc:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].MinPrice > results[j].MinPrice
		})
	case model.SortByName:
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].Name) < strings.ToLower(results[j].Name)
		})
	default:
		score.Rank(results)
	}
}

func paginate(results []model.BuildingResult, offset, limit int) []model.BuildingResult {
	if offset >= len(results) {
		return []model.BuildingResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
