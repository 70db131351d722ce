package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"propnest/internal/model"
	"propnest/migrations"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// foreignKeyViolation is the SQLSTATE postgres raises for a dangling reference
const foreignKeyViolation = "23503"

const buildingColumns = `
	id, slug, name, locality, bhk, min_price, max_price, collections,
	amenities, latitude, longitude, image_url, description, created_at, updated_at`

const listingColumns = `
	id, building_id, title, bhk, price, area_sqft, floor, facing, status,
	url, listed_at, created_at`

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewFromDB wraps an existing connection pool
func NewFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Migrate applies the embedded schema files in name order. The files are
// idempotent so this is safe on every start.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}
	return nil
}

// ListBuildings returns every building ordered by name
func (r *PostgresRepository) ListBuildings(ctx context.Context) ([]model.Building, error) {
	query := `SELECT` + buildingColumns + ` FROM buildings ORDER BY name, id`

	var buildings []model.Building
	if err := r.db.SelectContext(ctx, &buildings, query); err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	return buildings, nil
}

// GetBuilding retrieves a building by id or slug
func (r *PostgresRepository) GetBuilding(ctx context.Context, idOrSlug string) (*model.Building, error) {
	query := `SELECT` + buildingColumns + ` FROM buildings WHERE id = $1 OR slug = $1 LIMIT 1`

	var b model.Building
	err := r.db.GetContext(ctx, &b, query, idOrSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get building: %w", err)
	}
	return &b, nil
}

// ListListings returns the units of a building, cheapest first
func (r *PostgresRepository) ListListings(ctx context.Context, buildingID string) ([]model.Listing, error) {
	query := `SELECT` + listingColumns + ` FROM listings WHERE building_id = $1 ORDER BY price, id`

	listings := []model.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, buildingID); err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

// GetScores returns the computed match scores of a user keyed by building id.
// Rows without an overall score (shortlist-only rows) are skipped.
func (r *PostgresRepository) GetScores(ctx context.Context, userID uuid.UUID, buildingIDs []string) (map[string]model.MatchScore, error) {
	if len(buildingIDs) == 0 {
		return map[string]model.MatchScore{}, nil
	}

	query := `
		SELECT user_id, building_id, overall_score,
			COALESCE(location_score, 0) AS location_score,
			COALESCE(budget_score, 0) AS budget_score,
			COALESCE(lifestyle_score, 0) AS lifestyle_score
		FROM user_building_scores
		WHERE user_id = $1 AND building_id = ANY($2) AND overall_score IS NOT NULL
	`
	var scores []model.MatchScore
	if err := r.db.SelectContext(ctx, &scores, query, userID, pq.Array(buildingIDs)); err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}

	out := make(map[string]model.MatchScore, len(scores))
	for _, s := range scores {
		out[s.BuildingID] = s
	}
	return out, nil
}

// GetScore returns one match score or ErrNotFound
func (r *PostgresRepository) GetScore(ctx context.Context, userID uuid.UUID, buildingID string) (*model.MatchScore, error) {
	scores, err := r.GetScores(ctx, userID, []string{buildingID})
	if err != nil {
		return nil, err
	}
	s, ok := scores[buildingID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

// IsShortlisted reads the shortlist flag; a missing row means false
func (r *PostgresRepository) IsShortlisted(ctx context.Context, userID uuid.UUID, buildingID string) (bool, error) {
	var shortlisted bool
	err := r.db.GetContext(ctx, &shortlisted,
		`SELECT shortlisted FROM user_building_scores WHERE user_id = $1 AND building_id = $2`,
		userID, buildingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read shortlist flag: %w", err)
	}
	return shortlisted, nil
}

// ShortlistedIDs returns the ids of every building the user shortlisted
func (r *PostgresRepository) ShortlistedIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT building_id FROM user_building_scores WHERE user_id = $1 AND shortlisted ORDER BY updated_at DESC, building_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortlist: %w", err)
	}
	return ids, nil
}

// UpsertShortlist sets the shortlist flag for (user, building), leaving scores untouched
func (r *PostgresRepository) UpsertShortlist(ctx context.Context, userID uuid.UUID, buildingID string, shortlisted bool) error {
	query := `
		INSERT INTO user_building_scores (user_id, building_id, shortlisted, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, building_id)
		DO UPDATE SET shortlisted = EXCLUDED.shortlisted, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, buildingID, shortlisted); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("failed to upsert shortlist: %w", err)
	}
	return nil
}

// BatchUpdateEmbeddings updates embeddings for multiple buildings
func (r *PostgresRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE buildings SET embedding = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for _, item := range items {
		res, err := stmt.ExecContext(ctx, pgvector.NewVector(item.Embedding), item.BuildingID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("building_id %s: %v", item.BuildingID, err))
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			errs = append(errs, fmt.Sprintf("building_id %s: not found", item.BuildingID))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}

	return success, errs
}

// SimilarBuildings returns the nearest buildings by embedding cosine distance
func (r *PostgresRepository) SimilarBuildings(ctx context.Context, buildingID string, limit int) ([]model.Building, error) {
	query := `
		SELECT` + buildingColumns + `
		FROM buildings
		WHERE id <> $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> (SELECT embedding FROM buildings WHERE id = $1)
		LIMIT $2
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT embedding IS NOT NULL FROM buildings WHERE id = $1`, buildingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read embedding: %w", err)
	}
	if !exists {
		return []model.Building{}, nil
	}

	buildings := []model.Building{}
	if err := r.db.SelectContext(ctx, &buildings, query, buildingID, limit); err != nil {
		return nil, fmt.Errorf("failed to find similar buildings: %w", err)
	}
	return buildings, nil
}

// LogSearch records a search for later relevance tuning
func (r *PostgresRepository) LogSearch(ctx context.Context, term string, filters []model.Filter, resultCount int, buildingIDs []string, responseTimeMs int) error {
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}

	query := `
		INSERT INTO search_logs (search_term, filters, result_count, returned_building_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.db.ExecContext(ctx, query, term, filtersJSON, resultCount, pq.Array(buildingIDs), responseTimeMs)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}
