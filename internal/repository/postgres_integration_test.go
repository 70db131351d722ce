//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"propnest/internal/model"
)

var testRepo *PostgresRepository

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:pg16",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable", host, port.Port())

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	testRepo = NewFromDB(db)
	if err := testRepo.Migrate(ctx); err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = db.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := testRepo.db.ExecContext(ctx, `TRUNCATE buildings, listings, user_building_scores, search_logs CASCADE`)
	require.NoError(t, err)

	_, err = testRepo.db.ExecContext(ctx, `
		INSERT INTO buildings (id, slug, name, locality, bhk, min_price, max_price, collections, amenities, latitude, longitude)
		VALUES
			('A', 'prestige-lakeside', 'Prestige Lakeside', 'Indiranagar', '{2,3}', 6000000, 9500000, '{luxury,gated}', '["Gym","Pool"]', 12.97, 77.64),
			('B', 'sobha-royal', 'Sobha Royal', 'Koramangala', '{4}', 22000000, 30000000, '{luxury}', NULL, NULL, NULL),
			('C', 'brigade-nest', 'Brigade Nest', 'Indiranagar', '{2}', 7000000, 8000000, '{}', '[]', 12.96, 77.63)
	`)
	require.NoError(t, err)

	_, err = testRepo.db.ExecContext(ctx, `
		INSERT INTO listings (id, building_id, title, bhk, price, status)
		VALUES ('A-1', 'A', 'Lake view 3BHK', 3, 9500000, 'available'),
		       ('A-2', 'A', NULL, 2, 6000000, 'available')
	`)
	require.NoError(t, err)
}

func TestBuildings(t *testing.T) {
	seed(t)
	ctx := context.Background()

	buildings, err := testRepo.ListBuildings(ctx)
	require.NoError(t, err)
	require.Len(t, buildings, 3)
	assert.Equal(t, "Brigade Nest", buildings[0].Name)

	b, err := testRepo.GetBuilding(ctx, "prestige-lakeside")
	require.NoError(t, err)
	assert.Equal(t, "A", b.ID)
	assert.Equal(t, []int64{2, 3}, []int64(b.BHK))
	assert.Equal(t, model.JSONArray{"Gym", "Pool"}, b.Amenities)
	assert.True(t, b.HasCoordinates())

	_, err = testRepo.GetBuilding(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	listings, err := testRepo.ListListings(ctx, "A")
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "A-2", listings[0].ID)
}

func TestShortlistUpsert(t *testing.T) {
	seed(t)
	ctx := context.Background()
	user := uuid.New()

	on, err := testRepo.IsShortlisted(ctx, user, "A")
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, testRepo.UpsertShortlist(ctx, user, "A", true))
	require.NoError(t, testRepo.UpsertShortlist(ctx, user, "B", true))
	require.NoError(t, testRepo.UpsertShortlist(ctx, user, "B", false))

	on, err = testRepo.IsShortlisted(ctx, user, "A")
	require.NoError(t, err)
	assert.True(t, on)

	ids, err := testRepo.ShortlistedIDs(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids)

	err = testRepo.UpsertShortlist(ctx, user, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScores(t *testing.T) {
	seed(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := testRepo.db.ExecContext(ctx, `
		INSERT INTO user_building_scores (user_id, building_id, overall_score, location_score, budget_score, lifestyle_score)
		VALUES ($1, 'A', 0.9, 0.8, 0.7, 0.6)
	`, user)
	require.NoError(t, err)
	require.NoError(t, testRepo.UpsertShortlist(ctx, user, "A", true))
	require.NoError(t, testRepo.UpsertShortlist(ctx, user, "B", true))

	scores, err := testRepo.GetScores(ctx, user, []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 0.9, scores["A"].Overall, 1e-9)
	assert.Equal(t, user, scores["A"].UserID)

	_, err = testRepo.GetScore(ctx, user, "B")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmbeddingsAndSimilar(t *testing.T) {
	seed(t)
	ctx := context.Background()

	vec := func(x, y float32) []float32 {
		v := make([]float32, 1536)
		v[0], v[1] = x, y
		return v
	}

	ok, errs := testRepo.BatchUpdateEmbeddings(ctx, []model.EmbeddingItem{
		{BuildingID: "A", Embedding: vec(1, 0)},
		{BuildingID: "B", Embedding: vec(0, 1)},
		{BuildingID: "C", Embedding: vec(0.9, 0.1)},
		{BuildingID: "Z", Embedding: vec(1, 1)},
	})
	assert.Equal(t, 3, ok)
	assert.Len(t, errs, 1)

	similar, err := testRepo.SimilarBuildings(ctx, "A", 2)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, "C", similar[0].ID)
	assert.Equal(t, "B", similar[1].ID)

	_, err = testRepo.SimilarBuildings(ctx, "missing", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogSearch(t *testing.T) {
	seed(t)
	err := testRepo.LogSearch(context.Background(), "lake",
		[]model.Filter{{Type: model.FilterLocality, Value: []string{"Indiranagar"}}}, 1, []string{"A"}, 3)
	require.NoError(t, err)
}
