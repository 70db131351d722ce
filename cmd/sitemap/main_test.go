package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propnest/internal/catalog"
	"propnest/internal/model"
)

func TestBuildEntries(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	updated := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	entries := buildEntries(cat, []model.Building{
		{ID: "A", Slug: "prestige-lakeside", UpdatedAt: updated},
		{ID: "B"},
	})

	paths := map[string]bool{}
	for _, e := range entries {
		paths[e.Path] = true
	}
	assert.True(t, paths["/"])
	assert.True(t, paths["/about"])
	assert.False(t, paths["/shortlist"])
	assert.True(t, paths["/localities/hsr-layout"])
	assert.True(t, paths["/buildings/prestige-lakeside"])
	assert.True(t, paths["/buildings/B"])
	assert.Len(t, entries, 3+len(cat.Localities)+2)
}

func TestRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sitemap.xml")
	t.Setenv("SITE_URL", "https://staging.propnest.in")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-out", out}, &stdout))
	assert.Contains(t, stdout.String(), "https://staging.propnest.in")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<loc>https://staging.propnest.in/localities/indiranagar</loc>")
}

func TestRun_DefaultSiteURL(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sitemap.xml")
	t.Setenv("SITE_URL", "")

	require.NoError(t, run(context.Background(), []string{"-out", out}, &bytes.Buffer{}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<loc>https://propnest.in/</loc>")
}

func TestRun_Failures(t *testing.T) {
	t.Setenv("SITE_URL", "not a url")
	err := run(context.Background(), []string{"-out", filepath.Join(t.TempDir(), "s.xml")}, &bytes.Buffer{})
	assert.Error(t, err)

	t.Setenv("SITE_URL", "")
	err = run(context.Background(), []string{"-catalog", "/does/not/exist.yaml"}, &bytes.Buffer{})
	assert.Error(t, err)

	err = run(context.Background(), []string{"-bogus"}, &bytes.Buffer{})
	assert.Error(t, err)
}
