// Command sitemap writes sitemap.xml for the public site. The base URL comes
// from SITE_URL and defaults to https://propnest.in.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"propnest/internal/catalog"
	"propnest/internal/config"
	"propnest/internal/model"
	"propnest/internal/repository"
	"propnest/internal/sitemap"
)

// pages that must not be indexed
var excluded = map[string]bool{
	"/shortlist":  true,
	"/onboarding": true,
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "sitemap: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("sitemap", flag.ContinueOnError)
	out := fs.String("out", "public/sitemap.xml", "output file")
	catalogPath := fs.String("catalog", os.Getenv("CATALOG_PATH"), "catalog file, built-in catalog when empty")
	withBuildings := fs.Bool("with-buildings", false, "add a page per building from DATABASE_URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	baseURL := os.Getenv("SITE_URL")
	if baseURL == "" {
		baseURL = config.DefaultSiteURL
	}

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		return err
	}

	var buildings []model.Building
	if *withBuildings {
		if buildings, err = loadBuildings(ctx); err != nil {
			return err
		}
	}

	entries := buildEntries(cat, buildings)
	if err := sitemap.Write(*out, baseURL, entries); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d urls for %s to %s\n", len(entries), baseURL, *out)
	return nil
}

func loadBuildings(ctx context.Context) ([]model.Building, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	repo, err := repository.NewPostgresRepository(cfg.GetPostgreSQLDSN(), 2, 1)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return repo.ListBuildings(ctx)
}

func buildEntries(cat *catalog.Catalog, buildings []model.Building) []sitemap.Entry {
	var entries []sitemap.Entry
	for _, p := range cat.Pages {
		if excluded[p.Path] {
			continue
		}
		entries = append(entries, sitemap.Entry{Path: p.Path, ChangeFreq: p.ChangeFreq, Priority: p.Priority})
	}
	for _, l := range cat.Localities {
		entries = append(entries, sitemap.Entry{Path: "/localities/" + l.Key, ChangeFreq: "weekly", Priority: 0.6})
	}
	for _, b := range buildings {
		slug := b.Slug
		if slug == "" {
			slug = b.ID
		}
		entries = append(entries, sitemap.Entry{
			Path:       "/buildings/" + slug,
			LastMod:    b.UpdatedAt,
			ChangeFreq: "weekly",
			Priority:   0.7,
		})
	}
	return entries
}
