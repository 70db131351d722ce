package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Entry is one page of the site
type Entry struct {
	Path       string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []urlTag `xml:"url"`
}

type urlTag struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

var changeFreqs = map[string]bool{
	"always": true, "hourly": true, "daily": true, "weekly": true,
	"monthly": true, "yearly": true, "never": true,
}

// Build renders a sitemap for baseURL. Paths are de-duplicated (first entry
// wins) and sorted.
func Build(baseURL string, entries []Entry) ([]byte, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	root := strings.TrimRight(base.String(), "/")

	seen := make(map[string]struct{}, len(entries))
	set := urlSet{Xmlns: xmlns}
	for _, e := range entries {
		path := "/" + strings.Trim(e.Path, "/")
		if path != "/" && strings.HasSuffix(e.Path, "/") {
			path += "/"
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}

		if e.ChangeFreq != "" && !changeFreqs[e.ChangeFreq] {
			return nil, fmt.Errorf("invalid changefreq %q for %s", e.ChangeFreq, path)
		}
		if e.Priority < 0 || e.Priority > 1 {
			return nil, fmt.Errorf("priority %.2f for %s out of range", e.Priority, path)
		}

		tag := urlTag{Loc: root + path, ChangeFreq: e.ChangeFreq}
		if !e.LastMod.IsZero() {
			tag.LastMod = e.LastMod.UTC().Format("2006-01-02")
		}
		if e.Priority > 0 {
			tag.Priority = strconv.FormatFloat(e.Priority, 'f', 1, 64)
		}
		set.URLs = append(set.URLs, tag)
	}

	sort.SliceStable(set.URLs, func(i, j int) bool {
		return set.URLs[i].Loc < set.URLs[j].Loc
	})

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Write builds the sitemap and writes it to path, creating parent directories
func Write(path, baseURL string, entries []Entry) error {
	data, err := Build(baseURL, entries)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sitemap: %w", err)
	}
	return nil
}
