package seo

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageMeta describes the head of one rendered page
type PageMeta struct {
	Title         string
	Description   string
	CanonicalPath string
	Image         string
	Type          string // og:type, "website" when empty
	Keywords      []string
	JSONLD        map[string]any
	NoIndex       bool
}

// Renderer turns PageMeta into head tags for one site
type Renderer struct {
	siteName     string
	baseURL      string
	defaultImage string
}

// NewRenderer creates a renderer. baseURL is the public origin, e.g.
// https://propnest.in; relative image paths are resolved against it.
func NewRenderer(siteName, baseURL, defaultImage string) *Renderer {
	return &Renderer{
		siteName:     siteName,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultImage: defaultImage,
	}
}

var headTemplate = template.Must(template.New("head").Parse(
	`<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
{{- if .Keywords}}
<meta name="keywords" content="{{.Keywords}}">
{{- end}}
{{- if .NoIndex}}
<meta name="robots" content="noindex, nofollow">
{{- end}}
<link rel="canonical" href="{{.Canonical}}">
<meta property="og:site_name" content="{{.SiteName}}">
<meta property="og:type" content="{{.Type}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:url" content="{{.Canonical}}">
{{- if .Image}}
<meta property="og:image" content="{{.Image}}">
{{- end}}
<meta name="twitter:card" content="{{if .Image}}summary_large_image{{else}}summary{{end}}">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
{{- if .Image}}
<meta name="twitter:image" content="{{.Image}}">
{{- end}}
{{- if .JSONLD}}
<script type="application/ld+json">{{.JSONLD}}</script>
{{- end}}
`))

type headData struct {
	Title       string
	Description string
	Keywords    string
	NoIndex     bool
	Canonical   string
	SiteName    string
	Type        string
	Image       string
	JSONLD      map[string]any
}

// RenderHead renders the head tags for meta
func (r *Renderer) RenderHead(meta PageMeta) (template.HTML, error) {
	data := headData{
		Title:       meta.Title,
		Description: meta.Description,
		Keywords:    strings.Join(meta.Keywords, ", "),
		NoIndex:     meta.NoIndex,
		Canonical:   r.URL(meta.CanonicalPath),
		SiteName:    r.siteName,
		Type:        meta.Type,
		Image:       r.imageURL(meta.Image),
		JSONLD:      meta.JSONLD,
	}
	if data.Title == "" {
		data.Title = r.siteName
	}
	if data.Type == "" {
		data.Type = "website"
	}

	var buf bytes.Buffer
	if err := headTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render head: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// URL resolves a site path against the base URL
func (r *Renderer) URL(path string) string {
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return r.baseURL + path
}

func (r *Renderer) imageURL(image string) string {
	if image == "" {
		image = r.defaultImage
	}
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return r.URL(image)
}

// replacedTags are the shell's head tags that RenderHead output supersedes
var replacedTags = []string{
	"title",
	`meta[name="description"]`,
	`meta[name="keywords"]`,
	`meta[name="robots"]`,
	`link[rel="canonical"]`,
	`meta[property^="og:"]`,
	`meta[name^="twitter:"]`,
	`script[type="application/ld+json"]`,
}

// Inject replaces the page tags of an index.html shell with the rendered
// head. Documents without a <head> are returned unchanged.
func Inject(index []byte, head template.HTML) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(index))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}

	h := doc.Find("head")
	if h.Length() == 0 || !bytes.Contains(bytes.ToLower(index), []byte("<head")) {
		return index, nil
	}
	h.Find(strings.Join(replacedTags, ", ")).Remove()
	h.AppendHtml(string(head))

	out, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to render index: %w", err)
	}
	return []byte(out), nil
}
