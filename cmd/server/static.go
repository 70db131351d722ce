package main

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propnest/internal/repository"
	"propnest/internal/seo"
)

// setupStaticFiles serves the frontend build. Unknown paths fall back to
// index.html with the head tags of the requested page injected. functions
// answer their path for methods the router has no route for.
func setupStaticFiles(router *gin.Engine, distFS fs.FS, functions map[string]gin.HandlerFunc, pages *seo.Pages, renderer *seo.Renderer, logger *zap.Logger) {
	router.NoRoute(func(c *gin.Context) {
		urlPath := c.Request.URL.Path

		if fn, ok := functions[urlPath]; ok {
			fn(c)
			return
		}

		// Skip API routes (they are handled by other routes)
		if strings.HasPrefix(urlPath, "/api/") || strings.HasPrefix(urlPath, "/functions/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}

		cleanPath := path.Clean(urlPath)
		if cleanPath != "/" {
			if content, ok := readFile(distFS, strings.TrimPrefix(cleanPath, "/")); ok {
				c.Data(http.StatusOK, contentType(cleanPath), content)
				return
			}
		}

		index, ok := readFile(distFS, "index.html")
		if !ok {
			c.String(http.StatusNotFound, "404 page not found")
			return
		}

		status := http.StatusOK
		meta, err := pages.Resolve(c.Request.Context(), cleanPath)
		switch {
		case err == nil:
		case errors.Is(err, seo.ErrUnknownPage) || errors.Is(err, repository.ErrNotFound):
			status = http.StatusNotFound
			meta = seo.PageMeta{CanonicalPath: cleanPath, NoIndex: true}
		default:
			logger.Warn("page metadata unavailable", zap.String("path", cleanPath), zap.Error(err))
			c.Data(http.StatusOK, "text/html; charset=utf-8", index)
			return
		}

		head, err := renderer.RenderHead(meta)
		if err == nil {
			var injected []byte
			if injected, err = seo.Inject(index, head); err == nil {
				index = injected
			}
		}
		if err != nil {
			logger.Warn("head injection failed", zap.String("path", cleanPath), zap.Error(err))
		}

		c.Header("Cache-Control", "no-cache")
		c.Data(status, "text/html; charset=utf-8", index)
	})
}

func readFile(fsys fs.FS, name string) ([]byte, bool) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil || stat.IsDir() {
		return nil, false
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, false
	}
	return content, true
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".json", ".webmanifest":
		return "application/json; charset=utf-8"
	case ".xml":
		return "application/xml; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	case ".woff2":
		return "font/woff2"
	default:
		return "text/html; charset=utf-8"
	}
}
