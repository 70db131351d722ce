//go:build embed
// +build embed

package main

import (
	"embed"
	"io/fs"

	"go.uber.org/zap"
)

//go:embed web/dist
var webDist embed.FS

// frontendFS returns the frontend build compiled into the binary
func frontendFS(_ string, logger *zap.Logger) (fs.FS, error) {
	logger.Info("using embedded frontend assets")
	return fs.Sub(webDist, "web/dist")
}
