//go:build !embed
// +build !embed

package main

import (
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// frontendFS serves the frontend build from disk. Run the frontend build
// (or its dev server) separately.
func frontendFS(distDir string, logger *zap.Logger) (fs.FS, error) {
	logger.Info("using local filesystem for frontend assets", zap.String("dir", distDir))
	if _, err := os.Stat(distDir); err != nil {
		logger.Warn("frontend build not found, only the API will be served", zap.Error(err))
	}
	return os.DirFS(distDir), nil
}
