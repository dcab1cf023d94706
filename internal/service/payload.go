package service

import (
	"log/slog"

	"github.com/templui/spaces/internal/storage"
)

// removePayload deletes stored bytes if they are still there. Failures are
// logged; the rows they belonged to are already gone.
func removePayload(store storage.Storage, path string) {
	if path == "" {
		return
	}

	exists, err := store.Exists(path)
	if err != nil {
		slog.Error("failed to check stored file", "error", err, "path", path)
		return
	}
	if !exists {
		return
	}

	err = store.Delete(path)
	if err != nil {
		slog.Error("failed to delete stored file", "error", err, "path", path)
		return
	}
	slog.Debug("stored file removed", "path", path)
}
