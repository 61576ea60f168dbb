package repository

import (
	"io"
	"log/slog"
	"testing"

	"github.com/Drakz0n/CommFlow/internal/storage"
)

func testStore(t *testing.T) *storage.FileStore {
	t.Helper()
	return storage.New(t.TempDir())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
