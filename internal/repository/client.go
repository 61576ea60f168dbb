package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/Drakz0n/CommFlow/internal/model"
	"github.com/Drakz0n/CommFlow/internal/storage"
)

// ClientRepository stores each client at clients/{id}.json.
type ClientRepository struct {
	mu     sync.RWMutex
	store  *storage.FileStore
	logger *slog.Logger
}

// NewClientRepository constructs a repository.
func NewClientRepository(store *storage.FileStore, logger *slog.Logger) *ClientRepository {
	return &ClientRepository{store: store, logger: logger}
}

func (r *ClientRepository) path(id string) string {
	return r.store.Path(storage.ClientsDir, id+".json")
}

// Save inserts or replaces the client with c.ID.
func (r *ClientRepository) Save(ctx context.Context, c *model.Client) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.EnsureLayout(); err != nil {
		return err
	}
	data, err := encode(c)
	if err != nil {
		return fmt.Errorf("serialize client: %w", err)
	}
	return r.store.WriteFile(r.path(c.ID), data)
}

// FindByID returns the client, or nil with no error when none is stored.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*model.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read client file: %w", err)
	}
	var c model.Client
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("deserialize client: %w", err)
	}
	return &c, nil
}

// FindAll lists every stored client. A file that fails to parse is logged
// and skipped so one corrupt record does not hide the others.
func (r *ClientRepository) FindAll(ctx context.Context) ([]model.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.store.EnsureLayout(); err != nil {
		return nil, err
	}
	files, err := r.store.ReadJSONFiles(r.store.Path(storage.ClientsDir))
	if err != nil {
		return nil, err
	}
	clients := make([]model.Client, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var c model.Client
		if err := json.Unmarshal(f.Data, &c); err != nil {
			r.logger.Warn("skipping unreadable client", "path", f.Path, "error", err)
			continue
		}
		clients = append(clients, c)
	}
	return clients, nil
}

// Delete removes the client. Deleting an unknown id succeeds.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.DeleteFile(r.path(id))
}
