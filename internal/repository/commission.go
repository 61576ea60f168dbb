package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Drakz0n/CommFlow/internal/model"
	"github.com/Drakz0n/CommFlow/internal/storage"
)

// CommissionRepository stores commissions two levels deep:
// {pendings|history}/{client name}/{id}_{created_at}.json. The folder is
// derived from the record's status and client name at write time.
type CommissionRepository struct {
	mu     sync.RWMutex
	store  *storage.FileStore
	logger *slog.Logger
	now    func() time.Time

	// readFile and removeFile back the verify and delete steps of Move.
	readFile   func(string) ([]byte, error)
	removeFile func(string) error
}

// NewCommissionRepository constructs a repository.
func NewCommissionRepository(store *storage.FileStore, logger *slog.Logger) *CommissionRepository {
	return &CommissionRepository{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },

		readFile:   os.ReadFile,
		removeFile: store.DeleteFile,
	}
}

// storedCommission is a parsed record and the file it was read from.
type storedCommission struct {
	model.Commission
	path string
}

// PathFor returns where c is written given its current status and client
// name. The filename embeds created_at, so it survives moves between
// pending and in-progress.
func (r *CommissionRepository) PathFor(c *model.Commission) string {
	name := fmt.Sprintf("%s_%s.json", c.ID, storage.SanitizeTimestamp(c.CreatedAt))
	return r.store.Path(c.Status.Root(), storage.SanitizeName(c.ClientName), name)
}

// Save inserts or replaces the file at c's derived path. Saving the same id
// with a different created_at produces a second file.
func (r *CommissionRepository) Save(ctx context.Context, c *model.Commission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.write(c)
	return err
}

func (r *CommissionRepository) write(c *model.Commission) (string, error) {
	if err := r.store.EnsureLayout(); err != nil {
		return "", err
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	data, err := encode(c)
	if err != nil {
		return "", fmt.Errorf("serialize commission: %w", err)
	}
	path := r.PathFor(c)
	if err := r.store.WriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// FindByStatus lists every commission stored under status's root. For
// pending and in-progress that is the same folder, so both are returned.
// Unreadable files are logged and skipped.
func (r *CommissionRepository) FindByStatus(ctx context.Context, status model.Status) ([]model.Commission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, err := r.scan(ctx, status.Root())
	if err != nil {
		return nil, err
	}
	out := make([]model.Commission, len(stored))
	for i, s := range stored {
		out[i] = s.Commission
	}
	return out, nil
}

// scan parses every commission file under one status root.
func (r *CommissionRepository) scan(ctx context.Context, root string) ([]storedCommission, error) {
	if err := r.store.EnsureLayout(); err != nil {
		return nil, err
	}
	clientDirs, err := r.store.ListDirs(r.store.Path(root))
	if err != nil {
		return nil, fmt.Errorf("read commissions directory: %w", err)
	}
	var out []storedCommission
	for _, dir := range clientDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := r.store.ReadJSONFiles(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			c, version, err := decodeCommission(f.Data)
			if err != nil {
				r.logger.Warn("skipping unreadable commission", "path", f.Path, "error", err)
				continue
			}
			if version != schemaCurrent {
				r.logger.Debug("read legacy commission", "path", f.Path, "schema", version.String())
			}
			out = append(out, storedCommission{Commission: c, path: f.Path})
		}
	}
	return out, nil
}

// locate finds the first file under root whose parsed id is exactly id.
func (r *CommissionRepository) locate(ctx context.Context, id, root string) (*storedCommission, error) {
	stored, err := r.scan(ctx, root)
	if err != nil {
		return nil, err
	}
	for i := range stored {
		if stored[i].ID == id {
			return &stored[i], nil
		}
	}
	return nil, nil
}

// Move changes a commission's status. The updated record is written to its
// new path and read back before the old file is removed. The old file is
// removed by the exact path it was found at, never by a filename match, so
// ids that prefix one another cannot collide. When the status change keeps
// the same folder (pending and in-progress), the record is rewritten in
// place.
func (r *CommissionRepository) Move(ctx context.Context, id string, from, to model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	found, err := r.locate(ctx, id, from.Root())
	if err != nil {
		return err
	}
	if found == nil {
		return notFound("commission %s not found in %s folder", id, from)
	}

	updated := found.Commission
	updated.Status = to
	updated.UpdatedAt = r.nextTimestamp(found.UpdatedAt)

	staged, err := r.write(&updated)
	if err != nil {
		return &MoveError{Stage: StageWrite, ID: id, OldPath: found.path, StagedPath: r.PathFor(&updated), Err: err}
	}
	if err := r.verify(staged, id); err != nil {
		return &MoveError{Stage: StageVerify, ID: id, OldPath: found.path, StagedPath: staged, Err: err}
	}
	if !samePath(staged, found.path) {
		if err := r.removeFile(found.path); err != nil {
			return &MoveError{Stage: StageDelete, ID: id, OldPath: found.path, StagedPath: staged, Err: err}
		}
	}
	r.logger.Debug("commission moved", "id", id, "from", from, "to", to, "path", staged)
	return nil
}

// verify re-reads a staged file and checks it decodes to the expected id.
func (r *CommissionRepository) verify(path, id string) error {
	data, err := r.readFile(path)
	if err != nil {
		return fmt.Errorf("read staged file: %w", err)
	}
	c, _, err := decodeCommission(data)
	if err != nil {
		return err
	}
	if c.ID != id {
		return fmt.Errorf("staged file holds id %q", c.ID)
	}
	return nil
}

// nextTimestamp returns now in RFC 3339, nudged forward when it would not be
// strictly later than prev (clock resolution or skew).
func (r *CommissionRepository) nextTimestamp(prev string) string {
	now := r.now()
	if t, err := time.Parse(time.RFC3339Nano, prev); err == nil && !now.After(t) {
		now = t.Add(time.Millisecond)
	}
	return now.Format(time.RFC3339Nano)
}

// DeleteByIDAndStatus removes the first file under status's root whose
// parsed id equals id.
func (r *CommissionRepository) DeleteByIDAndStatus(ctx context.Context, id string, status model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	found, err := r.locate(ctx, id, status.Root())
	if err != nil {
		return err
	}
	if found == nil {
		return notFound("commission %s not found", id)
	}
	return r.store.DeleteFile(found.path)
}

// Duplicate is an id stored in more than one file.
type Duplicate struct {
	ID    string
	Paths []string
}

// FindDuplicates scans both status roots for ids that appear in more than
// one file. These are left behind by interrupted moves or by saving an id
// again with a different created_at.
func (r *CommissionRepository) FindDuplicates(ctx context.Context) ([]Duplicate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make(map[string][]string)
	for _, root := range []string{model.RootPendings, model.RootHistory} {
		stored, err := r.scan(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, s := range stored {
			paths[s.ID] = append(paths[s.ID], s.path)
		}
	}
	var dups []Duplicate
	for id, p := range paths {
		if len(p) > 1 {
			dups = append(dups, Duplicate{ID: id, Paths: p})
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].ID < dups[j].ID })
	return dups, nil
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
