package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Drakz0n/CommFlow/internal/model"
	"github.com/Drakz0n/CommFlow/internal/storage"
)

func newCommission(id, client string, status model.Status) *model.Commission {
	return &model.Commission{
		ID:            id,
		ClientID:      "c1",
		ClientName:    client,
		Title:         "Portrait",
		PriceCents:    500,
		PaymentStatus: model.PaymentNotPaid,
		Status:        status,
		CreatedAt:     "2024-01-01T00:00:00Z",
		UpdatedAt:     "2024-01-01T00:00:00Z",
	}
}

func rel(t *testing.T, store *storage.FileStore, path string) string {
	t.Helper()
	r, err := filepath.Rel(store.Root(), path)
	if err != nil {
		t.Fatalf("rel: %v", err)
	}
	return filepath.ToSlash(r)
}

func TestCommissionPathLayout(t *testing.T) {
	store := testStore(t)
	repo := NewCommissionRepository(store, discardLogger())
	tests := []struct {
		status model.Status
		want   string
	}{
		{status: model.StatusPending, want: "pendings/Bob_Smith/ord1_2024-01-01T00-00-00Z.json"},
		{status: model.StatusInProgress, want: "pendings/Bob_Smith/ord1_2024-01-01T00-00-00Z.json"},
		{status: model.StatusCompleted, want: "history/Bob_Smith/ord1_2024-01-01T00-00-00Z.json"},
	}
	for _, tt := range tests {
		c := newCommission("ord1", "Bob/Smith", tt.status)
		if got := rel(t, store, repo.PathFor(c)); got != tt.want {
			t.Errorf("PathFor(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestCommissionSaveWritesDerivedPath(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	repo := NewCommissionRepository(store, discardLogger())
	if err := repo.Save(ctx, newCommission("ord1", "Bob/Smith", model.StatusPending)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path := store.Path("pendings", "Bob_Smith", "ord1_2024-01-01T00-00-00Z.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
	if !strings.Contains(string(data), `"images": []`) {
		t.Fatalf("images should serialize as an empty list: %s", data)
	}
}

func TestCommissionPriceRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCommissionRepository(testStore(t), discardLogger())
	c := newCommission("ord1", "Bob", model.StatusPending)
	c.PriceCents = 1234
	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.FindByStatus(ctx, model.StatusPending)
	if err != nil {
		t.Fatalf("FindByStatus: %v", err)
	}
	if len(got) != 1 || got[0].PriceCents != 1234 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestCommissionLegacyPriceIsConverted(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	repo := NewCommissionRepository(store, discardLogger())
	legacy := `{"id":"old1","client_id":"c1","client_name":"Bob","title":"Sketch","price":12.34,"status":"pending","created_at":"2023-05-01T00:00:00Z","updated_at":"2023-05-01T00:00:00Z"}`
	if err := store.WriteFile(store.Path("pendings", "Bob", "old1_2023-05-01T00-00-00Z.json"), []byte(legacy)); err != nil {
		t.Fatalf("write legacy: %v", err)
	}
	got, err := repo.FindByStatus(ctx, model.StatusPending)
	if err != nil {
		t.Fatalf("FindByStatus: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one commission, got %d", len(got))
	}
	c := got[0]
	if c.PriceCents != 1234 {
		t.Fatalf("price_cents = %d, want 1234", c.PriceCents)
	}
	if c.PaymentStatus != model.PaymentNotPaid || c.Description != "" || c.Images == nil || len(c.Images) != 0 {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestDecodeCommission(t *testing.T) {
	tests := []struct {
		name        string
		json        string
		wantCents   int64
		wantVersion schemaVersion
		wantErr     bool
	}{
		{name: "current", json: `{"id":"a","price_cents":500}`, wantCents: 500, wantVersion: schemaCurrent},
		{name: "legacy", json: `{"id":"a","price":12.34}`, wantCents: 1234, wantVersion: schemaLegacyV1},
		{name: "legacy rounds half up", json: `{"id":"a","price":0.125}`, wantCents: 13, wantVersion: schemaLegacyV1},
		{name: "legacy integer dollars", json: `{"id":"a","price":7}`, wantCents: 700, wantVersion: schemaLegacyV1},
		{name: "both prefers cents", json: `{"id":"a","price_cents":100,"price":99.0}`, wantCents: 100, wantVersion: schemaCurrent},
		{name: "non-string image dropped", json: `{"id":"a","price_cents":500,"images":["images/a.jpg",7]}`, wantCents: 500, wantVersion: schemaCurrent},
		{name: "mistyped payment status", json: `{"id":"a","price_cents":500,"payment_status":0}`, wantCents: 500, wantVersion: schemaCurrent},
		{name: "string cents falls back to price", json: `{"id":"a","price_cents":"500","price":5}`, wantCents: 500, wantVersion: schemaLegacyV1},
		{name: "float cents falls back to price", json: `{"id":"a","price_cents":12.5,"price":12.5}`, wantCents: 1250, wantVersion: schemaLegacyV1},
		{name: "mistyped description", json: `{"id":"a","price":12.34,"description":{"text":"x"}}`, wantCents: 1234, wantVersion: schemaLegacyV1},
		{name: "null cents falls back to price", json: `{"id":"a","price_cents":null,"price":1}`, wantCents: 100, wantVersion: schemaLegacyV1},
		{name: "no price", json: `{"id":"a"}`, wantErr: true},
		{name: "unusable cents and no price", json: `{"id":"a","price_cents":"500"}`, wantErr: true},
		{name: "not an object", json: `[1,2]`, wantErr: true},
		{name: "malformed", json: `{"id":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, version, err := decodeCommission([]byte(tt.json))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if c.PriceCents != tt.wantCents || version != tt.wantVersion {
				t.Fatalf("got cents=%d version=%s, want %d %s", c.PriceCents, version, tt.wantCents, tt.wantVersion)
			}
			if c.Status != model.StatusPending {
				t.Fatalf("status default = %q", c.Status)
			}
		})
	}
}

func TestDecodeCommissionDefaultsMistypedFields(t *testing.T) {
	data := `{"id":"a","client_name":42,"price_cents":500,"payment_status":0,"status":["x"],"images":["images/a.jpg",7,null,"images/b.png"]}`
	c, _, err := decodeCommission([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ID != "a" || c.ClientName != "" {
		t.Fatalf("string fields = %+v", c)
	}
	if c.PaymentStatus != model.PaymentNotPaid || c.Status != model.StatusPending {
		t.Fatalf("enum defaults = %q %q", c.PaymentStatus, c.Status)
	}
	if len(c.Images) != 2 || c.Images[0] != "images/a.jpg" || c.Images[1] != "images/b.png" {
		t.Fatalf("images = %v", c.Images)
	}
}

func TestFindByStatusSkipsCorruptFiles(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	repo := NewCommissionRepository(store, discardLogger())
	if err := repo.Save(ctx, newCommission("good", "Bob", model.StatusPending)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.WriteFile(store.Path("pendings", "Bob", "bad_x.json"), []byte(`{"id":"bad"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := repo.FindByStatus(ctx, model.StatusPending)
	if err != nil {
		t.Fatalf("FindByStatus: %v", err)
	}
	if len(got) != 1 || got[0].ID != "good" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestMovePendingToCompleted(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	repo := NewCommissionRepository(store, discardLogger())
	c := newCommission("ord1", "Bob", model.StatusPending)
	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Move(ctx, "ord1", model.StatusPending, model.StatusCompleted); err != nil {
		t.Fatalf("Move: %v", err)
	}
	done, err := repo.FindByStatus(ctx, model.StatusCompleted)
	if err != nil {
		t.Fatalf("FindByStatus completed: %v", err)
	}
	if len(done) != 1 || done[0].Status != model.StatusCompleted {
		t.Fatalf("expected moved record in history, got %+v", done)
	}
	before, _ := time.Parse(time.RFC3339, c.UpdatedAt)
	after, err := time.Parse(time.RFC3339Nano, done[0].UpdatedAt)
	if err != nil || !after.After(before) {
		t.Fatalf("updated_at %q not after %q (%v)", done[0].UpdatedAt, c.UpdatedAt, err)
	}
	pending, err := repo.FindByStatus(ctx, model.StatusPending)
	if err != nil {
		t.Fatalf("FindByStatus pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("record still pending: %+v", pending)
	}
}

func TestMovePendingToInProgressKeepsFile(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	repo := NewCommissionRepository(store, discardLogger())
	c := newCommission("ord1", "Bob", model.StatusPending)
	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Move(ctx, "ord1", model.StatusPending, model.StatusInProgress); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := repo.FindByStatus(ctx, model.StatusInProgress)
	if err != nil {
		t.Fatalf("FindByStatus: %v", err)
	}
	if len(got) != 1 || got[0].Status != model.StatusInProgress {
		t.Fatalf("expected one in-progress record, got %+v", got)
	}
	if _, err := os.Stat(repo.PathFor(c)); err != nil {
		t.Fatalf("file should remain at its original path: %v", err)
	}
}

func TestMoveUpdatedAtStrictlyLaterOnClockTie(t *testing.T) {
	ctx := context.Background()
	repo := NewCommissionRepository(testStore(t), discardLogger())
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	if err := repo.Save(ctx, newCommission("ord1", "Bob", model.StatusPending)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Move(ctx, "ord1", model.StatusPending, model.StatusCompleted); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, _ := repo.FindByStatus(ctx, model.StatusCompleted)
	after, err := time.Parse(time.RFC3339Nano, got[0].UpdatedAt)
	if err != nil || !after.After(fixed) {
		t.Fatalf("updated_at %q not after %s", got[0].UpdatedAt, fixed)
	}
}

func TestMoveNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewCommissionRepository(testStore(t), discardLogger())
	err := repo.Move(ctx, "ghost", model.StatusPending, model.StatusCompleted)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "ghost") || !strings.Contains(err.Error(), "pending") {
		t.Fatalf("message should name id and folder: %v", err)
	}
}

func TestMoveDoesNotDeletePrefixSibling(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	repo := NewCommissionRepository(store, discardLogger())
	ab := newCommission("ab", "Bob", model.StatusPending)
	abc := newCommission("abc", "Bob", model.StatusPending)
	for _, c := range []*model.Commission{abc, ab} {
		if err := repo.Save(ctx, c); err != nil {
			t.Fatalf("Save %s: %v", c.ID, err)
		}
	}
	if err := repo.Move(ctx, "ab", model.StatusPending, model.StatusCompleted); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Stat(repo.PathFor(abc)); err != nil {
		t.Fatalf("abc must survive moving ab: %v", err)
	}
	pending, _ := repo.FindByStatus(ctx, model.StatusPending)
	if len(pending) != 1 || pending[0].ID != "abc" {
		t.Fatalf("unexpected pending set %+v", pending)
	}
}

func TestMoveReportsWriteStage(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	repo := NewCommissionRepository(store, discardLogger())
	if err := repo.Save(ctx, newCommission("ord1", "Bob", model.StatusPending)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// A regular file where the history client folder should be makes the
	// staged write fail.
	if err := store.WriteFile(store.Path("history", "Bob"), []byte("blocker")); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	err := repo.Move(ctx, "ord1", model.StatusPending, model.StatusCompleted)
	var moveErr *MoveError
	if !errors.As(err, &moveErr) {
		t.Fatalf("expected *MoveError, got %v", err)
	}
	if moveErr.Stage != StageWrite {
		t.Fatalf("stage = %s, want %s", moveErr.Stage, StageWrite)
	}
	if _, err := os.Stat(moveErr.OldPath); err != nil {
		t.Fatalf("old file must be untouched after a failed write: %v", err)
	}
}

func TestMoveReportsVerifyAndDeleteStages(t *testing.T) {
	tests := []struct {
		name  string
		stage MoveStage
		setup func(r *CommissionRepository)
	}{
		{
			name:  "unreadable staged file",
			stage: StageVerify,
			setup: func(r *CommissionRepository) {
				r.readFile = func(string) ([]byte, error) { return []byte(`{"id":`), nil }
			},
		},
		{
			name:  "staged file holds another id",
			stage: StageVerify,
			setup: func(r *CommissionRepository) {
				r.readFile = func(string) ([]byte, error) { return []byte(`{"id":"other","price_cents":1}`), nil }
			},
		},
		{
			name:  "old file cannot be removed",
			stage: StageDelete,
			setup: func(r *CommissionRepository) {
				r.removeFile = func(string) error { return os.ErrPermission }
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewCommissionRepository(testStore(t), discardLogger())
			if err := repo.Save(ctx, newCommission("ord1", "Bob", model.StatusPending)); err != nil {
				t.Fatalf("Save: %v", err)
			}
			tt.setup(repo)

			err := repo.Move(ctx, "ord1", model.StatusPending, model.StatusCompleted)
			var moveErr *MoveError
			if !errors.As(err, &moveErr) {
				t.Fatalf("expected *MoveError, got %v", err)
			}
			if moveErr.Stage != tt.stage || moveErr.ID != "ord1" {
				t.Fatalf("got stage %s id %q, want %s", moveErr.Stage, moveErr.ID, tt.stage)
			}
			if moveErr.OldPath == "" || moveErr.StagedPath == "" {
				t.Fatalf("paths not recorded: %+v", moveErr)
			}
			for _, p := range []string{moveErr.OldPath, moveErr.StagedPath} {
				if _, err := os.Stat(p); err != nil {
					t.Fatalf("%s should still exist: %v", p, err)
				}
			}

			dups, err := repo.FindDuplicates(ctx)
			if err != nil {
				t.Fatalf("FindDuplicates: %v", err)
			}
			if len(dups) != 1 || dups[0].ID != "ord1" || len(dups[0].Paths) != 2 {
				t.Fatalf("left-behind copy not reported: %+v", dups)
			}
		})
	}
}

func TestDeleteByIDAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewCommissionRepository(testStore(t), discardLogger())
	for _, id := range []string{"ab", "abc"} {
		if err := repo.Save(ctx, newCommission(id, "Bob", model.StatusCompleted)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if err := repo.DeleteByIDAndStatus(ctx, "ab", model.StatusCompleted); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	left, _ := repo.FindByStatus(ctx, model.StatusCompleted)
	if len(left) != 1 || left[0].ID != "abc" {
		t.Fatalf("unexpected remainder %+v", left)
	}
	if err := repo.DeleteByIDAndStatus(ctx, "ab", model.StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewCommissionRepository(testStore(t), discardLogger())
	if err := repo.Save(ctx, newCommission("dup", "Bob", model.StatusPending)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, newCommission("dup", "Bob", model.StatusCompleted)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, newCommission("solo", "Bob", model.StatusPending)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dups, err := repo.FindDuplicates(ctx)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if len(dups) != 1 || dups[0].ID != "dup" || len(dups[0].Paths) != 2 {
		t.Fatalf("unexpected duplicates %+v", dups)
	}
}
