package s3storage

import (
	"testing"
	"time"

	"github.com/Drakz0n/CommFlow/internal/config"
)

func TestArchiveKey(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.FixedZone("x", 3600))
	if got, want := ArchiveKey(ts), "exports/commflow-20240309T130507Z.zip"; got != want {
		t.Fatalf("ArchiveKey = %q, want %q", got, want)
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	if _, err := New(config.S3Config{Bucket: "b"}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}

func TestNewBuildsClient(t *testing.T) {
	s, err := New(config.S3Config{Endpoint: "localhost:9000", Bucket: "commflow-exports", AccessKey: "a", SecretKey: "b"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Bucket() != "commflow-exports" {
		t.Fatalf("Bucket = %q", s.Bucket())
	}
}
