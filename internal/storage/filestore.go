// Package storage contains the filesystem primitives every repository sits
// on: where the data root is, which folders must exist under it, and how JSON
// files are listed, written and removed. Nothing here validates input;
// callers pass sanitized path segments.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Fixed top-level folders under the data root.
const (
	ClientsDir  = "clients"
	PendingsDir = "pendings"
	HistoryDir  = "history"
	ImagesDir   = "images"

	// DataDirName is the folder created beside the executable when no
	// explicit data directory is configured.
	DataDirName = "Data"
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

// File is the raw content of one JSON file plus where it came from.
type File struct {
	Path string
	Data []byte
}

// FileStore resolves paths relative to one data root. The zero value is not
// usable; construct it with New.
type FileStore struct {
	root string
}

// New binds a FileStore to root. The directory is not touched until
// EnsureLayout or a write is called.
func New(root string) *FileStore {
	return &FileStore{root: root}
}

// ResolveDataDir returns override when set, otherwise the Data folder next to
// the running executable. The directory is created if it does not exist.
// Tying state to the install location keeps the application portable.
func ResolveDataDir(override string) (string, error) {
	dir := override
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("get exe path: %w", err)
		}
		dir = filepath.Join(filepath.Dir(exe), DataDirName)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve data directory: %w", err)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// Root returns the data root this store writes under.
func (s *FileStore) Root() string {
	return s.root
}

// Path joins elem onto the data root.
func (s *FileStore) Path(elem ...string) string {
	return filepath.Join(append([]string{s.root}, elem...)...)
}

// EnsureLayout creates the clients, pendings and history folders. Calling it
// repeatedly is harmless.
func (s *FileStore) EnsureLayout() error {
	for _, dir := range []string{ClientsDir, PendingsDir, HistoryDir} {
		if err := os.MkdirAll(s.Path(dir), dirPerm); err != nil {
			return fmt.Errorf("create %s folder: %w", dir, err)
		}
	}
	return nil
}

// ReadJSONFiles returns every *.json file directly inside dir. A missing
// directory yields an empty result rather than an error; subdirectories and
// other extensions are skipped.
func (s *FileStore) ReadJSONFiles(dir string) ([]File, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", path, err)
		}
		files = append(files, File{Path: path, Data: data})
	}
	return files, nil
}

// ListDirs returns the immediate subdirectories of dir as full paths. A
// missing directory yields an empty result.
func (s *FileStore) ListDirs(dir string) ([]string, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(dir, entry.Name()))
		}
	}
	return dirs, nil
}

// WriteFile creates any missing parent directories and replaces the file's
// content. The write is not atomic: a crash part-way can leave a truncated
// file behind.
func (s *FileStore) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// DeleteFile removes path. Removing a file that is already gone succeeds.
func (s *FileStore) DeleteFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}
	return entries, nil
}

// Characters that are illegal or special in a path segment on at least one
// supported platform.
var (
	nameReplacer      = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	timestampReplacer = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "-", "<", "-", ">", "-", "|", "-")
)

// SanitizeName makes name safe to use as a folder or file name by replacing
// hazard characters with underscores. It never rejects or truncates.
func SanitizeName(name string) string {
	return nameReplacer.Replace(name)
}

// SanitizeTimestamp is SanitizeName with hyphens, so RFC 3339 timestamps
// stay readable: 2024-01-01T00:00:00Z becomes 2024-01-01T00-00-00Z.
func SanitizeTimestamp(ts string) string {
	return timestampReplacer.Replace(ts)
}
