// Package archive exports the data directory as a zip and imports a
// previously exported directory tree back into it.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrSourceRejected is returned when an import source fails the path rules.
var ErrSourceRejected = errors.New("import source rejected")

// skipDirs are data-root children left out of exports.
var skipDirs = map[string]bool{"logs": true}

// Export writes every file under root into a zip stream on w. Entry names
// are relative to root and use forward slashes.
func Export(ctx context.Context, root string, w io.Writer) error {
	return export(ctx, root, w, "")
}

// ExportFile writes the zip to dest and returns its size. dest may live
// inside root; it is excluded from its own archive.
func ExportFile(ctx context.Context, root, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	if err := export(ctx, root, f, dest); err != nil {
		f.Close()
		os.Remove(dest)
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("stat export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close export file: %w", err)
	}
	return info.Size(), nil
}

func export(ctx context.Context, root string, w io.Writer, exclude string) error {
	zw := zip.NewWriter(w)
	if exclude != "" {
		exclude = filepath.Clean(exclude)
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[rel] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || filepath.Clean(path) == exclude {
			return nil
		}
		return addFile(zw, path, filepath.ToSlash(rel))
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("export %s: %w", root, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

// ImportOptions controls Import. A nil AllowedPrefixes means DefaultPrefixes.
type ImportOptions struct {
	AllowedPrefixes []string
}

// DefaultPrefixes lists the locations an import may be read from: the
// system temp dirs and the user's Downloads, Documents and Desktop.
func DefaultPrefixes() []string {
	prefixes := []string{"/tmp/", "/var/tmp/"}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		for _, dir := range []string{"Downloads", "Documents", "Desktop"} {
			prefixes = append(prefixes, filepath.Join(home, dir)+string(filepath.Separator))
		}
	}
	return prefixes
}

// Import copies the directory tree at src into root, overwriting files that
// already exist there.
func Import(src, root string, opts ImportOptions) error {
	if err := checkSource(src, root, opts); err != nil {
		return err
	}
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(root, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", src, err)
	}
	return nil
}

func checkSource(src, root string, opts ImportOptions) error {
	switch {
	case strings.TrimSpace(src) == "":
		return fmt.Errorf("%w: path is empty", ErrSourceRejected)
	case strings.Contains(src, ".."), strings.Contains(src, "~"):
		return fmt.Errorf("%w: path must not contain '..' or '~'", ErrSourceRejected)
	case !filepath.IsAbs(src):
		return fmt.Errorf("%w: path must be absolute", ErrSourceRejected)
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceRejected, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSourceRejected, src)
	}
	if overlaps(src, root) {
		return fmt.Errorf("%w: %s overlaps the data directory %s", ErrSourceRejected, src, root)
	}
	prefixes := opts.AllowedPrefixes
	if prefixes == nil {
		prefixes = DefaultPrefixes()
	}
	withSep := filepath.Clean(src) + string(filepath.Separator)
	for _, p := range prefixes {
		if strings.HasPrefix(withSep, p) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is outside the allowed import locations", ErrSourceRejected, src)
}

// overlaps reports whether a and b are the same directory or one contains
// the other. Symlinks are resolved where the paths exist.
func overlaps(a, b string) bool {
	a, b = canonical(a), canonical(b)
	sep := string(filepath.Separator)
	return a == b || strings.HasPrefix(a, b+sep) || strings.HasPrefix(b, a+sep)
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	// Not created yet: resolve the nearest existing parent instead.
	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}
	return filepath.Join(canonical(parent), filepath.Base(abs))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
