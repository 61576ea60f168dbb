// Package repository persists clients and commissions as one JSON file per
// record on top of storage.FileStore. Repositories assume their input has
// already been validated.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup, move or delete target is absent.
// Compare with errors.Is; the returned error carries the record id.
var ErrNotFound = errors.New("not found")

func encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
