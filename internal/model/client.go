// Package model contains the record shapes persisted by CommFlow. The JSON
// struct tags are the on-disk field names, so renaming a tag is a data
// migration.
package model

// Client is a customer. The ID doubles as the filename stem under clients/,
// so it is immutable once the record has been written.
type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
	// Pointer fields marshal as JSON null when unset, matching older files.
	ProfileImage *string `json:"profile_image"`
	Notes        *string `json:"notes"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}
