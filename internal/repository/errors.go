package repository

import "fmt"

// MoveStage names the step of a move that failed.
type MoveStage string

const (
	// StageWrite: the new file could not be written. The old file is
	// untouched; the staged path may hold a partial write.
	StageWrite MoveStage = "write"
	// StageVerify: the new file was written but did not read back as the
	// moved record. Both paths may now exist.
	StageVerify MoveStage = "verify"
	// StageDelete: the new file is good but the old one could not be
	// removed, leaving a duplicate.
	StageDelete MoveStage = "delete"
)

// MoveError reports how far a move got so a recovery pass (see
// FindDuplicates) can reconcile the two locations.
type MoveError struct {
	Stage      MoveStage
	ID         string
	OldPath    string
	StagedPath string
	Err        error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move commission %s failed at %s (old %s, staged %s): %v", e.ID, e.Stage, e.OldPath, e.StagedPath, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }
