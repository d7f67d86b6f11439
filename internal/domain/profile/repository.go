package profile

import (
	"context"
	"time"
)

// LatestVersion selects the newest stored version in Load calls.
const LatestVersion = 0

// VersionInfo describes one stored profile version.
type VersionInfo struct {
	Version   int       `json:"version"`
	SavedAt   time.Time `json:"saved_at"`
	RuleCount int       `json:"rule_count"`
}

// Repository is the persistence port for versioned profiles.  Stores are
// append-only: Save never overwrites an existing version, and every stored
// version remains loadable so rollback can reproduce it exactly.
type Repository interface {
	// Load returns the named profile at the given version, or the newest
	// version when LatestVersion is passed.
	Load(ctx context.Context, name string, version int) (*RuleSet, error)

	// Save persists the rule set under its own Version and returns that
	// version.  Saving an already-stored version is a conflict.
	Save(ctx context.Context, rs *RuleSet) (int, error)

	// ListVersions returns the stored versions of a profile in ascending
	// version order.
	ListVersions(ctx context.Context, name string) ([]VersionInfo, error)
}
