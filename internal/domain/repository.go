package domain

import "time"

// Repository represents a tracked remote Git repository.
type Repository struct {
	ID            string     `json:"id"             db:"id"`
	URL           string     `json:"url"            db:"url"`
	DefaultBranch string     `json:"default_branch" db:"default_branch"`
	LocalPath     string     `json:"-"              db:"local_path"`
	LastSyncedAt  *time.Time `json:"last_synced_at" db:"last_synced_at"`
	CreatedAt     time.Time  `json:"created_at"     db:"created_at"`
}

// WorkingCopy identifies a materialized local clone of a remote
// repository. The path is derived from the URL alone, so every request
// against the same remote shares one copy regardless of branch.
type WorkingCopy struct {
	URL    string
	Branch string
	Path   string
}
