package domain

import "time"

// AnalysisJob tracks one ingestion run over a repository's history.
type AnalysisJob struct {
	ID               string    `json:"id"                db:"id"`
	RepositoryID     string    `json:"repository_id"     db:"repository_id"`
	Branch           string    `json:"branch"            db:"branch"`
	Status           string    `json:"status"            db:"status"` // queued, cloning, parsing, completed, failed
	TotalCommits     int       `json:"total_commits"     db:"total_commits"`
	ProcessedCommits int       `json:"processed_commits" db:"processed_commits"`
	ErrorMessage     string    `json:"error_message,omitempty" db:"error_message"`
	StartDate        string    `json:"start_date,omitempty"    db:"start_date"`
	EndDate          string    `json:"end_date,omitempty"      db:"end_date"`
	AuthorFilter     string    `json:"author_filter,omitempty" db:"author_filter"`
	AllBranches      bool      `json:"all_branches"      db:"all_branches"`
	CreatedAt        time.Time `json:"created_at"        db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"        db:"updated_at"`
}

// Job status constants. Failed is absorbing and reachable from any state.
const (
	JobStatusQueued    = "queued"
	JobStatusCloning   = "cloning"
	JobStatusParsing   = "parsing"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (j *AnalysisJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
