package domain

import "time"

// CommitRecord is one extracted historical commit together with its
// diff statistics. The pair (repository id, revision id) is unique;
// records are immutable once written.
type CommitRecord struct {
	ID           string        `json:"id"            db:"id"`
	RepositoryID string        `json:"repository_id" db:"repository_id"`
	RevisionID   string        `json:"revision_id"   db:"revision_id"`
	AuthorName   string        `json:"author_name"   db:"author_name"`
	AuthorEmail  string        `json:"author_email"  db:"author_email"`
	CommitDate   time.Time     `json:"commit_date"   db:"commit_date"`
	Message      string        `json:"message"       db:"message"`
	MessageTitle string        `json:"message_title" db:"message_title"`
	TicketKey    string        `json:"ticket_key,omitempty" db:"ticket_key"`
	TicketURL    string        `json:"ticket_url,omitempty" db:"ticket_url"`
	FilesChanged int           `json:"files_changed" db:"files_changed"`
	Insertions   int           `json:"insertions"    db:"insertions"`
	Deletions    int           `json:"deletions"     db:"deletions"`
	DiffSummary  string        `json:"diff_summary"  db:"diff_summary"`
	ArchiveKey   string        `json:"archive_key,omitempty"  db:"archive_key"`
	ArchiveSize  int64         `json:"archive_size,omitempty" db:"archive_size"`
	Files        []ChangedFile `json:"files,omitempty"`
	CreatedAt    time.Time     `json:"created_at"    db:"created_at"`
}

// ChangedFile is one file touched by a commit. Owned exclusively by
// its parent CommitRecord.
type ChangedFile struct {
	ID         string `json:"id"          db:"id"`
	CommitID   string `json:"commit_id"   db:"commit_id"`
	Path       string `json:"file_path"   db:"file_path"`
	ChangeType string `json:"change_type" db:"change_type"` // added, deleted, modified, renamed, copied
	Additions  int    `json:"additions"   db:"additions"`
	Deletions  int    `json:"deletions"   db:"deletions"`
	Patch      string `json:"patch,omitempty" db:"patch"`
}

// Change type constants. Any classification outside this set collapses
// to modified when a commit is extracted.
const (
	ChangeAdded    = "added"
	ChangeDeleted  = "deleted"
	ChangeModified = "modified"
	ChangeRenamed  = "renamed"
	ChangeCopied   = "copied"
)

// CommitInfo is a lightweight commit handle produced by the history
// walker. Diff extraction happens separately, per commit.
type CommitInfo struct {
	Hash        string    `json:"hash"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// CommitDiff holds the full first-parent diff of one commit.
type CommitDiff struct {
	FilesChanged int
	Insertions   int
	Deletions    int
	Summary      string
	Files        []ChangedFile
}
