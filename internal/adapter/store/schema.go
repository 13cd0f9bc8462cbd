package store

// Schema defines the Postgres table layout. Applied at startup; every
// statement is idempotent.
const Schema = `
-- Repositories table
CREATE TABLE IF NOT EXISTS repositories (
    id TEXT PRIMARY KEY,
    url TEXT UNIQUE NOT NULL,
    default_branch TEXT NOT NULL DEFAULT 'main',
    local_path TEXT NOT NULL DEFAULT '',
    last_synced_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Analysis jobs table
CREATE TABLE IF NOT EXISTS analysis_jobs (
    id TEXT PRIMARY KEY,
    repository_id TEXT NOT NULL REFERENCES repositories(id),
    branch TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'queued',
    total_commits INTEGER NOT NULL DEFAULT 0,
    processed_commits INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL DEFAULT '',
    end_date TEXT NOT NULL DEFAULT '',
    author_filter TEXT NOT NULL DEFAULT '',
    all_branches BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Commits table
CREATE TABLE IF NOT EXISTS commits (
    id TEXT PRIMARY KEY,
    repository_id TEXT NOT NULL REFERENCES repositories(id),
    revision_id TEXT NOT NULL,
    author_name TEXT NOT NULL DEFAULT '',
    author_email TEXT NOT NULL DEFAULT '',
    commit_date TIMESTAMPTZ NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    message_title TEXT NOT NULL DEFAULT '',
    ticket_key TEXT NOT NULL DEFAULT '',
    ticket_url TEXT NOT NULL DEFAULT '',
    files_changed INTEGER NOT NULL DEFAULT 0,
    insertions INTEGER NOT NULL DEFAULT 0,
    deletions INTEGER NOT NULL DEFAULT 0,
    diff_summary TEXT NOT NULL DEFAULT '',
    archive_key TEXT NOT NULL DEFAULT '',
    archive_size BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(repository_id, revision_id)
);

-- Changed files table
CREATE TABLE IF NOT EXISTS changed_files (
    id TEXT PRIMARY KEY,
    commit_id TEXT NOT NULL REFERENCES commits(id),
    file_path TEXT NOT NULL,
    change_type TEXT NOT NULL,
    additions INTEGER NOT NULL DEFAULT 0,
    deletions INTEGER NOT NULL DEFAULT 0,
    patch TEXT NOT NULL DEFAULT ''
);

-- Create indexes for the read paths
CREATE INDEX IF NOT EXISTS idx_jobs_repository ON analysis_jobs(repository_id);
CREATE INDEX IF NOT EXISTS idx_commits_repository ON commits(repository_id);
CREATE INDEX IF NOT EXISTS idx_commits_date ON commits(commit_date);
CREATE INDEX IF NOT EXISTS idx_changed_files_commit ON changed_files(commit_id);
`
