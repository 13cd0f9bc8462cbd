package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/arturoeanton/go-git-history-service/internal/archive"
	"github.com/arturoeanton/go-git-history-service/internal/domain"
	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// IngestRequest carries one analysis submission through the pipeline.
type IngestRequest struct {
	JobID           string
	RepoURL         string
	Branch          string
	CredentialToken string
	StartDate       string // YYYY-MM-DD, optional
	EndDate         string // YYYY-MM-DD, optional
	AuthorFilter    string // comma-separated tokens, optional
	AllBranches     bool
}

// IngestConfig tunes pipeline behavior that is not part of a request.
type IngestConfig struct {
	TicketBaseURL       string
	ArchiveExcludeGlobs string // comma-separated glob patterns
	ArchiveMaxFileBytes int64  // 0 means unlimited
}

// Notifier receives a job snapshot after every durable status or
// progress change. Implementations must not block.
type Notifier interface {
	Notify(job *domain.AnalysisJob)
}

// IngestService drives the extraction pipeline for analysis jobs:
// materialize the working copy, walk the filtered history, and for
// each new commit extract its diff, archive its changed files, and
// persist a commit record.
type IngestService struct {
	store    port.RecordStore
	copies   port.WorkingCopyManager
	history  port.HistoryAnalyzer
	blobs    port.BlobStore
	creds    port.CredentialProvider
	notify   Notifier
	cfg      IngestConfig
	locks    *repoLocks
	excludes []string
}

// NewIngestService wires the pipeline. notifier may be nil.
func NewIngestService(
	store port.RecordStore,
	copies port.WorkingCopyManager,
	history port.HistoryAnalyzer,
	blobs port.BlobStore,
	creds port.CredentialProvider,
	notifier Notifier,
	cfg IngestConfig,
) *IngestService {
	return &IngestService{
		store:    store,
		copies:   copies,
		history:  history,
		blobs:    blobs,
		creds:    creds,
		notify:   notifier,
		cfg:      cfg,
		locks:    newRepoLocks(),
		excludes: parseGlobs(cfg.ArchiveExcludeGlobs),
	}
}

// Submit registers the job, marks it cloning, and launches the
// pipeline in the background. It returns as soon as the job row is
// durable; callers never wait on pipeline completion. Re-submitting a
// job ID re-runs the pipeline; already-recorded commits are skipped.
func (s *IngestService) Submit(ctx context.Context, req IngestRequest) (*domain.AnalysisJob, error) {
	repo, err := s.store.EnsureRepository(ctx, req.RepoURL, req.Branch)
	if err != nil {
		return nil, fmt.Errorf("ensure repository: %w", err)
	}

	job, err := s.store.EnsureJob(ctx, &domain.AnalysisJob{
		ID:           req.JobID,
		RepositoryID: repo.ID,
		Branch:       req.Branch,
		Status:       domain.JobStatusQueued,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		AuthorFilter: req.AuthorFilter,
		AllBranches:  req.AllBranches,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure job: %w", err)
	}

	if err := s.transition(ctx, job, domain.JobStatusCloning, ""); err != nil {
		return nil, err
	}

	slog.Info("analysis job accepted", "job_id", job.ID, "repo", req.RepoURL, "branch", req.Branch)

	// The goroutine gets its own copy; the caller's snapshot stays
	// untouched by later transitions.
	runJob := *job
	go s.run(&runJob, repo, req)

	return job, nil
}

// run executes the pipeline and owns the failure transition: whatever
// goes wrong inside, the job row is marked failed exactly once, with
// the error text verbatim.
func (s *IngestService) run(job *domain.AnalysisJob, repo *domain.Repository, req IngestRequest) {
	ctx := context.Background()

	if err := s.execute(ctx, job, repo, req); err != nil {
		slog.Error("ingestion failed", "job_id", job.ID, "repo", req.RepoURL, "error", err)
		if txErr := s.transition(ctx, job, domain.JobStatusFailed, err.Error()); txErr != nil {
			slog.Error("record job failure", "job_id", job.ID, "error", txErr)
		}
	}
}

func (s *IngestService) execute(ctx context.Context, job *domain.AnalysisJob, repo *domain.Repository, req IngestRequest) error {
	lock := s.locks.acquire(req.RepoURL)
	defer lock.Unlock()

	opts, err := buildWalkOptions(req)
	if err != nil {
		return err
	}

	cred := s.creds.Resolve(req.CredentialToken)
	wc, err := s.copies.Materialize(ctx, req.RepoURL, req.Branch, cred, req.AllBranches)
	if err != nil {
		return err
	}

	if err := s.transition(ctx, job, domain.JobStatusParsing, ""); err != nil {
		return err
	}

	commits, err := s.history.Walk(ctx, wc.Path, req.Branch, opts)
	if err != nil {
		return err
	}

	// The total goes in before any per-commit work so progress reads
	// meaningfully even when a later step fails.
	if err := s.setTotal(ctx, job, len(commits)); err != nil {
		return err
	}
	slog.Info("history walked", "job_id", job.ID, "commits", len(commits))

	for i, info := range commits {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processCommit(ctx, job, repo, wc, info, i+1); err != nil {
			return err
		}
	}

	if err := s.store.TouchRepositorySync(ctx, repo.ID, wc.Path); err != nil {
		return err
	}
	if err := s.transition(ctx, job, domain.JobStatusCompleted, ""); err != nil {
		return err
	}

	slog.Info("ingestion complete", "job_id", job.ID, "repo", req.RepoURL, "commits", len(commits))
	return nil
}

// processCommit handles one commit as a unit of work. The commit
// record insert is the final durable act, so a crash or failure before
// it leaves the commit unrecorded and safely re-attempted on the next
// run. seq is the 1-based position in the walk.
func (s *IngestService) processCommit(ctx context.Context, job *domain.AnalysisJob, repo *domain.Repository, wc *domain.WorkingCopy, info domain.CommitInfo, seq int) error {
	exists, err := s.store.CommitExists(ctx, repo.ID, info.Hash)
	if err != nil {
		return err
	}
	if exists {
		// Already recorded by an earlier run. Counts as processed.
		return s.setProcessed(ctx, job, seq)
	}

	diff, err := s.history.Diff(ctx, wc.Path, info.Hash)
	if err != nil {
		return err
	}

	archiveKey, archiveSize, err := s.buildArchive(ctx, repo, wc, info, diff)
	if err != nil {
		return err
	}

	key := extractTicketKey(info.Message)
	rec := &domain.CommitRecord{
		ID:           uuid.NewString(),
		RepositoryID: repo.ID,
		RevisionID:   info.Hash,
		AuthorName:   info.AuthorName,
		AuthorEmail:  info.AuthorEmail,
		CommitDate:   info.Timestamp,
		Message:      info.Message,
		MessageTitle: messageTitle(info.Message),
		TicketKey:    key,
		TicketURL:    ticketURL(s.cfg.TicketBaseURL, key),
		FilesChanged: diff.FilesChanged,
		Insertions:   diff.Insertions,
		Deletions:    diff.Deletions,
		DiffSummary:  diff.Summary,
		ArchiveKey:   archiveKey,
		ArchiveSize:  archiveSize,
		Files:        diff.Files,
	}
	if err := s.store.InsertCommit(ctx, rec); err != nil {
		return err
	}

	return s.setProcessed(ctx, job, seq)
}

// buildArchive packages the commit's surviving changed files and
// uploads the result. Deleted files, excluded paths, oversized files,
// and files whose content cannot be resolved are omitted; a commit
// with nothing left produces no archive and no upload.
func (s *IngestService) buildArchive(ctx context.Context, repo *domain.Repository, wc *domain.WorkingCopy, info domain.CommitInfo, diff *domain.CommitDiff) (string, int64, error) {
	var entries []archive.Entry
	for _, f := range diff.Files {
		if f.ChangeType == domain.ChangeDeleted {
			continue
		}
		if s.excluded(f.Path) {
			continue
		}
		content, err := s.history.ResolveBlob(ctx, wc.Path, info.Hash, f.Path)
		if err != nil {
			slog.Warn("blob unresolved, omitting from archive",
				"revision", info.Hash, "path", f.Path, "error", err)
			continue
		}
		if s.cfg.ArchiveMaxFileBytes > 0 && int64(len(content)) > s.cfg.ArchiveMaxFileBytes {
			slog.Info("file exceeds archive size cap, omitting",
				"revision", info.Hash, "path", f.Path, "bytes", len(content))
			continue
		}
		entries = append(entries, archive.Entry{Path: f.Path, Content: content})
	}

	data, err := archive.Build(entries)
	if err != nil {
		return "", 0, err
	}
	if len(data) == 0 {
		return "", 0, nil
	}

	key := fmt.Sprintf("commits/%s/%s.zip", repo.ID, info.Hash)
	if err := s.blobs.Put(ctx, key, data, "application/zip"); err != nil {
		return "", 0, err
	}
	return key, int64(len(data)), nil
}

// transition writes a status change and publishes the new snapshot.
func (s *IngestService) transition(ctx context.Context, job *domain.AnalysisJob, status, errorMessage string) error {
	if err := s.store.UpdateJobStatus(ctx, job.ID, status, errorMessage); err != nil {
		return err
	}
	job.Status = status
	job.ErrorMessage = ""
	if status == domain.JobStatusFailed {
		job.ErrorMessage = errorMessage
	}
	job.UpdatedAt = time.Now().UTC()
	s.publish(job)
	return nil
}

func (s *IngestService) setTotal(ctx context.Context, job *domain.AnalysisJob, total int) error {
	if err := s.store.SetJobTotal(ctx, job.ID, total); err != nil {
		return err
	}
	job.TotalCommits = total
	s.publish(job)
	return nil
}

func (s *IngestService) setProcessed(ctx context.Context, job *domain.AnalysisJob, processed int) error {
	if err := s.store.SetJobProcessed(ctx, job.ID, processed); err != nil {
		return err
	}
	job.ProcessedCommits = processed
	s.publish(job)
	return nil
}

func (s *IngestService) publish(job *domain.AnalysisJob) {
	if s.notify == nil {
		return
	}
	snapshot := *job
	s.notify.Notify(&snapshot)
}

func (s *IngestService) excluded(path string) bool {
	for _, g := range s.excludes {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
	}
	return false
}

// buildWalkOptions parses the request's calendar dates into an
// inclusive UTC window: start at midnight, end at the last second of
// the day. Absent dates leave the window open on that side.
func buildWalkOptions(req IngestRequest) (port.WalkOptions, error) {
	opts := port.WalkOptions{
		AuthorFilter: req.AuthorFilter,
		AllBranches:  req.AllBranches,
	}
	if req.StartDate != "" {
		d, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return opts, fmt.Errorf("parse start date %q: %w", req.StartDate, err)
		}
		opts.Start = d
	}
	if req.EndDate != "" {
		d, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return opts, fmt.Errorf("parse end date %q: %w", req.EndDate, err)
		}
		opts.End = d.Add(24*time.Hour - time.Second)
	}
	return opts, nil
}

func parseGlobs(csv string) []string {
	var globs []string
	for _, g := range strings.Split(csv, ",") {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if !doublestar.ValidatePattern(g) {
			slog.Warn("invalid archive exclude pattern, ignoring", "pattern", g)
			continue
		}
		globs = append(globs, g)
	}
	return globs
}
