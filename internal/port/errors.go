package port

import "errors"

// Sentinel errors used across ports. The first five classify pipeline
// failures by stage; errors.Is against them decides propagation.
var (
	ErrSync    = errors.New("working copy sync failed")
	ErrWalk    = errors.New("history walk failed")
	ErrDiff    = errors.New("diff extraction failed")
	ErrArchive = errors.New("archive build failed")
	ErrStore   = errors.New("store operation failed")

	ErrJobNotFound    = errors.New("job not found")
	ErrRepoNotFound   = errors.New("repository not found")
	ErrCommitNotFound = errors.New("commit not found")
)
