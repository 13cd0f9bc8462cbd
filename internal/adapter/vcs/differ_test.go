package vcs

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-git-history-service/internal/domain"
	"github.com/arturoeanton/go-git-history-service/internal/port"
)

func findFile(t *testing.T, files []domain.ChangedFile, path string) domain.ChangedFile {
	t.Helper()
	for _, f := range files {
		if f.Path == path {
			return f
		}
	}
	t.Fatalf("no changed file with path %q", path)
	return domain.ChangedFile{}
}

func TestDiffRootCommit(t *testing.T) {
	dir, repo := initTestRepo(t)
	hash := applyCommit(t, dir, repo, commitSpec{
		message: "initial import",
		files: map[string]string{
			"main.go":   "package main\n\nfunc main() {}\n",
			"README.md": "# title\n",
		},
		when: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})

	engine := NewGitEngine(t.TempDir())
	diff, err := engine.Diff(context.Background(), dir, hash)
	require.NoError(t, err)
	require.Len(t, diff.Files, 2)

	mainFile := findFile(t, diff.Files, "main.go")
	assert.Equal(t, domain.ChangeAdded, mainFile.ChangeType)
	assert.Equal(t, 3, mainFile.Additions)
	assert.Equal(t, 0, mainFile.Deletions)
	assert.NotEmpty(t, mainFile.Patch)

	readme := findFile(t, diff.Files, "README.md")
	assert.Equal(t, domain.ChangeAdded, readme.ChangeType)
	assert.Equal(t, 1, readme.Additions)

	assert.Contains(t, diff.Summary, "ADDED: main.go")
	assert.Contains(t, diff.Summary, "ADDED: README.md")
}

func TestDiffModifyAndDelete(t *testing.T) {
	dir, repo := initTestRepo(t)
	applyCommit(t, dir, repo, commitSpec{
		message: "seed",
		files: map[string]string{
			"a.txt": "one\ntwo\n",
			"b.txt": "x\ny\nz\n",
		},
		when: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	second := applyCommit(t, dir, repo, commitSpec{
		message: "rework",
		files:   map[string]string{"a.txt": "one\nTWO\nthree\n"},
		remove:  []string{"b.txt"},
		when:    time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
	})

	engine := NewGitEngine(t.TempDir())
	diff, err := engine.Diff(context.Background(), dir, second)
	require.NoError(t, err)
	require.Len(t, diff.Files, 2)

	modified := findFile(t, diff.Files, "a.txt")
	assert.Equal(t, domain.ChangeModified, modified.ChangeType)
	assert.Equal(t, 2, modified.Additions)
	assert.Equal(t, 1, modified.Deletions)

	deleted := findFile(t, diff.Files, "b.txt")
	assert.Equal(t, domain.ChangeDeleted, deleted.ChangeType)
	assert.Equal(t, 0, deleted.Additions)
	assert.Equal(t, 3, deleted.Deletions)

	assert.Contains(t, diff.Summary, "MODIFIED: a.txt")
	assert.Contains(t, diff.Summary, "DELETED: b.txt")
}

func TestDiffRename(t *testing.T) {
	dir, repo := initTestRepo(t)
	content := "alpha\nbeta\ngamma\ndelta\nepsilon\n"
	applyCommit(t, dir, repo, commitSpec{
		message: "seed",
		files:   map[string]string{"old.txt": content},
		when:    time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	})
	second := applyCommit(t, dir, repo, commitSpec{
		message: "move file",
		files:   map[string]string{"new.txt": content},
		remove:  []string{"old.txt"},
		when:    time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC),
	})

	engine := NewGitEngine(t.TempDir())
	diff, err := engine.Diff(context.Background(), dir, second)
	require.NoError(t, err)
	require.Len(t, diff.Files, 1)

	renamed := diff.Files[0]
	assert.Equal(t, domain.ChangeRenamed, renamed.ChangeType)
	assert.Equal(t, "new.txt", renamed.Path)
	assert.Equal(t, 0, renamed.Additions)
	assert.Equal(t, 0, renamed.Deletions)
	assert.Contains(t, diff.Summary, "RENAMED: new.txt")
}

func TestDiffPatchTruncation(t *testing.T) {
	dir, repo := initTestRepo(t)
	hash := applyCommit(t, dir, repo, commitSpec{
		message: "huge file",
		files:   map[string]string{"big.txt": strings.Repeat("0123456789\n", 2000)},
		when:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	engine := NewGitEngine(t.TempDir())
	diff, err := engine.Diff(context.Background(), dir, hash)
	require.NoError(t, err)
	require.Len(t, diff.Files, 1)

	patch := diff.Files[0].Patch
	assert.True(t, strings.HasSuffix(patch, "... (truncated)"))
	assert.LessOrEqual(t, len(patch), maxPatchChars+len("\n... (truncated)"))
}

func TestTruncatePatchRuneBoundary(t *testing.T) {
	short := "small patch"
	assert.Equal(t, short, truncatePatch(short))

	ascii := strings.Repeat("b", maxPatchChars+5)
	truncated := truncatePatch(ascii)
	assert.Len(t, truncated, maxPatchChars+len("\n... (truncated)"))
	assert.True(t, utf8.ValidString(truncated))

	// A multi-byte rune straddling the cut point must not be split.
	mixed := strings.Repeat("a", maxPatchChars-1) + "日本語のコード"
	truncated = truncatePatch(mixed)
	assert.True(t, utf8.ValidString(truncated))
	assert.True(t, strings.HasSuffix(truncated, "... (truncated)"))
	assert.LessOrEqual(t, len(truncated), maxPatchChars+len("\n... (truncated)"))
}

func TestClassifyChange(t *testing.T) {
	assert.Equal(t, domain.ChangeAdded, classifyChange("", "new.txt"))
	assert.Equal(t, domain.ChangeDeleted, classifyChange("old.txt", ""))
	assert.Equal(t, domain.ChangeRenamed, classifyChange("old.txt", "new.txt"))
	assert.Equal(t, domain.ChangeModified, classifyChange("same.txt", "same.txt"))
}

func TestResolveBlob(t *testing.T) {
	dir, repo := initTestRepo(t)
	hash := applyCommit(t, dir, repo, commitSpec{
		message: "nested layout",
		files:   map[string]string{"pkg/util/helper.go": "package util\n"},
		when:    time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	})

	engine := NewGitEngine(t.TempDir())
	content, err := engine.ResolveBlob(context.Background(), dir, hash, "pkg/util/helper.go")
	require.NoError(t, err)
	assert.Equal(t, "package util\n", string(content))

	_, err = engine.ResolveBlob(context.Background(), dir, hash, "pkg/util/missing.go")
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrDiff)
}
