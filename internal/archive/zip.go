// Package archive builds compressed artifacts from changed-file contents.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// Entry is one (path, content) pair destined for an archive.
type Entry struct {
	Path    string
	Content []byte
}

// Build produces a single zip stream from entries. Zero entries yield
// (nil, nil): no archive is produced, and callers skip the upload. The
// builder never touches the working copy; contents are pre-resolved by
// the caller, which also decides what to omit.
func Build(entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, entry := range entries {
		header := &zip.FileHeader{
			Name:   entry.Path,
			Method: zip.Deflate,
		}
		header.SetMode(0o644)

		f, err := w.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", port.ErrArchive, entry.Path, err)
		}
		if _, err := f.Write(entry.Content); err != nil {
			return nil, fmt.Errorf("%w: write %s: %v", port.ErrArchive, entry.Path, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalize: %v", port.ErrArchive, err)
	}

	return buf.Bytes(), nil
}
