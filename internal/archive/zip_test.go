package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRoundTrip(t *testing.T) {
	entries := []Entry{
		{Path: "src/main.go", Content: []byte("package main\n")},
		{Path: "docs/readme.md", Content: []byte("# readme\n")},
	}

	data, err := Build(entries)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, r.File, 2)

	got := map[string]string{}
	for _, f := range r.File {
		assert.Equal(t, zip.Deflate, f.Method)
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		got[f.Name] = string(content)
	}

	assert.Equal(t, "package main\n", got["src/main.go"])
	assert.Equal(t, "# readme\n", got["docs/readme.md"])
}

func TestBuildEmpty(t *testing.T) {
	data, err := Build(nil)
	assert.NoError(t, err)
	assert.Nil(t, data)

	data, err = Build([]Entry{})
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestBuildPreservesNestedPaths(t *testing.T) {
	data, err := Build([]Entry{{Path: "a/b/c/deep.txt", Content: []byte("x")}})
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, r.File, 1)
	assert.Equal(t, "a/b/c/deep.txt", r.File[0].Name)
	assert.Equal(t, "-rw-r--r--", r.File[0].Mode().String())
}
