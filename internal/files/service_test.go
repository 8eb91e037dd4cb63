package files

import (
	"path/filepath"
	"testing"

	"github.com/kdlbs/toolgate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(logging.Default(), []string{".git/**", "node_modules/**"})
}

func TestWriteThenRead(t *testing.T) {
	root := t.TempDir()
	s := newTestService()

	_, err := s.Write(root, "a/b.txt", "X")
	require.NoError(t, err)

	out, err := s.Read(root, "a/b.txt", 0, 2000)
	require.NoError(t, err)
	assert.Contains(t, out, "    1| X")
}

func TestWriteTwiceThenReadYieldsLatest(t *testing.T) {
	root := t.TempDir()
	s := newTestService()

	_, err := s.Write(root, "a.txt", "first")
	require.NoError(t, err)
	_, err = s.Write(root, "a.txt", "second")
	require.NoError(t, err)

	out, err := s.Read(root, "a.txt", 0, 2000)
	require.NoError(t, err)
	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "first")
}

func TestEditTwiceSecondIsNoOp(t *testing.T) {
	root := t.TempDir()
	s := newTestService()

	_, err := s.Write(root, "a/b.txt", "X")
	require.NoError(t, err)

	out, err := s.Edit(root, "a/b.txt", "X", "Y", false)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully edited")

	out, err = s.Edit(root, "a/b.txt", "X", "Y", false)
	require.NoError(t, err)
	assert.Contains(t, out, "String not found in file")

	content, err := s.Read(root, "a/b.txt", 0, 2000)
	require.NoError(t, err)
	assert.Contains(t, content, "Y")
}

func TestEditRefusesIdenticalStrings(t *testing.T) {
	root := t.TempDir()
	s := newTestService()
	_, _ = s.Write(root, "a.txt", "X")

	out, err := s.Edit(root, "a.txt", "X", "X", false)
	require.NoError(t, err)
	assert.Contains(t, out, "must be different")
}

func TestListEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	s := newTestService()

	out, err := s.List(root, ".", nil)
	require.NoError(t, err)
	assert.Equal(t, "Directory is empty", out)
}

func TestListSortsDirectoriesBeforeFiles(t *testing.T) {
	root := t.TempDir()
	s := newTestService()
	_, _ = s.Write(root, "b.txt", "x")
	_, _ = s.Write(root, "a_dir/inner.txt", "x")

	out, err := s.List(root, ".", nil)
	require.NoError(t, err)
	dirIdx := indexOf(out, "a_dir/")
	fileIdx := indexOf(out, "b.txt")
	require.GreaterOrEqual(t, dirIdx, 0)
	require.GreaterOrEqual(t, fileIdx, 0)
	assert.Less(t, dirIdx, fileIdx)
}

func TestGrepNoMatches(t *testing.T) {
	root := t.TempDir()
	s := newTestService()
	_, _ = s.Write(root, "a.txt", "hello world")

	out, err := s.Grep(root, "zzz_not_present", ".", "", false, 0)
	require.NoError(t, err)
	assert.Equal(t, "No matches found", out)
}

func TestGrepFindsMatch(t *testing.T) {
	root := t.TempDir()
	s := newTestService()
	_, _ = s.Write(root, "a.txt", "hello world\nfoo bar\n")

	out, err := s.Grep(root, "foo", ".", "", false, 0)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.ToSlash("a.txt"))
	assert.Contains(t, out, "2| foo bar")
}

func TestGlobFindsFiles(t *testing.T) {
	root := t.TempDir()
	s := newTestService()
	_, _ = s.Write(root, "x.go", "package x")
	_, _ = s.Write(root, "y.txt", "not go")

	out, err := s.Glob(root, "*.go", ".", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "x.go")
	assert.NotContains(t, out, "y.txt")
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
