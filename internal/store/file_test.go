package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := newTestStore(t)

	in := []record{{ID: "1", Text: "first"}, {ID: "2", Text: "second"}}
	require.NoError(t, s.Save("records", in))

	var out []record
	require.NoError(t, s.Load("records", &out))
	assert.Equal(t, in, out)
}

func TestLoadMissingFileLeavesOutUntouched(t *testing.T) {
	s := newTestStore(t)

	out := []record{{ID: "seed"}}
	require.NoError(t, s.Load("never-saved", &out))
	assert.Equal(t, []record{{ID: "seed"}}, out)
}

func TestLoadCorruptedFile(t *testing.T) {
	s := newTestStore(t)

	path := filepath.Join(s.Dir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{definitely not json"), 0o644))

	var out []record
	err := s.Load("broken", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupted")
}

func TestSaveOverwrites(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("records", []record{{ID: "1"}, {ID: "2"}}))
	require.NoError(t, s.Save("records", []record{{ID: "3"}}))

	var out []record
	require.NoError(t, s.Load("records", &out))
	require.Len(t, out, 1)
	assert.Equal(t, "3", out[0].ID)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("records", []record{{ID: "1"}}))

	_, err := os.Stat(filepath.Join(s.Dir(), "records.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewFileStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
