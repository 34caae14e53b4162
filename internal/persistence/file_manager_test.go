package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckd/internal/models"
	"deckd/internal/testutil"
)

func TestFileManager_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "sessions.dat")
	comp, err := NewZstdCompressor()
	require.NoError(t, err)

	src := newFakeRegistry()
	src.sessions["a"] = sampleSession("a")
	src.sessions["b"] = sampleSession("b")
	require.NoError(t, NewFileManager(comp, src, &testutil.MockLogger{}).SaveToFile(path))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	dst := newFakeRegistry()
	require.NoError(t, NewFileManager(comp, dst, &testutil.MockLogger{}).LoadFromFile(path))
	assert.Equal(t, 2, dst.len())
	assert.Equal(t, src.sessions["a"].Recording, dst.sessions["a"].Recording)
}

func TestFileManager_LoadFromFile_FileNotExist(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, newFakeRegistry(), &testutil.MockLogger{})
	assert.NoError(t, fm.LoadFromFile("/nonexistent/path/file.dat"))
}

func TestFileManager_LoadFromFile_DecompressError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dat")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	comp := &testutil.MockCompressor{DecompressFn: func([]byte) ([]byte, error) { return nil, errBoom }}
	fm := NewFileManager(comp, newFakeRegistry(), &testutil.MockLogger{})
	assert.ErrorIs(t, fm.LoadFromFile(path), errBoom)
}

func TestFileManager_LoadFromFile_NewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.dat")
	data, _ := json.Marshal(models.Storage{Version: models.StorageVersion + 1})
	require.NoError(t, os.WriteFile(path, data, 0644))

	fm := NewFileManager(&testutil.MockCompressor{}, newFakeRegistry(), &testutil.MockLogger{})
	assert.Error(t, fm.LoadFromFile(path))
}

func TestFileManager_LoadSkipsInvalidSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.dat")
	bad := sampleSession("bad")
	bad.Recording.Snapshots = nil
	data, _ := json.Marshal(models.Storage{Version: 1, Sessions: map[string]*models.SessionData{
		"good": sampleSession("good"),
		"bad":  bad,
	}})
	require.NoError(t, os.WriteFile(path, data, 0644))

	reg := newFakeRegistry()
	logger := &testutil.MockLogger{}
	require.NoError(t, NewFileManager(&testutil.MockCompressor{}, reg, logger).LoadFromFile(path))
	assert.Equal(t, 1, reg.len())
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestFileManager_SaveCompressError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.dat")
	comp := &testutil.MockCompressor{CompressFn: func([]byte) ([]byte, error) { return nil, errBoom }}
	fm := NewFileManager(comp, newFakeRegistry(), &testutil.MockLogger{})
	assert.True(t, errors.Is(fm.SaveToFile(path), errBoom))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
