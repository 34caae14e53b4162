package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckd/internal/structures"
	"deckd/internal/testutil"
)

func testConfig(filePath string) *structures.Config {
	return &structures.Config{
		Persistence: structures.Persistence{
			FilePath:     filePath,
			SaveInterval: 1,
		},
	}
}

func TestScheduler_PersistThenRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.dat")
	logger := &testutil.MockLogger{}

	src := newFakeRegistry()
	src.sessions["s1"] = sampleSession("s1")
	cold := newTestCold(t, filepath.Join(dir, "cold"), 0)
	cold.Evict(sampleSession("s2"))

	s := NewScheduler(testConfig(path), logger, src, NewFileManager(&testutil.MockCompressor{}, src, logger), cold)
	require.NoError(t, s.Persist())

	dst := newFakeRegistry()
	cold2 := newTestCold(t, filepath.Join(dir, "cold"), 0)
	s2 := NewScheduler(testConfig(path), logger, dst, NewFileManager(&testutil.MockCompressor{}, dst, logger), cold2)
	require.NoError(t, s2.Restore())

	assert.Equal(t, 1, dst.len())
	assert.True(t, cold2.Has("s2"))
}

func TestScheduler_PersistError(t *testing.T) {
	logger := &testutil.MockLogger{}
	reg := newFakeRegistry()
	comp := &testutil.MockCompressor{CompressFn: func([]byte) ([]byte, error) { return nil, errBoom }}
	s := NewScheduler(testConfig(filepath.Join(t.TempDir(), "x.dat")), logger, reg, NewFileManager(comp, reg, logger), nil)

	assert.ErrorIs(t, s.Persist(), errBoom)
	assert.Equal(t, 1, logger.Count("error"))
}

func TestScheduler_InitRunsPeriodically(t *testing.T) {
	logger := &testutil.MockLogger{}
	reg := newFakeRegistry()
	s := NewScheduler(testConfig(filepath.Join(t.TempDir(), "x.dat")), logger, reg, NewFileManager(&testutil.MockCompressor{}, reg, logger), nil)

	s.Init()
	defer s.Stop()
	require.Eventually(t, func() bool {
		reg.mu.Lock()
		defer reg.mu.Unlock()
		return reg.evicted > 0
	}, 3*time.Second, 50*time.Millisecond)
}
