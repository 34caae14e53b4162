package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckd/internal/clock"
	"deckd/internal/editor"
	"deckd/internal/models"
	"deckd/internal/persistence"
	"deckd/internal/structures"
	"deckd/internal/testutil"
)

func ptr(v float64) *float64 { return &v }

func testConfig() *structures.Config {
	return &structures.Config{
		Editor: structures.EditorConfig{
			MaxSessions:     3,
			SessionTTL:      time.Minute,
			MaxDocumentSize: 1 << 20,
		},
		Storage: structures.StorageConfig{QueueSize: 16, Timeout: time.Second},
	}
}

func sampleRecording() *models.ClickRecording {
	return &models.ClickRecording{
		Version:   models.DocumentVersion,
		StartTime: 1000,
		Snapshots: []models.ClickSnapshot{
			{Kind: models.KindStart, Timestamp: 1000, HTML: "<p>start</p>", URL: "https://app.example.com", ViewportWidth: 1920, ViewportHeight: 1080},
			{Kind: models.KindClick, Timestamp: 2000, HTML: "<p>click</p>", URL: "https://app.example.com/a", ClickX: ptr(800), ClickY: ptr(450), ViewportWidth: 1920, ViewportHeight: 1080},
		},
	}
}

func sampleDocument(t *testing.T) []byte {
	data, err := models.EncodeRecording(sampleRecording())
	require.NoError(t, err)
	return data
}

type fixture struct {
	service *DeckService
	storage *testutil.MockStorage
	metrics *testutil.MockMetrics
	logger  *testutil.MockLogger
	cold    *persistence.ColdStorage
	clock   *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conf := testConfig()
	f := &fixture{
		storage: &testutil.MockStorage{},
		metrics: &testutil.MockMetrics{},
		logger:  &testutil.MockLogger{},
		clock:   clock.NewFake(),
	}
	f.cold = persistence.NewColdStorage(t.TempDir(), time.Hour, &testutil.MockCompressor{}, f.logger)
	persister := persistence.NewPersister(conf, f.storage, f.logger, f.metrics)
	f.service = NewDeckService(conf, f.logger, f.metrics, persister, f.cold, f.clock)
	t.Cleanup(func() {
		f.service.Close()
		_ = persister.Close(context.Background())
	})
	return f
}

func TestDeckService_LoadOpensSession(t *testing.T) {
	f := newFixture(t)

	id, err := f.service.Load(sampleDocument(t))
	require.NoError(t, err)
	assert.Len(t, id, 36)

	s, err := f.service.Session(id)
	require.NoError(t, err)
	assert.Equal(t, 2, s.State.Len())
	assert.Equal(t, 0, s.State.Current())
	assert.Equal(t, []string{id}, f.service.Sessions())
	assert.Equal(t, 1, f.metrics.Sessions)
}

func TestDeckService_LoadRejectsInvalidDocuments(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Load([]byte(`{"version":"1.0","startTime":0,"snapshots":[]}`))
	assert.ErrorIs(t, err, models.ErrInvalidDocumentFormat)

	_, err = f.service.Load([]byte(`not json`))
	assert.ErrorIs(t, err, models.ErrInvalidDocumentFormat)

	assert.Zero(t, f.service.Count())
}

func TestDeckService_LoadRejectsOversizedDocument(t *testing.T) {
	f := newFixture(t)
	f.service.conf.Editor.MaxDocumentSize = 10

	_, err := f.service.Load(sampleDocument(t))
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
	assert.Zero(t, f.service.Count())
}

func TestDeckService_SessionLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.service.LoadRecording(sampleRecording())
		require.NoError(t, err)
	}

	_, err := f.service.LoadRecording(sampleRecording())
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, 3, f.service.Count())
}

func TestDeckService_UnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Session("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.service.Export("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, f.service.Delete(context.Background(), "missing"), ErrSessionNotFound)
}

func TestDeckService_EditsArePersistedAndExported(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.LoadRecording(sampleRecording())
	require.NoError(t, err)
	s, err := f.service.Session(id)
	require.NoError(t, err)

	script := "Open the report"
	_, err = s.State.Update(1, editor.AnnotationPatch{Script: script})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(f.storage.Persisted()) == 1 }, time.Second, 5*time.Millisecond)
	call := f.storage.Persisted()[0]
	assert.Equal(t, id, call.ID)
	assert.Equal(t, 1, call.Change.Index)
	require.NotNil(t, call.Recording.Snapshots[1].Annotation)
	assert.Equal(t, script, call.Recording.Snapshots[1].Annotation.Script)

	require.Eventually(t, func() bool { return !s.State.View().LastSavedAt.IsZero() }, time.Second, 5*time.Millisecond)

	data, err := f.service.Export(id)
	require.NoError(t, err)
	rec, err := models.DecodeRecording(data)
	require.NoError(t, err)
	assert.Equal(t, script, rec.Snapshots[1].Annotation.Script)
}

func TestDeckService_Delete(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.LoadRecording(sampleRecording())
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), id))

	assert.Zero(t, f.service.Count())
	assert.Equal(t, 0, f.metrics.Sessions)
	assert.Equal(t, []string{id}, f.storage.Deleted)
	_, err = f.service.Session(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeckService_DeleteCollaboratorFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.LoadRecording(sampleRecording())
	require.NoError(t, err)
	f.storage.Err = errors.New("boom")

	require.NoError(t, f.service.Delete(context.Background(), id))
	assert.Zero(t, f.service.Count())
	assert.Equal(t, 1, f.logger.Count("error"))
	assert.Equal(t, 1, f.metrics.Failures())
}

func TestDeckService_EvictIdleMovesToColdStorage(t *testing.T) {
	f := newFixture(t)
	idle, err := f.service.LoadRecording(sampleRecording())
	require.NoError(t, err)

	f.clock.Advance(45 * time.Second)
	active, err := f.service.LoadRecording(sampleRecording())
	require.NoError(t, err)
	f.clock.Advance(30 * time.Second)

	assert.Equal(t, 1, f.service.EvictIdle())
	assert.Equal(t, []string{active}, f.service.Sessions())
	assert.True(t, f.cold.Has(idle))

	s, err := f.service.Session(idle)
	require.NoError(t, err)
	assert.Equal(t, 2, s.State.Len())
	assert.False(t, f.cold.Has(idle))
	assert.Equal(t, 2, f.service.Count())
}

func TestDeckService_EvictIdleKeepsEditingSessions(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.LoadRecording(sampleRecording())
	require.NoError(t, err)
	s, err := f.service.Session(id)
	require.NoError(t, err)
	_, err = s.State.StartEditingAnnotation()
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	assert.Zero(t, f.service.EvictIdle())
	assert.Equal(t, 1, f.service.Count())
}

func TestDeckService_EvictIdleWithoutColdStorage(t *testing.T) {
	conf := testConfig()
	c := clock.NewFake()
	svc := NewDeckService(conf, &testutil.MockLogger{}, &testutil.MockMetrics{}, nil, nil, c)
	_, err := svc.LoadRecording(sampleRecording())
	require.NoError(t, err)

	c.Advance(time.Hour)
	assert.Zero(t, svc.EvictIdle())
	assert.Equal(t, 1, svc.Count())
}

func TestDeckService_SnapshotAndPutSessionRoundTrip(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.LoadRecording(sampleRecording())
	require.NoError(t, err)

	snap := f.service.GetSnapshot()
	assert.Equal(t, models.StorageVersion, snap.Version)
	require.Contains(t, snap.Sessions, id)

	other := newFixture(t)
	require.NoError(t, other.service.PutSession(snap.Sessions[id]))
	s, err := other.service.Session(id)
	require.NoError(t, err)
	assert.Equal(t, snap.Sessions[id].CreatedAt, s.CreatedAt)
	assert.Equal(t, 2, s.State.Len())

	assert.ErrorIs(t, other.service.PutSession(&models.SessionData{}), models.ErrInvalidDocumentFormat)
}
