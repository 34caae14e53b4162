package persistence

import (
	"errors"
	"sync"
	"time"

	"deckd/internal/models"
)

func ptr(v float64) *float64 { return &v }

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

func sampleSession(id string) *models.SessionData {
	t := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.SessionData{ID: id, CreatedAt: t, UpdatedAt: t, Recording: sampleRecording()}
}

// fakeRegistry implements interfaces.SessionRegistry.
type fakeRegistry struct {
	mu       sync.Mutex
	sessions map[string]*models.SessionData
	evicted  int
	putErr   error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{sessions: make(map[string]*models.SessionData)}
}

func (r *fakeRegistry) GetSnapshot() *models.Storage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &models.Storage{Sessions: make(map[string]*models.SessionData, len(r.sessions))}
	for id, s := range r.sessions {
		out.Sessions[id] = s
	}
	return out
}

func (r *fakeRegistry) PutSession(data *models.SessionData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	if err := data.Recording.Validate(); err != nil {
		return err
	}
	r.sessions[data.ID] = data
	return nil
}

func (r *fakeRegistry) EvictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evicted++
	return 0
}

func (r *fakeRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// statusRecorder implements StatusReporter.
type statusRecorder struct {
	mu      sync.Mutex
	saving  []bool
	savedAt time.Time
}

func (s *statusRecorder) SetSaveStatus(saving bool, savedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = append(s.saving, saving)
	if !savedAt.IsZero() {
		s.savedAt = savedAt
	}
}

func (s *statusRecorder) snapshot() ([]bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.saving...), s.savedAt
}

var errBoom = errors.New("boom")
