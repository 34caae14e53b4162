package editor

import (
	"sync"

	"deckd/internal/models"
)

func ptr(v float64) *float64 { return &v }

type recordingSink struct {
	mu      sync.Mutex
	changes []Change
}

func (s *recordingSink) Enqueue(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, c)
}

func (s *recordingSink) all() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Change(nil), s.changes...)
}

func startSnapshot(ts int64) models.ClickSnapshot {
	return models.ClickSnapshot{Kind: models.KindStart, Timestamp: ts, HTML: "<p>start</p>", URL: "https://app.example.com", ViewportWidth: 1920, ViewportHeight: 1080}
}

func clickSnapshot(ts int64, x, y float64) models.ClickSnapshot {
	return models.ClickSnapshot{Kind: models.KindClick, Timestamp: ts, HTML: "<p>click</p>", URL: "https://app.example.com/x", ClickX: ptr(x), ClickY: ptr(y), ViewportWidth: 1920, ViewportHeight: 1080}
}

func recording(snaps ...models.ClickSnapshot) *models.ClickRecording {
	return &models.ClickRecording{Version: models.DocumentVersion, StartTime: 1000, Snapshots: snaps}
}

// deck is start + 3 clicks.
func deck() *models.ClickRecording {
	return recording(
		startSnapshot(1000),
		clickSnapshot(2000, 800, 450),
		clickSnapshot(3000, 100, 100),
		clickSnapshot(4000, 1800, 1000),
	)
}
