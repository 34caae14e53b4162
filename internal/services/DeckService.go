package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"deckd/internal/clock"
	"deckd/internal/editor"
	"deckd/internal/models"
	"deckd/internal/persistence"
	"deckd/internal/persistence/interfaces"
	"deckd/internal/providers"
	"deckd/internal/structures"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrTooManySessions  = errors.New("session limit reached")
	ErrDocumentTooLarge = errors.New("document too large")
)

type DeckServiceInterface interface {
	Load(data []byte) (string, error)
	LoadRecording(rec *models.ClickRecording) (string, error)
	Session(id string) (*Session, error)
	Export(id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	Sessions() []string
	Count() int
	GetSnapshot() *models.Storage
	PutSession(data *models.SessionData) error
	EvictIdle() int
	Close()
}

var (
	_ DeckServiceInterface       = (*DeckService)(nil)
	_ interfaces.SessionRegistry = (*DeckService)(nil)
)

// Session is one open recording.
type Session struct {
	ID        string
	CreatedAt time.Time
	State     *editor.EditorState

	mu         sync.Mutex
	lastAccess time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// SetSaveStatus forwards the persister's saving signals to the editor state.
func (s *Session) SetSaveStatus(saving bool, savedAt time.Time) {
	if s.State != nil {
		s.State.SetSaveStatus(saving, savedAt)
	}
}

type DeckService struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	conf      *structures.Config
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	persister *persistence.Persister
	cold      *persistence.ColdStorage
	clock     clock.Clock
}

func NewDeckService(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, persister *persistence.Persister, cold *persistence.ColdStorage, c clock.Clock) *DeckService {
	if c == nil {
		c = clock.New()
	}
	return &DeckService{
		sessions:  make(map[string]*Session),
		conf:      conf,
		logger:    logger,
		metrics:   metrics,
		persister: persister,
		cold:      cold,
		clock:     c,
	}
}

// Load decodes and validates a document and opens a session on it. Nothing
// is opened when the document is rejected.
func (d *DeckService) Load(data []byte) (string, error) {
	if limit := d.conf.Editor.MaxDocumentSize; limit > 0 && len(data) > limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrDocumentTooLarge, len(data), limit)
	}
	rec, err := models.DecodeRecording(data)
	if err != nil {
		return "", err
	}
	return d.LoadRecording(rec)
}

func (d *DeckService) LoadRecording(rec *models.ClickRecording) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	now := d.clock.Now()
	if _, err := d.open(id.String(), now, rec); err != nil {
		return "", err
	}
	d.logger.Infof(providers.TypeEditor, "Loaded recording %s with %d slides", id, len(rec.Snapshots))
	return id.String(), nil
}

func (d *DeckService) open(id string, createdAt time.Time, rec *models.ClickRecording) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s, ok := d.sessions[id]; ok {
		return s, nil
	}
	if limit := d.conf.Editor.MaxSessions; limit > 0 && len(d.sessions) >= limit {
		return nil, ErrTooManySessions
	}

	s := &Session{ID: id, CreatedAt: createdAt, lastAccess: d.clock.Now()}
	var sink editor.ChangeSink
	if d.persister != nil {
		sink = d.persister.Sink(id, s, func() *models.ClickRecording { return s.State.Export() })
	}
	state, err := editor.New(rec, sink, d.clock)
	if err != nil {
		return nil, err
	}
	s.State = state
	d.sessions[id] = s
	d.metrics.SetSessionsTotal(len(d.sessions))
	return s, nil
}

// Session returns an open session, bringing it back from cold storage when
// it was evicted.
func (d *DeckService) Session(id string) (*Session, error) {
	d.mu.RLock()
	s, ok := d.sessions[id]
	d.mu.RUnlock()
	if ok {
		s.touch(d.clock.Now())
		return s, nil
	}

	if d.cold == nil || !d.cold.Has(id) {
		return nil, ErrSessionNotFound
	}
	data, err := d.cold.Restore(id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrSessionNotFound
	}
	s, err = d.open(data.ID, data.CreatedAt, data.Recording)
	if err != nil {
		return nil, err
	}
	d.logger.Infof(providers.TypeEditor, "Restored session %s from cold storage", id)
	return s, nil
}

// Export serialises the current document of a session.
func (d *DeckService) Export(id string) ([]byte, error) {
	s, err := d.Session(id)
	if err != nil {
		return nil, err
	}
	return models.EncodeRecording(s.State.Export())
}

// Delete closes a session and asks the storage collaborator to drop the
// recording. A collaborator failure is logged; the session stays deleted.
func (d *DeckService) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	s, ok := d.sessions[id]
	if ok {
		delete(d.sessions, id)
	}
	d.metrics.SetSessionsTotal(len(d.sessions))
	d.mu.Unlock()

	if !ok {
		if d.cold == nil || !d.cold.Has(id) {
			return ErrSessionNotFound
		}
		if _, err := d.cold.Restore(id); err != nil {
			return err
		}
	} else {
		s.State.Close()
	}

	if d.persister != nil {
		if err := d.persister.DeleteRecording(ctx, id); err != nil {
			d.metrics.IncPersistenceFailures()
			d.logger.Errorf(providers.TypeStorage, "PersistenceFailure: delete recording %s: %s", id, err)
		}
	}
	d.logger.Infof(providers.TypeEditor, "Deleted recording %s", id)
	return nil
}

func (d *DeckService) Sessions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.sessions))
	for id := range d.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d *DeckService) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

func (d *DeckService) GetSnapshot() *models.Storage {
	d.mu.RLock()
	sessions := make([]*Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		sessions = append(sessions, s)
	}
	d.mu.RUnlock()

	out := &models.Storage{Version: models.StorageVersion, Sessions: make(map[string]*models.SessionData, len(sessions))}
	for _, s := range sessions {
		out.Sessions[s.ID] = s.data()
	}
	return out
}

func (s *Session) data() *models.SessionData {
	return &models.SessionData{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.LastAccess(),
		Recording: s.State.Export(),
	}
}

// PutSession reopens a session from the state file.
func (d *DeckService) PutSession(data *models.SessionData) error {
	if data == nil || data.ID == "" {
		return fmt.Errorf("%w: session without id", models.ErrInvalidDocumentFormat)
	}
	_, err := d.open(data.ID, data.CreatedAt, data.Recording)
	return err
}

// EvictIdle moves sessions not accessed within editor.sessionTTL to cold
// storage. Sessions in the middle of a transition or an edit stay.
func (d *DeckService) EvictIdle() int {
	ttl := d.conf.Editor.SessionTTL
	if ttl <= 0 || d.cold == nil {
		return 0
	}
	now := d.clock.Now()

	d.mu.Lock()
	var idle []*Session
	for id, s := range d.sessions {
		if now.Sub(s.LastAccess()) <= ttl || s.State.State() != editor.StateIdle {
			continue
		}
		idle = append(idle, s)
		delete(d.sessions, id)
	}
	d.metrics.SetSessionsTotal(len(d.sessions))
	d.mu.Unlock()

	for _, s := range idle {
		d.cold.Evict(s.data())
		s.State.Close()
		d.logger.Debugf(providers.TypeEditor, "Session %s idle since %s, moved to cold storage", s.ID, s.LastAccess().Format(time.RFC3339))
	}
	return len(idle)
}

func (d *DeckService) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.sessions {
		s.State.Close()
	}
}
