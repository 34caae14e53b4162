package persistence

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"deckd/internal/models"
	"deckd/internal/persistence/interfaces"
	"deckd/internal/providers"
	"deckd/internal/structures"
)

const coldFileName = "sessions.cold.zst"

// ColdEntry is one idle session moved out of memory.
type ColdEntry struct {
	Session   *models.SessionData `json:"session"`
	EvictedAt time.Time           `json:"evicted_at"`
}

// ColdFile is the on-disk format of cold storage.
type ColdFile struct {
	Entries map[string]*ColdEntry `json:"entries"`
}

// ColdStorage keeps sessions that went idle on disk until they are asked for
// again. Evict and Restore only touch memory; Flush is the one method that
// writes.
type ColdStorage struct {
	mu         sync.RWMutex
	dir        string
	index      map[string]struct{}
	pending    map[string]*ColdEntry
	restored   map[string]struct{}
	loaded     *ColdFile
	coldTTL    time.Duration
	now        func() time.Time
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewColdStorage(dir string, coldTTL time.Duration, compressor interfaces.CompressorInterface, logger providers.Logger) *ColdStorage {
	return &ColdStorage{
		dir:        dir,
		index:      make(map[string]struct{}),
		pending:    make(map[string]*ColdEntry),
		restored:   make(map[string]struct{}),
		coldTTL:    coldTTL,
		now:        time.Now,
		compressor: compressor,
		logger:     logger,
	}
}

// Has reports whether the session id is in cold storage.
func (cs *ColdStorage) Has(id string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, ok := cs.index[id]
	return ok
}

// Len is the number of sessions currently in cold storage.
func (cs *ColdStorage) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.index)
}

// Evict buffers a session for the next Flush.
func (cs *ColdStorage) Evict(session *models.SessionData) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.pending[session.ID] = &ColdEntry{Session: session, EvictedAt: cs.now()}
	cs.index[session.ID] = struct{}{}
	delete(cs.restored, session.ID)
}

// Restore takes a session back out of cold storage. It returns nil, nil when
// the id is unknown.
func (cs *ColdStorage) Restore(id string) (*models.SessionData, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if entry, ok := cs.pending[id]; ok {
		delete(cs.pending, id)
		delete(cs.index, id)
		return entry.Session, nil
	}

	coldFile := cs.getOrLoadColdFile()
	if coldFile == nil {
		delete(cs.index, id)
		return nil, nil
	}
	entry, ok := coldFile.Entries[id]
	if !ok {
		delete(cs.index, id)
		return nil, nil
	}

	// The file is rewritten without it on the next Flush.
	cs.restored[id] = struct{}{}
	delete(cs.index, id)
	return entry.Session, nil
}

// Flush merges pending evictions, drops restored and expired entries and
// rewrites the cold file.
func (cs *ColdStorage) Flush() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if len(cs.pending) == 0 && len(cs.restored) == 0 && cs.coldTTL <= 0 {
		return nil
	}

	coldFile := cs.getOrLoadColdFile()
	if coldFile == nil {
		coldFile = &ColdFile{Entries: make(map[string]*ColdEntry)}
	}
	for id := range cs.restored {
		delete(coldFile.Entries, id)
	}
	for id, entry := range cs.pending {
		coldFile.Entries[id] = entry
	}

	if cs.coldTTL > 0 {
		now := cs.now()
		for id, entry := range coldFile.Entries {
			if now.Sub(entry.EvictedAt) > cs.coldTTL {
				delete(coldFile.Entries, id)
				delete(cs.index, id)
				cs.logger.Infof(providers.TypeStorage, "Expired cold session %s", id)
			}
		}
	}

	if len(coldFile.Entries) > 0 {
		if err := cs.writeColdFile(coldFile); err != nil {
			return err
		}
		cs.loaded = coldFile
	} else {
		os.Remove(cs.coldFilePath())
		cs.loaded = nil
	}

	cs.pending = make(map[string]*ColdEntry)
	cs.restored = make(map[string]struct{})
	return nil
}

// RestoreIndex reads the ids held in the cold file. Called once at startup.
func (cs *ColdStorage) RestoreIndex() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := os.MkdirAll(cs.dir, 0755); err != nil {
		return err
	}
	coldFile := cs.loadColdFileFromDisk()
	if coldFile == nil {
		return nil
	}
	for id := range coldFile.Entries {
		cs.index[id] = struct{}{}
	}
	return nil
}

func (cs *ColdStorage) Close() {
	cs.compressor.Close()
}

// Must be called under cs.mu.
func (cs *ColdStorage) getOrLoadColdFile() *ColdFile {
	if cs.loaded != nil {
		return cs.loaded
	}
	cs.loaded = cs.loadColdFileFromDisk()
	return cs.loaded
}

func (cs *ColdStorage) loadColdFileFromDisk() *ColdFile {
	path := cs.coldFilePath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			cs.logger.Errorf(providers.TypeStorage, "Failed to read cold file %s: %s", path, err)
		}
		return nil
	}

	decompressed, err := cs.compressor.Decompress(data)
	if err != nil {
		cs.logger.Errorf(providers.TypeStorage, "Failed to decompress cold file %s: %s", path, err)
		return nil
	}

	var cf ColdFile
	if err := json.Unmarshal(decompressed, &cf); err != nil {
		cs.logger.Errorf(providers.TypeStorage, "Failed to parse cold file %s: %s", path, err)
		return nil
	}
	if cf.Entries == nil {
		cf.Entries = make(map[string]*ColdEntry)
	}
	return &cf
}

func (cs *ColdStorage) writeColdFile(cf *ColdFile) error {
	jsonData, err := json.Marshal(cf)
	if err != nil {
		return err
	}
	compressed, err := cs.compressor.Compress(jsonData)
	if err != nil {
		return err
	}
	return writeFileAtomic(cs.coldFilePath(), compressed)
}

func (cs *ColdStorage) coldFilePath() string {
	return filepath.Join(cs.dir, coldFileName)
}

// NewColdStorageProvider builds cold storage from persistence.coldStorageDir.
// It returns nil when no directory is configured; idle sessions then stay in
// memory.
func NewColdStorageProvider(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) *ColdStorage {
	if conf.Persistence.ColdStorageDir == "" {
		return nil
	}
	return NewColdStorage(conf.Persistence.ColdStorageDir, conf.Persistence.ColdTTL, compressor, logger)
}
