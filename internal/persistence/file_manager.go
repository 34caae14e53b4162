package persistence

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"deckd/internal/models"
	"deckd/internal/persistence/interfaces"
	"deckd/internal/providers"
)

// FileManager saves and restores the whole session set as one compressed
// state file.
type FileManager struct {
	registry   interfaces.SessionRegistry
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, registry interfaces.SessionRegistry, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		registry:   registry,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	storage := f.registry.GetSnapshot()
	storage.Version = models.StorageVersion

	jsonData, err := json.Marshal(storage)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}
	return writeFileAtomic(fileName, data)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores every session in the state file. A missing file is
// not an error. Sessions whose recording no longer validates are skipped.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	var storage models.Storage
	if err := json.Unmarshal(decompressedData, &storage); err != nil {
		return fmt.Errorf("state file %s: %w", fileName, err)
	}
	if storage.Version > models.StorageVersion {
		return fmt.Errorf("state file %s has version %d, newer than supported %d", fileName, storage.Version, models.StorageVersion)
	}

	for id, session := range storage.Sessions {
		if session == nil {
			continue
		}
		if session.ID == "" {
			session.ID = id
		}
		if err := f.registry.PutSession(session); err != nil {
			f.logger.Warnf(providers.TypeStorage, "Skipping session %s from %s: %s", id, fileName, err)
		}
	}
	return nil
}
