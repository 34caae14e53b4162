package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"deckd/internal/editor"
	"deckd/internal/models"
	"deckd/internal/persistence/interfaces"
	"deckd/internal/providers"
)

var ErrInvalidRecordingID = errors.New("invalid recording id")

// FileStorage keeps one zstd-compressed document per recording in dir.
type FileStorage struct {
	dir        string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileStorage(dir string, compressor interfaces.CompressorInterface, logger providers.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir, compressor: compressor, logger: logger}, nil
}

func (f *FileStorage) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", ErrInvalidRecordingID
	}
	return filepath.Join(f.dir, id+".json.zst"), nil
}

func (f *FileStorage) PersistSnapshotUpdate(_ context.Context, recordingID string, _ editor.Change, rec *models.ClickRecording) error {
	path, err := f.path(recordingID)
	if err != nil {
		return err
	}
	data, err := models.EncodeRecording(rec)
	if err != nil {
		return err
	}
	compressed, err := f.compressor.Compress(data)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, compressed)
}

// Load reads a stored recording back.
func (f *FileStorage) Load(recordingID string) (*models.ClickRecording, error) {
	path, err := f.path(recordingID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := f.compressor.Decompress(data)
	if err != nil {
		return nil, err
	}
	var rec models.ClickRecording
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (f *FileStorage) DeleteRecording(_ context.Context, recordingID string) error {
	path, err := f.path(recordingID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}
