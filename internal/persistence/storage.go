package persistence

import (
	"context"
	"fmt"

	"deckd/internal/editor"
	"deckd/internal/models"
	"deckd/internal/persistence/interfaces"
	"deckd/internal/providers"
	"deckd/internal/structures"
)

// NewStorageCollaborator picks the collaborator named by storage.driver.
func NewStorageCollaborator(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) (interfaces.StorageCollaborator, error) {
	switch conf.Storage.Driver {
	case "", "none":
		return noopStorage{}, nil
	case "file":
		return NewFileStorage(conf.Storage.Dir, compressor, logger)
	case "http":
		return NewRemoteStorage(conf.Storage.URL, conf.Storage.Timeout, logger), nil
	case "sqlite":
		return NewSQLiteStorage(conf.Storage.DSN, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
}

type noopStorage struct{}

func (noopStorage) PersistSnapshotUpdate(context.Context, string, editor.Change, *models.ClickRecording) error {
	return nil
}

func (noopStorage) DeleteRecording(context.Context, string) error { return nil }

func (noopStorage) Close() error { return nil }
