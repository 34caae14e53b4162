package interfaces

import (
	"context"

	"deckd/internal/editor"
	"deckd/internal/models"
)

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}

// StorageCollaborator is the recording-storage service the daemon reports
// edits to. Calls may be slow; they are only made from the persistence
// worker, never from an editing call.
type StorageCollaborator interface {
	PersistSnapshotUpdate(ctx context.Context, recordingID string, change editor.Change, rec *models.ClickRecording) error
	DeleteRecording(ctx context.Context, recordingID string) error
	Close() error
}

// SessionRegistry is what the state file and cold storage read from and
// restore into.
type SessionRegistry interface {
	GetSnapshot() *models.Storage
	PutSession(data *models.SessionData) error
	// EvictIdle moves sessions idle for longer than the session TTL to cold
	// storage and returns how many were moved.
	EvictIdle() int
}
