package models

import "time"

// StorageVersion tags the on-disk session envelope.
const StorageVersion = 1

// SessionData is one editing session as written to the state file and to
// cold storage.
type SessionData struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Recording *ClickRecording `json:"recording"`
}

type Storage struct {
	Version  int                     `json:"version"`
	Sessions map[string]*SessionData `json:"sessions"`
}
