package persistence

import (
	"time"

	"github.com/dustin/go-humanize"
)

// SaveStatus is the human-readable saving indicator for a host UI.
func SaveStatus(isSaving bool, lastSavedAt, now time.Time) string {
	switch {
	case isSaving:
		return "Saving…"
	case lastSavedAt.IsZero():
		return "Not saved yet"
	}
	return "Saved " + humanize.RelTime(lastSavedAt, now, "ago", "from now")
}
