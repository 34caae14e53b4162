package models

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

var (
	ErrInvalidDocumentFormat = errors.New("invalid document format")
	ErrEmptyRecording        = fmt.Errorf("%w: recording has no snapshots", ErrInvalidDocumentFormat)
	ErrViewportTooSmall      = fmt.Errorf("viewport is smaller than the %dpx zoom region minimum", MinZoomSize)
)

// DecodeRecording parses and validates a ClickRecording document. Stored zoom
// regions are clamped into their viewport rather than rejected.
func DecodeRecording(data []byte) (*ClickRecording, error) {
	var rec ClickRecording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocumentFormat, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	rec.normalizeZoomRegions()
	return &rec, nil
}

func EncodeRecording(rec *ClickRecording) ([]byte, error) {
	return json.Marshal(rec)
}

// Validate checks the structural invariants of a recording document.
func (r *ClickRecording) Validate() error {
	if r.Version != DocumentVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidDocumentFormat, r.Version)
	}
	if len(r.Snapshots) == 0 {
		return ErrEmptyRecording
	}

	var prev int64
	for i := range r.Snapshots {
		s := &r.Snapshots[i]
		if !s.Kind.Valid() {
			return fmt.Errorf("%w: snapshot %d: unknown kind %q", ErrInvalidDocumentFormat, i, s.Kind)
		}
		if s.Kind == KindStart && i != 0 {
			return fmt.Errorf("%w: snapshot %d: only the first snapshot may be a start snapshot", ErrInvalidDocumentFormat, i)
		}
		if i > 0 && s.Timestamp < prev {
			return fmt.Errorf("%w: snapshot %d: timestamp %d precedes %d", ErrInvalidDocumentFormat, i, s.Timestamp, prev)
		}
		prev = s.Timestamp

		hasClick := s.ClickX != nil || s.ClickY != nil
		if s.Kind == KindClick && (s.ClickX == nil || s.ClickY == nil) {
			return fmt.Errorf("%w: snapshot %d: click snapshot without click coordinates", ErrInvalidDocumentFormat, i)
		}
		if s.Kind != KindClick && hasClick {
			return fmt.Errorf("%w: snapshot %d: %s snapshot carries click coordinates", ErrInvalidDocumentFormat, i, s.Kind)
		}
		if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
			return fmt.Errorf("%w: snapshot %d: viewport %dx%d", ErrInvalidDocumentFormat, i, s.ViewportWidth, s.ViewportHeight)
		}
	}
	return nil
}

func (r *ClickRecording) normalizeZoomRegions() {
	for i := range r.Snapshots {
		s := &r.Snapshots[i]
		if s.Annotation == nil || s.Annotation.ZoomPan == nil {
			continue
		}
		zp, err := NormalizeZoomPan(*s.Annotation.ZoomPan, s.Viewport())
		if err != nil || !zp.Enabled {
			s.Annotation.ZoomPan = nil
			continue
		}
		s.Annotation.ZoomPan = &zp
	}
}

// NormalizeZoomPan clamps a region into viewport so that x, y >= 0,
// x+width <= viewport width, y+height <= viewport height and both sizes are at
// least MinZoomSize.
func NormalizeZoomPan(zp ZoomPan, viewport Size) (ZoomPan, error) {
	if viewport.Width < MinZoomSize || viewport.Height < MinZoomSize {
		return ZoomPan{}, ErrViewportTooSmall
	}
	out := ClampRect(zp.Rect(), viewport).ZoomPan()
	out.Enabled = zp.Enabled
	return out, nil
}
