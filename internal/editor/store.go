package editor

import (
	"fmt"
	"net/url"
	"strconv"

	"deckd/internal/models"
)

type ChangeOp string

const (
	OpAnnotation ChangeOp = "annotation"
	OpZoomPan    ChangeOp = "zoomPan"
	OpBookend    ChangeOp = "bookend"
	OpDelete     ChangeOp = "delete"
)

// Change describes one applied Store mutation. Patch holds the new value:
// models.Annotation, *models.ZoomPan (nil when cleared), BookendPatch or nil
// for deletes.
type Change struct {
	Op       ChangeOp `json:"op"`
	Index    int      `json:"index"`
	Patch    any      `json:"patch,omitempty"`
	Revision uint64   `json:"revision"`
}

// ChangeSink receives every applied mutation. Implementations must not block.
type ChangeSink interface {
	Enqueue(c Change)
}

type AnnotationPatch struct {
	Label  string `json:"label"`
	Script string `json:"script"`
}

// BookendPatch updates cover/end slide metadata; nil fields are left as is.
type BookendPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Logo        *string `json:"logo,omitempty"`
	CTALink     *string `json:"ctaLink,omitempty"`
}

// Store is the only mutator of a recording. It is not safe for concurrent
// use; EditorState serialises access to it.
type Store struct {
	rec          *models.ClickRecording
	clickOrdinal []int
	revision     uint64
	sink         ChangeSink
}

// NewStore validates rec and takes ownership of it.
func NewStore(rec *models.ClickRecording, sink ChangeSink) (*Store, error) {
	if rec == nil {
		return nil, models.ErrEmptyRecording
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	s := &Store{
		rec:          rec,
		clickOrdinal: make([]int, len(rec.Snapshots)),
		sink:         sink,
	}
	n := 0
	for i := range rec.Snapshots {
		if rec.Snapshots[i].Kind == models.KindClick {
			n++
		}
		s.clickOrdinal[i] = n
	}
	return s, nil
}

func (s *Store) Len() int {
	return len(s.rec.Snapshots)
}

func (s *Store) Revision() uint64 {
	return s.revision
}

func (s *Store) valid(i int) bool {
	return i >= 0 && i < len(s.rec.Snapshots)
}

// Snapshot returns a deep copy of the snapshot at i.
func (s *Store) Snapshot(i int) (models.ClickSnapshot, bool) {
	if !s.valid(i) {
		return models.ClickSnapshot{}, false
	}
	return s.rec.Snapshots[i].Clone(), true
}

// Get returns a copy of the slide's annotation, or nil when it has none.
func (s *Store) Get(i int) *models.Annotation {
	if !s.valid(i) {
		return nil
	}
	return s.rec.Snapshots[i].Annotation.Clone()
}

// Label is the stored label, or the derived default when none is set.
func (s *Store) Label(i int) string {
	if !s.valid(i) {
		return ""
	}
	if a := s.rec.Snapshots[i].Annotation; a != nil && a.Label != "" {
		return a.Label
	}
	return s.DefaultLabel(i)
}

// DefaultLabel is "Start" for start slides and "Click N" for the N-th click
// slide counting from the beginning of the deck.
func (s *Store) DefaultLabel(i int) string {
	if !s.valid(i) {
		return ""
	}
	switch s.rec.Snapshots[i].Kind {
	case models.KindStart:
		return "Start"
	case models.KindCover:
		return "Cover"
	case models.KindEnd:
		return "End"
	}
	return "Click " + strconv.Itoa(s.clickOrdinal[i])
}

// Update upserts label and script, keeping any existing zoom region.
func (s *Store) Update(i int, patch AnnotationPatch) (models.Annotation, error) {
	if !s.valid(i) {
		return models.Annotation{}, ErrIndexOutOfRange
	}
	label := patch.Label
	if label == "" {
		label = s.DefaultLabel(i)
	}
	snap := &s.rec.Snapshots[i]
	if snap.Annotation == nil {
		snap.Annotation = &models.Annotation{}
	}
	snap.Annotation.Label = label
	snap.Annotation.Script = patch.Script

	out := *snap.Annotation.Clone()
	s.commit(Change{Op: OpAnnotation, Index: i, Patch: out})
	return out, nil
}

// UpdateZoomPan stores a region clamped into the slide viewport. A disabled
// region clears the slide's zoom.
func (s *Store) UpdateZoomPan(i int, zp models.ZoomPan) (models.ZoomPan, error) {
	if !s.valid(i) {
		return models.ZoomPan{}, ErrIndexOutOfRange
	}
	snap := &s.rec.Snapshots[i]

	if !zp.Enabled {
		if snap.Annotation != nil && snap.Annotation.ZoomPan != nil {
			snap.Annotation.ZoomPan = nil
			s.commit(Change{Op: OpZoomPan, Index: i, Patch: (*models.ZoomPan)(nil)})
		}
		return models.ZoomPan{}, nil
	}

	norm, err := models.NormalizeZoomPan(zp, snap.Viewport())
	if err != nil {
		return models.ZoomPan{}, err
	}
	if snap.Annotation == nil {
		snap.Annotation = &models.Annotation{Label: s.DefaultLabel(i)}
	}
	stored := norm
	snap.Annotation.ZoomPan = &stored

	patch := norm
	s.commit(Change{Op: OpZoomPan, Index: i, Patch: &patch})
	return norm, nil
}

func (s *Store) UpdateBookend(i int, patch BookendPatch) (models.ClickSnapshot, error) {
	if !s.valid(i) {
		return models.ClickSnapshot{}, ErrIndexOutOfRange
	}
	snap := &s.rec.Snapshots[i]
	if !snap.Kind.IsBookend() {
		return models.ClickSnapshot{}, ErrNotBookend
	}
	if patch.CTALink != nil && *patch.CTALink != "" {
		u, err := url.Parse(*patch.CTALink)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return models.ClickSnapshot{}, fmt.Errorf("%w: %q", ErrInvalidLink, *patch.CTALink)
		}
	}
	if patch.Title != nil {
		snap.Title = *patch.Title
	}
	if patch.Description != nil {
		snap.Description = *patch.Description
	}
	if patch.Logo != nil {
		snap.Logo = *patch.Logo
	}
	if patch.CTALink != nil {
		snap.CTALink = *patch.CTALink
	}
	s.commit(Change{Op: OpBookend, Index: i, Patch: patch})
	return snap.Clone(), nil
}

// DeleteSnapshot removes the snapshot at i and shifts the rest down. The last
// remaining snapshot cannot be deleted.
func (s *Store) DeleteSnapshot(i int) error {
	if len(s.rec.Snapshots) == 1 {
		return ErrCannotDeleteLastSlide
	}
	if !s.valid(i) {
		return ErrIndexOutOfRange
	}
	if s.rec.Snapshots[i].Kind == models.KindClick {
		for j := i + 1; j < len(s.clickOrdinal); j++ {
			s.clickOrdinal[j]--
		}
	}
	s.rec.Snapshots = append(s.rec.Snapshots[:i], s.rec.Snapshots[i+1:]...)
	s.clickOrdinal = append(s.clickOrdinal[:i], s.clickOrdinal[i+1:]...)
	s.commit(Change{Op: OpDelete, Index: i})
	return nil
}

// Export returns a deep copy of the current document.
func (s *Store) Export() *models.ClickRecording {
	return s.rec.Clone()
}

func (s *Store) commit(c Change) {
	s.revision++
	c.Revision = s.revision
	if s.sink != nil {
		s.sink.Enqueue(c)
	}
}
