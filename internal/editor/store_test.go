package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckd/internal/models"
)

func newTestStore(t *testing.T, rec *models.ClickRecording) (*Store, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	s, err := NewStore(rec, sink)
	require.NoError(t, err)
	return s, sink
}

func TestNewStore_RejectsInvalidDocument(t *testing.T) {
	_, err := NewStore(recording(), nil)
	assert.ErrorIs(t, err, models.ErrEmptyRecording)

	_, err = NewStore(nil, nil)
	assert.ErrorIs(t, err, models.ErrInvalidDocumentFormat)
}

func TestStore_DefaultLabels(t *testing.T) {
	s, _ := newTestStore(t, deck())
	assert.Equal(t, "Start", s.Label(0))
	assert.Equal(t, "Click 1", s.Label(1))
	assert.Equal(t, "Click 2", s.Label(2))
	assert.Equal(t, "Click 3", s.Label(3))
	assert.Equal(t, "", s.Label(4))
}

func TestStore_DefaultLabelsFollowDeletes(t *testing.T) {
	s, _ := newTestStore(t, deck())
	require.NoError(t, s.DeleteSnapshot(1))
	assert.Equal(t, "Click 1", s.Label(1))
	assert.Equal(t, "Click 2", s.Label(2))

	require.NoError(t, s.DeleteSnapshot(0))
	assert.Equal(t, "Click 1", s.Label(0))
	assert.Equal(t, "Click 2", s.Label(1))
}

func TestStore_BookendLabels(t *testing.T) {
	rec := recording(
		models.ClickSnapshot{Kind: models.KindCover, Timestamp: 1, ViewportWidth: 1280, ViewportHeight: 720},
		clickSnapshot(2, 10, 10),
		models.ClickSnapshot{Kind: models.KindEnd, Timestamp: 3, ViewportWidth: 1280, ViewportHeight: 720},
	)
	s, _ := newTestStore(t, rec)
	assert.Equal(t, "Cover", s.Label(0))
	assert.Equal(t, "Click 1", s.Label(1))
	assert.Equal(t, "End", s.Label(2))
}

func TestStore_UpdateGetRoundTrip(t *testing.T) {
	s, sink := newTestStore(t, deck())

	out, err := s.Update(1, AnnotationPatch{Label: "Open settings", Script: "Click the gear icon."})
	require.NoError(t, err)
	assert.Equal(t, models.Annotation{Label: "Open settings", Script: "Click the gear icon."}, out)

	got := s.Get(1)
	require.NotNil(t, got)
	assert.Equal(t, "Open settings", got.Label)
	assert.Equal(t, "Click the gear icon.", got.Script)
	assert.Nil(t, got.ZoomPan)

	changes := sink.all()
	require.Len(t, changes, 1)
	assert.Equal(t, OpAnnotation, changes[0].Op)
	assert.Equal(t, uint64(1), changes[0].Revision)
}

func TestStore_UpdateKeepsZoomPan(t *testing.T) {
	s, _ := newTestStore(t, deck())
	zp, err := s.UpdateZoomPan(1, models.ZoomPan{Enabled: true, X: 10, Y: 20, Width: 300, Height: 200})
	require.NoError(t, err)

	_, err = s.Update(1, AnnotationPatch{Label: "L", Script: "S"})
	require.NoError(t, err)

	got := s.Get(1)
	require.NotNil(t, got.ZoomPan)
	assert.Equal(t, zp, *got.ZoomPan)
	assert.Equal(t, "L", got.Label)
	assert.Equal(t, "S", got.Script)
}

func TestStore_UpdateEmptyLabelUsesDefault(t *testing.T) {
	s, _ := newTestStore(t, deck())
	out, err := s.Update(2, AnnotationPatch{Script: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Click 2", out.Label)
}

func TestStore_GetWithoutAnnotation(t *testing.T) {
	s, _ := newTestStore(t, deck())
	assert.Nil(t, s.Get(1))
	assert.Nil(t, s.Get(-1))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t, deck())
	_, _ = s.Update(1, AnnotationPatch{Label: "a"})
	got := s.Get(1)
	got.Label = "mutated"
	assert.Equal(t, "a", s.Get(1).Label)
}

func TestStore_UpdateZoomPanEnforcesMinimum(t *testing.T) {
	s, _ := newTestStore(t, deck())
	zp, err := s.UpdateZoomPan(1, models.ZoomPan{Enabled: true, X: 0, Y: 0, Width: 50, Height: 50})
	require.NoError(t, err)
	assert.Equal(t, models.ZoomPan{Enabled: true, X: 0, Y: 0, Width: 100, Height: 100}, zp)
	assert.Equal(t, zp, *s.Get(1).ZoomPan)
	assert.Equal(t, "Click 1", s.Get(1).Label)
}

func TestStore_UpdateZoomPanClampsIntoViewport(t *testing.T) {
	s, _ := newTestStore(t, deck())
	zp, err := s.UpdateZoomPan(1, models.ZoomPan{Enabled: true, X: 1500, Y: -20, Width: 600, Height: 2000})
	require.NoError(t, err)
	assert.Equal(t, models.ZoomPan{Enabled: true, X: 1320, Y: 0, Width: 600, Height: 1080}, zp)
}

func TestStore_DisableZoomPanClears(t *testing.T) {
	s, sink := newTestStore(t, deck())
	_, err := s.UpdateZoomPan(1, models.ZoomPan{Enabled: true, Width: 200, Height: 200})
	require.NoError(t, err)

	_, err = s.UpdateZoomPan(1, models.ZoomPan{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, s.Get(1).ZoomPan)
	assert.Len(t, sink.all(), 2)

	_, err = s.UpdateZoomPan(2, models.ZoomPan{})
	require.NoError(t, err)
	assert.Len(t, sink.all(), 2, "clearing an absent region is not a change")
}

func TestStore_UpdateZoomPanTinyViewport(t *testing.T) {
	rec := recording(models.ClickSnapshot{Kind: models.KindStart, Timestamp: 1, ViewportWidth: 90, ViewportHeight: 800})
	s, _ := newTestStore(t, rec)
	_, err := s.UpdateZoomPan(0, models.ZoomPan{Enabled: true, Width: 100, Height: 100})
	assert.ErrorIs(t, err, models.ErrViewportTooSmall)
	assert.Nil(t, s.Get(0))
}

func TestStore_DeleteSnapshotShiftsAndKeepsOrder(t *testing.T) {
	s, sink := newTestStore(t, deck())
	before := s.Export()

	require.NoError(t, s.DeleteSnapshot(2))
	assert.Equal(t, 3, s.Len())

	after := s.Export()
	assert.Equal(t, before.Snapshots[0].Timestamp, after.Snapshots[0].Timestamp)
	assert.Equal(t, before.Snapshots[1].Timestamp, after.Snapshots[1].Timestamp)
	assert.Equal(t, before.Snapshots[3].Timestamp, after.Snapshots[2].Timestamp)

	changes := sink.all()
	require.Len(t, changes, 1)
	assert.Equal(t, Change{Op: OpDelete, Index: 2, Revision: 1}, changes[0])
}

func TestStore_DeleteLastSlideRejected(t *testing.T) {
	s, sink := newTestStore(t, recording(startSnapshot(1)))
	before := s.Export()

	err := s.DeleteSnapshot(0)
	assert.ErrorIs(t, err, ErrCannotDeleteLastSlide)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, before, s.Export())
	assert.Empty(t, sink.all())
	assert.Equal(t, uint64(0), s.Revision())
}

func TestStore_DeleteOutOfRange(t *testing.T) {
	s, _ := newTestStore(t, deck())
	assert.ErrorIs(t, s.DeleteSnapshot(4), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.DeleteSnapshot(-1), ErrIndexOutOfRange)
	assert.Equal(t, 4, s.Len())
}

func TestStore_UpdateBookend(t *testing.T) {
	rec := recording(
		startSnapshot(1),
		models.ClickSnapshot{Kind: models.KindEnd, Timestamp: 2, ViewportWidth: 1280, ViewportHeight: 720},
	)
	s, _ := newTestStore(t, rec)

	title := "You're all set"
	link := "https://example.com/signup"
	snap, err := s.UpdateBookend(1, BookendPatch{Title: &title, CTALink: &link})
	require.NoError(t, err)
	assert.Equal(t, title, snap.Title)
	assert.Equal(t, link, snap.CTALink)

	bad := "javascript:alert(1)"
	_, err = s.UpdateBookend(1, BookendPatch{CTALink: &bad})
	assert.ErrorIs(t, err, ErrInvalidLink)

	_, err = s.UpdateBookend(0, BookendPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotBookend)
}

func TestStore_RevisionIncrements(t *testing.T) {
	s, _ := newTestStore(t, deck())
	_, _ = s.Update(0, AnnotationPatch{Label: "a"})
	_, _ = s.UpdateZoomPan(1, models.ZoomPan{Enabled: true, Width: 200, Height: 200})
	_ = s.DeleteSnapshot(3)
	assert.Equal(t, uint64(3), s.Revision())
}
