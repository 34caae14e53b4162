// Package editor holds the playback/editing session for one recording: the
// slide navigation state machine, the annotation and zoom-region store, and
// the interactive zoom-region editor.
//
// EditorState is the only entry point. Every operation is validated and
// serialised; listeners registered with Subscribe are notified after the
// state lock is released.
package editor

import (
	"sync"
	"time"

	"deckd/internal/clock"
	"deckd/internal/layout"
	"deckd/internal/models"
)

// TransitionDelay lets the cursor animation finish before the slide content
// is swapped.
const TransitionDelay = 500 * time.Millisecond

// ZoomDelay is how long a view-only slide stays unzoomed before its zoom
// region animates in.
const ZoomDelay = 800 * time.Millisecond

// DefaultDisplayArea is used until the host reports its available area.
var DefaultDisplayArea = models.Size{Width: 1280, Height: 720}

type NavState string

const (
	StateIdle          NavState = "idle"
	StateTransitioning NavState = "transitioning"
	StateEditing       NavState = "editing"
)

type EditTarget string

const (
	EditNone       EditTarget = ""
	EditAnnotation EditTarget = "annotation"
	EditZoom       EditTarget = "zoom"
)

// ViewState is an immutable picture of the session for a host UI. Cursor is
// in the original space of the slide CursorLayout was fitted to, which is the
// pending slide while transitioning.
type ViewState struct {
	Index         int                 `json:"index"`
	Count         int                 `json:"count"`
	State         NavState            `json:"state"`
	Editing       EditTarget          `json:"editing,omitempty"`
	PendingIndex  int                 `json:"pendingIndex"`
	Revision      uint64              `json:"revision"`
	Kind          models.SnapshotKind `json:"kind"`
	Label         string              `json:"label"`
	Annotation    *models.Annotation  `json:"annotation,omitempty"`
	Cursor        *models.Point       `json:"cursor,omitempty"`
	CursorLayout  layout.Layout       `json:"cursorLayout"`
	Ping          bool                `json:"ping"`
	Draft         *AnnotationPatch    `json:"draft,omitempty"`
	ZoomCandidate *models.Rect        `json:"zoomCandidate,omitempty"`
	ZoomPreview   float64             `json:"zoomPreview,omitempty"`
	Layout        layout.Layout       `json:"layout"`
	CanDelete     bool                `json:"canDelete"`
	IsSaving      bool                `json:"isSaving"`
	LastSavedAt   time.Time           `json:"lastSavedAt"`
}

type EditorState struct {
	mu    sync.Mutex
	clock clock.Clock
	store *Store

	state   NavState
	editing EditTarget
	current int
	pending int
	seq     uint64
	timer   clock.Timer

	draft *AnnotationPatch
	zoom  *ZoomEditor

	display   models.Size
	debouncer *layout.Debouncer

	isSaving    bool
	lastSavedAt time.Time

	listeners map[uint64]Listener
	nextID    uint64
	closed    bool
}

// New validates rec and opens a session on it. The session owns rec from
// here on; callers must not touch it again.
func New(rec *models.ClickRecording, sink ChangeSink, c clock.Clock) (*EditorState, error) {
	store, err := NewStore(rec, sink)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = clock.New()
	}
	e := &EditorState{
		clock:     c,
		store:     store,
		state:     StateIdle,
		pending:   -1,
		display:   DefaultDisplayArea,
		listeners: make(map[uint64]Listener),
	}
	e.debouncer = layout.NewDebouncer(c, layout.ResizeDebounce, e.SetDisplayArea)
	return e, nil
}

// Subscribe registers fn for every event and returns its removal func.
func (e *EditorState) Subscribe(fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *EditorState) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}
	e.mu.Lock()
	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}

// run executes fn under the lock and dispatches the events it produced.
func (e *EditorState) run(fn func() []Event) {
	e.mu.Lock()
	events := fn()
	e.mu.Unlock()
	e.dispatch(events)
}

func (e *EditorState) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Len()
}

func (e *EditorState) Current() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *EditorState) State() NavState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Closed reports whether Close was called; every edit then fails with
// ErrClosed and navigation is refused.
func (e *EditorState) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *EditorState) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Revision()
}

func (e *EditorState) Snapshot(i int) (models.ClickSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot(i)
}

func (e *EditorState) Get(i int) *models.Annotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(i)
}

func (e *EditorState) Label(i int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Label(i)
}

// Export returns a deep copy of the edited document.
func (e *EditorState) Export() *models.ClickRecording {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Export()
}

// GoToSlide starts navigation to slide i. It is a no-op when i is out of range
// or the session is transitioning or editing. Click slides first move the
// cursor and swap content after TransitionDelay; other slides swap at once.
func (e *EditorState) GoToSlide(i int) bool {
	accepted := false
	e.run(func() []Event {
		if e.closed || e.state != StateIdle || i < 0 || i >= e.store.Len() {
			return nil
		}
		accepted = true
		snap := &e.store.rec.Snapshots[i]
		if snap.Kind != models.KindClick {
			e.current = i
			return []Event{{Type: EventSlideChanged, Index: i}}
		}

		e.state = StateTransitioning
		e.pending = i
		e.seq++
		seq := e.seq
		e.timer = e.clock.AfterFunc(TransitionDelay, func() { e.commitTransition(seq) })
		return []Event{{Type: EventTransitionStarted, Index: i}}
	})
	return accepted
}

func (e *EditorState) commitTransition(seq uint64) {
	e.run(func() []Event {
		if e.state != StateTransitioning || e.seq != seq {
			return nil
		}
		e.current = e.pending
		e.pending = -1
		e.state = StateIdle
		e.timer = nil
		return []Event{{Type: EventSlideChanged, Index: e.current}}
	})
}

func (e *EditorState) Next() bool {
	return e.GoToSlide(e.Current() + 1)
}

func (e *EditorState) Previous() bool {
	return e.GoToSlide(e.Current() - 1)
}

// HandleKey applies a keyboard binding and reports whether it did anything.
func (e *EditorState) HandleKey(k Key) bool {
	switch k {
	case KeyArrowLeft:
		return e.Previous()
	case KeyArrowRight:
		return e.Next()
	case KeyEscape:
		switch e.editTarget() {
		case EditAnnotation:
			return e.DiscardAnnotation() == nil
		case EditZoom:
			return e.CancelZoom() == nil
		}
	case KeyModEnter:
		switch e.editTarget() {
		case EditAnnotation:
			_, err := e.SaveAnnotation()
			return err == nil
		case EditZoom:
			_, err := e.ConfirmZoom()
			return err == nil
		}
	}
	return false
}

func (e *EditorState) editTarget() EditTarget {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

// StartEditingAnnotation opens a draft of the current slide's label and script.
func (e *EditorState) StartEditingAnnotation() (AnnotationPatch, error) {
	var draft AnnotationPatch
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.state != StateIdle {
			err = ErrNavigationLocked
			return nil
		}
		draft = AnnotationPatch{Label: e.store.Label(e.current)}
		if a := e.store.Get(e.current); a != nil {
			draft.Script = a.Script
		}
		d := draft
		e.draft = &d
		e.state = StateEditing
		e.editing = EditAnnotation
		return []Event{{Type: EventEditingChanged, Index: e.current}}
	})
	return draft, err
}

func (e *EditorState) UpdateDraft(patch AnnotationPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.editing != EditAnnotation {
		return ErrNotEditing
	}
	e.draft = &patch
	return nil
}

// SaveAnnotation commits the draft through the Store and returns to Idle.
func (e *EditorState) SaveAnnotation() (models.Annotation, error) {
	var out models.Annotation
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.editing != EditAnnotation {
			err = ErrNotEditing
			return nil
		}
		out, err = e.store.Update(e.current, *e.draft)
		if err != nil {
			return nil
		}
		e.finishEditLocked()
		return []Event{
			{Type: EventAnnotationUpdated, Index: e.current},
			{Type: EventEditingChanged, Index: e.current},
		}
	})
	return out, err
}

// DiscardAnnotation drops the draft without touching the Store.
func (e *EditorState) DiscardAnnotation() error {
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.editing != EditAnnotation {
			err = ErrNotEditing
			return nil
		}
		e.finishEditLocked()
		return []Event{{Type: EventEditingChanged, Index: e.current}}
	})
	return err
}

// FinishEditingAnnotation saves or discards the open draft.
func (e *EditorState) FinishEditingAnnotation(save bool) error {
	if save {
		_, err := e.SaveAnnotation()
		return err
	}
	return e.DiscardAnnotation()
}

func (e *EditorState) finishEditLocked() {
	e.state = StateIdle
	e.editing = EditNone
	e.draft = nil
	e.zoom = nil
}

// Update upserts the annotation of slide i directly. It is refused while an
// edit is open so a draft cannot be overwritten underneath the user.
func (e *EditorState) Update(i int, patch AnnotationPatch) (models.Annotation, error) {
	var out models.Annotation
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.state == StateEditing {
			err = ErrNavigationLocked
			return nil
		}
		out, err = e.store.Update(i, patch)
		if err != nil {
			return nil
		}
		return []Event{{Type: EventAnnotationUpdated, Index: i}}
	})
	return out, err
}

// UpdateZoomPan stores a region for slide i, clamped into its viewport.
func (e *EditorState) UpdateZoomPan(i int, zp models.ZoomPan) (models.ZoomPan, error) {
	var out models.ZoomPan
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.state == StateEditing {
			err = ErrNavigationLocked
			return nil
		}
		out, err = e.store.UpdateZoomPan(i, zp)
		if err != nil {
			return nil
		}
		return []Event{{Type: EventZoomPanUpdated, Index: i}}
	})
	return out, err
}

func (e *EditorState) UpdateBookend(i int, patch BookendPatch) (models.ClickSnapshot, error) {
	var out models.ClickSnapshot
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		out, err = e.store.UpdateBookend(i, patch)
		if err != nil {
			return nil
		}
		return []Event{{Type: EventBookendUpdated, Index: i}}
	})
	return out, err
}

// DeleteSlide removes slide i. The current slide stays selected when it
// survives; the index is always kept inside the deck.
func (e *EditorState) DeleteSlide(i int) error {
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.state != StateIdle {
			err = ErrNavigationLocked
			return nil
		}
		if err = e.store.DeleteSnapshot(i); err != nil {
			return nil
		}
		before := e.current
		if i < e.current {
			e.current--
		}
		if e.current >= e.store.Len() {
			e.current = e.store.Len() - 1
		}
		events := []Event{{Type: EventSlideDeleted, Index: i}}
		if before != e.current || before == i {
			events = append(events, Event{Type: EventSlideChanged, Index: e.current})
		}
		return events
	})
	return err
}

// OpenZoomEditor starts editing the current slide's zoom region.
func (e *EditorState) OpenZoomEditor() (models.Rect, error) {
	var rect models.Rect
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.state != StateIdle {
			err = ErrNavigationLocked
			return nil
		}
		snap := e.store.rec.Snapshots[e.current].Clone()
		var z *ZoomEditor
		z, err = NewZoomEditor(e.current, snap, e.layoutLocked())
		if err != nil {
			return nil
		}
		e.zoom = z
		e.state = StateEditing
		e.editing = EditZoom
		rect = z.Rect()
		return []Event{{Type: EventEditingChanged, Index: e.current}}
	})
	return rect, err
}

// DragZoom moves the candidate region by a display-space delta.
func (e *EditorState) DragZoom(dx, dy float64) (models.Rect, error) {
	return e.moveZoom(func(z *ZoomEditor) models.Rect { return z.Drag(dx, dy) })
}

// ResizeZoom moves the candidate's bottom-right corner by a display-space delta.
func (e *EditorState) ResizeZoom(dx, dy float64) (models.Rect, error) {
	return e.moveZoom(func(z *ZoomEditor) models.Rect { return z.Resize(dx, dy) })
}

func (e *EditorState) moveZoom(fn func(z *ZoomEditor) models.Rect) (models.Rect, error) {
	var rect models.Rect
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.editing != EditZoom || e.zoom == nil {
			err = ErrNotEditing
			return nil
		}
		rect = fn(e.zoom)
		return []Event{{Type: EventZoomCandidate, Index: e.zoom.Index()}}
	})
	return rect, err
}

// ConfirmZoom rounds the candidate, enables it and stores it.
func (e *EditorState) ConfirmZoom() (models.ZoomPan, error) {
	var out models.ZoomPan
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.editing != EditZoom || e.zoom == nil {
			err = ErrNotEditing
			return nil
		}
		idx := e.zoom.Index()
		out, err = e.store.UpdateZoomPan(idx, e.zoom.Result())
		if err != nil {
			return nil
		}
		e.finishEditLocked()
		return []Event{
			{Type: EventZoomPanUpdated, Index: idx},
			{Type: EventEditingChanged, Index: idx},
		}
	})
	return out, err
}

// CancelZoom discards the candidate region.
func (e *EditorState) CancelZoom() error {
	var err error
	e.run(func() []Event {
		if e.closed {
			err = ErrClosed
			return nil
		}
		if e.editing != EditZoom {
			err = ErrNotEditing
			return nil
		}
		e.finishEditLocked()
		return []Event{{Type: EventEditingChanged, Index: e.current}}
	})
	return err
}

// SetDisplayArea recomputes the layout for a new host area immediately.
func (e *EditorState) SetDisplayArea(size models.Size) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	e.run(func() []Event {
		if e.display == size {
			return nil
		}
		e.display = size
		if e.zoom != nil {
			e.zoom.SetLayout(e.layoutLocked())
		}
		return []Event{{Type: EventLayoutChanged, Index: e.current}}
	})
}

// Resize reports a host resize; bursts collapse into one layout pass.
func (e *EditorState) Resize(size models.Size) {
	e.debouncer.Resize(size)
}

// Layout fits the current slide into the host display area.
func (e *EditorState) Layout() layout.Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layoutLocked()
}

func (e *EditorState) layoutLocked() layout.Layout {
	return e.layoutFor(e.current)
}

func (e *EditorState) layoutFor(i int) layout.Layout {
	snap := &e.store.rec.Snapshots[i]
	l, err := layout.Fit(e.display, snap.Viewport())
	if err != nil {
		return layout.Layout{Scale: 1, Viewport: snap.Viewport(), Display: snap.Viewport()}
	}
	return l
}

// SetSaveStatus is called by the persistence layer around collaborator calls.
func (e *EditorState) SetSaveStatus(saving bool, savedAt time.Time) {
	e.run(func() []Event {
		e.isSaving = saving
		if !savedAt.IsZero() {
			e.lastSavedAt = savedAt
		}
		return []Event{{Type: EventSaveStatusChanged, Index: e.current}}
	})
}

func (e *EditorState) View() ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &e.store.rec.Snapshots[e.current]
	v := ViewState{
		Index:        e.current,
		Count:        e.store.Len(),
		State:        e.state,
		Editing:      e.editing,
		PendingIndex: e.pending,
		Revision:     e.store.Revision(),
		Kind:         snap.Kind,
		Label:        e.store.Label(e.current),
		Annotation:   e.store.Get(e.current),
		Layout:       e.layoutLocked(),
		CanDelete:    e.store.Len() > 1,
		IsSaving:     e.isSaving,
		LastSavedAt:  e.lastSavedAt,
	}

	cursorFrom := snap
	v.CursorLayout = v.Layout
	if e.state == StateTransitioning && e.pending >= 0 {
		cursorFrom = &e.store.rec.Snapshots[e.pending]
		v.CursorLayout = e.layoutFor(e.pending)
		v.Ping = true
	}
	if p, ok := cursorFrom.ClickPoint(); ok {
		v.Cursor = &p
	}
	if e.draft != nil {
		d := *e.draft
		v.Draft = &d
	}
	if e.zoom != nil {
		r := e.zoom.Rect()
		v.ZoomCandidate = &r
		v.ZoomPreview = e.zoom.Preview()
	}
	return v
}

// Close cancels a pending transition and any debounced layout pass.
func (e *EditorState) Close() {
	e.mu.Lock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.state == StateTransitioning {
		e.state = StateIdle
		e.pending = -1
	}
	e.mu.Unlock()
	e.debouncer.Stop()
}
