package editor

type EventType string

const (
	EventSlideChanged      EventType = "slideChanged"
	EventTransitionStarted EventType = "transitionStarted"
	EventEditingChanged    EventType = "editingChanged"
	EventAnnotationUpdated EventType = "annotationUpdated"
	EventZoomPanUpdated    EventType = "zoomPanUpdated"
	EventBookendUpdated    EventType = "bookendUpdated"
	EventSlideDeleted      EventType = "slideDeleted"
	EventZoomCandidate     EventType = "zoomCandidate"
	EventLayoutChanged     EventType = "layoutChanged"
	EventSaveStatusChanged EventType = "saveStatusChanged"
)

type Event struct {
	Type  EventType `json:"type"`
	Index int       `json:"index"`
}

type Listener func(Event)
