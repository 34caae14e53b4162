package models

// DocumentVersion is the only ClickRecording format version accepted on load.
const DocumentVersion = "2.0"

// MinZoomSize is the smallest width or height of a zoom region, in original
// viewport pixels.
const MinZoomSize = 100

type SnapshotKind string

const (
	KindStart SnapshotKind = "start"
	KindClick SnapshotKind = "click"
	KindCover SnapshotKind = "cover"
	KindEnd   SnapshotKind = "end"
)

func (k SnapshotKind) Valid() bool {
	switch k {
	case KindStart, KindClick, KindCover, KindEnd:
		return true
	}
	return false
}

// IsBookend reports whether slides of this kind carry title/logo/CTA
// metadata instead of a click point.
func (k SnapshotKind) IsBookend() bool {
	return k == KindCover || k == KindEnd
}

type ClickRecording struct {
	Version   string          `json:"version"`
	StartTime int64           `json:"startTime"`
	Snapshots []ClickSnapshot `json:"snapshots"`
}

type ClickSnapshot struct {
	Kind           SnapshotKind `json:"kind"`
	Timestamp      int64        `json:"timestamp"`
	HTML           string       `json:"html"`
	ClickX         *float64     `json:"clickX,omitempty"`
	ClickY         *float64     `json:"clickY,omitempty"`
	ScrollX        float64      `json:"scrollX"`
	ScrollY        float64      `json:"scrollY"`
	URL            string       `json:"url"`
	ViewportWidth  int          `json:"viewportWidth"`
	ViewportHeight int          `json:"viewportHeight"`
	Title          string       `json:"title,omitempty"`
	Logo           string       `json:"logo,omitempty"`
	Description    string       `json:"description,omitempty"`
	CTALink        string       `json:"ctaLink,omitempty"`
	Annotation     *Annotation  `json:"annotation,omitempty"`
}

type Annotation struct {
	Label   string   `json:"label"`
	Script  string   `json:"script"`
	ZoomPan *ZoomPan `json:"zoomPan,omitempty"`
}

// ZoomPan is a focus region in the snapshot's original viewport space.
type ZoomPan struct {
	Enabled bool `json:"enabled"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Width   int  `json:"width"`
	Height  int  `json:"height"`
}

func (s *ClickSnapshot) Viewport() Size {
	return Size{Width: s.ViewportWidth, Height: s.ViewportHeight}
}

// ClickPoint returns the click coordinates of a click-kind snapshot.
func (s *ClickSnapshot) ClickPoint() (Point, bool) {
	if s.Kind != KindClick || s.ClickX == nil || s.ClickY == nil {
		return Point{}, false
	}
	return Point{X: *s.ClickX, Y: *s.ClickY}, true
}

// ZoomPan returns the snapshot's enabled zoom region, if any.
func (s *ClickSnapshot) ZoomPan() (ZoomPan, bool) {
	if s.Annotation == nil || s.Annotation.ZoomPan == nil || !s.Annotation.ZoomPan.Enabled {
		return ZoomPan{}, false
	}
	return *s.Annotation.ZoomPan, true
}

func (z ZoomPan) Rect() Rect {
	return Rect{X: float64(z.X), Y: float64(z.Y), Width: float64(z.Width), Height: float64(z.Height)}
}

func (a *Annotation) Clone() *Annotation {
	if a == nil {
		return nil
	}
	out := *a
	if a.ZoomPan != nil {
		zp := *a.ZoomPan
		out.ZoomPan = &zp
	}
	return &out
}

func (s *ClickSnapshot) Clone() ClickSnapshot {
	out := *s
	if s.ClickX != nil {
		x := *s.ClickX
		out.ClickX = &x
	}
	if s.ClickY != nil {
		y := *s.ClickY
		out.ClickY = &y
	}
	out.Annotation = s.Annotation.Clone()
	return out
}

func (r *ClickRecording) Clone() *ClickRecording {
	out := &ClickRecording{
		Version:   r.Version,
		StartTime: r.StartTime,
		Snapshots: make([]ClickSnapshot, len(r.Snapshots)),
	}
	for i := range r.Snapshots {
		out.Snapshots[i] = r.Snapshots[i].Clone()
	}
	return out
}
