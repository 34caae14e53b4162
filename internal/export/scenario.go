package export

import (
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"deckd/internal/editor"
	"deckd/internal/layout"
	"deckd/internal/models"
)

const (
	ScenarioVersion = "1.0"
	// DefaultSlideDuration is used for the last slide and for slides whose
	// successor has no later timestamp.
	DefaultSlideDuration = 3.0
)

// Scenario is a camera script for the recording: one slide per snapshot,
// each holding the full viewport and then moving onto its zoom region.
type Scenario struct {
	Version string  `yaml:"version"`
	Slides  []Slide `yaml:"slides"`
}

type Slide struct {
	ID        int        `yaml:"id"`
	Input     string     `yaml:"input"`
	Label     string     `yaml:"label"`
	Duration  float64    `yaml:"duration"`
	Keyframes []Keyframe `yaml:"keyframes"`
}

// Keyframe is a camera position Time seconds into its slide.
type Keyframe struct {
	Time  float64   `yaml:"time"`
	Focus string    `yaml:"focus"`
	Rect  Rectangle `yaml:"rect"`
	Zoom  float64   `yaml:"zoom"`
}

type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

func BuildScenario(rec *models.ClickRecording) (*Scenario, error) {
	store, err := editor.NewStore(rec, nil)
	if err != nil {
		return nil, err
	}

	out := &Scenario{Version: ScenarioVersion, Slides: make([]Slide, 0, store.Len())}
	for i := 0; i < store.Len(); i++ {
		snap, _ := store.Snapshot(i)
		duration := DefaultSlideDuration
		if next, ok := store.Snapshot(i + 1); ok && next.Timestamp > snap.Timestamp {
			duration = float64(next.Timestamp-snap.Timestamp) / 1000
		}

		full := Rectangle{W: snap.ViewportWidth, H: snap.ViewportHeight}
		slide := Slide{
			ID:        i + 1,
			Input:     snap.URL,
			Label:     store.Label(i),
			Duration:  duration,
			Keyframes: []Keyframe{{Time: 0, Focus: "viewport", Rect: full, Zoom: 1}},
		}

		if zp, ok := snap.ZoomPan(); ok && !snap.Kind.IsBookend() {
			at := math.Min(editor.ZoomDelay.Seconds(), duration)
			region := Rectangle{X: zp.X, Y: zp.Y, W: zp.Width, H: zp.Height}
			zoom := round2(layout.PreviewZoom(snap.Viewport(), zp.Rect()))
			slide.Keyframes = append(slide.Keyframes,
				Keyframe{Time: at, Focus: slide.Label, Rect: full, Zoom: 1},
				Keyframe{Time: duration, Focus: slide.Label, Rect: region, Zoom: zoom},
			)
		} else {
			slide.Keyframes = append(slide.Keyframes, Keyframe{Time: duration, Focus: "viewport", Rect: full, Zoom: 1})
		}
		out.Slides = append(out.Slides, slide)
	}
	return out, nil
}

// WriteScenario encodes the scenario as YAML.
func WriteScenario(w io.Writer, s *Scenario) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
