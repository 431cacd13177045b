package media

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Orientation classifies an image by aspect.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// OrientationFor treats square images as landscape.
func OrientationFor(width, height int) Orientation {
	if width >= height {
		return Landscape
	}
	return Portrait
}

// LabelOriginal marks the manifest entry that points at the original upload
// when no derivative could be produced.
const LabelOriginal = "original"

// LabelThumb is the label of the optional square thumbnail.
const LabelThumb = "thumb"

// Breakpoint is one target of the derivative matrix. Width and Height bound
// the output; Crop switches from "fit inside" to "cover and centre crop".
type Breakpoint struct {
	Label   string `json:"label" mapstructure:"label"`
	Width   int    `json:"width" mapstructure:"width"`
	Height  int    `json:"height" mapstructure:"height"`
	Quality int    `json:"quality" mapstructure:"quality"`
	Crop    bool   `json:"crop,omitempty" mapstructure:"crop"`
}

// Validate checks sizes are positive and quality is within 0..100.
func (b Breakpoint) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Label, validation.Required, validation.NotIn(LabelOriginal)),
		validation.Field(&b.Width, validation.Required, validation.Min(1)),
		validation.Field(&b.Height, validation.Required, validation.Min(1)),
		validation.Field(&b.Quality, validation.Min(0), validation.Max(100)),
	)
}

// DefaultBreakpoints returns the landscape matrix, largest first.
func DefaultBreakpoints() []Breakpoint {
	return []Breakpoint{
		{Label: "xl", Width: 1920, Height: 1280, Quality: 82},
		{Label: "lg", Width: 1280, Height: 853, Quality: 80},
		{Label: "md", Width: 960, Height: 640, Quality: 78},
		{Label: "sm", Width: 640, Height: 427, Quality: 75},
		{Label: "xs", Width: 320, Height: 213, Quality: 70},
	}
}

// DefaultThumbnail returns the square thumbnail target.
func DefaultThumbnail() Breakpoint {
	return Breakpoint{Label: LabelThumb, Width: 400, Height: 400, Quality: 80, Crop: true}
}

// Planner derives the ordered breakpoint list for an upload.
type Planner struct {
	landscape []Breakpoint
	thumbnail Breakpoint
}

// NewPlanner validates the landscape matrix and thumbnail. Labels must be unique.
func NewPlanner(landscape []Breakpoint, thumbnail Breakpoint) (*Planner, error) {
	if len(landscape) == 0 {
		return nil, fmt.Errorf("%w: no breakpoints", ErrInvalidPlan)
	}
	seen := map[string]bool{}
	all := append(append([]Breakpoint(nil), landscape...), thumbnail)
	for _, bp := range all {
		if err := bp.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPlan, bp.Label, err)
		}
		if seen[bp.Label] {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidPlan, bp.Label)
		}
		seen[bp.Label] = true
	}
	return &Planner{landscape: append([]Breakpoint(nil), landscape...), thumbnail: thumbnail}, nil
}

// DefaultPlanner returns the planner for the built-in matrix.
func DefaultPlanner() *Planner {
	planner, err := NewPlanner(DefaultBreakpoints(), DefaultThumbnail())
	if err != nil {
		panic(err)
	}
	return planner
}

// Plan returns the breakpoints for an image of the given orientation. Portrait
// images swap each target's width and height; the thumbnail is appended last
// when requested.
func (p *Planner) Plan(orientation Orientation, thumbnail bool) []Breakpoint {
	out := make([]Breakpoint, 0, len(p.landscape)+1)
	for _, bp := range p.landscape {
		if orientation == Portrait {
			bp.Width, bp.Height = bp.Height, bp.Width
		}
		out = append(out, bp)
	}
	if thumbnail {
		out = append(out, p.thumbnail)
	}
	return out
}

// Lookup finds the breakpoint for label within the plan of an orientation.
func (p *Planner) Lookup(orientation Orientation, label string) (Breakpoint, bool) {
	for _, bp := range p.Plan(orientation, true) {
		if bp.Label == label {
			return bp, true
		}
	}
	return Breakpoint{}, false
}

func labels(plan []Breakpoint) []string {
	out := make([]string, len(plan))
	for i, bp := range plan {
		out[i] = bp.Label
	}
	return out
}
