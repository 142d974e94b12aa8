package design

import (
	"math"

	"certstudio/internal/models"
)

// Zoom and grid bounds used by the editor canvas.
const (
	MinZoom         = 0.5
	MaxZoom         = 2.0
	ZoomStep        = 0.1
	DefaultGridSize = 20
)

// Guides holds the active alignment guide coordinates.
type Guides struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Rect is an axis-aligned selection box in canvas pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CanvasState is the editor's shared view state: zoom, overlays, and the
// current selection. It never owns elements; selection references them
// by id.
type CanvasState struct {
	Zoom       float64  `json:"zoom"`
	Selected   []string `json:"selected_elements"`
	Guides     Guides   `json:"guides"`
	ShowGrid   bool     `json:"show_grid"`
	ShowGuides bool     `json:"show_guides"`
	GridSize   float64  `json:"grid_size"`
}

// NewCanvasState returns the editor defaults: 1x zoom, grid and guides
// visible, 20-unit grid.
func NewCanvasState() *CanvasState {
	return &CanvasState{
		Zoom:       1,
		Selected:   []string{},
		ShowGrid:   true,
		ShowGuides: true,
		GridSize:   DefaultGridSize,
	}
}

// ZoomIn raises zoom by one step, clamped to MaxZoom.
func (c *CanvasState) ZoomIn() {
	c.SetZoom(c.Zoom + ZoomStep)
}

// ZoomOut lowers zoom by one step, clamped to MinZoom.
func (c *CanvasState) ZoomOut() {
	c.SetZoom(c.Zoom - ZoomStep)
}

// SetZoom clamps z into [MinZoom, MaxZoom] and rounds to the nearest
// step so repeated in/out toggles don't accumulate float drift.
func (c *CanvasState) SetZoom(z float64) {
	z = math.Round(z/ZoomStep) * ZoomStep
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	c.Zoom = z
}

// Select makes id the only selected element.
func (c *CanvasState) Select(id string) {
	c.Selected = []string{id}
}

// ToggleSelect adds id to the selection if absent, removes it if present
// (shift-click behavior).
func (c *CanvasState) ToggleSelect(id string) {
	for i, s := range c.Selected {
		if s == id {
			c.Selected = append(c.Selected[:i], c.Selected[i+1:]...)
			return
		}
	}
	c.Selected = append(c.Selected, id)
}

// ClearSelection empties the selection set.
func (c *CanvasState) ClearSelection() {
	c.Selected = c.Selected[:0]
}

// IsSelected reports whether id is in the selection set.
func (c *CanvasState) IsSelected(id string) bool {
	for _, s := range c.Selected {
		if s == id {
			return true
		}
	}
	return false
}

// SelectInRect replaces the selection with every element whose position
// falls inside the drag box.
func (c *CanvasState) SelectInRect(elements []models.Element, r Rect) {
	c.Selected = c.Selected[:0]
	for _, el := range elements {
		if el.Position.X >= r.X && el.Position.X <= r.X+r.Width &&
			el.Position.Y >= r.Y && el.Position.Y <= r.Y+r.Height {
			c.Selected = append(c.Selected, el.ID)
		}
	}
}

// Snap rounds v to the nearest multiple of the grid size. When grid
// snapping is off it returns v unchanged.
func (c *CanvasState) Snap(v float64) float64 {
	if !c.ShowGrid || c.GridSize <= 0 {
		return v
	}
	return math.Round(v/c.GridSize) * c.GridSize
}

// SnapPosition applies Snap to both coordinates; called on drag-end.
func (c *CanvasState) SnapPosition(p models.Position) models.Position {
	return models.Position{X: c.Snap(p.X), Y: c.Snap(p.Y)}
}
