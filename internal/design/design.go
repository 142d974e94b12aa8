// Package design implements the in-memory template document model: the
// ordered element list, page properties, and the structural edit
// operations the editor applies to them. All operations are synchronous
// and act on a single Document; callers that share a Document across
// goroutines serialize access themselves (the editor package does).
package design

import (
	"github.com/google/uuid"

	"certstudio/internal/models"
)

// Viewport is the visible editor area in canvas pixels, used to place
// newly added elements near its center.
type Viewport struct {
	Width  float64
	Height float64
}

// DefaultViewport matches the editor's fallback when the canvas size is
// unknown (800x600).
var DefaultViewport = Viewport{Width: 800, Height: 600}

// ElementPatch carries partial element changes. Nil fields are left
// untouched; Style entries are merged key-by-key into the existing map.
type ElementPatch struct {
	Content  *string
	Position *models.Position
	Style    map[string]string
}

// Document holds the canonical in-memory design of one template.
type Document struct {
	data models.DesignData
}

// New wraps a design blob in a Document, migrating legacy shapes to the
// current schema version first.
func New(data models.DesignData) *Document {
	return &Document{data: Migrate(data)}
}

// NewEmpty returns a Document with no elements and default properties.
func NewEmpty() *Document {
	return &Document{data: models.NewDesignData()}
}

// Data returns the current design. The returned value shares no mutable
// state with the Document.
func (d *Document) Data() models.DesignData {
	return d.data.Clone()
}

// Elements returns a copy of the ordered element list.
func (d *Document) Elements() []models.Element {
	return d.data.Clone().Elements
}

// Properties returns the current page properties.
func (d *Document) Properties() models.Properties {
	return d.data.Properties
}

// AddElement appends a new element of the given type with a generated id,
// a default position at the viewport center, and type-appropriate default
// style. It returns the created element.
func (d *Document) AddElement(t models.ElementType, vp Viewport) models.Element {
	if vp.Width == 0 && vp.Height == 0 {
		vp = DefaultViewport
	}

	el := models.Element{
		ID:   uuid.NewString(),
		Type: t,
		Position: models.Position{
			X: vp.Width/2 - 100,
			Y: vp.Height/2 - 100,
		},
	}

	switch t {
	case models.ElementText:
		el.Content = "New Text"
		el.Style = map[string]string{
			"width":      "200px",
			"height":     "auto",
			"fontSize":   "16px",
			"fontFamily": "Arial",
			"color":      "#000000",
		}
	case models.ElementImage:
		el.Style = map[string]string{
			"width":  "200px",
			"height": "200px",
		}
	case models.ElementShape:
		el.Content = models.ShapeRectangle
		el.Style = map[string]string{
			"width":  "200px",
			"height": "200px",
			"color":  "#000000",
		}
	case models.ElementPlaceholder:
		el.Content = "{{recipient.name}}"
	}

	d.data.Elements = append(d.data.Elements, el)
	return el.Clone()
}

// UpdateElement merges the patch into the element with the given id and
// reports whether a matching element was found. An unknown id is a
// silent no-op (the editor contract).
func (d *Document) UpdateElement(id string, patch ElementPatch) bool {
	for i := range d.data.Elements {
		el := &d.data.Elements[i]
		if el.ID != id {
			continue
		}
		if patch.Content != nil {
			el.Content = *patch.Content
		}
		if patch.Position != nil {
			el.Position = *patch.Position
		}
		if len(patch.Style) > 0 {
			if el.Style == nil {
				el.Style = make(map[string]string, len(patch.Style))
			}
			for k, v := range patch.Style {
				el.Style[k] = v
			}
		}
		return true
	}
	return false
}

// DeleteElement removes the element with the given id, preserving the
// order of the remaining elements. Deleting an unknown id is a no-op.
func (d *Document) DeleteElement(id string) {
	for i, el := range d.data.Elements {
		if el.ID == id {
			d.data.Elements = append(d.data.Elements[:i], d.data.Elements[i+1:]...)
			return
		}
	}
}

// FindElement returns a copy of the element with the given id, or false.
func (d *Document) FindElement(id string) (models.Element, bool) {
	for _, el := range d.data.Elements {
		if el.ID == id {
			return el.Clone(), true
		}
	}
	return models.Element{}, false
}

// UpdateProperties replaces the page properties wholesale. The caller is
// responsible for internal consistency; only the orientation/size
// relationship is special-cased via ToggleOrientation.
func (d *Document) UpdateProperties(p models.Properties) {
	d.data.Properties = p
}

// ToggleOrientation flips portrait/landscape and swaps width and height,
// so toggling twice round-trips to the original size.
func (d *Document) ToggleOrientation() {
	p := &d.data.Properties
	if p.Orientation == models.Landscape {
		p.Orientation = models.Portrait
	} else {
		p.Orientation = models.Landscape
	}
	p.Size.Width, p.Size.Height = p.Size.Height, p.Size.Width
}

// Migrate upgrades a design blob to the current schema version. Version 0
// is the legacy unversioned shape: a possibly-nil element list and a
// possibly-zero properties object, which get defaulted. Already-current
// blobs pass through unchanged.
func Migrate(data models.DesignData) models.DesignData {
	if data.Version >= models.DesignSchemaVersion {
		if data.Elements == nil {
			data.Elements = []models.Element{}
		}
		return data
	}

	if data.Elements == nil {
		data.Elements = []models.Element{}
	}
	if data.Properties == (models.Properties{}) {
		data.Properties = models.DefaultProperties()
	}
	// Older blobs saved margins before padding existed; default padding
	// to the margin unit.
	if data.Properties.Padding == (models.Spacing{}) {
		data.Properties.Padding = models.Spacing{Unit: data.Properties.Margins.Unit}
	}
	data.Version = models.DesignSchemaVersion
	return data
}
