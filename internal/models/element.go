// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ElementType discriminates the element union. Every element is one of
// text, image, shape, or placeholder; behavior is dispatched through a
// single switch rather than per-type structs.
type ElementType string

const (
	ElementText        ElementType = "text"
	ElementImage       ElementType = "image"
	ElementShape       ElementType = "shape"
	ElementPlaceholder ElementType = "placeholder"
)

// ValidElementType reports whether t is a known element type.
func ValidElementType(t ElementType) bool {
	switch t {
	case ElementText, ElementImage, ElementShape, ElementPlaceholder:
		return true
	}
	return false
}

// Shape names selectable for shape elements. The content field of a shape
// element holds one of these.
const (
	ShapeRectangle = "rectangle"
	ShapeCircle    = "circle"
	ShapeLine      = "line"
)

// Position is a 2D canvas coordinate in canvas pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is one visual or dynamic unit placed on a template.
//
// Content is free-form and depends on Type: literal text for text
// elements, an image URL for image elements, a shape name for shapes,
// and a {{field.path}} token (or a resolved image URL) for placeholders.
// Style is an open map of CSS-ish string values ("200px", "#ff0000",
// "16px", "rotate(15deg)") exactly as the editor persists them.
type Element struct {
	ID       string            `json:"id"`
	Type     ElementType       `json:"type"`
	Content  string            `json:"content"`
	Position Position          `json:"position"`
	Style    map[string]string `json:"style,omitempty"`
}

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	c := e
	if e.Style != nil {
		c.Style = make(map[string]string, len(e.Style))
		for k, v := range e.Style {
			c.Style[k] = v
		}
	}
	return c
}
