// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Unit is a page measurement unit.
type Unit string

const (
	UnitMillimeter Unit = "mm"
	UnitInch       Unit = "in"
	UnitPixel      Unit = "px"
)

// Orientation is the page orientation.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// PageSize is the physical page size in the given unit.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   Unit    `json:"unit"`
}

// Background is the page background fill: a color value or an image URL.
type Background struct {
	Type  string `json:"type"` // "color" or "image"
	Value string `json:"value"`
}

// Spacing is a per-side spacing box (margins or padding).
type Spacing struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Unit   Unit    `json:"unit"`
}

// Properties is the page geometry and cosmetic envelope of a template.
type Properties struct {
	Size        PageSize    `json:"size"`
	Orientation Orientation `json:"orientation"`
	Background  Background  `json:"background"`
	Margins     Spacing     `json:"margins"`
	Padding     Spacing     `json:"padding"`
}

// DefaultProperties returns the A4 portrait defaults applied to new
// templates and to legacy design blobs missing a properties object.
func DefaultProperties() Properties {
	return Properties{
		Size:        PageSize{Width: 210, Height: 297, Unit: UnitMillimeter},
		Orientation: Portrait,
		Background:  Background{Type: "color", Value: "#ffffff"},
		Margins:     Spacing{Unit: UnitMillimeter},
		Padding:     Spacing{Unit: UnitMillimeter},
	}
}

// WidthMM and HeightMM return the page dimensions converted to
// millimeters regardless of the configured unit. Pixels are treated as
// CSS pixels at 96 DPI.
func (s PageSize) WidthMM() float64  { return toMillimeters(s.Width, s.Unit) }
func (s PageSize) HeightMM() float64 { return toMillimeters(s.Height, s.Unit) }

func toMillimeters(v float64, u Unit) float64 {
	switch u {
	case UnitInch:
		return v * 25.4
	case UnitPixel:
		return v / 96 * 25.4
	default:
		return v
	}
}
