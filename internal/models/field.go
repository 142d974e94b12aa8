// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// FieldTemplate is one entry in the named field catalog that placeholder
// elements pick from. FieldPath is the dotted token path (e.g.
// "recipient.name"); Category groups fields in the picker.
type FieldTemplate struct {
	ID          uuid.UUID `json:"id"`
	FieldPath   string    `json:"field_path"`
	DisplayName string    `json:"display_name"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// FieldGroup is a catalog category with its fields, ordered by display
// name, as served to the placeholder picker.
type FieldGroup struct {
	Category string          `json:"category"`
	Fields   []FieldTemplate `json:"fields"`
}
