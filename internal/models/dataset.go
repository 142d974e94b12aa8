// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// RecipientRow is one flat recipient record produced from an uploaded
// CSV: column header -> cell value. Placeholder tokens resolve against it
// during generation.
type RecipientRow map[string]string

// Dataset is a named batch of recipient rows uploaded by a user.
// Headers preserves the CSV column order for previews.
type Dataset struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Name      string         `json:"name"`
	Headers   []string       `json:"headers"`
	Rows      []RecipientRow `json:"rows"`
	RowCount  int            `json:"row_count"`
	CreatedAt time.Time      `json:"created_at"`
}
