// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// DesignSchemaVersion is the current version of the design_data blob.
// Version 0 is the legacy unversioned shape; Migrate upgrades it.
const DesignSchemaVersion = 1

// DesignData is the persisted document model of a template: the ordered
// element list plus the page properties, stored as one JSONB column.
type DesignData struct {
	Version    int        `json:"version"`
	Elements   []Element  `json:"elements"`
	Properties Properties `json:"properties"`
}

// Clone returns a deep copy of the design blob.
func (d DesignData) Clone() DesignData {
	c := d
	if d.Elements != nil {
		c.Elements = make([]Element, len(d.Elements))
		for i, e := range d.Elements {
			c.Elements[i] = e.Clone()
		}
	}
	return c
}

// Template represents a reusable certificate design owned by one user.
type Template struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Design      DesignData `json:"design_data"`
	IsPublic    bool       `json:"is_public"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewDesignData returns an empty design with current schema version and
// default A4 portrait properties.
func NewDesignData() DesignData {
	return DesignData{
		Version:    DesignSchemaVersion,
		Elements:   []Element{},
		Properties: DefaultProperties(),
	}
}
