// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"certstudio/internal/models"
)

// FieldStore handles the named field catalog.
type FieldStore struct {
	db *sql.DB
}

// NewFieldStore creates a new FieldStore.
func NewFieldStore(db *sql.DB) *FieldStore {
	return &FieldStore{db: db}
}

// ListGrouped returns the catalog grouped by category. Categories and the
// fields within them come back alphabetically ordered, which is the order
// the placeholder picker displays.
func (s *FieldStore) ListGrouped() ([]models.FieldGroup, error) {
	rows, err := s.db.Query(`
		SELECT id, field_path, display_name, category, created_at
		FROM field_templates
		ORDER BY category ASC, display_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	var groups []models.FieldGroup
	for rows.Next() {
		var f models.FieldTemplate
		if err := rows.Scan(&f.ID, &f.FieldPath, &f.DisplayName, &f.Category, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		if len(groups) == 0 || groups[len(groups)-1].Category != f.Category {
			groups = append(groups, models.FieldGroup{Category: f.Category})
		}
		last := &groups[len(groups)-1]
		last.Fields = append(last.Fields, f)
	}
	return groups, rows.Err()
}

// Create adds a field to the catalog.
func (s *FieldStore) Create(fieldPath, displayName, category string) (*models.FieldTemplate, error) {
	f := &models.FieldTemplate{}
	err := s.db.QueryRow(`
		INSERT INTO field_templates (field_path, display_name, category)
		VALUES ($1, $2, $3)
		RETURNING id, field_path, display_name, category, created_at
	`, fieldPath, displayName, category).Scan(
		&f.ID, &f.FieldPath, &f.DisplayName, &f.Category, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create field: %w", err)
	}
	return f, nil
}

// Delete removes a field from the catalog.
func (s *FieldStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM field_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete field: %w", err)
	}
	return nil
}
