// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"certstudio/internal/design"
	"certstudio/internal/models"
)

// TemplateStore handles certificate template persistence. The design
// document is stored as one JSONB column and marshalled at the boundary.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateColumns = "id, user_id, name, description, design_data, is_public, created_at, updated_at"

func scanTemplate(row interface{ Scan(...any) error }) (*models.Template, error) {
	t := &models.Template{}
	var blob []byte
	err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Description, &blob,
		&t.IsPublic, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &t.Design); err != nil {
			return nil, fmt.Errorf("decode design_data: %w", err)
		}
	}
	// Older rows may predate the versioned design shape.
	t.Design = design.Migrate(t.Design)
	return t, nil
}

// Create inserts a new template for a user. An empty design gets the
// default A4 portrait document.
func (s *TemplateStore) Create(userID uuid.UUID, name, description string, design models.DesignData) (*models.Template, error) {
	if design.Version == 0 && len(design.Elements) == 0 {
		design = models.NewDesignData()
	}
	blob, err := json.Marshal(design)
	if err != nil {
		return nil, fmt.Errorf("encode design_data: %w", err)
	}

	t, err := scanTemplate(s.db.QueryRow(`
		INSERT INTO templates (user_id, name, description, design_data)
		VALUES ($1, $2, $3, $4)
		RETURNING `+templateColumns,
		userID, name, description, blob))
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

// FindByID retrieves a template. Returns nil if not found.
func (s *TemplateStore) FindByID(id uuid.UUID) (*models.Template, error) {
	t, err := scanTemplate(s.db.QueryRow(
		`SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template: %w", err)
	}
	return t, nil
}

// ListByUser returns a user's templates, most recently updated first.
func (s *TemplateStore) ListByUser(userID uuid.UUID) ([]models.Template, error) {
	return s.list(`SELECT `+templateColumns+` FROM templates WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
}

// ListPublic returns templates shared by other users.
func (s *TemplateStore) ListPublic() ([]models.Template, error) {
	return s.list(`SELECT ` + templateColumns + ` FROM templates WHERE is_public ORDER BY updated_at DESC`)
}

func (s *TemplateStore) list(query string, args ...any) ([]models.Template, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// Count returns the total number of templates.
func (s *TemplateStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM templates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return n, nil
}

// Update persists the template's name, description, visibility, and design
// document, returning the stored row.
func (s *TemplateStore) Update(t *models.Template) (*models.Template, error) {
	blob, err := json.Marshal(t.Design)
	if err != nil {
		return nil, fmt.Errorf("encode design_data: %w", err)
	}

	updated, err := scanTemplate(s.db.QueryRow(`
		UPDATE templates
		SET name = $1, description = $2, design_data = $3, is_public = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+templateColumns,
		t.Name, t.Description, blob, t.IsPublic, t.ID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("update template: not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return updated, nil
}

// Duplicate copies a template into the given user's library with a new
// name. Public templates may be duplicated by anyone.
func (s *TemplateStore) Duplicate(id, userID uuid.UUID, name string) (*models.Template, error) {
	src, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("duplicate template: not found")
	}
	if src.UserID != userID && !src.IsPublic {
		return nil, fmt.Errorf("duplicate template: not accessible")
	}
	if name == "" {
		name = src.Name + " (Copy)"
	}
	return s.Create(userID, name, src.Description, src.Design.Clone())
}

// Delete removes a template by ID.
func (s *TemplateStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
