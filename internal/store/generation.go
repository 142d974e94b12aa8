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

// GenerationStore handles the durable batch generation log.
type GenerationStore struct {
	db *sql.DB
}

// NewGenerationStore creates a new GenerationStore.
func NewGenerationStore(db *sql.DB) *GenerationStore {
	return &GenerationStore{db: db}
}

const generationColumns = "id, template_id, user_id, count, format, batch_size, status, error, created_at"

func scanGeneration(row interface{ Scan(...any) error }) (*models.GenerationRecord, error) {
	g := &models.GenerationRecord{}
	err := row.Scan(
		&g.ID, &g.TemplateID, &g.UserID, &g.Count, &g.Format,
		&g.BatchSize, &g.Status, &g.Error, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Create inserts a generation log row, normally in the pending state.
func (s *GenerationStore) Create(templateID, userID uuid.UUID, count int, format string, batchSize int) (*models.GenerationRecord, error) {
	g, err := scanGeneration(s.db.QueryRow(`
		INSERT INTO generation_log (template_id, user_id, count, format, batch_size, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+generationColumns,
		templateID, userID, count, format, batchSize, models.GenerationPending))
	if err != nil {
		return nil, fmt.Errorf("create generation record: %w", err)
	}
	return g, nil
}

// SetStatus updates a run's status; errMsg is recorded for failed runs.
func (s *GenerationStore) SetStatus(id uuid.UUID, status models.GenerationStatus, errMsg *string) error {
	_, err := s.db.Exec(`
		UPDATE generation_log SET status = $1, error = $2 WHERE id = $3
	`, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("set generation status: %w", err)
	}
	return nil
}

// FindByID retrieves one generation record. Returns nil if not found.
func (s *GenerationStore) FindByID(id uuid.UUID) (*models.GenerationRecord, error) {
	g, err := scanGeneration(s.db.QueryRow(
		`SELECT `+generationColumns+` FROM generation_log WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find generation record: %w", err)
	}
	return g, nil
}

// ListByUser returns a user's generation history, newest first.
func (s *GenerationStore) ListByUser(userID uuid.UUID, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT `+generationColumns+` FROM generation_log
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list generation records: %w", err)
	}
	defer rows.Close()

	var records []models.GenerationRecord
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation record: %w", err)
		}
		records = append(records, *g)
	}
	return records, rows.Err()
}

// Count returns the total number of runs logged (admin stats).
func (s *GenerationStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM generation_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count generation records: %w", err)
	}
	return n, nil
}

// CountByUser returns how many runs a user has logged (admin stats).
func (s *GenerationStore) CountByUser(userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM generation_log WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count generation records: %w", err)
	}
	return n, nil
}
