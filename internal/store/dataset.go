// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"certstudio/internal/models"
)

// DatasetStore handles uploaded recipient datasets. Headers and rows are
// stored as JSONB to keep the column set stable across arbitrary CSVs.
type DatasetStore struct {
	db *sql.DB
}

// NewDatasetStore creates a new DatasetStore.
func NewDatasetStore(db *sql.DB) *DatasetStore {
	return &DatasetStore{db: db}
}

func scanDataset(row interface{ Scan(...any) error }) (*models.Dataset, error) {
	d := &models.Dataset{}
	var headers, rows []byte
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &headers, &rows, &d.RowCount, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(headers, &d.Headers); err != nil {
		return nil, fmt.Errorf("decode headers: %w", err)
	}
	if err := json.Unmarshal(rows, &d.Rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return d, nil
}

// Create stores a parsed dataset for a user.
func (s *DatasetStore) Create(userID uuid.UUID, name string, headers []string, rows []models.RecipientRow) (*models.Dataset, error) {
	headerBlob, err := json.Marshal(headers)
	if err != nil {
		return nil, fmt.Errorf("encode headers: %w", err)
	}
	rowBlob, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}

	d, err := scanDataset(s.db.QueryRow(`
		INSERT INTO datasets (user_id, name, headers, rows, row_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, name, headers, rows, row_count, created_at
	`, userID, name, headerBlob, rowBlob, len(rows)))
	if err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	return d, nil
}

// FindByID retrieves a dataset with its rows. Returns nil if not found.
func (s *DatasetStore) FindByID(id uuid.UUID) (*models.Dataset, error) {
	d, err := scanDataset(s.db.QueryRow(`
		SELECT id, user_id, name, headers, rows, row_count, created_at
		FROM datasets WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find dataset: %w", err)
	}
	return d, nil
}

// ListByUser returns a user's datasets without their rows (row_count is
// enough for listings; rows can be large).
func (s *DatasetStore) ListByUser(userID uuid.UUID) ([]models.Dataset, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, headers, row_count, created_at
		FROM datasets WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []models.Dataset
	for rows.Next() {
		var d models.Dataset
		var headers []byte
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &headers, &d.RowCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		if err := json.Unmarshal(headers, &d.Headers); err != nil {
			return nil, fmt.Errorf("decode headers: %w", err)
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

// Delete removes a dataset.
func (s *DatasetStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}
