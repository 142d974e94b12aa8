// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"certstudio/internal/models"
)

// CertificateStore handles issued certificate records.
type CertificateStore struct {
	db *sql.DB
}

// NewCertificateStore creates a new CertificateStore.
func NewCertificateStore(db *sql.DB) *CertificateStore {
	return &CertificateStore{db: db}
}

const certColumns = "id, user_id, template_id, title, recipient_name, issue_date, status, created_at, updated_at"

func scanCertificate(row interface{ Scan(...any) error }) (*models.Certificate, error) {
	c := &models.Certificate{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.TemplateID, &c.Title, &c.RecipientName,
		&c.IssueDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a certificate record.
func (s *CertificateStore) Create(userID, templateID uuid.UUID, title, recipientName string, issueDate time.Time, status models.CertificateStatus) (*models.Certificate, error) {
	if status == "" {
		status = models.CertificateDraft
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	c, err := scanCertificate(s.db.QueryRow(`
		INSERT INTO certificates (user_id, template_id, title, recipient_name, issue_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+certColumns,
		userID, templateID, title, recipientName, issueDate, status))
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	return c, nil
}

// FindByID retrieves a certificate. Returns nil if not found.
func (s *CertificateStore) FindByID(id uuid.UUID) (*models.Certificate, error) {
	c, err := scanCertificate(s.db.QueryRow(
		`SELECT `+certColumns+` FROM certificates WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return c, nil
}

// ListByUser returns a user's certificates, newest first.
func (s *CertificateStore) ListByUser(userID uuid.UUID) ([]models.Certificate, error) {
	rows, err := s.db.Query(
		`SELECT `+certColumns+` FROM certificates WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var certs []models.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, *c)
	}
	return certs, rows.Err()
}

// Count returns the total number of certificate records.
func (s *CertificateStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM certificates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count certificates: %w", err)
	}
	return n, nil
}

// UpdateStatus moves a certificate through its lifecycle.
func (s *CertificateStore) UpdateStatus(id uuid.UUID, status models.CertificateStatus) error {
	if !models.ValidCertificateStatus(status) {
		return fmt.Errorf("update certificate status: invalid status %q", status)
	}
	_, err := s.db.Exec(`
		UPDATE certificates SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update certificate status: %w", err)
	}
	return nil
}

// Delete removes a certificate record.
func (s *CertificateStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	return nil
}
