// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CertificateStatus tracks a certificate record's lifecycle.
type CertificateStatus string

const (
	CertificateDraft     CertificateStatus = "draft"
	CertificateGenerated CertificateStatus = "generated"
	CertificateSent      CertificateStatus = "sent"
	CertificateRevoked   CertificateStatus = "revoked"
)

// ValidCertificateStatus reports whether s is a known status.
func ValidCertificateStatus(s CertificateStatus) bool {
	switch s {
	case CertificateDraft, CertificateGenerated, CertificateSent, CertificateRevoked:
		return true
	}
	return false
}

// Certificate is one issued (or issuable) certificate tied to a template
// and a recipient.
type Certificate struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	TemplateID    uuid.UUID         `json:"template_id"`
	Title         string            `json:"title"`
	RecipientName string            `json:"recipient_name"`
	IssueDate     time.Time         `json:"issue_date"`
	Status        CertificateStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// GenerationStatus tracks a batch generation run.
type GenerationStatus string

const (
	GenerationPending    GenerationStatus = "pending"
	GenerationProcessing GenerationStatus = "processing"
	GenerationCompleted  GenerationStatus = "completed"
	GenerationFailed     GenerationStatus = "failed"
)

// GenerationRecord is the durable log row written after each batch run.
type GenerationRecord struct {
	ID         uuid.UUID        `json:"id"`
	TemplateID uuid.UUID        `json:"template_id"`
	UserID     uuid.UUID        `json:"user_id"`
	Count      int              `json:"count"`
	Format     string           `json:"format"`
	BatchSize  int              `json:"batch_size"`
	Status     GenerationStatus `json:"status"`
	Error      *string          `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
