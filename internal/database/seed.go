package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin user (prompted to set up 2FA on first login) and the built-in
// field catalog that placeholder elements pick from.
func Seed(db *sql.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	return seedFieldCatalog(db)
}

func seedAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// 2FA is not enabled — the admin must set it up on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@certstudio.local", string(hash), "Admin", "super_admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@certstudio.local",
		"password", "admin",
	)

	return nil
}

// seedFieldCatalog inserts the default named fields. ON CONFLICT keeps
// re-seeding idempotent without clobbering admin edits.
func seedFieldCatalog(db *sql.DB) error {
	fields := []struct {
		path, display, category string
	}{
		{"recipient.name", "Recipient Name", "recipient"},
		{"recipient.email", "Recipient Email", "recipient"},
		{"course.name", "Course Name", "course"},
		{"course.completion_date", "Completion Date", "course"},
		{"course.instructor", "Instructor", "course"},
		{"course.duration", "Course Duration", "course"},
		{"organization.name", "Organization Name", "organization"},
		{"organization.signature", "Signature", "organization"},
		{"certificate.id", "Certificate ID", "certificate"},
		{"certificate.issue_date", "Issue Date", "certificate"},
	}

	for _, f := range fields {
		_, err := db.Exec(`
			INSERT INTO field_templates (field_path, display_name, category)
			VALUES ($1, $2, $3)
			ON CONFLICT (field_path) DO NOTHING
		`, f.path, f.display, f.category)
		if err != nil {
			return fmt.Errorf("seed field %s: %w", f.path, err)
		}
	}

	slog.Info("field catalog seeded", "fields", len(fields))
	return nil
}
