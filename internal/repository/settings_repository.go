package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/osworks/servicedesk-api/internal/models"
)

// SettingsRepository provides database access for the single-row email
// settings record.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetEmailSettings returns the stored configuration, or sql.ErrNoRows
// when nothing has been configured yet.
func (r *SettingsRepository) GetEmailSettings(ctx context.Context) (*models.EmailSettings, error) {
	const query = `SELECT smtp_server, smtp_port, smtp_security, sender_email, smtp_password, updated_at FROM email_settings LIMIT 1`
	var settings models.EmailSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get email settings: %w", err)
	}
	return &settings, nil
}

// UpsertEmailSettings replaces the single settings row.
func (r *SettingsRepository) UpsertEmailSettings(ctx context.Context, settings *models.EmailSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO email_settings (singleton, smtp_server, smtp_port, smtp_security, sender_email, smtp_password, updated_at) VALUES (TRUE, :smtp_server, :smtp_port, :smtp_security, :sender_email, :smtp_password, :updated_at) ON CONFLICT (singleton) DO UPDATE SET smtp_server = EXCLUDED.smtp_server, smtp_port = EXCLUDED.smtp_port, smtp_security = EXCLUDED.smtp_security, sender_email = EXCLUDED.sender_email, smtp_password = EXCLUDED.smtp_password, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert email settings: %w", err)
	}
	return nil
}
