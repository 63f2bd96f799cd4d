package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/osworks/servicedesk-api/internal/dto"
	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

type settingsRepository interface {
	GetEmailSettings(ctx context.Context) (*models.EmailSettings, error)
	UpsertEmailSettings(ctx context.Context, settings *models.EmailSettings) error
}

// SettingsService manages the admin email configuration.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// GetEmailSettings returns the stored configuration. An unconfigured
// system yields an empty record rather than an error.
func (s *SettingsService) GetEmailSettings(ctx context.Context) (*models.EmailSettings, error) {
	settings, err := s.repo.GetEmailSettings(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.EmailSettings{SMTPSecurity: models.SMTPSecurityNone}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load email settings")
	}
	return settings, nil
}

// UpdateEmailSettings replaces the configuration. An empty password in
// the request keeps the stored secret.
func (s *SettingsService) UpdateEmailSettings(ctx context.Context, req dto.UpdateEmailSettingsRequest) (*models.EmailSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email settings payload")
	}

	settings := &models.EmailSettings{
		SMTPServer:   req.SMTPServer,
		SMTPPort:     req.SMTPPort,
		SMTPSecurity: req.SMTPSecurity,
		SenderEmail:  req.SenderEmail,
		SMTPPassword: req.SMTPPassword,
	}

	if settings.SMTPPassword == nil || *settings.SMTPPassword == "" {
		current, err := s.repo.GetEmailSettings(ctx)
		if err == nil {
			settings.SMTPPassword = current.SMTPPassword
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load email settings")
		}
	}

	if err := s.repo.UpsertEmailSettings(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store email settings")
	}

	s.logger.Info("email settings updated", zap.String("smtpServer", settings.SMTPServer))
	return settings, nil
}
