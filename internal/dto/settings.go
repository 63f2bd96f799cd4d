package dto

import "github.com/osworks/servicedesk-api/internal/models"

// UpdateEmailSettingsRequest replaces the outbound-mail configuration.
// Password is optional on update; empty keeps the stored secret.
type UpdateEmailSettingsRequest struct {
	SMTPServer   string              `json:"smtpServer" validate:"required"`
	SMTPPort     *int                `json:"smtpPort,omitempty" validate:"omitempty,gt=0,lte=65535"`
	SMTPSecurity models.SMTPSecurity `json:"smtpSecurity" validate:"required,oneof=none ssl tls ssltls starttls"`
	SenderEmail  *string             `json:"senderEmail,omitempty" validate:"omitempty,email"`
	SMTPPassword *string             `json:"smtpPassword,omitempty"`
}
