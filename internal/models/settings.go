package models

import "time"

// SMTPSecurity enumerates supported SMTP transport security modes.
type SMTPSecurity string

const (
	SMTPSecurityNone     SMTPSecurity = "none"
	SMTPSecuritySSL      SMTPSecurity = "ssl"
	SMTPSecurityTLS      SMTPSecurity = "tls"
	SMTPSecuritySSLTLS   SMTPSecurity = "ssltls"
	SMTPSecurityStartTLS SMTPSecurity = "starttls"
)

// EmailSettings holds the outbound-mail configuration managed from the
// admin settings screen. Delivery itself happens behind the Notifier
// port; this record only stores what the operator configured.
type EmailSettings struct {
	SMTPServer   string       `db:"smtp_server" json:"smtpServer"`
	SMTPPort     *int         `db:"smtp_port" json:"smtpPort,omitempty"`
	SMTPSecurity SMTPSecurity `db:"smtp_security" json:"smtpSecurity"`
	SenderEmail  *string      `db:"sender_email" json:"senderEmail,omitempty"`
	SMTPPassword *string      `db:"smtp_password" json:"-"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}
