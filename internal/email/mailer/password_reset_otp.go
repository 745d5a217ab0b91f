package mailer

import (
	"context"
	"time"

	"github.com/dangerclosesec/studygroups/internal/email"
)

type PasswordResetOTPTemplateData struct {
	Name      string
	Code      string
	ExpiresIn string
}

// SendPasswordResetOTP emails the one-time code that authorizes a password reset
func SendPasswordResetOTP(ctx context.Context, s *email.Service, to, name, code string, ttl time.Duration) error {
	if name == "" {
		name = "there"
	}
	return s.SendEmail(ctx, email.EmailData{
		To:           to,
		Subject:      "Your Study Groups password reset code",
		TemplateName: "password_reset_otp",
		TemplateData: PasswordResetOTPTemplateData{
			Name:      name,
			Code:      code,
			ExpiresIn: ttl.Round(time.Second).String(),
		},
	})
}
