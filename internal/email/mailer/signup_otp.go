package mailer

import (
	"context"
	"time"

	"github.com/dangerclosesec/studygroups/internal/email"
)

// SignupOTPTemplateData contains data for the signup code email template
type SignupOTPTemplateData struct {
	Code      string
	ExpiresIn string
}

// SendSignupOTP emails the one-time code that completes registration
func SendSignupOTP(ctx context.Context, s *email.Service, to, code string, ttl time.Duration) error {
	emailData := email.EmailData{
		To:           to,
		Subject:      "Your Study Groups signup code",
		TemplateName: "signup_otp",
		TemplateData: SignupOTPTemplateData{
			Code:      code,
			ExpiresIn: ttl.Round(time.Second).String(),
		},
	}

	return s.SendEmail(ctx, emailData)
}
