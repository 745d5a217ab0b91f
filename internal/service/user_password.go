package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/email/mailer"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/google/uuid"
)

type ResetPasswordInput struct {
	Email           string `json:"email" validate:"required,email"`
	Code            string `json:"code" validate:"required,len=6,numeric"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type VerifyPasswordInput struct {
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// RequestPasswordReset emails a reset code to an active account. Unknown or
// suspended addresses succeed silently so the endpoint does not reveal who is registered.
func (s *UserService) RequestPasswordReset(ctx context.Context, input OTPRequestInput) error {
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.Status != model.StatusActive {
		return nil
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.cacheService.Set(ctx, resetKey(input.Email), code); err != nil {
		return fmt.Errorf("storing reset code: %w", err)
	}

	if err := mailer.SendPasswordResetOTP(ctx, s.emailService, input.Email, user.Name, code, s.config.OTP.TTL); err != nil {
		_ = s.cacheService.Delete(ctx, resetKey(input.Email))
		return fmt.Errorf("sending reset code: %w", err)
	}
	return nil
}

// ResetPassword consumes the emailed reset code and replaces the password.
// Like signup codes, a wrong guess burns the code.
func (s *UserService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var expected string
	if err := s.cacheService.Consume(ctx, resetKey(input.Email), &expected); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidOTP
		}
		return fmt.Errorf("reading reset code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(input.Code)) != 1 {
		return domain.ErrInvalidOTP
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user.ID, input.NewPassword)
}

// VerifyPassword checks the caller's current password without changing anything.
func (s *UserService) VerifyPassword(ctx context.Context, userID uuid.UUID, input VerifyPasswordInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	_, err := s.checkPassword(ctx, userID, input.Password)
	return err
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	user, err := s.checkPassword(ctx, userID, input.CurrentPassword)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user.ID, input.NewPassword)
}

func (s *UserService) checkPassword(ctx context.Context, userID uuid.UUID, password string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	verified, err := s.passwordHasher.Verify(password, user.PasswordHash)
	if err != nil || !verified {
		return nil, domain.ErrWrongPassword
	}
	return user, nil
}

func (s *UserService) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hashedPassword, err := s.passwordHasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, hashedPassword)
}

func resetKey(email string) string {
	return "reset_otp:" + email
}
