package service_test

import (
	"context"
	"testing"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func (f *authFixture) activeUser(t *testing.T, password string) *model.User {
	t.Helper()
	hashedPassword, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return &model.User{
		ID:           uuid.New(),
		Email:        "reset@example.com",
		Name:         "Grace",
		PasswordHash: hashedPassword,
		Status:       model.StatusActive,
	}
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("code resets the password once", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.activeUser(t, "old_password")
		f.users.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil).Times(2)

		require.NoError(t, f.svc.RequestPasswordReset(ctx, service.OTPRequestInput{Email: " Reset@Example.com"}))
		assert.Contains(t, f.mail.String(), "password_reset_otp")
		code := f.lastCode(t)

		f.users.EXPECT().
			UpdatePassword(gomock.Any(), user.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, hash string) error {
				ok, err := f.hasher.Verify("new_password", hash)
				require.NoError(t, err)
				assert.True(t, ok)
				return nil
			})

		input := service.ResetPasswordInput{
			Email:           user.Email,
			Code:            code,
			NewPassword:     "new_password",
			ConfirmPassword: "new_password",
		}
		require.NoError(t, f.svc.ResetPassword(ctx, input))
		assert.ErrorIs(t, f.svc.ResetPassword(ctx, input), domain.ErrInvalidOTP)
	})

	t.Run("signup code cannot reset a password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.EXPECT().FindByEmail(gomock.Any(), "reset@example.com").Return(nil, domain.ErrUserNotFound)
		require.NoError(t, f.svc.RequestSignupOTP(ctx, service.OTPRequestInput{Email: "reset@example.com"}))

		err := f.svc.ResetPassword(ctx, service.ResetPasswordInput{
			Email:           "reset@example.com",
			Code:            f.lastCode(t),
			NewPassword:     "new_password",
			ConfirmPassword: "new_password",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	})

	t.Run("unknown and suspended accounts get no email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.EXPECT().FindByEmail(gomock.Any(), "nobody@example.com").Return(nil, domain.ErrUserNotFound)
		require.NoError(t, f.svc.RequestPasswordReset(ctx, service.OTPRequestInput{Email: "nobody@example.com"}))

		suspended := f.activeUser(t, "old_password")
		suspended.Status = model.StatusSuspended
		f.users.EXPECT().FindByEmail(gomock.Any(), suspended.Email).Return(suspended, nil)
		require.NoError(t, f.svc.RequestPasswordReset(ctx, service.OTPRequestInput{Email: suspended.Email}))

		assert.Zero(t, f.mail.Len())
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		f := newAuthFixture(t)
		err := f.svc.ResetPassword(ctx, service.ResetPasswordInput{
			Email:           "reset@example.com",
			Code:            "123456",
			NewPassword:     "new_password",
			ConfirmPassword: "other_password",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := f.activeUser(t, "old_password")
	f.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil).AnyTimes()

	t.Run("verify", func(t *testing.T) {
		assert.NoError(t, f.svc.VerifyPassword(ctx, user.ID, service.VerifyPasswordInput{Password: "old_password"}))
		err := f.svc.VerifyPassword(ctx, user.ID, service.VerifyPasswordInput{Password: "guess"})
		assert.ErrorIs(t, err, domain.ErrWrongPassword)
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	})

	t.Run("wrong current password", func(t *testing.T) {
		err := f.svc.ChangePassword(ctx, user.ID, service.ChangePasswordInput{
			CurrentPassword: "guess",
			NewPassword:     "new_password",
			ConfirmPassword: "new_password",
		})
		assert.ErrorIs(t, err, domain.ErrWrongPassword)
	})

	t.Run("too short", func(t *testing.T) {
		err := f.svc.ChangePassword(ctx, user.ID, service.ChangePasswordInput{
			CurrentPassword: "old_password",
			NewPassword:     "short",
			ConfirmPassword: "short",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("success", func(t *testing.T) {
		f.users.EXPECT().UpdatePassword(gomock.Any(), user.ID, gomock.Not(user.PasswordHash)).Return(nil)
		require.NoError(t, f.svc.ChangePassword(ctx, user.ID, service.ChangePasswordInput{
			CurrentPassword: "old_password",
			NewPassword:     "new_password",
			ConfirmPassword: "new_password",
		}))
	})
}
