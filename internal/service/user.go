package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dangerclosesec/studygroups/internal/auth"
	"github.com/dangerclosesec/studygroups/internal/config"
	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/email"
	"github.com/dangerclosesec/studygroups/internal/email/mailer"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const otpDigits = 6

type UserService struct {
	repo           repository.UserRepositoryIface
	profileRepo    repository.ProfileRepositoryIface
	passwordHasher *auth.PasswordHasher
	tokenManager   *auth.TokenManager
	emailService   *email.Service
	cacheService   *CacheService
	config         *config.Config
	validate       *validator.Validate
}

func NewUserService(
	repo repository.UserRepositoryIface,
	profileRepo repository.ProfileRepositoryIface,
	passwordHasher *auth.PasswordHasher,
	tokenManager *auth.TokenManager,
	emailService *email.Service,
	cacheService *CacheService,
	config *config.Config,
) *UserService {
	return &UserService{
		repo:           repo,
		profileRepo:    profileRepo,
		passwordHasher: passwordHasher,
		tokenManager:   tokenManager,
		emailService:   emailService,
		cacheService:   cacheService,
		config:         config,
		validate:       validator.New(),
	}
}

type OTPRequestInput struct {
	Email string `json:"email" validate:"required,email"`
}

type SignupInput struct {
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"required,max=200"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Code            string `json:"code" validate:"required,len=6,numeric"`
}

type SignupOutput struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// RequestSignupOTP emails a one-time code to an address that is not registered yet.
// The code lives in the cache for the configured OTP TTL.
func (s *UserService) RequestSignupOTP(ctx context.Context, input OTPRequestInput) error {
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	existing, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if existing != nil {
		return domain.ErrEmailAlreadyExists
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.cacheService.Set(ctx, otpKey(input.Email), code); err != nil {
		return fmt.Errorf("storing signup code: %w", err)
	}

	if err := mailer.SendSignupOTP(ctx, s.emailService, input.Email, code, s.config.OTP.TTL); err != nil {
		_ = s.cacheService.Delete(ctx, otpKey(input.Email))
		return fmt.Errorf("sending signup code: %w", err)
	}

	return nil
}

// Signup consumes the emailed code and creates the account. A code is single use:
// a wrong guess burns it and the caller must request a new one.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*SignupOutput, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var expected string
	if err := s.cacheService.Consume(ctx, otpKey(input.Email), &expected); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, fmt.Errorf("reading signup code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(input.Code)) != 1 {
		return nil, domain.ErrInvalidOTP
	}

	hashedPassword, err := s.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hashedPassword,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.tokenManager.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &SignupOutput{
		User:  user,
		Token: token,
	}, nil
}

type ProfileInput struct {
	AboutMe     string `json:"about_me" validate:"max=2000"`
	GithubURL   string `json:"github_url" validate:"omitempty,url,max=500"`
	LinkedinURL string `json:"linkedin_url" validate:"omitempty,url,max=500"`
}

type MeOutput struct {
	User    *model.User    `json:"user"`
	Profile *model.Profile `json:"profile"`
}

// Me returns the caller's account and profile. Users without a saved profile get an empty one.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*MeOutput, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profileRepo.FindByUserIDs(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("finding profile: %w", err)
	}
	profile := &model.Profile{UserID: userID}
	if len(profiles) > 0 {
		profile = profiles[0]
	}

	return &MeOutput{User: user, Profile: profile}, nil
}

// UpdateProfile replaces the caller's profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*model.Profile, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	profile := &model.Profile{
		UserID:      userID,
		AboutMe:     strings.TrimSpace(input.AboutMe),
		GithubURL:   input.GithubURL,
		LinkedinURL: input.LinkedinURL,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return profile, nil
}

func otpKey(email string) string {
	return "signup_otp:" + email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateOTP returns a uniformly random numeric code of otpDigits digits
func generateOTP() (string, error) {
	limit := big.NewInt(1)
	for range otpDigits {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generating signup code: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}
