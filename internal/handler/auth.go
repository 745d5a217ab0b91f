// internal/handler/auth.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/service"
)

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
	}
}

type SignupResponse struct {
	BaseResponse
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// RequestOTPHandler emails a signup code
func (h *AuthHandler) RequestOTPHandler(w http.ResponseWriter, r *http.Request) {
	var input service.OTPRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.userService.RequestSignupOTP(r.Context(), input); err != nil {
		respondWithDomainError(w, r, "Signup code request error", err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, BaseResponse{Ok: true})
}

func (h *AuthHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if !decodeJSON(w, r, &input) {
		return
	}

	output, err := h.userService.Signup(r.Context(), input)
	if err != nil {
		respondWithDomainError(w, r, "User registration error", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, SignupResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         output.User,
		Token:        output.Token,
	})
}

type LoginResponse struct {
	BaseResponse
	User  *model.User `json:"user,omitempty"`
	Token string      `json:"token,omitempty"`
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	output, err := h.userService.Login(r.Context(), input)
	if err != nil {
		respondWithDomainError(w, r, "User login error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         output.User,
		Token:        output.Token,
	})
}

type MeResponse struct {
	BaseResponse
	User    *model.User    `json:"user"`
	Profile *model.Profile `json:"profile"`
}

func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	output, err := h.userService.Me(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, r, "Loading account error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, MeResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         output.User,
		Profile:      output.Profile,
	})
}

type ProfileResponse struct {
	BaseResponse
	Profile *model.Profile `json:"profile"`
}

func (h *AuthHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input service.ProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		respondWithDomainError(w, r, "Updating profile error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, ProfileResponse{BaseResponse: BaseResponse{Ok: true}, Profile: profile})
}

// RequestPasswordResetHandler emails a reset code. It answers 202 whether or not the address is registered.
func (h *AuthHandler) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var input service.OTPRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.userService.RequestPasswordReset(r.Context(), input); err != nil {
		respondWithDomainError(w, r, "Password reset request error", err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, BaseResponse{Ok: true})
}

func (h *AuthHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input service.ResetPasswordInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.userService.ResetPassword(r.Context(), input); err != nil {
		respondWithDomainError(w, r, "Password reset error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

func (h *AuthHandler) VerifyPasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input service.VerifyPasswordInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.userService.VerifyPassword(r.Context(), userID, input); err != nil {
		respondWithDomainError(w, r, "Password verification error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

func (h *AuthHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input service.ChangePasswordInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, input); err != nil {
		respondWithDomainError(w, r, "Changing password error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}
