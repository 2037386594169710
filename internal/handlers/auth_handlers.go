package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/workshala/server/internal/config"
	"github.com/workshala/server/internal/models"
	"github.com/workshala/server/internal/queue"
	"github.com/workshala/server/internal/service"
)

// UserStore is the slice of the user repository the auth workflow needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	RefreshPending(ctx context.Context, email, name, contact, passwordHash string, vt models.VerificationToken) error
	MarkVerified(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// VerificationStore maps link tokens to emails.
type VerificationStore interface {
	Store(ctx context.Context, token, email string, expiresAt time.Time) error
	Lookup(ctx context.Context, token string) (string, time.Time, error)
	Delete(ctx context.Context, token string) error
}

// OTPManager issues and validates one-time reset codes.
type OTPManager interface {
	Issue(ctx context.Context, email string) (string, error)
	Validate(ctx context.Context, email, code string) error
}

type AuthHandlers struct {
	users    UserStore
	verify   VerificationStore
	otp      OTPManager
	tokens   *service.TokenService
	mailer   queue.Mailer
	mailCfg  *config.MailConfig
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewAuthHandlers(
	users UserStore,
	verify VerificationStore,
	otp OTPManager,
	tokens *service.TokenService,
	mailer queue.Mailer,
	mailCfg *config.MailConfig,
	logger *logrus.Logger,
) *AuthHandlers {
	v := validator.New()
	// Report the json field name, not the Go struct field.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &AuthHandlers{
		users:    users,
		verify:   verify,
		otp:      otp,
		tokens:   tokens,
		mailer:   mailer,
		mailCfg:  mailCfg,
		validate: v,
		logger:   logger,
	}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
	Number   string `json:"number" validate:"required,min=7,max=15"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshTokenRequest struct {
	RefToken string `json:"refToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=4"`
}

type changePasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// Signup registers a new user or, when the email is already pending
// verification, refreshes the verification artifact instead of creating a
// duplicate record.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := h.validate.Struct(&req); err != nil {
		respondValidationErrors(w, err)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Signup: failed to look up user")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if user != nil && user.IsVerified {
		respondWithError(w, http.StatusConflict, "User already exists")
		return
	}

	passwordHash, err := service.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, service.ErrPasswordTooLong) {
			respondFieldError(w, "password", "password must be at most 72 bytes")
			return
		}
		h.logger.WithError(err).Error("Signup: failed to hash password")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	token, err := generateLinkToken()
	if err != nil {
		h.logger.WithError(err).Error("Signup: failed to generate verification token")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	vt := models.VerificationToken{
		Token:     token,
		ExpiresAt: time.Now().Add(h.mailCfg.VerifyExpiry),
	}

	if user != nil {
		// Pending re-signup: supersede the old artifact, keep one record.
		if user.VerificationToken != nil {
			if err := h.verify.Delete(r.Context(), user.VerificationToken.Token); err != nil {
				h.logger.WithError(err).Warn("Signup: failed to delete superseded verification token")
			}
		}

		if err := h.users.RefreshPending(r.Context(), req.Email, req.Name, req.Number, passwordHash, vt); err != nil {
			h.logger.WithError(err).Error("Signup: failed to refresh pending user")
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		if err := h.verify.Store(r.Context(), token, req.Email, vt.ExpiresAt); err != nil {
			h.logger.WithError(err).Error("Signup: failed to store verification token")
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		h.dispatchVerificationEmail(req.Email, token)

		respondWithJSON(w, http.StatusOK, map[string]string{
			"message": "User updated successfully. Verification link sent again",
		})
		return
	}

	newUser := &models.User{
		Email:             req.Email,
		Name:              req.Name,
		Contact:           req.Number,
		PasswordHash:      passwordHash,
		IsVerified:        false,
		VerificationToken: &vt,
	}

	if err := h.users.Create(r.Context(), newUser); err != nil {
		h.logger.WithError(err).Error("Signup: failed to create user")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := h.verify.Store(r.Context(), token, req.Email, vt.ExpiresAt); err != nil {
		h.logger.WithError(err).Error("Signup: failed to store verification token")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.dispatchVerificationEmail(req.Email, token)

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "User created successfully, please verify email",
		"data": map[string]string{
			"name":  req.Name,
			"email": req.Email,
		},
	})
}

// VerifyEmail confirms a link token and transitions the user to verified.
func (h *AuthHandlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusNotFound, "Invalid or expired token")
		return
	}

	email, expiresAt, err := h.verify.Lookup(r.Context(), token)
	if err != nil {
		h.logger.WithError(err).Error("VerifyEmail: failed to look up token")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if email == "" || time.Now().After(expiresAt) {
		respondWithError(w, http.StatusNotFound, "Invalid or expired token")
		return
	}

	if err := h.users.MarkVerified(r.Context(), email); err != nil {
		h.logger.WithError(err).Error("VerifyEmail: failed to mark user verified")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := h.verify.Delete(r.Context(), token); err != nil {
		h.logger.WithError(err).Warn("VerifyEmail: failed to delete consumed token")
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Email verified successfully",
	})
}

// Login checks credentials and issues an access/refresh pair. An unverified
// user is rejected with 401 even when the password is correct.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := h.validate.Struct(&req); err != nil {
		respondValidationErrors(w, err)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Login: failed to look up user")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if user == nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	// The comparison always runs so the verification check cannot be used
	// to probe passwords.
	passwordOK := service.CheckPassword(user.PasswordHash, req.Password)

	if !user.IsVerified {
		respondWithError(w, http.StatusUnauthorized, "Not verified")
		return
	}

	if !passwordOK {
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	pair, err := h.tokens.SignTokenPair(user.Email)
	if err != nil {
		h.logger.WithError(err).Error("Login: failed to sign token pair")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user": map[string]string{
			"name":  user.Name,
			"email": user.Email,
		},
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// RefreshToken exchanges a valid refresh token for a new pair. The old
// refresh token is not revoked; it stays valid until natural expiry.
func (h *AuthHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.RefToken == "" {
		respondWithError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	email, err := h.tokens.VerifyRefreshToken(req.RefToken)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	pair, err := h.tokens.SignTokenPair(email)
	if err != nil {
		h.logger.WithError(err).Error("RefreshToken: failed to sign token pair")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusCreated, pair)
}

// ForgotPassword issues an OTP to a verified user's email.
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := h.validate.Struct(&req); err != nil {
		respondValidationErrors(w, err)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.WithError(err).Error("ForgotPassword: failed to look up user")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if user == nil {
		respondWithError(w, http.StatusNotFound, "Email not found")
		return
	}

	if !user.IsVerified {
		respondWithError(w, http.StatusUnauthorized, "Email not verified")
		return
	}

	code, err := h.otp.Issue(r.Context(), req.Email)
	if err != nil {
		h.logger.WithError(err).Error("ForgotPassword: failed to issue OTP")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.dispatchOTPEmail(req.Email, code)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "OTP sent to your registered email",
	})
}

// VerifyOTP consumes the reset code and hands back a short-lived reset
// token authorizing one password change.
func (h *AuthHandlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := h.validate.Struct(&req); err != nil {
		respondValidationErrors(w, err)
		return
	}

	if err := h.otp.Validate(r.Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, service.ErrOTPNotFound):
			respondWithError(w, http.StatusNotFound, "OTP not found")
		case errors.Is(err, service.ErrOTPExpired):
			respondWithError(w, http.StatusBadRequest, "OTP expired")
		case errors.Is(err, service.ErrOTPMismatch):
			respondWithError(w, http.StatusBadRequest, "Invalid OTP")
		case errors.Is(err, service.ErrOTPTooManyAttempts):
			respondWithError(w, http.StatusBadRequest, "Too many invalid attempts")
		default:
			h.logger.WithError(err).Error("VerifyOTP: failed to validate OTP")
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	resetToken, err := h.tokens.SignResetToken(req.Email)
	if err != nil {
		h.logger.WithError(err).Error("VerifyOTP: failed to sign reset token")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "OTP validated",
		"data": map[string]string{
			"resetPasswordToken": resetToken,
		},
	})
}

// ChangePassword persists a new password under a valid reset token.
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		respondWithError(w, http.StatusUnauthorized, "Missing authorization header")
		return
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		respondWithError(w, http.StatusUnauthorized, "Invalid authorization header format")
		return
	}

	tokenEmail, err := h.tokens.VerifyResetToken(parts[1])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := h.validate.Struct(&req); err != nil {
		respondValidationErrors(w, err)
		return
	}

	if req.Email != tokenEmail {
		respondWithError(w, http.StatusBadRequest, "Reset token does not match email")
		return
	}

	passwordHash, err := service.HashPassword(req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrPasswordTooLong) {
			respondFieldError(w, "newPassword", "newPassword must be at most 72 bytes")
			return
		}
		h.logger.WithError(err).Error("ChangePassword: failed to hash password")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := h.users.UpdatePassword(r.Context(), req.Email, passwordHash); err != nil {
		h.logger.WithError(err).Error("ChangePassword: failed to update password")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Password changed successfully",
	})
}

// dispatchVerificationEmail is fire-and-forget: delivery failure never
// reaches the caller.
func (h *AuthHandlers) dispatchVerificationEmail(email, token string) {
	link := fmt.Sprintf("%s?token=%s", h.mailCfg.VerifyBaseURL, token)
	if err := h.mailer.EnqueueVerificationEmail(context.Background(), email, link); err != nil {
		h.logger.WithError(err).WithField("email", email).Warn("Failed to dispatch verification email")
	}
}

func (h *AuthHandlers) dispatchOTPEmail(email, code string) {
	if err := h.mailer.EnqueueOTPEmail(context.Background(), email, code); err != nil {
		h.logger.WithError(err).WithField("email", email).Warn("Failed to dispatch OTP email")
	}
}

func generateLinkToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
