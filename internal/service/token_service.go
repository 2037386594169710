package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/workshala/server/internal/config"
	"github.com/workshala/server/internal/models"
)

// ErrInvalidToken covers every verification failure: bad signature,
// expiry, malformed input, or a token of the wrong type.
var ErrInvalidToken = errors.New("invalid or expired token")

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

// TokenService signs and verifies the three token kinds. It is stateless:
// nothing is persisted, and issued tokens stay valid until natural expiry.
type TokenService struct {
	secretKey     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	resetExpiry   time.Duration
	logger        *logrus.Logger
}

func NewTokenService(cfg *config.JWTConfig, logger *logrus.Logger) (*TokenService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &TokenService{
		secretKey:     secretKey,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		resetExpiry:   cfg.ResetExpiry,
		logger:        logger,
	}, nil
}

type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func (s *TokenService) sign(email, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.WithError(err).WithField("type", tokenType).Error("Failed to sign token")
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return signed, nil
}

func (s *TokenService) SignAccessToken(email string) (string, error) {
	return s.sign(email, TokenTypeAccess, s.accessExpiry)
}

func (s *TokenService) SignRefreshToken(email string) (string, error) {
	return s.sign(email, TokenTypeRefresh, s.refreshExpiry)
}

// SignResetToken issues the short-lived password-change authorization.
func (s *TokenService) SignResetToken(email string) (string, error) {
	return s.sign(email, TokenTypeReset, s.resetExpiry)
}

// SignTokenPair issues a fresh access/refresh pair for the user.
func (s *TokenService) SignTokenPair(email string) (*models.TokenPair, error) {
	accessToken, err := s.SignAccessToken(email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.SignRefreshToken(email)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *TokenService) verify(tokenString, wantType string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Type != wantType {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// VerifyAccessToken returns the subject email of a valid access token.
func (s *TokenService) VerifyAccessToken(tokenString string) (string, error) {
	return s.verify(tokenString, TokenTypeAccess)
}

// VerifyRefreshToken returns the subject email of a valid refresh token.
func (s *TokenService) VerifyRefreshToken(tokenString string) (string, error) {
	return s.verify(tokenString, TokenTypeRefresh)
}

// VerifyResetToken returns the subject email of a valid reset token.
func (s *TokenService) VerifyResetToken(tokenString string) (string, error) {
	return s.verify(tokenString, TokenTypeReset)
}
