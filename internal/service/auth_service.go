package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"smokemate/internal/config"
)

// Domain errors for auth flows.
var (
	ErrAuthDisabled    = errors.New("authentication is disabled")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
)

// AuthService signs in the single operator configured in auth.* and issues
// HMAC-signed tokens for the control routes.
type AuthService struct {
	username     string
	passwordHash string
	signingKey   []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

func NewAuthService(cfg config.AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
		signingKey:   []byte(cfg.SigningKey),
		tokenTTL:     ttl,
		now:          time.Now,
	}
}

// Enabled reports whether a signing key is configured.
func (s *AuthService) Enabled() bool { return len(s.signingKey) > 0 }

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken validates credentials and returns a JWT
func (s *AuthService) GenerateToken(username, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	if username != s.username {
		return "", ErrUserNotFound
	}
	if err := verifyPassword(s.passwordHash, password); err != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(username)
}

// ParseToken parses a JWT and returns the operator name.
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// HashPassword produces the bcrypt hash expected in auth.password_hash.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// helper: issue a signed JWT for the operator
func (s *AuthService) issueToken(subject string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString(s.signingKey)
}
