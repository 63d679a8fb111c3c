// Package auth implements JWT login for the back office. Tokens carry the
// user's financial-visibility flag so handlers can strip purchase prices and
// margins without a database round trip.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"backoffice-service/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the slice of the store the auth manager needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Actor is the authenticated identity attached to each request.
type Actor struct {
	UserID            int64  `json:"user_id"`
	Username          string `json:"username"`
	FullName          string `json:"full_name"`
	CanViewFinancials bool   `json:"can_view_financials"`
}

type customClaims struct {
	jwtlib.RegisteredClaims
	UserID            int64  `json:"user_id"`
	FullName          string `json:"full_name"`
	CanViewFinancials bool   `json:"can_view_financials"`
}

type Manager struct {
	secret   []byte
	tokenTTL time.Duration
	users    UserStore
}

func NewManager(secret string, tokenTTL time.Duration, users UserStore) *Manager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Manager{secret: []byte(secret), tokenTTL: tokenTTL, users: users}
}

// LoginResponse is what a successful login returns.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
	User        Actor  `json:"user"`
}

// Login verifies the password against the stored bcrypt hash and issues a
// signed token. Unknown users and bad passwords fail identically.
func (m *Manager) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := m.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().UTC().Add(m.tokenTTL)
	token, err := m.sign(user, expiresAt)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		User: Actor{
			UserID:            user.ID,
			Username:          user.Username,
			FullName:          user.FullName,
			CanViewFinancials: user.CanViewFinancials,
		},
	}, nil
}

// ParseToken validates a bearer token and returns the actor it encodes.
func (m *Manager) ParseToken(tokenStr string) (Actor, error) {
	claims := &customClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Actor{}, errors.New("invalid token subject")
	}
	return Actor{
		UserID:            claims.UserID,
		Username:          sub,
		FullName:          claims.FullName,
		CanViewFinancials: claims.CanViewFinancials,
	}, nil
}

func (m *Manager) sign(user *models.User, expiresAt time.Time) (string, error) {
	claims := customClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "backoffice-service",
		},
		UserID:            user.ID,
		FullName:          user.FullName,
		CanViewFinancials: user.CanViewFinancials,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// HashPassword bcrypt-hashes a plain password. Used when seeding accounts.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
