package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/ports"
)

// sessionClaims is the JWT body of a session cookie. Subject carries the user id
// and ID the session id used for revocation.
type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login and cookie sessions.
type AuthService struct {
	repo      ports.AuthRepository
	sessions  ports.SessionStore
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAuthService wires an AuthService. sessions may be nil, in which case logout
// only clears the cookie and tokens stay valid until they expire.
func NewAuthService(repo ports.AuthRepository, sessions ports.SessionStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, role string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || !domain.ValidRole(role) {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Login checks the credentials and issues a session token. An unknown email is
// reported as invalid credentials so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	return &ports.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.repo.FindByID(ctx, userID)
}

// Logout revokes the session id until the token's own expiry.
func (s *AuthService) Logout(ctx context.Context, claims ports.SessionClaims) error {
	if s.sessions == nil || claims.SessionID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.SessionID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Verify parses a session token and rejects revoked sessions.
func (s *AuthService) Verify(ctx context.Context, token string) (*ports.SessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidCredentials
	}
	if claims.Subject == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.sessions != nil && claims.ID != "" {
		revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if revoked {
			return nil, domain.ErrSessionRevoked
		}
	}

	out := &ports.SessionClaims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.tokenTTL)

	claims := sessionClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
