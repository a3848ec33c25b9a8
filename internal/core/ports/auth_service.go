package ports

import (
	"context"
	"time"

	"github.com/99minutos/product-dashboard/internal/core/domain"
)

// SessionClaims is the verified content of a session token.
type SessionClaims struct {
	UserID    string
	Email     string
	Role      string
	SessionID string
	ExpiresAt time.Time
}

// LoginResult bundles the signed session token and the user it belongs to.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, email, password, role string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, claims SessionClaims) error
	Verify(ctx context.Context, token string) (*SessionClaims, error)
}
