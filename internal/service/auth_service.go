package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/labdesk/lab-ledger-api/internal/models"
	"github.com/labdesk/lab-ledger-api/pkg/config"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
)

// AuthService authenticates the lab administrator and manages the
// signed session cookie. The admin account lives in configuration, not
// the database; a kiosk deployment has exactly one operator login.
type AuthService struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	cookieName   string
	logger       *zap.Logger
	now          func() time.Time
}

// NewAuthService constructs the auth service. When no precomputed
// bcrypt hash is configured, the plaintext password is hashed once at
// startup so later comparisons never touch the plaintext again.
func NewAuthService(session config.SessionConfig, admin config.AdminConfig, logger *zap.Logger) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	hash := []byte(admin.PasswordHash)
	if len(hash) == 0 {
		generated, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		hash = generated
	}
	ttl := session.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		username:     admin.Username,
		passwordHash: hash,
		secret:       []byte(session.Secret),
		ttl:          ttl,
		cookieName:   session.Cookie,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// CookieName returns the session cookie name handlers should set.
func (s *AuthService) CookieName() string {
	return s.cookieName
}

// SessionTTL returns how long issued sessions stay valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// Login verifies the admin credentials and issues a signed session token.
func (s *AuthService) Login(username, password string) (string, error) {
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !nameOK || passErr != nil {
		s.logger.Warn("admin login rejected", zap.String("username", username))
		return "", appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials. Please try again.")
	}

	token, err := s.generateSessionToken()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.logger.Info("admin logged in", zap.String("username", username))
	return token, nil
}

// ValidateSession parses the session token and returns its claims.
func (s *AuthService) ValidateSession(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}

func (s *AuthService) generateSessionToken() (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.SessionClaims{
		Username: s.username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.username,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
