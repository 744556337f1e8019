package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hugh/finza/internal/database/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")

	// Recovery tokens deliberately conflate the two causes: they are also
	// invalidated store-side, so callers never need the distinction.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	RoleID *uint  `json:"role_id,omitempty"`
	jwt.RegisteredClaims
}

// RecoveryClaims is the payload of a password-recovery token.
type RecoveryClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Expiry says whether an issued token expires. Never exists for the
// automation principal, which cannot log in again to refresh a token.
type Expiry struct {
	never bool
	ttl   time.Duration
}

func ExpireIn(ttl time.Duration) Expiry { return Expiry{ttl: ttl} }
func ExpireNever() Expiry               { return Expiry{never: true} }

type JWTService struct {
	secret         []byte
	recoverySecret []byte
	sessionExpiry  time.Duration
	recoveryExpiry time.Duration
}

// NewJWTService builds the token service. An empty recoverySecret falls back
// to the session secret.
func NewJWTService(secret, recoverySecret string, sessionExpiry, recoveryExpiry time.Duration) *JWTService {
	if recoverySecret == "" {
		recoverySecret = secret
	}
	return &JWTService{
		secret:         []byte(secret),
		recoverySecret: []byte(recoverySecret),
		sessionExpiry:  sessionExpiry,
		recoveryExpiry: recoveryExpiry,
	}
}

// ExpiryForRole is the single place the automation sentinel is compared.
func (s *JWTService) ExpiryForRole(roleID *uint) Expiry {
	if roleID != nil && *roleID == models.AutomationRoleID {
		return ExpireNever()
	}
	return ExpireIn(s.sessionExpiry)
}

func (s *JWTService) GenerateSessionToken(userID uint, email string, roleID *uint, expiry Expiry) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		RoleID: roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   "finza",
		},
	}
	if !expiry.never {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiry.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, s.sessionKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ParseSessionTokenIgnoreExpiry verifies the signature but skips expiry, for
// callers that explicitly opt out of the lifetime check.
func (s *JWTService) ParseSessionTokenIgnoreExpiry(tokenString string) (*SessionClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &SessionClaims{}, s.sessionKey)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *JWTService) GenerateRecoveryToken(email string) (string, error) {
	now := time.Now()
	claims := RecoveryClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every issued token distinct even within the same
			// second, since iat only carries second precision.
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.recoveryExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "finza",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.recoverySecret)
}

// ValidateRecoveryToken returns the email the token was issued for.
func (s *JWTService) ValidateRecoveryToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RecoveryClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidOrExpiredToken
		}
		return s.recoverySecret, nil
	})
	if err != nil {
		return "", ErrInvalidOrExpiredToken
	}

	claims, ok := token.Claims.(*RecoveryClaims)
	if !ok || !token.Valid || claims.Email == "" {
		return "", ErrInvalidOrExpiredToken
	}

	return claims.Email, nil
}

func (s *JWTService) sessionKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return s.secret, nil
}
