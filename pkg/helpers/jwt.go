package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrTokenGeneration = errors.New("token generation failed")
)

// TokenClass selects the signing secret and lifetime of a token.
type TokenClass int

const (
	AccessToken TokenClass = iota
	RefreshToken
	ResetToken
)

func (c TokenClass) String() string {
	switch c {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	case ResetToken:
		return "reset"
	default:
		return "unknown"
	}
}

// JWTManager signs and verifies the three token classes. Each class has its
// own secret so one class can never validate as another.
type JWTManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	ResetSecret   []byte
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration

	now func() time.Time
}

type JWTOptions struct {
	AccessSecret  string
	RefreshSecret string
	ResetSecret   string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

func NewJWTManager(o JWTOptions) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(o.AccessSecret),
		RefreshSecret: []byte(o.RefreshSecret),
		ResetSecret:   []byte(o.ResetSecret),
		Issuer:        o.Issuer,
		Audience:      o.Audience,
		AccessTTL:     o.AccessTTL,
		RefreshTTL:    o.RefreshTTL,
		ResetTTL:      o.ResetTTL,
		now:           time.Now,
	}
}

// WithClock swaps the time source, used by tests.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	m.now = now
	return m
}

type Claims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

func (m *JWTManager) secret(class TokenClass) []byte {
	switch class {
	case AccessToken:
		return m.AccessSecret
	case RefreshToken:
		return m.RefreshSecret
	case ResetToken:
		return m.ResetSecret
	}
	return nil
}

func (m *JWTManager) ttl(class TokenClass) time.Duration {
	switch class {
	case AccessToken:
		return m.AccessTTL
	case RefreshToken:
		return m.RefreshTTL
	case ResetToken:
		return m.ResetTTL
	}
	return 0
}

func (m *JWTManager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// Sign mints a token of the given class carrying the identity claims. Every
// token gets a fresh jti, so two tokens signed in the same second differ.
func (m *JWTManager) Sign(class TokenClass, userID, email, role string, verified bool) (string, time.Time, error) {
	secret := m.secret(class)
	if len(secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: missing %s secret", ErrTokenGeneration, class)
	}
	now := m.clock()
	exp := now.Add(m.ttl(class))
	claims := &Claims{
		UserID:   userID,
		Email:    email,
		Role:     role,
		Verified: verified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{m.Audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return s, exp, nil
}

// Verify checks signature, algorithm, issuer, audience and validity window.
// Expired tokens yield ErrTokenExpired, every other failure ErrTokenInvalid.
func (m *JWTManager) Verify(tokenStr string, class TokenClass) (*Claims, error) {
	secret := m.secret(class)
	if len(secret) == 0 {
		return nil, ErrTokenInvalid
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.Issuer),
		jwt.WithAudience(m.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !tkn.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
