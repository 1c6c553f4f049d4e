// Package identity issues and verifies the signed session cookie that carries
// a visitor's display name between requests.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

// Identity is who is using the current session. A guest has an empty Username.
type Identity struct {
	SessionID string
	Username  string
}

func (i Identity) SignedIn() bool {
	return i.Username != ""
}

// Author is the attribution used for postings created in this session.
func (i Identity) Author() string {
	return domain.AuthorOrGuest(i.Username)
}

// Guest starts a new anonymous session.
func Guest() Identity {
	return Identity{SessionID: uuid.NewString()}
}

// SignIn returns i with the trimmed username set.
func (i Identity) SignIn(username string) (Identity, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return i, fmt.Errorf("%w: username is required", domain.ErrValidationFailure)
	}
	i.Username = name
	return i, nil
}

// SignOut keeps the session but drops the name.
func (i Identity) SignOut() Identity {
	i.Username = ""
	return i
}

type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs id and returns the token with its expiry.
func (s *Issuer) Issue(id Identity) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, exp, nil
}

func (s *Issuer) Parse(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{SessionID: claims.Subject, Username: claims.Username}, nil
}

type contextKey string

const identityCtxKey = contextKey("identity")

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok
}
