// Package session issues and verifies the bearer tokens returned by the login endpoint.
// Tokens are stateless JWTs, nothing is persisted server-side.
package session

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/acarli/itemstore/internal/database"
	"github.com/acarli/itemstore/internal/model"
	"github.com/acarli/itemstore/internal/serror"
)

// Issuer is the `iss' claim carried by every generated token.
const Issuer = "itemstore"

type (
	// A Manager issues and verifies bearer tokens.
	Manager interface {
		// JWTSigningKey returns the key used to sign and verify tokens.
		JWTSigningKey() []byte
		// Token generates a signed token for the given user.
		Token(user *model.User) (string, error)
		// Authorize verifies a raw bearer token and resolves the user it was issued for.
		Authorize(token string) (*model.User, error)
		// UserFromToken resolves the user of an already-verified token.
		UserFromToken(token *jwt.Token) (*model.User, error)
	}

	manager struct {
		db database.Client
		// JWT params
		signingKey                []byte
		accessTokenExpirationTime time.Duration
	}
)

// NewManager returns a new manager.
func NewManager(db database.Client, signingKey []byte, accessTokenExpirationTime time.Duration) Manager {
	return &manager{
		db:                        db,
		signingKey:                signingKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
	}
}

func (m *manager) JWTSigningKey() []byte {
	return m.signingKey
}

func (m *manager) Token(u *model.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": Issuer,
		"sub": u.Username,
		"iat": now.Unix(), // Unix Timestamp in seconds
		"exp": now.Add(m.accessTokenExpirationTime).Unix(),
	})

	t, err := token.SignedString(m.signingKey)
	return t, errors.Wrap(err, "could not generate token")
}

func (m *manager) Authorize(raw string) (*model.User, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return m.signingKey, nil
	})
	if err != nil || !token.Valid {
		// Bad signature, undecodable payload and expired token are all the
		// same failure from the client's point of view.
		return nil, ErrInvalidAuth()
	}

	return m.UserFromToken(token)
}

func (m *manager) UserFromToken(token *jwt.Token) (*model.User, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		panic("token implementation has wrong type of claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidAuth()
	}

	user, err := m.db.FindUserByUsername(sub)
	if err != nil {
		if m.db.IsNotFound(err) {
			return nil, ErrInvalidAuth()
		}
		return nil, errors.Wrap(err, "could not get access to database")
	}

	// Check if password has changed since token was generated.
	var iat int64
	switch v := claims["iat"].(type) {
	case float64:
		iat = int64(v)
	case json.Number:
		iat, _ = v.Int64()
	}

	if iat < user.PasswordUpdatedAt {
		return nil, ErrInvalidAuth()
	}

	return user, nil
}

// ErrInvalidAuth returns the error rendered for any failed authentication.
func ErrInvalidAuth() error {
	return serror.NewWithTagCode(http.StatusUnauthorized, "invalid-auth", "Invalid login credentials.")
}
