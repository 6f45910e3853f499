package service

import (
	argon2 "github.com/mdouchement/simple-argon2"
	"github.com/pkg/errors"

	"github.com/acarli/itemstore/internal/database"
	"github.com/acarli/itemstore/internal/server/session"
)

type (
	// A UserService is a service used for handling user authentication.
	UserService interface {
		Login(params LoginParams) (Render, error)
	}

	// LoginParams are used to login a user.
	LoginParams struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}

	userService struct {
		db       database.Client
		sessions session.Manager
	}
)

// NewUser returns a new UserService.
func NewUser(db database.Client, sessions session.Manager) UserService {
	return &userService{
		db:       db,
		sessions: sessions,
	}
}

// Login checks the given credentials and generates a bearer token on success.
// An unknown username and a wrong password are indistinguishable in the response.
func (s *userService) Login(params LoginParams) (Render, error) {
	// Retrieve user
	user, err := s.db.FindUserByUsername(params.Username)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, session.ErrInvalidAuth()
		}
		return nil, errors.Wrap(err, "could not get user")
	}

	// Verify password
	if err = argon2.CompareHashAndPasswordString(user.Password, params.Password); err != nil {
		if err == argon2.ErrMismatchedHashAndPassword {
			return nil, session.ErrInvalidAuth()
		}
		return nil, errors.Wrap(err, "could not validate password")
	}

	token, err := s.sessions.Token(user)
	if err != nil {
		return nil, err
	}

	return M{
		"access_token": token,
		"token_type":   "bearer",
	}, nil
}
