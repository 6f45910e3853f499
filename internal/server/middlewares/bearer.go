package middlewares

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/acarli/itemstore/internal/server/session"
)

// CurrentUserContextKey is the key to retrieve the current_user from echo.Context.
const CurrentUserContextKey = "current_user"

// Bearer returns a bearer-token auth middleware.
// It stores current_user into echo.Context.
func Bearer(m session.Manager) echo.MiddlewareFunc {
	check := echojwt.WithConfig(echojwt.Config{
		SigningKey: m.JWTSigningKey(),
	})(func(echo.Context) error {
		return nil
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Check token validity according to its claims. A missing header,
			// a bad signature and an expired token all render the same way.
			if err := check(c); err != nil {
				return session.ErrInvalidAuth()
			}

			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				panic("token implementation has changed")
			}

			// Find and store current_user for handlers.
			user, err := m.UserFromToken(token)
			if err != nil {
				return err
			}
			c.Set(CurrentUserContextKey, user)

			return next(c)
		}
	}
}
