package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/acarli/itemstore/internal/database"
	"github.com/acarli/itemstore/internal/serror"
	"github.com/acarli/itemstore/internal/server/service"
	"github.com/acarli/itemstore/internal/server/session"
)

// auth contains all authentication handlers.
type auth struct {
	db       database.Client
	sessions session.Manager
}

///// Login
////
//

// Login authenticates a user and returns a bearer token.
// Credentials are sent form-encoded.
func (h *auth) Login(c echo.Context) error {
	// Filter params
	var params service.LoginParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, serror.New("Could not get credentials."))
	}

	if params.Username == "" || params.Password == "" {
		return c.JSON(http.StatusBadRequest, serror.New("No username or password provided."))
	}

	service := service.NewUser(h.db, h.sessions)
	login, err := service.Login(params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, login)
}
