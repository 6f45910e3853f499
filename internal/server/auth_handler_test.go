package server_test

import (
	"net/http"
	"testing"

	"github.com/appleboy/gofight/v2"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fastjson"

	"github.com/acarli/itemstore/internal/server/session"
)

func TestRequestLogin(t *testing.T) {
	engine, ctrl, r, cleanup := setup()
	defer cleanup()
	user := createUser(ctrl)

	r.POST("/login").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"message":"Could not get credentials."}}`, r.Body.String())
	})

	params := gofight.H{
		"username": "",
		"password": "",
	}

	r.POST("/login").SetForm(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"message":"No username or password provided."}}`, r.Body.String())
	})

	// An unknown username and a wrong password must render the same response.
	params["username"] = "nobody"
	params["password"] = "password123"
	r.POST("/login").SetForm(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid login credentials."}}`, r.Body.String())
	})

	params["username"] = user.Username
	params["password"] = "wrongpassword"
	r.POST("/login").SetForm(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid login credentials."}}`, r.Body.String())
	})

	params["password"] = "password123"
	r.POST("/login").SetForm(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)

		token := string(v.GetStringBytes("access_token"))
		assert.Regexp(t, `.*\..*\..*`, token)
		assert.Equal(t, "bearer", string(v.GetStringBytes("token_type")))

		// The token resolves back to the user it was issued for.
		sessions := session.NewManager(ctrl.Database, ctrl.SigningKey, ctrl.AccessTokenExpirationTime)
		subject, err := sessions.Authorize(token)
		assert.NoError(t, err)
		assert.Equal(t, user.Username, subject.Username)
	})
}
