package session_test

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acarli/itemstore/internal/database"
	"github.com/acarli/itemstore/internal/model"
	"github.com/acarli/itemstore/internal/serror"
	"github.com/acarli/itemstore/internal/server/session"
)

func TestManagerTokenRoundTrip(t *testing.T) {
	db, user, cleanup := setup(t)
	defer cleanup()

	m := session.NewManager(db, []byte("secret"), 30*time.Minute)

	token, err := m.Token(user)
	require.NoError(t, err)
	assert.Regexp(t, `.*\..*\..*`, token)

	subject, err := m.Authorize(token)
	require.NoError(t, err)
	assert.Equal(t, user.Username, subject.Username)
}

func TestManagerAuthorizeExpired(t *testing.T) {
	db, user, cleanup := setup(t)
	defer cleanup()

	m := session.NewManager(db, []byte("secret"), -time.Minute)

	token, err := m.Token(user)
	require.NoError(t, err)

	_, err = m.Authorize(token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, serror.StatusCode(err))
}

func TestManagerAuthorizeBadToken(t *testing.T) {
	db, user, cleanup := setup(t)
	defer cleanup()

	m := session.NewManager(db, []byte("secret"), 30*time.Minute)

	_, err := m.Authorize("not-a-token")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, serror.StatusCode(err))

	// Signed with another key.
	other := session.NewManager(db, []byte("other-secret"), 30*time.Minute)
	token, err := other.Token(user)
	require.NoError(t, err)

	_, err = m.Authorize(token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, serror.StatusCode(err))
}

func TestManagerAuthorizeUnknownSubject(t *testing.T) {
	db, _, cleanup := setup(t)
	defer cleanup()

	m := session.NewManager(db, []byte("secret"), 30*time.Minute)

	token, err := m.Token(&model.User{Username: "nobody"})
	require.NoError(t, err)

	_, err = m.Authorize(token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, serror.StatusCode(err))
}

func TestManagerAuthorizeRevoked(t *testing.T) {
	db, user, cleanup := setup(t)
	defer cleanup()

	m := session.NewManager(db, []byte("secret"), 30*time.Minute)

	token, err := m.Token(user)
	require.NoError(t, err)

	// A password change after issuance revokes the token.
	user.PasswordUpdatedAt = time.Now().Add(time.Hour).Unix()
	require.NoError(t, db.Save(user))

	_, err = m.Authorize(token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, serror.StatusCode(err))
}

func setup(t *testing.T) (database.Client, *model.User, func()) {
	tmpfile, err := os.CreateTemp("", "itemstore.*.db")
	require.NoError(t, err)
	filename := tmpfile.Name()
	tmpfile.Close()

	db, err := database.StormOpen(filename)
	require.NoError(t, err)

	user := &model.User{Username: "carlos"}
	user.PasswordUpdatedAt = time.Now().Add(-12 * time.Hour).Unix()
	require.NoError(t, db.Save(user))

	return db, user, func() {
		db.Close()
		os.RemoveAll(filename)
	}
}
