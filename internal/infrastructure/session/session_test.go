package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billed/internal/domain/entity"
)

func TestFileSession_CurrentUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"Employee","email":"a@a.tld","password":"employee"}`), 0600))

	user, err := NewFileSession(path).CurrentUser(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "a@a.tld", user.Email)
	assert.Equal(t, "Employee", user.Type)
}

func TestFileSession_Missing(t *testing.T) {
	_, err := NewFileSession(filepath.Join(t.TempDir(), "none.json")).CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileSession_InvalidEmail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"Employee"}`), 0600))

	_, err := NewFileSession(path).CurrentUser(context.Background())
	assert.Error(t, err)
}

func TestFileSession_SaveRoundTrip(t *testing.T) {
	s := NewFileSession(filepath.Join(t.TempDir(), "user.json"))
	require.NoError(t, s.Save(entity.User{Type: "Employee", Email: "b@b.tld"}))

	user, err := s.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b@b.tld", user.Email)

	assert.Error(t, s.Save(entity.User{Type: "Employee", Email: "nope"}))
}

func TestStaticSession(t *testing.T) {
	s, err := NewStaticSession("c@c.tld")
	require.NoError(t, err)

	user, err := s.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c@c.tld", user.Email)

	_, err = NewStaticSession("not-an-email")
	assert.Error(t, err)
}
