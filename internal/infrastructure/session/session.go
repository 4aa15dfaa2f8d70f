// Package session provides the current employee identity to the workflows.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/pkg/utils"
)

// ErrNoSession is returned when no persisted user can be found
var ErrNoSession = errors.New("no user in session")

// FileSession reads the persisted user JSON ({"type":"Employee","email":"..."}) on every call
type FileSession struct {
	path string
}

// NewFileSession creates a session backed by the JSON file at path
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

// CurrentUser implements port.SessionProvider
func (s *FileSession) CurrentUser(ctx context.Context) (*entity.User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var user entity.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if err := utils.ValidateStruct(user); err != nil {
		return nil, fmt.Errorf("invalid session user: %w", err)
	}
	return &user, nil
}

// Save persists user at the session path
func (s *FileSession) Save(user entity.User) error {
	if err := utils.ValidateStruct(user); err != nil {
		return fmt.Errorf("invalid session user: %w", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}

// StaticSession always returns the same employee
type StaticSession struct {
	user entity.User
}

// NewStaticSession creates a session for an employee email
func NewStaticSession(email string) (*StaticSession, error) {
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	return &StaticSession{user: entity.User{Type: "Employee", Email: email}}, nil
}

// CurrentUser implements port.SessionProvider
func (s *StaticSession) CurrentUser(ctx context.Context) (*entity.User, error) {
	user := s.user
	return &user, nil
}

var (
	_ port.SessionProvider = (*FileSession)(nil)
	_ port.SessionProvider = (*StaticSession)(nil)
)
