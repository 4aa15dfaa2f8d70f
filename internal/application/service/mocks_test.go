package service

import (
	"context"
	"sync"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/domain/event"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

type mockStore struct {
	listFunc   func(ctx context.Context) ([]entity.Bill, error)
	createFunc func(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error)
	updateFunc func(ctx context.Context, req port.UpdateRequest) (*entity.Bill, error)

	mu      sync.Mutex
	creates []entity.ReceiptUpload
	updates []port.UpdateRequest
}

func (m *mockStore) List(ctx context.Context) ([]entity.Bill, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockStore) Create(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error) {
	m.mu.Lock()
	m.creates = append(m.creates, upload)
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(ctx, upload)
	}
	return &entity.CreatedFile{FileURL: "https://localhost:3456/images/test.jpg", Key: "1234"}, nil
}

func (m *mockStore) Update(ctx context.Context, req port.UpdateRequest) (*entity.Bill, error) {
	m.mu.Lock()
	m.updates = append(m.updates, req)
	m.mu.Unlock()
	if m.updateFunc != nil {
		return m.updateFunc(ctx, req)
	}
	return &entity.Bill{ID: req.Selector}, nil
}

func (m *mockStore) createCalls() []entity.ReceiptUpload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.ReceiptUpload(nil), m.creates...)
}

func (m *mockStore) updateCalls() []port.UpdateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]port.UpdateRequest(nil), m.updates...)
}

type mockSession struct {
	user *entity.User
	err  error
}

func (m *mockSession) CurrentUser(ctx context.Context) (*entity.User, error) {
	return m.user, m.err
}

type mockUI struct {
	warnings []string
	cleared  int
	routes   []string
	reported []error
}

func (m *mockUI) Warn(ctx context.Context, message string) {
	m.warnings = append(m.warnings, message)
}

func (m *mockUI) ClearFileInput(ctx context.Context) {
	m.cleared++
}

func (m *mockUI) Navigate(ctx context.Context, route string) {
	m.routes = append(m.routes, route)
}

func (m *mockUI) Report(ctx context.Context, err error) {
	m.reported = append(m.reported, err)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockPublisher) Publish(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockPublisher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]event.Type, len(m.events))
	for i, evt := range m.events {
		types[i] = evt.Type
	}
	return types
}
