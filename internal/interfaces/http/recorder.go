package http

import (
	"context"
	"sync"

	"github.com/garyjia/billed/internal/application/port"
)

// UIEvents are the UI effects collected while serving one request
type UIEvents struct {
	Warnings         []string `json:"warnings,omitempty"`
	FileInputCleared bool     `json:"fileInputCleared,omitempty"`
	NavigateTo       string   `json:"navigateTo,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// Recorder stands in for the browser: it implements Notifier, Navigator and
// ErrorReporter by remembering what was asked so the response can carry it.
// Reported errors are also forwarded to next.
type Recorder struct {
	mu     sync.Mutex
	events UIEvents
	next   port.ErrorReporter
}

// NewRecorder creates a Recorder. next may be nil.
func NewRecorder(next port.ErrorReporter) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Warn(ctx context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events.Warnings = append(r.events.Warnings, message)
}

func (r *Recorder) ClearFileInput(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events.FileInputCleared = true
}

func (r *Recorder) Navigate(ctx context.Context, route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events.NavigateTo = route
}

func (r *Recorder) Report(ctx context.Context, err error) {
	r.mu.Lock()
	r.events.Error = err.Error()
	r.mu.Unlock()

	if r.next != nil {
		r.next.Report(ctx, err)
	}
}

// Drain returns the collected events and resets the recorder
func (r *Recorder) Drain() UIEvents {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = UIEvents{}
	return events
}

var (
	_ port.Notifier      = (*Recorder)(nil)
	_ port.Navigator     = (*Recorder)(nil)
	_ port.ErrorReporter = (*Recorder)(nil)
)
