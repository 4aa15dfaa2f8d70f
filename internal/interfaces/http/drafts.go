package http

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/billed/internal/application/service"
	"github.com/garyjia/billed/internal/domain/workflow"
)

// ErrDraftNotFound is returned for an unknown draft id
var ErrDraftNotFound = errors.New("draft not found")

// WorkflowFactory opens a new bill workflow whose UI effects go to ui
type WorkflowFactory func(ui *Recorder) service.NewBillWorkflow

// DraftSession is one open draft with its UI recorder
type DraftSession struct {
	workflow service.NewBillWorkflow
	ui       *Recorder
	lastSeen time.Time
}

// DraftRegistry keeps the open new bill drafts by id
type DraftRegistry struct {
	mu      sync.RWMutex
	drafts  map[string]*DraftSession
	factory WorkflowFactory
	next    func() *Recorder
	now     func() time.Time
}

// NewDraftRegistry creates an empty registry
func NewDraftRegistry(factory WorkflowFactory, newRecorder func() *Recorder) *DraftRegistry {
	if newRecorder == nil {
		newRecorder = func() *Recorder { return NewRecorder(nil) }
	}
	return &DraftRegistry{
		drafts:  make(map[string]*DraftSession),
		factory: factory,
		next:    newRecorder,
		now:     time.Now,
	}
}

// Open starts a draft and returns its id
func (r *DraftRegistry) Open() (string, *DraftSession) {
	ui := r.next()
	session := &DraftSession{workflow: r.factory(ui), ui: ui}
	id := uuid.NewString()

	r.mu.Lock()
	session.lastSeen = r.now()
	r.drafts[id] = session
	r.mu.Unlock()
	return id, session
}

// Get returns the draft with the given id and marks it as in use
func (r *DraftRegistry) Get(id string) (*DraftSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	session.lastSeen = r.now()
	return session, nil
}

// Close drops a draft
func (r *DraftRegistry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(r.drafts, id)
	return nil
}

// Len returns the number of open drafts
func (r *DraftRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drafts)
}

// Sweep drops drafts left untouched for longer than maxIdle and returns their ids.
// A draft with a submission in flight is kept.
func (r *DraftRegistry) Sweep(maxIdle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	var evicted []string
	for id, session := range r.drafts {
		if !session.lastSeen.Before(cutoff) {
			continue
		}
		if session.workflow.Draft().State == workflow.StateSubmitting {
			continue
		}
		delete(r.drafts, id)
		evicted = append(evicted, id)
	}
	return evicted
}
