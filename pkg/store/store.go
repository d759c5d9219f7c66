// Package store holds the schema being edited together with its linear
// undo/redo history. Every editing command either commits a new normalized
// snapshot or does nothing; commands never fail.
package store

import (
	"log/slog"
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/schema"
)

// Selection tracks the component and step currently focused in the editor.
// It is not part of the undo history.
type Selection struct {
	ComponentID string `json:"selectedComponentId,omitempty"`
	StepID      string `json:"selectedStepId,omitempty"`
}

// Listener receives the present schema after each change.
type Listener func(model.FormSchema)

// Change is one published state change. Version increases by one with every
// change, so listeners running concurrently can discard stale snapshots.
type Change struct {
	Version uint64
	Schema  model.FormSchema
}

// ChangeListener receives every change together with its version.
type ChangeListener func(Change)

// State is a consistent view of the store taken under a single lock.
type State struct {
	Schema    model.FormSchema
	Selection Selection
	CanUndo   bool
	CanRedo   bool
	Version   uint64
}

// Option configures a Store.
type Option func(*Store)

// WithHistoryLimit caps the number of undo snapshots kept. The oldest
// snapshots are dropped first. Zero or negative means unlimited.
func WithHistoryLimit(limit int) Option {
	return func(s *Store) {
		if limit < 0 {
			limit = 0
		}
		s.historyLimit = limit
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchema seeds the store with an initial schema instead of the default
// single empty step.
func WithSchema(initial model.FormSchema) Option {
	return func(s *Store) {
		s.present = schema.Normalize(initial)
	}
}

// Store is the editing state machine. past is ordered oldest first and
// future is ordered so that its last element is the next redo.
type Store struct {
	mu           sync.Mutex
	past         []model.FormSchema
	present      model.FormSchema
	future       []model.FormSchema
	selection    Selection
	historyLimit int
	version      uint64
	logger       *slog.Logger

	listenerMu sync.Mutex
	listeners  map[int]ChangeListener
	nextID     int
}

// New returns a store holding one default step and no components.
func New(options ...Option) *Store {
	s := &Store{
		present:   schema.Normalize(model.NewSchema()),
		logger:    slog.Default(),
		listeners: map[int]ChangeListener{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.selection = Selection{StepID: s.present.Steps[0].ID}
	return s
}

// Present returns a deep copy of the current schema.
func (s *Store) Present() model.FormSchema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.present.Clone()
}

// State returns the schema, selection, history flags and version as of one
// instant.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Schema:    s.present.Clone(),
		Selection: s.selection,
		CanUndo:   len(s.past) > 0,
		CanRedo:   len(s.future) > 0,
		Version:   s.version,
	}
}

// Version returns the number of changes published so far.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Selection returns the current selection.
func (s *Store) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// CanUndo reports whether Undo would change state.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.past) > 0
}

// CanRedo reports whether Redo would change state.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.future) > 0
}

// PastLen returns the number of undo snapshots.
func (s *Store) PastLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.past)
}

// FutureLen returns the number of redo snapshots.
func (s *Store) FutureLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.future)
}

// ComponentsInStep returns copies of a step's components in order.
func (s *Store) ComponentsInStep(stepID string) []model.Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	comps := s.present.ComponentsInStep(stepID)
	for i := range comps {
		comps[i] = comps[i].Clone()
	}
	return comps
}

// Subscribe registers fn to run after every schema change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	return s.Watch(func(c Change) { fn(c.Schema) })
}

// Watch registers fn to run after every change. Listeners run outside the
// store lock, so concurrent commands may deliver changes out of order; use
// Change.Version to detect that. The returned function removes the
// subscription.
func (s *Store) Watch(fn ChangeListener) func() {
	if fn == nil {
		return func() {}
	}
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenerMu.Lock()
			delete(s.listeners, id)
			s.listenerMu.Unlock()
		})
	}
}

// Undo restores the most recent past snapshot.
func (s *Store) Undo() bool {
	s.mu.Lock()
	if len(s.past) == 0 {
		s.mu.Unlock()
		s.logger.Debug("store: command ignored", "command", "undo", "reason", "empty history")
		return false
	}
	last := len(s.past) - 1
	s.future = append(s.future, s.present)
	s.present = s.past[last]
	s.past = s.past[:last]
	s.fixSelection()
	s.version++
	change := Change{Version: s.version, Schema: s.present.Clone()}
	future := len(s.future)
	s.mu.Unlock()

	s.logger.Debug("store: undo", "past", last, "future", future)
	s.notify(change)
	return true
}

// Redo reapplies the most recently undone snapshot.
func (s *Store) Redo() bool {
	s.mu.Lock()
	if len(s.future) == 0 {
		s.mu.Unlock()
		s.logger.Debug("store: command ignored", "command", "redo", "reason", "nothing to redo")
		return false
	}
	last := len(s.future) - 1
	s.past = append(s.past, s.present)
	s.present = s.future[last]
	s.future = s.future[:last]
	s.fixSelection()
	s.version++
	change := Change{Version: s.version, Schema: s.present.Clone()}
	past := len(s.past)
	s.mu.Unlock()

	s.logger.Debug("store: redo", "past", past, "future", last)
	s.notify(change)
	return true
}

// SetSchema installs next as a freshly loaded schema and empties history.
func (s *Store) SetSchema(next model.FormSchema) {
	s.reset("set_schema", schema.Normalize(next))
}

// ClearSchema resets to the initial single-step schema and empties history.
func (s *Store) ClearSchema() {
	s.reset("clear_schema", schema.Normalize(model.NewSchema()))
}

func (s *Store) reset(command string, next model.FormSchema) {
	s.mu.Lock()
	s.past = nil
	s.future = nil
	s.present = next
	s.fixSelection()
	s.version++
	change := Change{Version: s.version, Schema: s.present.Clone()}
	s.mu.Unlock()

	s.logger.Debug("store: reset", "command", command, "components", len(change.Schema.Components))
	s.notify(change)
}

// mutate applies fn to a working copy of present and commits the result when
// fn reports a change.
func (s *Store) mutate(command string, fn func(*model.FormSchema) bool) bool {
	s.mu.Lock()
	working := s.present.Clone()
	if !fn(&working) {
		s.mu.Unlock()
		s.logger.Debug("store: command ignored", "command", command)
		return false
	}

	s.past = append(s.past, s.present)
	if s.historyLimit > 0 && len(s.past) > s.historyLimit {
		s.past = append([]model.FormSchema(nil), s.past[len(s.past)-s.historyLimit:]...)
	}
	s.present = schema.Normalize(working)
	s.future = nil
	s.fixSelection()
	s.version++
	change := Change{Version: s.version, Schema: s.present.Clone()}
	past := len(s.past)
	s.mu.Unlock()

	s.logger.Debug("store: commit", "command", command, "past", past, "version", change.Version)
	s.notify(change)
	return true
}

// fixSelection drops a selected component that no longer exists and moves a
// dangling step selection to the first step. Callers hold mu.
func (s *Store) fixSelection() {
	if s.selection.ComponentID != "" {
		if _, ok := s.present.Component(s.selection.ComponentID); !ok {
			s.selection.ComponentID = ""
		}
	}
	if !s.present.HasStep(s.selection.StepID) && len(s.present.Steps) > 0 {
		s.selection.StepID = s.present.Steps[0].ID
	}
}

func (s *Store) notify(change Change) {
	s.listenerMu.Lock()
	listeners := make([]ChangeListener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.listenerMu.Unlock()

	for idx, fn := range listeners {
		if idx == len(listeners)-1 {
			fn(change)
			continue
		}
		fn(Change{Version: change.Version, Schema: change.Schema.Clone()})
	}
}
