// Package registry maps field types to their definitions: palette metadata,
// the default props a new component starts with, and the config validator the
// builder runs on edits. Render and configuration hooks are carried as opaque
// values for the presentation layer.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// ErrUnknownType is returned when no definition is registered for a type.
var ErrUnknownType = errors.New("registry: unknown field type")

// ConfigError reports a props configuration rejected by a definition.
type ConfigError struct {
	Type    model.FieldType
	Message string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Definition describes one field kind.
type Definition struct {
	Type           model.FieldType
	Title          string
	Description    string
	Icon           string
	DefaultConfig  model.Props
	ValidateConfig func(model.Props) error
	Render         any
	Configure      any
}

// NewProps returns a deep copy of the default config.
func (d Definition) NewProps() model.Props {
	props := d.DefaultConfig.Clone()
	if props.Settings == nil {
		props.Settings = model.NewSettings(d.Type)
	}
	return props
}

// Validate runs the config validator, if any.
func (d Definition) Validate(props model.Props) error {
	if d.ValidateConfig == nil {
		return nil
	}
	return d.ValidateConfig(props)
}

// Registry holds field definitions keyed by type. It is safe for concurrent
// use; re-registering a type replaces the previous definition in place.
type Registry struct {
	mu    sync.RWMutex
	defs  map[model.FieldType]Definition
	order []model.FieldType
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{defs: make(map[model.FieldType]Definition)}
}

// NewWithBuiltins constructs a registry with the built-in field kinds.
func NewWithBuiltins() *Registry {
	reg := New()
	RegisterBuiltins(reg)
	return reg
}

// Register installs def under t. Empty types are ignored.
func (r *Registry) Register(t model.FieldType, def Definition) {
	if r == nil || strings.TrimSpace(string(t)) == "" {
		return
	}
	if def.Type == "" {
		def.Type = t
	}
	def.Icon = SanitizeIcon(def.Icon)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defs == nil {
		r.defs = make(map[model.FieldType]Definition)
	}
	if _, exists := r.defs[t]; !exists {
		r.order = append(r.order, t)
	}
	r.defs[t] = def
}

// Unregister removes the definition for t.
func (r *Registry) Unregister(t model.FieldType) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[t]; !exists {
		return
	}
	delete(r.defs, t)
	for idx, candidate := range r.order {
		if candidate == t {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
}

// Get returns the definition registered for t.
func (r *Registry) Get(t model.FieldType) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[t]
	return def, ok
}

// All returns every definition in registration order.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.defs[t])
	}
	return out
}

// IsRegistered reports whether t has a definition.
func (r *Registry) IsRegistered(t model.FieldType) bool {
	_, ok := r.Get(t)
	return ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Reset removes every definition.
func (r *Registry) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = make(map[model.FieldType]Definition)
	r.order = nil
}

// NewProps returns fresh default props for t.
func (r *Registry) NewProps(t model.FieldType) (model.Props, error) {
	def, ok := r.Get(t)
	if !ok {
		return model.Props{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return def.NewProps(), nil
}

// ValidateConfig validates props against the definition for t.
func (r *Registry) ValidateConfig(t model.FieldType, props model.Props) error {
	def, ok := r.Get(t)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return def.Validate(props)
}

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Default returns the process-wide registry, creating it empty on first use.
// Call RegisterBuiltins(Default()) during start-up to install the built-ins.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg == nil {
		defaultReg = New()
	}
	return defaultReg
}

// ResetDefault discards the process-wide registry. Intended for tests.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultReg = nil
}
