package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/schema"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// Storage keys. The current key holds V2 documents; the legacy key is only
// read.
const (
	KeyCurrent = "builder.schema.v2"
	KeyLegacy  = "builder.schema.v1"
)

// Target is the part of the schema store the adapter reads and replaces.
type Target interface {
	Present() model.FormSchema
	SetSchema(model.FormSchema)
	ClearSchema()
}

// ImportError reports a rejected import with a message fit for end users.
type ImportError struct {
	Message string
	Err     error
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return "persistence: import: " + e.Message
	}
	return fmt.Sprintf("persistence: import: %s: %v", e.Message, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Adapter moves schemas between a store and a KV backend.
type Adapter struct {
	kv     KV
	logger *slog.Logger
}

// NewAdapter wraps kv.
func NewAdapter(kv KV, options ...Option) *Adapter {
	a := &Adapter{kv: kv, logger: slog.Default()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// KV returns the backing store.
func (a *Adapter) KV() KV { return a.kv }

// Save writes the present schema as a V2 document under KeyCurrent.
func (a *Adapter) Save(ctx context.Context, target Target) error {
	return a.SaveSchema(ctx, target.Present())
}

// SaveSchema writes s as a V2 document under KeyCurrent.
func (a *Adapter) SaveSchema(ctx context.Context, s model.FormSchema) error {
	data, err := schema.Serialize(s)
	if err != nil {
		return fmt.Errorf("persistence: save: %w", err)
	}
	if err := a.kv.Put(ctx, KeyCurrent, data); err != nil {
		return fmt.Errorf("persistence: save: %w", err)
	}
	return nil
}

// Load restores the first stored schema that parses, trying KeyCurrent then
// KeyLegacy, and installs it into target. It reports whether a schema was
// found. Unparseable documents are skipped, not returned as errors.
func (a *Adapter) Load(ctx context.Context, target Target) (bool, error) {
	loaded, ok, err := a.LoadSchema(ctx)
	if err != nil || !ok {
		return false, err
	}
	target.SetSchema(loaded)
	return true, nil
}

// LoadSchema is Load without installing the result.
func (a *Adapter) LoadSchema(ctx context.Context) (model.FormSchema, bool, error) {
	for _, key := range []string{KeyCurrent, KeyLegacy} {
		data, err := a.kv.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return model.FormSchema{}, false, fmt.Errorf("persistence: load: %w", err)
		}
		parsed, err := schema.Parse(data)
		if err != nil {
			a.logger.Warn("persistence: stored schema rejected", "key", key, "error", err)
			continue
		}
		a.logger.Debug("persistence: schema loaded", "key", key, "components", len(parsed.Components))
		return parsed, true, nil
	}
	return model.FormSchema{}, false, nil
}

// Clear removes both stored documents and resets target.
func (a *Adapter) Clear(ctx context.Context, target Target) error {
	for _, key := range []string{KeyCurrent, KeyLegacy} {
		if err := a.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("persistence: clear: %w", err)
		}
	}
	if target != nil {
		target.ClearSchema()
	}
	return nil
}

// AutoSave saves every change published by st until the returned function is
// called. Saves are serialised and a change older than the last one saved is
// dropped, so the stored document never moves back in time. Save failures are
// logged.
func (a *Adapter) AutoSave(ctx context.Context, st *store.Store) func() {
	saver := &orderedSaver{adapter: a}
	return st.Watch(func(change store.Change) {
		saver.save(ctx, change)
	})
}

type orderedSaver struct {
	adapter *Adapter
	mu      sync.Mutex
	saved   uint64
}

func (o *orderedSaver) save(ctx context.Context, change store.Change) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if change.Version <= o.saved {
		o.adapter.logger.Debug("persistence: autosave dropped stale change", "version", change.Version, "saved", o.saved)
		return false
	}
	if err := o.adapter.SaveSchema(ctx, change.Schema); err != nil {
		o.adapter.logger.Error("persistence: autosave failed", "version", change.Version, "error", err)
		return false
	}
	o.saved = change.Version
	return true
}

// Export renders the present schema as an indented V2 document.
func (a *Adapter) Export(target Target) (string, error) {
	data, err := schema.SerializeIndent(target.Present())
	if err != nil {
		return "", fmt.Errorf("persistence: export: %w", err)
	}
	return string(data), nil
}

// Import parses text (JSON or YAML, any supported version) and installs it
// into target. On failure target is left untouched and the error is an
// *ImportError.
func (a *Adapter) Import(target Target, text string) error {
	parsed, err := schema.ParseAny([]byte(text))
	if err != nil {
		a.logger.Info("persistence: import rejected", "error", err)
		return &ImportError{Message: importMessage(err), Err: err}
	}
	target.SetSchema(parsed)
	return nil
}

func importMessage(err error) string {
	var parseErr *schema.ParseError
	if errors.As(err, &parseErr) {
		if parseErr.Path != "" {
			return fmt.Sprintf("%s (at %s)", parseErr.Reason, parseErr.Path)
		}
		return parseErr.Reason
	}
	return schema.ReasonInvalidFormat
}
