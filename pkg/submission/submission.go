// Package submission turns live form values into a validated value map ready
// for an external sink. Hidden components are dropped before validation.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/validation"
	"github.com/goliatone/go-formbuilder/pkg/visibility"
)

// ErrInvalid is returned by Submit when validation fails.
var ErrInvalid = errors.New("submission: values failed validation")

// Result is the outcome of preparing a submission. Values and Errors are
// keyed by component id.
type Result struct {
	Values map[string]any      `json:"values"`
	Hidden []string            `json:"hidden"`
	Errors map[string][]string `json:"errors"`
	Valid  bool                `json:"valid"`
}

// ByName re-keys Values by each component's field name, falling back to the
// component id when the name is blank.
func (r Result) ByName(schema model.FormSchema) map[string]any {
	out := make(map[string]any, len(r.Values))
	for _, comp := range schema.Components {
		value, ok := r.Values[comp.ID]
		if !ok {
			continue
		}
		out[fieldName(comp)] = value
	}
	return out
}

// Option configures Prepare.
type Option func(*settings)

type settings struct {
	evaluator visibility.Evaluator
	sanitize  func(string) string
	defaults  bool
}

// WithEvaluator replaces the visibility evaluator.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(s *settings) {
		if eval != nil {
			s.evaluator = eval
		}
	}
}

// WithSanitizer replaces the rich text sanitizer.
func WithSanitizer(fn func(string) string) Option {
	return func(s *settings) {
		if fn != nil {
			s.sanitize = fn
		}
	}
}

// WithoutDefaults stops absent values from being filled with the
// component's default value.
func WithoutDefaults() Option {
	return func(s *settings) {
		s.defaults = false
	}
}

// Prepare evaluates visibility against values, drops hidden components,
// fills absent values with defaults, sanitizes rich text and validates every
// visible component.
func Prepare(schema model.FormSchema, values map[string]any, options ...Option) Result {
	cfg := settings{evaluator: visibility.Default, sanitize: SanitizeRichText, defaults: true}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	res := Result{
		Values: map[string]any{},
		Hidden: []string{},
		Errors: map[string][]string{},
	}
	for _, comp := range schema.Components {
		if !cfg.evaluator.Visible(comp.Props.VisibilityRule, values) {
			res.Hidden = append(res.Hidden, comp.ID)
			continue
		}

		value, present := values[comp.ID]
		if !present && cfg.defaults && comp.Props.DefaultValue != nil {
			value, present = comp.Props.DefaultValue, true
		}
		if text, ok := value.(string); ok && comp.Type == model.FieldTypeRichText {
			value = cfg.sanitize(text)
		}

		if check := validation.ValidateProps(comp.Props, value); !check.Valid {
			res.Errors[comp.ID] = check.Errors
		}
		if present {
			res.Values[comp.ID] = value
		}
	}
	res.Valid = len(res.Errors) == 0
	return res
}

var (
	richTextPolicyOnce sync.Once
	richTextPolicy     *bluemonday.Policy
)

// SanitizeRichText strips unsafe markup from user-authored HTML.
func SanitizeRichText(raw string) string {
	richTextPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		richTextPolicy = policy
	})
	return strings.TrimSpace(richTextPolicy.Sanitize(raw))
}

// Submission is the payload handed to a Sink.
type Submission struct {
	ID          string         `json:"id"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Values      map[string]any `json:"values"`
	ByName      map[string]any `json:"byName"`
}

// Sink receives validated submissions. Delivery is outside this module.
type Sink interface {
	Submit(ctx context.Context, sub Submission) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, sub Submission) error

// Submit calls fn.
func (fn SinkFunc) Submit(ctx context.Context, sub Submission) error {
	return fn(ctx, sub)
}

// LogSink writes submissions to a logger.
type LogSink struct {
	Logger *slog.Logger
}

// Submit logs the submission at info level.
func (s LogSink) Submit(ctx context.Context, sub Submission) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "submission received", "id", sub.ID, "fields", len(sub.Values))
	return nil
}

// Submit prepares values and, when they are valid, hands them to sink. An
// invalid result is returned together with ErrInvalid.
func Submit(ctx context.Context, sink Sink, schema model.FormSchema, values map[string]any, options ...Option) (Result, error) {
	res := Prepare(schema, values, options...)
	if !res.Valid {
		return res, ErrInvalid
	}
	if sink == nil {
		return res, nil
	}
	sub := Submission{
		ID:          uuid.NewString(),
		SubmittedAt: time.Now().UTC(),
		Values:      res.Values,
		ByName:      res.ByName(schema),
	}
	if err := sink.Submit(ctx, sub); err != nil {
		return res, fmt.Errorf("submission: deliver %s: %w", sub.ID, err)
	}
	return res, nil
}

func fieldName(comp model.Component) string {
	if name := strings.TrimSpace(comp.Props.Name); name != "" {
		return name
	}
	return comp.ID
}
