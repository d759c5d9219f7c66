// Package preview fills a form interactively in the terminal, step by step,
// honouring visibility rules and re-prompting on validation errors.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-formbuilder/internal/coerce"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/submission"
	"github.com/goliatone/go-formbuilder/pkg/validation"
	"github.com/goliatone/go-formbuilder/pkg/visibility"
)

// Option configures a Runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithEvaluator overrides the visibility evaluator.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(r *Runner) {
		if eval != nil {
			r.evaluator = eval
		}
	}
}

// WithMaxAttempts bounds how often one field is re-prompted. Zero means no
// limit.
func WithMaxAttempts(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxAttempts = n
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner walks a schema and collects answers through a PromptDriver.
type Runner struct {
	driver      PromptDriver
	evaluator   visibility.Evaluator
	maxAttempts int
	logger      *slog.Logger
}

// New constructs a runner with the survey driver and default evaluator.
func New(options ...Option) *Runner {
	r := &Runner{
		driver:    NewSurveyDriver(),
		evaluator: visibility.Default,
		logger:    slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Run prompts every visible component, steps in order and components in
// order within each step. Visibility is evaluated against the answers given
// so far. The collected answers are returned as a prepared submission.
func (r *Runner) Run(ctx context.Context, schema model.FormSchema) (submission.Result, error) {
	if ctx == nil {
		return submission.Result{}, errors.New("preview: context is required")
	}
	values := map[string]any{}

	steps := schema.OrderedSteps()
	for idx, step := range steps {
		if len(steps) > 1 {
			title := step.Title
			if title == "" {
				title = step.ID
			}
			if err := r.driver.Info(ctx, fmt.Sprintf("Step %d of %d: %s", idx+1, len(steps), title)); err != nil {
				return submission.Result{}, err
			}
		}
		for _, comp := range schema.ComponentsInStep(step.ID) {
			if !r.evaluator.Visible(comp.Props.VisibilityRule, values) {
				r.logger.Debug("preview: component hidden", "component", comp.ID)
				continue
			}
			value, err := r.answer(ctx, comp)
			if err != nil {
				return submission.Result{}, err
			}
			if value != nil {
				values[comp.ID] = value
			}
		}
	}

	return submission.Prepare(schema, values, submission.WithEvaluator(r.evaluator)), nil
}

func (r *Runner) answer(ctx context.Context, comp model.Component) (any, error) {
	for attempt := 1; ; attempt++ {
		value, problem, err := r.prompt(ctx, comp)
		if err != nil {
			return nil, err
		}
		if problem == "" {
			res := validation.ValidateProps(comp.Props, value)
			if res.Valid {
				return value, nil
			}
			problem = strings.Join(res.Errors, ", ")
		}

		if r.maxAttempts > 0 && attempt >= r.maxAttempts {
			return nil, fmt.Errorf("%w: %s", ErrTooManyAttempts, displayLabel(comp))
		}
		if err := r.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", displayLabel(comp), problem)); err != nil {
			return nil, err
		}
	}
}

// prompt asks once. A non-empty problem means the raw answer could not be
// converted and the field should be asked again.
func (r *Runner) prompt(ctx context.Context, comp model.Component) (any, string, error) {
	props := comp.Props
	message := displayLabel(comp)
	if props.Required {
		message += " *"
	}
	help := props.HelperText
	defaultText := ""
	if props.DefaultValue != nil {
		defaultText = coerce.String(props.DefaultValue)
	}

	switch comp.Type {
	case model.FieldTypeCheckbox:
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message, Help: help, Default: coerce.Truthy(props.DefaultValue)})
		return ok, "", err

	case model.FieldTypeTextarea, model.FieldTypeRichText:
		text, err := r.driver.TextArea(ctx, TextAreaConfig{Message: message, Help: help, Default: defaultText})
		return blankAsNil(text), "", err

	case model.FieldTypeSlider:
		if slider, ok := props.Slider(); ok && slider.Min != nil && slider.Max != nil {
			help = strings.TrimSpace(fmt.Sprintf("%s (%s to %s)", help, coerce.FormatNumber(*slider.Min), coerce.FormatNumber(*slider.Max)))
		}
		text, err := r.driver.Input(ctx, InputConfig{Message: message, Help: help, Default: defaultText})
		if err != nil || strings.TrimSpace(text) == "" {
			return nil, "", err
		}
		n, convErr := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if convErr != nil {
			return nil, "enter a number", nil
		}
		return n, "", nil

	case model.FieldTypeSelect, model.FieldTypeRadio:
		if choice, ok := props.Choice(); ok && len(choice.Options) > 0 {
			return r.promptChoice(ctx, message, help, choice, props.DefaultValue)
		}

	case model.FieldTypeFileUpload:
		text, err := r.driver.Input(ctx, InputConfig{Message: message, Help: help, Default: defaultText})
		if err != nil {
			return nil, "", err
		}
		if file, ok := props.File(); ok && file.Multiple {
			var paths []any
			for _, part := range strings.Split(text, ",") {
				if trimmed := strings.TrimSpace(part); trimmed != "" {
					paths = append(paths, trimmed)
				}
			}
			if len(paths) == 0 {
				return nil, "", nil
			}
			return paths, "", nil
		}
		return blankAsNil(text), "", nil
	}

	text, err := r.driver.Input(ctx, InputConfig{Message: message, Help: help, Default: defaultText})
	return blankAsNil(text), "", err
}

func (r *Runner) promptChoice(ctx context.Context, message, help string, choice *model.ChoiceSettings, fallback any) (any, string, error) {
	labels := make([]string, len(choice.Options))
	defaultIdx := -1
	for i, opt := range choice.Options {
		labels[i] = opt.Label
		if labels[i] == "" {
			labels[i] = coerce.String(opt.Value)
		}
		if fallback != nil && coerce.String(opt.Value) == coerce.String(fallback) {
			defaultIdx = i
		}
	}

	labels = distinctLabels(labels, choice.Options)

	if choice.Multiple {
		var defaults []int
		if defaultIdx >= 0 {
			defaults = []int{defaultIdx}
		}
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{Message: message, Help: help, Options: labels, Defaults: defaults})
		if err != nil {
			return nil, "", err
		}
		var picked []any
		for _, idx := range indices {
			if idx < 0 || idx >= len(choice.Options) {
				return nil, "invalid selection", nil
			}
			picked = append(picked, choice.Options[idx].Value)
		}
		if len(picked) == 0 {
			return nil, "", nil
		}
		return picked, "", nil
	}

	idx, err := r.driver.Select(ctx, SelectConfig{Message: message, Help: help, Options: labels, DefaultIndex: defaultIdx})
	if err != nil {
		return nil, "", err
	}
	if idx < 0 || idx >= len(choice.Options) {
		return nil, "invalid selection", nil
	}
	return choice.Options[idx].Value, "", nil
}

// distinctLabels makes repeated option labels unique so that an answer
// reported by label maps back to one option. Repeats get the option value
// appended, then a counter if that still collides.
func distinctLabels(labels []string, options []model.Option) []string {
	counts := make(map[string]int, len(labels))
	for _, label := range labels {
		counts[label]++
	}
	out := make([]string, len(labels))
	used := make(map[string]bool, len(labels))
	for i, label := range labels {
		candidate := label
		if counts[label] > 1 {
			candidate = fmt.Sprintf("%s (%s)", label, coerce.String(options[i].Value))
		}
		base := candidate
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s #%d", base, n)
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

func displayLabel(comp model.Component) string {
	if comp.Props.Label != "" {
		return comp.Props.Label
	}
	if comp.Props.Name != "" {
		return comp.Props.Name
	}
	return comp.ID
}

func blankAsNil(text string) any {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return text
}
