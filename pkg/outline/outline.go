// Package outline renders a human-readable summary of a form schema: steps in
// order, each field with its type, required marker, constraints and
// visibility rule.
package outline

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formbuilder/internal/coerce"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/registry"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// Format selects the outline template.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

var templateNames = map[Format]string{
	FormatText:     "outline.tpl",
	FormatMarkdown: "markdown.tpl",
}

// TemplatesFS exposes the built-in outline templates so callers can copy or
// extend them and pass the result back through WithTemplates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Formats lists the supported outline formats.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown}
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	title     string
	registry  *registry.Registry
	templates fs.FS
}

// WithTitle sets the heading printed above the outline.
func WithTitle(title string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			cfg.title = trimmed
		}
	}
}

// WithRegistry resolves type titles through reg.
func WithRegistry(reg *registry.Registry) Option {
	return func(cfg *config) {
		if reg != nil {
			cfg.registry = reg
		}
	}
}

// WithTemplates overrides the template files. The filesystem must contain
// outline.tpl and markdown.tpl at its root.
func WithTemplates(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templates = files
		}
	}
}

// Renderer executes the outline templates. It is safe for concurrent use.
type Renderer struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	title     string
	registry  *registry.Registry
}

// New constructs a Renderer backed by the embedded templates.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{title: "Form"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = registry.NewWithBuiltins()
	}
	if cfg.templates == nil {
		cfg.templates = TemplatesFS()
	}
	registerDefaultFilters()

	return &Renderer{
		set:       pongo2.NewSet("formbuilder-outline", pongo2.NewFSLoader(cfg.templates)),
		templates: make(map[string]*pongo2.Template),
		title:     cfg.title,
		registry:  cfg.registry,
	}, nil
}

// Render writes the outline of schema in the requested format and returns it.
func (r *Renderer) Render(schema model.FormSchema, format Format, out ...io.Writer) (string, error) {
	if r == nil || r.set == nil {
		return "", errors.New("outline: renderer is nil")
	}
	if format == "" {
		format = FormatText
	}
	name, ok := templateNames[format]
	if !ok {
		return "", fmt.Errorf("outline: unsupported format %q", format)
	}
	tmpl, err := r.template(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(r.context(schema), &buf); err != nil {
		return "", fmt.Errorf("outline: execute template %q: %w", name, err)
	}
	rendered := buf.String()
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// Render is a convenience wrapper around a default text Renderer.
func Render(schema model.FormSchema, reg *registry.Registry) (string, error) {
	renderer, err := New(WithRegistry(reg))
	if err != nil {
		return "", err
	}
	return renderer.Render(schema, FormatText)
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	if tmpl, ok := r.templates[name]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("outline: load template %q: %w", name, err)
	}
	r.templates[name] = tmpl
	return tmpl, nil
}

// StepView is the template view of one step.
type StepView struct {
	Index      int
	ID         string
	Title      string
	Components []ComponentView
}

// ComponentView is the template view of one component.
type ComponentView struct {
	ID        string
	Label     string
	Name      string
	TypeTitle string
	Required  bool
	Details   []string
}

func (r *Renderer) context(schema model.FormSchema) pongo2.Context {
	steps := schema.OrderedSteps()
	views := make([]StepView, 0, len(steps))
	for idx, step := range steps {
		view := StepView{Index: idx + 1, ID: step.ID, Title: step.Title}
		if view.Title == "" {
			view.Title = step.ID
		}
		for _, comp := range schema.ComponentsInStep(step.ID) {
			view.Components = append(view.Components, r.componentView(schema, comp))
		}
		views = append(views, view)
	}
	return pongo2.Context{
		"title":   r.title,
		"summary": fmt.Sprintf("%s, %s", plural(len(steps), "step"), plural(len(schema.Components), "field")),
		"steps":   views,
	}
}

func (r *Renderer) componentView(schema model.FormSchema, comp model.Component) ComponentView {
	props := comp.Props
	view := ComponentView{
		ID:        comp.ID,
		Label:     labelOf(comp),
		Name:      props.Name,
		TypeTitle: string(comp.Type),
		Required:  props.Required,
	}
	if view.Name == "" {
		view.Name = comp.ID
	}
	if def, ok := r.registry.Get(comp.Type); ok && def.Title != "" {
		view.TypeTitle = def.Title
	}

	if props.HelperText != "" {
		view.Details = append(view.Details, "help: "+props.HelperText)
	}
	if props.DefaultValue != nil {
		view.Details = append(view.Details, "default: "+coerce.String(props.DefaultValue))
	}
	view.Details = append(view.Details, settingDetails(props)...)
	for _, rule := range props.ValidationRules {
		view.Details = append(view.Details, ruleDetail(rule))
	}
	if props.VisibilityRule != nil {
		view.Details = append(view.Details, visibilityDetail(schema, *props.VisibilityRule))
	}
	return view
}

func settingDetails(props model.Props) []string {
	var out []string
	if text, ok := props.Text(); ok {
		if text.MinLength != nil {
			out = append(out, fmt.Sprintf("min length: %d", *text.MinLength))
		}
		if text.MaxLength != nil {
			out = append(out, fmt.Sprintf("max length: %d", *text.MaxLength))
		}
		if text.Pattern != "" {
			out = append(out, "pattern: /"+text.Pattern+"/")
		}
	}
	if choice, ok := props.Choice(); ok && len(choice.Options) > 0 {
		labels := make([]string, len(choice.Options))
		for i, opt := range choice.Options {
			labels[i] = fmt.Sprintf("%s (%s)", opt.Label, coerce.String(opt.Value))
		}
		line := "options: " + strings.Join(labels, ", ")
		if choice.Multiple {
			line += " [multiple]"
		}
		out = append(out, line)
	}
	if slider, ok := props.Slider(); ok {
		if slider.Min != nil || slider.Max != nil {
			out = append(out, "range: "+bound(slider.Min)+" to "+bound(slider.Max))
		}
		if slider.Step != nil {
			out = append(out, "step: "+coerce.FormatNumber(*slider.Step))
		}
	}
	if temporal, ok := props.Temporal(); ok && (temporal.Min != "" || temporal.Max != "") {
		out = append(out, "range: "+orAny(temporal.Min)+" to "+orAny(temporal.Max))
	}
	if file, ok := props.File(); ok {
		if file.Accept != "" {
			out = append(out, "accept: "+file.Accept)
		}
		if file.MaxSize != nil {
			out = append(out, fmt.Sprintf("max size: %d bytes", *file.MaxSize))
		}
		if file.Multiple {
			out = append(out, "multiple files")
		}
	}
	return out
}

func ruleDetail(rule model.ValidationRule) string {
	line := "rule: " + string(rule.Kind)
	if rule.Value != nil {
		line += " " + coerce.String(rule.Value)
	}
	if rule.Message != "" {
		line += fmt.Sprintf(" (%q)", rule.Message)
	}
	return line
}

func visibilityDetail(schema model.FormSchema, rule model.VisibilityRule) string {
	action := rule.Action
	if action == "" {
		action = model.ActionShow
	}
	match := rule.Match
	if match == "" {
		match = model.MatchAll
	}
	parts := make([]string, 0, len(rule.Conditions))
	for _, cond := range rule.Conditions {
		source := cond.SourceComponentID
		if comp, ok := schema.Component(source); ok {
			source = labelOf(comp)
		}
		part := source + " " + strings.ReplaceAll(string(cond.Operator), "_", " ")
		if operatorTakesValue(cond.Operator) {
			part += " " + coerce.String(cond.Value)
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s when: (no conditions)", action)
	}
	return fmt.Sprintf("%s when %s: %s", action, match, strings.Join(parts, "; "))
}

func operatorTakesValue(op model.Operator) bool {
	switch op {
	case model.OpIsEmpty, model.OpIsNotEmpty, model.OpIsChecked, model.OpIsUnchecked:
		return false
	}
	return true
}

func labelOf(comp model.Component) string {
	if comp.Props.Label != "" {
		return comp.Props.Label
	}
	if comp.Props.Name != "" {
		return comp.Props.Name
	}
	return comp.ID
}

func bound(v *float64) string {
	if v == nil {
		return "any"
	}
	return coerce.FormatNumber(*v)
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

var registerFiltersOnce sync.Once

// registerDefaultFilters installs helpers for custom templates supplied with
// WithTemplates.
func registerDefaultFilters() {
	registerFiltersOnce.Do(func() {
		if !pongo2.FilterExists("trim") {
			_ = pongo2.RegisterFilter("trim", func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
				return pongo2.AsValue(strings.TrimSpace(in.String())), nil
			})
		}
		if !pongo2.FilterExists("humanize_operator") {
			_ = pongo2.RegisterFilter("humanize_operator", func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
				return pongo2.AsValue(strings.ReplaceAll(in.String(), "_", " ")), nil
			})
		}
	})
}
