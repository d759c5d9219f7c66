package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formbuilder/pkg/contract"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/outline"
	"github.com/goliatone/go-formbuilder/pkg/persistence"
	"github.com/goliatone/go-formbuilder/pkg/registry"
	"github.com/goliatone/go-formbuilder/pkg/store"
	"github.com/goliatone/go-formbuilder/pkg/submission"
)

// StateResponse is returned by every endpoint that reads or edits the schema.
type StateResponse struct {
	Schema    model.FormSchema `json:"schema"`
	Selection store.Selection  `json:"selection"`
	CanUndo   bool             `json:"canUndo"`
	CanRedo   bool             `json:"canRedo"`
	Version   uint64           `json:"version"`
	Changed   bool             `json:"changed"`
}

// ComponentResponse is returned when a component is created.
type ComponentResponse struct {
	Component model.Component `json:"component"`
	StateResponse
}

// FieldResponse describes one registered field kind.
type FieldResponse struct {
	Type          model.FieldType `json:"type"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Icon          string          `json:"icon,omitempty"`
	DefaultConfig model.Props     `json:"defaultConfig"`
}

// EvaluateResponse is the prepared submission for posted values.
type EvaluateResponse struct {
	submission.Result
	ByName map[string]any `json:"byName"`
}

type stepRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type stepPatch struct {
	Title *string `json:"title"`
	Order *int    `json:"order"`
}

type componentRequest struct {
	Type   model.FieldType `json:"type"`
	StepID string          `json:"stepId"`
	Index  *int            `json:"index"`
}

type componentPatch struct {
	Type     *model.FieldType `json:"type"`
	StepID   *string          `json:"stepId"`
	Order    *int             `json:"order"`
	Children *[]string        `json:"children"`
	Props    map[string]any   `json:"props"`
}

type reorderRequest struct {
	OverID string `json:"overId"`
}

type selectionRequest struct {
	ComponentID *string `json:"componentId"`
	StepID      *string `json:"stepId"`
}

type evaluateRequest struct {
	Values map[string]any `json:"values"`
}

func (s *Server) state(changed bool) StateResponse {
	st := s.builder.Store().State()
	return StateResponse{
		Schema:    st.Schema,
		Selection: st.Selection,
		CanUndo:   st.CanUndo,
		CanRedo:   st.CanRedo,
		Version:   st.Version,
		Changed:   changed,
	}
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, s.state(false))
}

func (s *Server) importSchema(w http.ResponseWriter, r *http.Request) {
	text, err := readBody(r)
	if err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := s.builder.Persistence().Import(s.builder.Store(), text); err != nil {
		var importErr *persistence.ImportError
		if errors.As(err, &importErr) {
			writeError(s.logger, w, http.StatusUnprocessableEntity, "IMPORT_FAILED", importErr.Message)
			return
		}
		writeError(s.logger, w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(s.logger, w, http.StatusOK, s.state(true))
}

func (s *Server) clearSchema(w http.ResponseWriter, r *http.Request) {
	s.builder.Store().ClearSchema()
	writeJSON(s.logger, w, http.StatusOK, s.state(true))
}

func (s *Server) exportSchema(w http.ResponseWriter, r *http.Request) {
	text, err := s.builder.Persistence().Export(s.builder.Store())
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "EXPORT_FAILED", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="form-schema.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) addStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		if _, err := s.builder.NewStep(req.Title); err != nil {
			writeError(s.logger, w, http.StatusConflict, "STEP_NOT_ADDED", err.Error())
			return
		}
		writeJSON(s.logger, w, http.StatusCreated, s.state(true))
		return
	}
	if !s.builder.Store().AddStep(model.FormStep{ID: req.ID, Title: req.Title}) {
		writeError(s.logger, w, http.StatusConflict, "DUPLICATE_STEP", "step "+req.ID+" already exists")
		return
	}
	writeJSON(s.logger, w, http.StatusCreated, s.state(true))
}

func (s *Server) updateStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.builder.Store().Present().HasStep(id) {
		writeError(s.logger, w, http.StatusNotFound, "NOT_FOUND", "unknown step "+id)
		return
	}
	var patch stepPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	changed := s.builder.Store().UpdateStep(id, store.StepUpdate{Title: patch.Title, Order: patch.Order})
	writeJSON(s.logger, w, http.StatusOK, s.state(changed))
}

func (s *Server) removeStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	present := s.builder.Store().Present()
	if !present.HasStep(id) {
		writeError(s.logger, w, http.StatusNotFound, "NOT_FOUND", "unknown step "+id)
		return
	}
	if len(present.Steps) <= 1 {
		writeError(s.logger, w, http.StatusConflict, "LAST_STEP", "the last step cannot be removed")
		return
	}
	changed := s.builder.Store().RemoveStep(id)
	writeJSON(s.logger, w, http.StatusOK, s.state(changed))
}

func (s *Server) addComponent(w http.ResponseWriter, r *http.Request) {
	var req componentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.StepID != "" && !s.builder.Store().Present().HasStep(req.StepID) {
		writeError(s.logger, w, http.StatusUnprocessableEntity, "UNKNOWN_STEP", "unknown step "+req.StepID)
		return
	}
	comp, err := s.builder.Insert(req.Type, req.StepID, req.Index)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownType) {
			writeError(s.logger, w, http.StatusUnprocessableEntity, "UNKNOWN_TYPE", err.Error())
			return
		}
		writeError(s.logger, w, http.StatusConflict, "COMPONENT_NOT_ADDED", err.Error())
		return
	}
	writeJSON(s.logger, w, http.StatusCreated, ComponentResponse{Component: comp, StateResponse: s.state(true)})
}

func (s *Server) updateComponent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	present := s.builder.Store().Present()
	if _, ok := present.Component(id); !ok {
		writeError(s.logger, w, http.StatusNotFound, "NOT_FOUND", "unknown component "+id)
		return
	}
	var patch componentPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if patch.StepID != nil && !present.HasStep(*patch.StepID) {
		writeError(s.logger, w, http.StatusUnprocessableEntity, "UNKNOWN_STEP", "unknown step "+*patch.StepID)
		return
	}
	changed := s.builder.Store().UpdateComponent(id, store.ComponentUpdate{
		Type:     patch.Type,
		StepID:   patch.StepID,
		Order:    patch.Order,
		Children: patch.Children,
		Props:    patch.Props,
	})
	writeJSON(s.logger, w, http.StatusOK, s.state(changed))
}

func (s *Server) removeComponent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.builder.Store().RemoveComponent(id) {
		writeError(s.logger, w, http.StatusNotFound, "NOT_FOUND", "unknown component "+id)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, s.state(true))
}

func (s *Server) reorderComponent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.builder.Store().Present().Component(id); !ok {
		writeError(s.logger, w, http.StatusNotFound, "NOT_FOUND", "unknown component "+id)
		return
	}
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	changed := s.builder.Store().ReorderComponents(id, req.OverID)
	writeJSON(s.logger, w, http.StatusOK, s.state(changed))
}

func (s *Server) selectTarget(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	changed := false
	if req.StepID != nil && s.builder.Store().SelectStep(*req.StepID) {
		changed = true
	}
	if req.ComponentID != nil && s.builder.Store().SelectComponent(*req.ComponentID) {
		changed = true
	}
	writeJSON(s.logger, w, http.StatusOK, s.state(changed))
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, s.state(s.builder.Store().Undo()))
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, s.state(s.builder.Store().Redo()))
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	if err := s.builder.Save(r.Context()); err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "SAVE_FAILED", err.Error())
		return
	}
	writeJSON(s.logger, w, http.StatusOK, s.state(false))
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) {
	found, err := s.builder.Load(r.Context())
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "LOAD_FAILED", err.Error())
		return
	}
	if !found {
		writeError(s.logger, w, http.StatusNotFound, "NOT_FOUND", "no saved schema")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, s.state(true))
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	schema := s.builder.Store().Present()
	result := submission.Prepare(schema, req.Values)
	writeJSON(s.logger, w, http.StatusOK, EvaluateResponse{Result: result, ByName: result.ByName(schema)})
}

func (s *Server) openAPI(w http.ResponseWriter, r *http.Request) {
	doc := contract.Document(s.builder.Store().Present(), contract.Info{Title: s.title})
	writeJSON(s.logger, w, http.StatusOK, doc)
}

func (s *Server) outline(w http.ResponseWriter, r *http.Request) {
	format := outline.Format(r.URL.Query().Get("format"))
	renderer, err := outline.New(outline.WithRegistry(s.builder.Registry()), outline.WithTitle(s.title))
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "OUTLINE_FAILED", err.Error())
		return
	}
	text, err := renderer.Render(s.builder.Store().Present(), format)
	if err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "OUTLINE_FAILED", err.Error())
		return
	}
	contentType := "text/plain; charset=utf-8"
	if format == outline.FormatMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) fields(w http.ResponseWriter, r *http.Request) {
	defs := s.builder.Registry().All()
	out := make([]FieldResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, FieldResponse{
			Type:          def.Type,
			Title:         def.Title,
			Description:   def.Description,
			Icon:          def.Icon,
			DefaultConfig: def.NewProps(),
		})
	}
	writeJSON(s.logger, w, http.StatusOK, out)
}
