package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/logging"
)

// RecipeSaveRequest stores a named pipeline.
type RecipeSaveRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Tags        []string                 `json:"tags,omitempty"`
	Operations  []cipher.OperationConfig `json:"operations"`
	Reversible  bool                     `json:"reversible"`
}

// RecipeRunRequest runs a stored recipe forwards or backwards.
type RecipeRunRequest struct {
	Input   string `json:"input"`
	Reverse bool   `json:"reverse,omitempty"`
}

func (s *Server) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	var recipes []*cipher.Recipe
	if q := r.URL.Query().Get("q"); q != "" {
		recipes = s.recipes.SearchRecipes(q)
	} else {
		recipes = s.recipes.ListRecipes()
	}
	list := make([]cipher.Recipe, len(recipes))
	for i, rc := range recipes {
		list[i] = *rc
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"recipes": list})
}

func (s *Server) handleRecipeSave(w http.ResponseWriter, r *http.Request) {
	var req RecipeSaveRequest
	if !s.decode(w, r, &req) {
		return
	}
	recipe := &cipher.Recipe{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Pipeline: cipher.Pipeline{
			Operations: req.Operations,
			Reversible: req.Reversible,
		},
	}
	if err := s.recipes.SaveRecipe(recipe); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = s.audit.Emit(logging.AuditEvent{
		EventType: logging.EventRecipeSaved,
		Outcome:   logging.OutcomeSuccess,
		Metadata:  map[string]any{"recipe": recipe.Name, "id": recipe.ID, "steps": len(recipe.Pipeline.Operations)},
	})
	s.writeJSON(w, http.StatusCreated, recipe)
}

func (s *Server) handleRecipeGet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	recipe, ok := s.recipes.GetRecipe(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "recipe not found")
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleRecipeDelete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.recipes.DeleteRecipe(name); err != nil {
		if errors.Is(err, cipher.ErrRecipeNotFound) {
			s.writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = s.audit.Emit(logging.AuditEvent{
		EventType: logging.EventRecipeDeleted,
		Outcome:   logging.OutcomeSuccess,
		Metadata:  map[string]any{"recipe": name},
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecipeRun(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req RecipeRunRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.checkSize(w, req.Input) {
		return
	}
	in, err := bytecodec.Encode(req.Input)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.recipes.RunRecipe(r.Context(), name, in, req.Reverse)
	outcome := logging.OutcomeSuccess
	if err != nil {
		outcome = logging.OutcomeFailure
	}
	_ = s.audit.Emit(logging.AuditEvent{
		EventType: logging.EventPipelineRun,
		Outcome:   outcome,
		Metadata:  map[string]any{"recipe": name, "reverse": req.Reverse},
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, OutputResponse{Output: bytecodec.Decode(out)})
}
