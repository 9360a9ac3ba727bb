package cipher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrRecipeNotFound is returned for lookups of unknown recipe names.
var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeManager keeps named pipelines in memory and, when a store path is
// set, mirrors each one to <store>/<name>.json.
type RecipeManager struct {
	recipes   map[string]*Recipe
	storePath string
	now       func() time.Time
	mu        sync.RWMutex
}

// NewRecipeManager creates a recipe manager. An empty storePath keeps
// recipes in memory only.
func NewRecipeManager(storePath string) *RecipeManager {
	return &RecipeManager{
		recipes:   make(map[string]*Recipe),
		storePath: storePath,
		now:       time.Now,
	}
}

// SaveRecipe validates and stores a recipe. Every step must name a
// registered operation; a recipe flagged reversible must reverse cleanly.
func (rm *RecipeManager) SaveRecipe(recipe *Recipe) error {
	if strings.TrimSpace(recipe.Name) == "" {
		return fmt.Errorf("recipe name cannot be empty")
	}
	if len(recipe.Pipeline.Operations) == 0 {
		return fmt.Errorf("recipe %s has no operations", recipe.Name)
	}
	for i, step := range recipe.Pipeline.Operations {
		if _, ok := GetOperation(step.Name); !ok {
			return fmt.Errorf("recipe %s step %d: %w: %s", recipe.Name, i, ErrOperationNotFound, step.Name)
		}
	}
	if recipe.Pipeline.Reversible {
		if _, err := recipe.Pipeline.Reverse(); err != nil {
			return fmt.Errorf("recipe %s: %w", recipe.Name, err)
		}
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	now := rm.now().UTC()
	if existing, ok := rm.recipes[recipe.Name]; ok && recipe.ID == "" {
		recipe.ID = existing.ID
		recipe.CreatedAt = existing.CreatedAt
	}
	if recipe.ID == "" {
		recipe.ID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	}
	if recipe.CreatedAt == "" {
		recipe.CreatedAt = now.Format(time.RFC3339)
	}
	recipe.UpdatedAt = now.Format(time.RFC3339)

	rm.recipes[recipe.Name] = recipe

	if rm.storePath != "" {
		return rm.persistRecipe(recipe)
	}
	return nil
}

// GetRecipe retrieves a recipe by name
func (rm *RecipeManager) GetRecipe(name string) (*Recipe, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipe, exists := rm.recipes[name]
	return recipe, exists
}

// ListRecipes returns all recipes sorted by name
func (rm *RecipeManager) ListRecipes() []*Recipe {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipes := make([]*Recipe, 0, len(rm.recipes))
	for _, recipe := range rm.recipes {
		recipes = append(recipes, recipe)
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Name < recipes[j].Name })
	return recipes
}

// DeleteRecipe removes a recipe and its file
func (rm *RecipeManager) DeleteRecipe(name string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, ok := rm.recipes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrRecipeNotFound, name)
	}
	delete(rm.recipes, name)

	if rm.storePath != "" {
		path := filepath.Join(rm.storePath, sanitizeFilename(name)+".json")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete recipe file: %w", err)
		}
	}
	return nil
}

// RunRecipe executes a stored recipe, or its inverse when reverse is set.
func (rm *RecipeManager) RunRecipe(ctx context.Context, name string, input []byte, reverse bool) ([]byte, error) {
	recipe, ok := rm.GetRecipe(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, name)
	}

	pipeline := &recipe.Pipeline
	if reverse {
		inverse, err := pipeline.Reverse()
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", name, err)
		}
		pipeline = inverse
	}
	return pipeline.Execute(ctx, input)
}

// LoadRecipes reads every recipe file from the store path
func (rm *RecipeManager) LoadRecipes() error {
	if rm.storePath == "" {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	entries, err := os.ReadDir(rm.storePath)
	if err != nil {
		return fmt.Errorf("failed to read recipes directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(rm.storePath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read recipe %s: %w", entry.Name(), err)
		}

		var recipe Recipe
		if err := json.Unmarshal(data, &recipe); err != nil {
			return fmt.Errorf("failed to parse recipe %s: %w", entry.Name(), err)
		}
		rm.recipes[recipe.Name] = &recipe
	}
	return nil
}

func (rm *RecipeManager) persistRecipe(recipe *Recipe) error {
	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	data, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize recipe: %w", err)
	}

	path := filepath.Join(rm.storePath, sanitizeFilename(recipe.Name)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// sanitizeFilename keeps [A-Za-z0-9_-] and turns spaces into underscores.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "recipe"
	}
	return b.String()
}

// SearchRecipes matches query case-insensitively against names,
// descriptions and tags.
func (rm *RecipeManager) SearchRecipes(query string) []*Recipe {
	q := strings.ToLower(query)
	results := make([]*Recipe, 0)
	for _, recipe := range rm.ListRecipes() {
		if strings.Contains(strings.ToLower(recipe.Name), q) || strings.Contains(strings.ToLower(recipe.Description), q) {
			results = append(results, recipe)
			continue
		}
		for _, tag := range recipe.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				results = append(results, recipe)
				break
			}
		}
	}
	return results
}
