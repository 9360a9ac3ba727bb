package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/logging"
)

func openRecipes(s *session) (*cipher.RecipeManager, error) {
	rm := cipher.NewRecipeManager(s.cfg.RecipesDir)
	if err := rm.LoadRecipes(); err != nil {
		return nil, err
	}
	return rm, nil
}

func runRecipeSave(args []string) int {
	fs := newFlagSet("recipe save")
	name := fs.String("name", "", "recipe name")
	description := fs.String("description", "", "recipe description")
	tags := fs.String("tags", "", "comma-separated tags")
	reversible := fs.Bool("reversible", false, "allow the recipe to be run in reverse")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "--name is required")
		return 2
	}
	steps, err := parseSteps(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer s.Close()
	rm, err := openRecipes(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	recipe := &cipher.Recipe{
		Name:        strings.TrimSpace(*name),
		Description: *description,
		Tags:        splitTags(*tags),
		Pipeline:    cipher.Pipeline{Operations: steps, Reversible: *reversible},
	}
	if err := rm.SaveRecipe(recipe); err != nil {
		fmt.Fprintf(os.Stderr, "save recipe: %v\n", err)
		return 1
	}
	_ = s.audit.Emit(logging.AuditEvent{
		EventType: logging.EventRecipeSaved,
		Outcome:   logging.OutcomeSuccess,
		Metadata:  map[string]any{"recipe": recipe.Name, "steps": len(steps)},
	})
	fmt.Printf("saved recipe %s (%d steps)\n", recipe.Name, len(steps))
	return 0
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func runRecipeList(args []string) int {
	fs := newFlagSet("recipe list")
	query := fs.String("q", "", "only list recipes whose name, description or tags match")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer s.Close()
	rm, err := openRecipes(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	recipes := rm.ListRecipes()
	if *query != "" {
		recipes = rm.SearchRecipes(*query)
	}
	for _, r := range recipes {
		fmt.Printf("%-24s %d steps  %s\n", r.Name, len(r.Pipeline.Operations), r.Description)
	}
	return 0
}

func recipeName(fs interface{ Args() []string }) (string, error) {
	args := fs.Args()
	if len(args) != 1 {
		return "", errors.New("exactly one recipe name is required")
	}
	return args[0], nil
}

func runRecipeShow(args []string) int {
	fs := newFlagSet("recipe show")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	name, err := recipeName(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer s.Close()
	rm, err := openRecipes(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	recipe, ok := rm.GetRecipe(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "%v: %s\n", cipher.ErrRecipeNotFound, name)
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recipe); err != nil {
		fmt.Fprintf(os.Stderr, "encode recipe: %v\n", err)
		return 1
	}
	return 0
}

func runRecipeRun(args []string) int {
	fs := newFlagSet("recipe run")
	reverse := fs.Bool("reverse", false, "run the recipe in reverse")
	out := fs.String("out", "", "write the result to this file instead of stdout")
	format := fs.String("format", "text", "output format: text, hex or signed")
	input := addInputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	name, err := recipeName(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	text, err := input.read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	data, err := bytecodec.Encode(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer s.Close()
	rm, err := openRecipes(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	steps := 0
	if recipe, ok := rm.GetRecipe(name); ok {
		steps = len(recipe.Pipeline.Operations)
	}
	result, err := rm.RunRecipe(context.Background(), name, data, *reverse)
	emitPipelineRun(s.audit, name, steps, *reverse, err)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run recipe: %v\n", err)
		return 1
	}
	if err := writeOutput(*out, *format, bytecodec.Decode(result)); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

func runRecipeDelete(args []string) int {
	fs := newFlagSet("recipe delete")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	name, err := recipeName(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer s.Close()
	rm, err := openRecipes(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err := rm.DeleteRecipe(name); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	_ = s.audit.Emit(logging.AuditEvent{
		EventType: logging.EventRecipeDeleted,
		Outcome:   logging.OutcomeSuccess,
		Metadata:  map[string]any{"recipe": name},
	})
	fmt.Printf("deleted recipe %s\n", name)
	return 0
}
