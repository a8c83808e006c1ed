package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pageza/smartcooking/backend/internal/metrics"
	"github.com/pageza/smartcooking/backend/internal/models"
	"github.com/pageza/smartcooking/backend/internal/repository"
	"github.com/pageza/smartcooking/backend/internal/types"
)

const (
	// HistoryLimit caps the generated recipes returned by ListHistory
	HistoryLimit = 50
	// SavedLimit caps the saved recipes returned by ListSaved
	SavedLimit = 100

	DefaultServings = 4
	DefaultCategory = CategorySavory

	untitledRecipe = "Ricetta Senza Nome"
	unknownTime    = "N/A"
)

// GenerateParams are the caller's inputs to a generation
type GenerateParams struct {
	Ingredients []string
	Category    string
	Servings    int
}

type RecipeService struct {
	recipes   repository.RecipeRepository
	saved     repository.SavedRecipeRepository
	usage     *UsageTracker
	generator TextGenerator
	timeout   time.Duration
	now       func() time.Time
}

func NewRecipeService(store *repository.Store, usage *UsageTracker, generator TextGenerator, timeout time.Duration) *RecipeService {
	return &RecipeService{
		recipes:   store.Recipes,
		saved:     store.Saved,
		usage:     usage,
		generator: generator,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Generate produces and stores one recipe for user. The quota is checked
// before the model is called; the counter moves only after the recipe is stored.
func (s *RecipeService) Generate(ctx context.Context, user *models.User, params GenerateParams) (*models.Recipe, error) {
	ingredients := cleanIngredients(params.Ingredients)
	if len(ingredients) == 0 {
		return nil, newError(ErrValidation, "Inserisci almeno un ingrediente", nil)
	}
	category := strings.ToLower(strings.TrimSpace(params.Category))
	if category == "" {
		category = DefaultCategory
	}
	servings := params.Servings
	if servings <= 0 {
		servings = DefaultServings
	}

	if err := s.usage.Refresh(ctx, user); err != nil {
		return nil, err
	}
	if err := s.usage.CheckQuota(user); err != nil {
		metrics.RecordQuotaRejection()
		return nil, err
	}

	prompt := BuildRecipePrompt(category, ingredients, servings)
	completion, err := s.complete(ctx, prompt)
	if err != nil {
		metrics.RecordGenerationFailure("llm")
		log.Ctx(ctx).Error().Err(err).Str("user_id", user.ID).Msg("recipe generation call failed")
		return nil, newError(ErrGeneration, "Errore nel generare la ricetta. Riprova.", err)
	}

	generated, err := ParseRecipeCompletion(completion)
	if err != nil {
		metrics.RecordGenerationFailure("parse")
		log.Ctx(ctx).Error().Err(err).Str("completion", truncate(completion, 500)).Msg("unparsable recipe completion")
		return nil, newError(ErrGeneration, "Errore nel generare la ricetta. Riprova.", err)
	}

	recipe := buildRecipe(generated, ingredients, category, servings)
	recipe.ID = uuid.NewString()
	recipe.CreatedAt = s.now().UTC()
	recipe.UserID = user.ID

	if err := s.recipes.Create(ctx, recipe); err != nil {
		metrics.RecordGenerationFailure("persist")
		return nil, fmt.Errorf("store recipe: %w", err)
	}
	if err := s.usage.Record(ctx, user); err != nil {
		return nil, err
	}

	metrics.RecordRecipeGenerated(category)
	log.Ctx(ctx).Info().Str("user_id", user.ID).Str("recipe_id", recipe.ID).Str("category", category).Msg("recipe generated")
	return recipe, nil
}

func (s *RecipeService) complete(ctx context.Context, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() { metrics.ObserveGeneration(time.Since(start)) }()
	return s.generator.Complete(ctx, prompt, RecipeSystemInstruction)
}

// buildRecipe merges the model's answer with defaults for the keys it omitted
func buildRecipe(g *GeneratedRecipe, ingredients []string, category string, servings int) *models.Recipe {
	recipe := &models.Recipe{
		Title:        orDefault(g.Title, untitledRecipe),
		Description:  orDefault(g.Description, ""),
		Ingredients:  models.StringList(ingredients),
		Instructions: models.StringList{},
		PrepTime:     orDefault(g.PrepTime, unknownTime),
		CookTime:     orDefault(g.CookTime, unknownTime),
		Servings:     servings,
		Category:     category,
		Tips:         g.Tips,
	}
	if g.Ingredients != nil {
		recipe.Ingredients = models.StringList(g.Ingredients)
	}
	if g.Instructions != nil {
		recipe.Instructions = models.StringList(g.Instructions)
	}
	if g.Substitutions != nil {
		recipe.Substitutions = models.StringList(g.Substitutions)
	}
	return recipe
}

// Save copies a recipe into the user's saved list
func (s *RecipeService) Save(ctx context.Context, userID, recipeID string) (*models.SavedRecipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Ricetta non trovata", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}

	exists, err := s.saved.Exists(ctx, recipeID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, newError(ErrConflict, "Ricetta già salvata", nil)
	}

	saved := models.NewSavedRecipe(uuid.NewString(), userID, recipe, s.now().UTC())
	if err := s.saved.Create(ctx, saved); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "Ricetta già salvata", err)
		}
		return nil, err
	}
	return saved, nil
}

// Unsave deletes one of the user's saved recipes
func (s *RecipeService) Unsave(ctx context.Context, userID, savedID string) error {
	err := s.saved.Delete(ctx, savedID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "Ricetta salvata non trovata", nil)
	}
	return err
}

// ListSaved returns the user's saved recipes, most recently saved first
func (s *RecipeService) ListSaved(ctx context.Context, userID string) ([]models.SavedRecipe, error) {
	return s.saved.ListByUser(ctx, userID, SavedLimit)
}

// ListHistory returns the user's generated recipes, newest first
func (s *RecipeService) ListHistory(ctx context.Context, userID string) ([]models.Recipe, error) {
	return s.recipes.ListByUser(ctx, userID, HistoryLimit)
}

// GetShared returns the public view of a recipe
func (s *RecipeService) GetShared(ctx context.Context, recipeID string) (*types.SharedRecipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Ricetta non trovata", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}
	return types.NewSharedRecipe(recipe), nil
}

func cleanIngredients(in []string) []string {
	out := make([]string, 0, len(in))
	for _, ingredient := range in {
		if trimmed := strings.TrimSpace(ingredient); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
