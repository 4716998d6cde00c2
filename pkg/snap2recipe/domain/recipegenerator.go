package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
)

const (
	recipeSystemPrompt       = "You are an AI assistant that generates easy-to-read recipes in plain text, without using markdown headings."
	recipeUserPromptTemplate = "Generate a detailed and well-structured recipe for %s."

	// RecipeErrorPrefix marks a Recipe which carries an explanation of a failure instead of cooking instructions.
	RecipeErrorPrefix = "⚠️ An error occurred while creating the recipe: "
)

var ErrEmptyRecipe = errors.New("the text generation service returned an empty recipe")

// Recipe free-text cooking instructions, or a warning-prefixed explanation when generation failed.
type Recipe struct {
	Text string
	// Placeholder is true when Text explains a failure instead of being a recipe.
	Placeholder bool
}

// TextGenerator a remote text-generation service (a chat-completion LLM).
type TextGenerator interface {
	// Name the name of the backing model. Useful for debugging.
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// RecipeGenerator turns a caption into a recipe. Unlike the other stages it never fails: any failure of the service
// degrades into a placeholder Recipe instead of aborting the request.
type RecipeGenerator struct {
	textGenerator TextGenerator
	logger        common.Logger
}

func NewRecipeGenerator(textGenerator TextGenerator, logger common.Logger) *RecipeGenerator {
	return &RecipeGenerator{
		textGenerator: textGenerator,
		logger:        logger,
	}
}

func (g *RecipeGenerator) GenerateRecipe(ctx context.Context, caption Caption) (recipe Recipe) {
	defer func() {
		if r := recover(); r != nil {
			recipe = g.placeholder(NewStageError(GenerationError, fmt.Errorf("panic: %v", r)))
		}
	}()
	text, err := g.textGenerator.Generate(ctx, recipeSystemPrompt, fmt.Sprintf(recipeUserPromptTemplate, caption))
	if err != nil {
		return g.placeholder(NewStageError(GenerationError, err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return g.placeholder(NewStageError(GenerationError, ErrEmptyRecipe))
	}
	return Recipe{Text: text}
}

func (g *RecipeGenerator) placeholder(err *StageError) Recipe {
	g.logger.Log(err.Error())
	return Recipe{
		Text:        RecipeErrorPrefix + err.Err.Error(),
		Placeholder: true,
	}
}
