package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Recipe categories understood by the prompt builder
const (
	CategorySavory = "salato"
	CategorySweet  = "dolce"
	CategoryQuick  = "veloce"
)

// RecipeSystemInstruction fixes output language and format for every generation
const RecipeSystemInstruction = "Sei uno chef italiano professionista. Rispondi sempre in italiano e solo in formato JSON valido."

var categoryDescriptions = map[string]string{
	CategorySavory: "un piatto salato italiano",
	CategorySweet:  "un dolce o dessert italiano",
	CategoryQuick:  "un piatto veloce pronto in massimo 20 minuti",
}

const genericCategoryDescription = "un piatto italiano"

const recipeSchema = `{
    "title": "Nome della ricetta",
    "description": "Breve descrizione appetitosa della ricetta (2-3 frasi)",
    "ingredients": ["ingrediente 1 con quantità", "ingrediente 2 con quantità"],
    "instructions": ["Passo 1", "Passo 2", "Passo 3"],
    "prep_time": "tempo di preparazione (es. 15 minuti)",
    "cook_time": "tempo di cottura (es. 30 minuti)",
    "tips": "Un consiglio dello chef per rendere il piatto perfetto",
    "substitutions": ["Puoi sostituire X con Y", "Se non hai Z usa W"]
}`

// BuildRecipePrompt asks for one recipe in the fixed JSON shape. Unknown
// categories fall back to a generic dish description.
func BuildRecipePrompt(category string, ingredients []string, servings int) string {
	desc, ok := categoryDescriptions[category]
	if !ok {
		desc = genericCategoryDescription
	}

	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("Sei uno chef italiano esperto. Crea una ricetta per %s usando questi ingredienti: %s.\n\n",
		desc, strings.Join(ingredients, ", ")))
	prompt.WriteString(fmt.Sprintf("La ricetta deve essere per %d persone.\n\n", servings))
	prompt.WriteString("Rispondi SOLO in formato JSON valido con questa struttura esatta:\n")
	prompt.WriteString(recipeSchema)
	prompt.WriteString("\n\nNON aggiungere testo prima o dopo il JSON.")
	return prompt.String()
}

// GeneratedRecipe is the model's answer. Pointer and nil slice fields mark
// keys the model left out.
type GeneratedRecipe struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Ingredients   []string `json:"ingredients"`
	Instructions  []string `json:"instructions"`
	PrepTime      *string  `json:"prep_time"`
	CookTime      *string  `json:"cook_time"`
	Tips          *string  `json:"tips"`
	Substitutions []string `json:"substitutions"`
}

// StripCodeFence removes a markdown code fence wrapped around a completion
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseRecipeCompletion strips any code fence and decodes the completion as
// a single JSON object
func ParseRecipeCompletion(completion string) (*GeneratedRecipe, error) {
	payload := StripCodeFence(completion)
	if !strings.HasPrefix(payload, "{") {
		return nil, fmt.Errorf("decode recipe json: expected an object")
	}
	var recipe GeneratedRecipe
	if err := json.Unmarshal([]byte(payload), &recipe); err != nil {
		return nil, fmt.Errorf("decode recipe json: %w", err)
	}
	return &recipe, nil
}
