package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/smartcooking/backend/internal/service"
	"github.com/pageza/smartcooking/backend/internal/types"
)

type RecipeHandler struct {
	recipes *service.RecipeService
}

func NewRecipeHandler(recipes *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

func (h *RecipeHandler) Generate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.GenerateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	recipe, err := h.recipes.Generate(c.Request.Context(), user, service.GenerateParams{
		Ingredients: req.Ingredients,
		Category:    req.Category,
		Servings:    req.Servings,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Save(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	saved, err := h.recipes.Save(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{Message: "Ricetta salvata!", ID: saved.ID})
}

func (h *RecipeHandler) Unsave(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.recipes.Unsave(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{Message: "Ricetta rimossa dai preferiti"})
}

func (h *RecipeHandler) ListSaved(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	saved, err := h.recipes.ListSaved(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *RecipeHandler) ListHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	history, err := h.recipes.ListHistory(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetShared is public; an attached identity changes nothing
func (h *RecipeHandler) GetShared(c *gin.Context) {
	recipe, err := h.recipes.GetShared(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}
