package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fekuna/omnipos-production-service/internal/httputil"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
)

type RecipeHandler struct {
	uc     recipe.UseCase
	logger logger.ZapLogger
}

func NewRecipeHandler(uc recipe.UseCase, log logger.ZapLogger) *RecipeHandler {
	return &RecipeHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *RecipeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	recipes := rg.Group("/recipes")
	recipes.GET("", h.ListRecipes)
	recipes.POST("", h.CreateRecipe)
	recipes.GET("/:id", h.GetRecipe)
	recipes.PUT("/:id", h.UpdateRecipe)
	recipes.DELETE("/:id", h.DeleteRecipe)
	recipes.GET("/:id/cost", h.GetRecipeCost)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req dto.RecipeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	rec, err := h.uc.CreateRecipe(c.Request.Context(), &req)
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	rec, err := h.uc.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, pageSize := httputil.Pagination(c)

	items, total, err := h.uc.ListRecipes(c.Request.Context(), &dto.RecipeFilters{
		Name:      c.Query("name"),
		ProductID: c.Query("product_id"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	httputil.List(c, items, total, page, pageSize)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	var req dto.RecipeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	rec, err := h.uc.UpdateRecipe(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	if err := h.uc.DeleteRecipe(c.Request.Context(), c.Param("id")); err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) GetRecipeCost(c *gin.Context) {
	cost, err := h.uc.GetRecipeCost(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cost)
}
