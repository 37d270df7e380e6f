package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fekuna/omnipos-production-service/internal/auth"
	"github.com/fekuna/omnipos-production-service/internal/httputil"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ingredients := rg.Group("/ingredients")
	ingredients.GET("", h.ListIngredients)
	ingredients.POST("", h.CreateIngredient)
	ingredients.GET("/low-stock", h.ListLowStock)
	ingredients.GET("/:id", h.GetIngredient)
	ingredients.PUT("/:id", h.UpdateIngredient)
	ingredients.DELETE("/:id", h.DeleteIngredient)
	ingredients.POST("/:id/restock", h.Restock)

	goods := rg.Group("/finished-goods")
	goods.GET("", h.ListFinishedGoods)
	goods.GET("/:id", h.GetFinishedGood)
	goods.POST("/:id/sell", h.SellFinishedGood)

	rg.GET("/stock-movements", h.ListMovements)
}

func (h *InventoryHandler) CreateIngredient(c *gin.Context) {
	var req dto.CreateIngredientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	req.UserID = auth.GetUserID(c.Request.Context())

	ing, err := h.uc.CreateIngredient(c.Request.Context(), &req)
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ing)
}

func (h *InventoryHandler) GetIngredient(c *gin.Context) {
	ing, err := h.uc.GetIngredient(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

func (h *InventoryHandler) ListIngredients(c *gin.Context) {
	page, pageSize := httputil.Pagination(c)
	lowStock, _ := strconv.ParseBool(c.Query("low_stock"))

	items, total, err := h.uc.ListIngredients(c.Request.Context(), &dto.IngredientFilters{
		Name:     c.Query("name"),
		LowStock: lowStock,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	httputil.List(c, items, total, page, pageSize)
}

func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	page, pageSize := httputil.Pagination(c)

	items, total, err := h.uc.ListLowStock(c.Request.Context(), page, pageSize)
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	httputil.List(c, items, total, page, pageSize)
}

func (h *InventoryHandler) UpdateIngredient(c *gin.Context) {
	var req dto.UpdateIngredientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	req.ID = c.Param("id")

	ing, err := h.uc.UpdateIngredient(c.Request.Context(), &req)
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

func (h *InventoryHandler) DeleteIngredient(c *gin.Context) {
	if err := h.uc.DeleteIngredient(c.Request.Context(), c.Param("id")); err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) Restock(c *gin.Context) {
	var req dto.RestockInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	req.IngredientID = c.Param("id")
	req.UserID = auth.GetUserID(c.Request.Context())

	ing, err := h.uc.Restock(c.Request.Context(), &req)
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

func (h *InventoryHandler) GetFinishedGood(c *gin.Context) {
	fg, err := h.uc.GetFinishedGood(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, fg)
}

func (h *InventoryHandler) ListFinishedGoods(c *gin.Context) {
	page, pageSize := httputil.Pagination(c)

	items, total, err := h.uc.ListFinishedGoods(c.Request.Context(), &dto.FinishedGoodFilters{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	httputil.List(c, items, total, page, pageSize)
}

func (h *InventoryHandler) SellFinishedGood(c *gin.Context) {
	var req dto.SellInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	req.FinishedGoodID = c.Param("id")
	req.UserID = auth.GetUserID(c.Request.Context())

	fg, err := h.uc.SellFinishedGood(c.Request.Context(), &req)
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, fg)
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	page, pageSize := httputil.Pagination(c)

	items, total, err := h.uc.ListMovements(c.Request.Context(), &dto.MovementFilters{
		ItemType:     model.ItemType(c.Query("item_type")),
		ItemID:       c.Query("item_id"),
		MovementType: model.MovementType(c.Query("movement_type")),
		ReferenceID:  c.Query("reference_id"),
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	httputil.List(c, items, total, page, pageSize)
}
