package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/auth"
	"github.com/fekuna/omnipos-production-service/internal/httputil"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
)

type ProductionHandler struct {
	uc     production.UseCase
	logger logger.ZapLogger
}

func NewProductionHandler(uc production.UseCase, log logger.ZapLogger) *ProductionHandler {
	return &ProductionHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	prod := rg.Group("/production")
	prod.POST("", h.Produce)
	prod.POST("/preview", h.PreviewCost)
	prod.GET("/batches", h.ListBatches)
	prod.GET("/batches/:id", h.GetBatch)
}

func (h *ProductionHandler) Produce(c *gin.Context) {
	var req dto.ProduceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	req.UserID = auth.GetUserID(c.Request.Context())

	res, err := h.uc.Produce(c.Request.Context(), &req)
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ProductionHandler) PreviewCost(c *gin.Context) {
	var req dto.ProduceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	preview, err := h.uc.PreviewCost(c.Request.Context(), &req)
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *ProductionHandler) GetBatch(c *gin.Context) {
	batch, err := h.uc.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// ListBatches accepts RFC 3339 or YYYY-MM-DD bounds in from and to.
func (h *ProductionHandler) ListBatches(c *gin.Context) {
	page, pageSize := httputil.Pagination(c)

	from, err := parseTime("from", c.Query("from"))
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	to, err := parseTime("to", c.Query("to"))
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}

	items, total, err := h.uc.ListBatches(c.Request.Context(), &dto.BatchFilters{
		RecipeID:  c.Query("recipe_id"),
		ProductID: c.Query("product_id"),
		From:      from,
		To:        to,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		httputil.WriteError(c, h.logger, err)
		return
	}
	httputil.List(c, items, total, page, pageSize)
}

func parseTime(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.Invalid(field, "expected RFC 3339 or YYYY-MM-DD")
}
