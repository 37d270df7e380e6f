// Package httputil maps use-case results and errors onto gin responses.
package httputil

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ErrorResponse struct {
	Error          string           `json:"error"`
	Kind           apperror.Kind    `json:"kind"`
	Details        []string         `json:"details,omitempty"`
	IngredientID   string           `json:"ingredient_id,omitempty"`
	FinishedGoodID string           `json:"finished_good_id,omitempty"`
	Required       *decimal.Decimal `json:"required,omitempty"`
	Available      *decimal.Decimal `json:"available,omitempty"`
	Retryable      bool             `json:"retryable,omitempty"`
}

type ListResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// StatusOf maps the error taxonomy onto HTTP status codes.
func StatusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindInvalidInput:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindInsufficientStock, apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindTransactionFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err. Unknown errors are logged and hidden from the client.
func WriteError(c *gin.Context, log logger.ZapLogger, err error) {
	status := StatusOf(err)
	resp := ErrorResponse{
		Error: err.Error(),
		Kind:  apperror.KindOf(err),
	}

	var vErr *apperror.ValidationError
	if errors.As(err, &vErr) {
		resp.Details = vErr.Errors
	}

	var stockErr *apperror.InsufficientStockError
	if errors.As(err, &stockErr) {
		if stockErr.Item == "finished_good" {
			resp.FinishedGoodID = stockErr.ID
		} else {
			resp.IngredientID = stockErr.ID
		}
		resp.Required = &stockErr.Requested
		resp.Available = &stockErr.Available
	}

	switch status {
	case http.StatusInternalServerError:
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		resp.Error = "internal server error"
	case http.StatusServiceUnavailable:
		log.Warn("Transaction failed", zap.String("path", c.FullPath()), zap.Error(err))
		resp.Retryable = true
	}

	c.AbortWithStatusJSON(status, resp)
}

// BindError renders a malformed request body.
func BindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error: "invalid request body: " + err.Error(),
		Kind:  apperror.KindInvalidInput,
	})
}

// Pagination reads page and page_size query params with sane bounds.
func Pagination(c *gin.Context) (page, pageSize int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func List[T any](c *gin.Context, items []T, total, page, pageSize int) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListResponse[T]{Items: items, Total: total, Page: page, PageSize: pageSize})
}
