// README: HTTP helper utilities for error mapping.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"frete/internal/modules/budget"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeBudgetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, budget.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, budget.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, budget.ErrDriverUnavailable):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, budget.ErrProvider):
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeValidationError(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
