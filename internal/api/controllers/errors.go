package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/datallboy/gospool/internal/article"
	"github.com/datallboy/gospool/internal/domain"
)

// statusFor maps spool and index errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrArticleNotFound), errors.Is(err, domain.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateArticle):
		return http.StatusConflict
	case errors.Is(err, article.ErrMissingHeader),
		errors.Is(err, article.ErrDateParse),
		errors.Is(err, article.ErrHeaderParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, article.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *echo.Context, err error) error {
	return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}

func badRequest(c *echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
