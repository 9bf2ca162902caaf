package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/recipebox-server/internal/model"
)

const (
	msgServerError    = "Server error"
	msgInvalidBody    = "Invalid request body"
	msgUsernameTaken  = "Username already exists"
	msgBadCredentials = "Invalid credentials"
	msgUnauthorized   = "Unauthorized access - No token provided"
)

// handleError writes the status and message for err and records it on the gin context.
func handleError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, message := errorResponse(err)
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

func errorResponse(err error) (int, string) {
	var (
		verr *model.ValidationError
		nerr *model.NotFoundError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, validationMessage(verr)
	case errors.Is(err, model.ErrUsernameTaken):
		return http.StatusBadRequest, msgUsernameTaken
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusBadRequest, msgBadCredentials
	case errors.As(err, &nerr):
		return http.StatusNotFound, notFoundMessage(nerr.Entity)
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, notFoundMessage("")
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized
	default:
		return http.StatusInternalServerError, msgServerError
	}
}

func validationMessage(err *model.ValidationError) string {
	if err.Field == "" {
		return err.Message
	}
	return err.Field + " " + err.Message
}

func notFoundMessage(entity string) string {
	if entity == "" {
		return "Not found"
	}
	return strings.ToUpper(entity[:1]) + entity[1:] + " not found"
}
