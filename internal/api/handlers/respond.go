package handlers

import (
	"errors"
	"net/http"
	"strings"

	apperrors "dao-tracker-backend/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// FieldError is one entry of the details array in an error response
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

// respondError maps domain errors onto the HTTP error contract. Every
// handler funnels service errors through here so the wire shape stays
// uniform.
func respondError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]FieldError, len(validationErrs))
		for i, fe := range validationErrs {
			details[i] = FieldError{
				Field:   strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
				Message: validationMessage(fe),
			}
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: details})
		return
	}

	var fieldErr *apperrors.ValidationError
	if errors.As(err, &fieldErr) {
		resp := ErrorResponse{Error: "validation failed"}
		resp.Details = []FieldError{{Field: fieldErr.Field, Message: fieldErr.Message}}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	var authErr *apperrors.AuthenticationError
	if errors.As(err, &authErr) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: authErr.Message})
		return
	}

	var authzErr *apperrors.AuthorizationError
	if errors.As(err, &authzErr) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: authzErr.Message, Code: authzErr.Code})
		return
	}

	if apperrors.IsNotFound(err) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	if apperrors.IsAlreadyExists(err) || errors.Is(err, apperrors.ErrDaoNumberConflict) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}

	if errors.Is(err, apperrors.ErrInvalidDateRange) ||
		errors.Is(err, apperrors.ErrInvalidPaginationParams) ||
		errors.Is(err, apperrors.ErrTaskOrderMismatch) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	logrus.WithError(err).Error("unhandled service error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
