// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/abc-retail/internal/i18n"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/utils"
)

// handleServiceError maps the service error taxonomy onto the response
// envelope. notFoundKey names the message used for a 404. Causes of 5xx
// responses are logged, never returned.
func handleServiceError(c *gin.Context, err error, notFoundKey string) {
	lang := utils.GetLangFromContext(c)

	var fieldErr *services.FieldError
	var wfErr *services.WorkflowError

	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		utils.UnauthorizedResponse(c, "")
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, notFoundKey)
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, "")
	case errors.Is(err, services.ErrEmptyCart):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyCartEmpty), nil)
	case errors.Is(err, services.ErrOutOfStock):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductOutOfStock), nil)
	case errors.Is(err, services.ErrInvalidStatus):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyOrderCannotShip), nil)
	case errors.As(err, &fieldErr):
		utils.ValidationErrorResponse(c, []utils.ValidationError{{
			Field:   fieldErr.Field,
			Tag:     "invalid",
			Message: fieldErr.Message,
		}})
	case errors.Is(err, services.ErrValidation):
		details := utils.GetValidationErrors(err)
		if len(details) == 0 {
			utils.BadRequestResponse(c, "", nil)
			return
		}
		utils.ValidationErrorResponse(c, details)
	case errors.Is(err, services.ErrMalformedMessage):
		logrus.WithError(err).WithField("path", c.FullPath()).Warn("Malformed queue message")
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "MALFORMED_MESSAGE", i18n.T(lang, i18n.KeyQueueMalformed), nil)
	case errors.Is(err, services.ErrUnavailable):
		logrus.WithError(err).WithField("path", c.FullPath()).Warn("Storage unavailable")
		utils.UnavailableResponse(c)
	case errors.As(err, &wfErr) && wfErr.Workflow == services.WorkflowCheckout:
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyCheckoutFailed))
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

// identity returns the caller's id set by the auth middleware.
func identity(c *gin.Context) (string, bool) {
	id, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return id, ok
}

func isConflict(err error) bool {
	return errors.Is(err, services.ErrConflict)
}
