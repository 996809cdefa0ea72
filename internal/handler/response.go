package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/khairulanwar/clinic-api/pkg/errors"
	"github.com/khairulanwar/clinic-api/pkg/httputil"
)

// RespondError maps a service error to the wire. Validation messages
// pass through verbatim; anything unexpected is logged server-side
// and collapses to a generic retry message.
func RespondError(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, httputil.NewValidationResponse(apperrors.UserMessages(err)))
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, httputil.NewErrorResponse(apperrors.UserMessages(err)[0]))
	case apperrors.IsAccessDenied(err):
		c.JSON(http.StatusForbidden, httputil.NewErrorResponse("access denied"))
	default:
		log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError,
			httputil.NewErrorResponse("something went wrong, please try again later"))
	}
}
