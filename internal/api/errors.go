package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/smartcooking/backend/internal/middleware"
	"github.com/pageza/smartcooking/backend/internal/models"
	"github.com/pageza/smartcooking/backend/internal/service"
	"github.com/pageza/smartcooking/backend/internal/types"
)

var errorStatus = []struct {
	kind   error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrQuotaExceeded, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrInvalidState, http.StatusBadRequest},
	{service.ErrGeneration, http.StatusBadGateway},
	{service.ErrPayment, http.StatusBadGateway},
}

// respondError writes the JSON error body for err. Errors outside the
// domain taxonomy are logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		for _, e := range errorStatus {
			if errors.Is(domainErr.Kind, e.kind) {
				if e.status >= http.StatusInternalServerError {
					zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("upstream failure")
				}
				c.JSON(e.status, types.ErrorResponse{Error: e.kind.Error(), Detail: domainErr.Message})
				return
			}
		}
	}

	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
	c.JSON(http.StatusInternalServerError, types.ErrorResponse{
		Error:  "internal_error",
		Detail: "Errore interno del server",
	})
}

func respondBindingError(c *gin.Context, err error) {
	zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("invalid request body")
	c.JSON(http.StatusBadRequest, types.ErrorResponse{
		Error:  service.ErrValidation.Error(),
		Detail: "Dati della richiesta non validi",
	})
}

func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{
			Error:  service.ErrUnauthorized.Error(),
			Detail: "Token mancante",
		})
	}
	return user, ok
}
