package api

import (
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status. Unknown errors are
// logged and reported as 500 with the fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrImageRequired),
		errors.Is(err, service.ErrInvalidImage),
		errors.Is(err, service.ErrInvalidImageIndex):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrImageTooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed),
		errors.Is(err, service.ErrInvalidRefreshToken):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotGymManager):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrGymNotFound),
		errors.Is(err, service.ErrEquipmentNotFound),
		errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
