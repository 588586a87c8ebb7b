package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/admissions/internal/app/models/dto"
	"github.com/yigit/admissions/internal/pkg/apperrors"
)

// errorMapping pairs an error kind with its HTTP status and code
type errorMapping struct {
	target error
	status int
	code   dto.ErrorCode
}

// checked in order; ErrDocumentGeneration and ErrNotification fall under ErrExternalService
var errorMappings = []errorMapping{
	{apperrors.ErrValidation, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrForbidden, http.StatusForbidden, dto.ErrorCodeForbidden},
	{apperrors.ErrNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrInvalidTransition, http.StatusUnprocessableEntity, dto.ErrorCodeInvalidTransition},
	{apperrors.ErrOfferExpired, http.StatusUnprocessableEntity, dto.ErrorCodeOfferExpired},
	{apperrors.ErrExternalService, http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
	{apperrors.ErrConfiguration, http.StatusInternalServerError, dto.ErrorCodeConfiguration},
}

// HandleAPIError writes err as the standard error response
func HandleAPIError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status = m.status
			detail = dto.NewErrorDetail(m.code, err.Error())
			break
		}
	}

	var custom *apperrors.CustomError
	if errors.As(err, &custom) {
		if custom.Code != "" {
			detail.Code = dto.ErrorCode(custom.Code)
		}
		if custom.Details != nil {
			detail.WithDetails(custom.Details)
		}
	}
	if apperrors.IsRetryable(err) {
		detail.WithRetryable(true).WithSeverity(dto.ErrorSeverityWarning)
	}

	log := zerolog.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		if status == http.StatusInternalServerError {
			// internal details stay in the logs
			detail.Message = "Internal server error"
			detail.Details = nil
		}
	} else {
		log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}
