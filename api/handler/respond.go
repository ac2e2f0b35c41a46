package handler

import (
	"errors"
	"net/http"

	"github.com/shopmorph/shopmorph/models"
)

// asPipelineError coerces any error to a PipelineError for the wire.
func asPipelineError(err error) *models.PipelineError {
	var pErr *models.PipelineError
	if errors.As(err, &pErr) {
		return pErr
	}
	return models.NewPipelineError(models.ErrCodeInternal, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.PipelineError) int {
	switch e.Code {
	case models.ErrCodeNavTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeBrowserCrash, models.ErrCodeServiceFailure:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeMissingArtifact:
		return http.StatusNotFound // 404
	case models.ErrCodeNoSections:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
