package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopmorph/shopmorph/models"
	"github.com/shopmorph/shopmorph/pipeline"
)

// Capture returns a handler for POST /api/v1/capture.
//
// Orchestration flow:
//  1. Parse & validate request.
//  2. Pipeline.Capture → passport (persisted to the workspace).
//  3. Fill timing, return 200.
func Capture(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.CaptureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.CaptureResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		if !validURL(req.URL) {
			c.JSON(http.StatusBadRequest, models.CaptureResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "url must be absolute http(s)",
				},
			})
			return
		}

		captureStart := time.Now()
		passport, err := p.Capture(c.Request.Context(), req.URL)
		timing := models.TimingInfo{
			TotalMs:   time.Since(totalStart).Milliseconds(),
			CaptureMs: time.Since(captureStart).Milliseconds(),
		}
		if err != nil {
			respondCaptureError(c, err, passport, timing)
			return
		}

		c.JSON(http.StatusOK, models.CaptureResponse{
			Success:  true,
			Passport: passport,
			Timing:   timing,
		})
	}
}

// respondCaptureError writes a structured error. A partial passport (e.g.
// zero sections) rides along so callers can inspect the diagnostics.
func respondCaptureError(c *gin.Context, err error, partial *models.Passport, timing models.TimingInfo) {
	pErr := asPipelineError(err)
	c.JSON(mapErrorToStatus(pErr), models.CaptureResponse{
		Success:  false,
		Passport: partial,
		Error:    pErr.ToDetail(),
		Timing:   timing,
	})
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
