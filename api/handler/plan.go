package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopmorph/shopmorph/models"
	"github.com/shopmorph/shopmorph/pipeline"
)

// Plan returns a handler for POST /api/v1/plan.
//
// Accepts either a donor URL (compiles from the persisted passport; a
// missing passport is MISSING_ARTIFACT, the client should capture first)
// or an inline passport document.
func Plan(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.PlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.PlanResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		if (req.URL == "") == (req.Passport == nil) {
			c.JSON(http.StatusBadRequest, models.PlanResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "provide exactly one of url or passport",
				},
			})
			return
		}

		var (
			plan *models.Plan
			err  error
		)
		planStart := time.Now()
		if req.Passport != nil {
			if errs := req.Passport.Validate(); len(errs) > 0 {
				c.JSON(http.StatusBadRequest, models.PlanResponse{
					Success: false,
					Error: &models.ErrorDetail{
						Code:    models.ErrCodeInvalidInput,
						Message: "invalid passport: " + errs[0],
					},
				})
				return
			}
			plan, err = p.CompilePlan(c.Request.Context(), req.Passport)
		} else {
			plan, err = p.Plan(c.Request.Context(), req.URL)
		}

		timing := models.TimingInfo{
			TotalMs: time.Since(totalStart).Milliseconds(),
			PlanMs:  time.Since(planStart).Milliseconds(),
		}
		if err != nil {
			pErr := asPipelineError(err)
			c.JSON(mapErrorToStatus(pErr), models.PlanResponse{
				Success: false,
				Error:   pErr.ToDetail(),
				Timing:  timing,
			})
			return
		}

		c.JSON(http.StatusOK, models.PlanResponse{
			Success: true,
			Plan:    plan,
			Timing:  timing,
		})
	}
}
