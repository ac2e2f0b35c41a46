package models

// CaptureRequest is the body of POST /api/v1/capture.
type CaptureRequest struct {
	URL string `json:"url" binding:"required"`
}

// PlanRequest is the body of POST /api/v1/plan. Exactly one of URL (plan
// from the persisted passport) or Passport (plan from an inline document)
// must be set.
type PlanRequest struct {
	URL      string    `json:"url,omitempty"`
	Passport *Passport `json:"passport,omitempty"`
}

// TimingInfo reports wall-clock stage durations in API responses.
type TimingInfo struct {
	TotalMs   int64 `json:"total_ms"`
	CaptureMs int64 `json:"capture_ms,omitempty"`
	PlanMs    int64 `json:"plan_ms,omitempty"`
}

// CaptureResponse is the envelope of POST /api/v1/capture.
type CaptureResponse struct {
	Success  bool         `json:"success"`
	Passport *Passport    `json:"passport,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
	Timing   TimingInfo   `json:"timing"`
}

// PlanResponse is the envelope of POST /api/v1/plan.
type PlanResponse struct {
	Success bool         `json:"success"`
	Plan    *Plan        `json:"plan,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Timing  TimingInfo   `json:"timing"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
