// Package httpapi exposes the back-office JSON API: the missing-cashup scan,
// P&L summaries, and health.
package httpapi

import (
	"siteops/internal/report"
)

// MissingCashupsResponse is the success shape of the missing-cashup scan.
type MissingCashupsResponse struct {
	Success bool     `json:"success"`
	SiteID  string   `json:"siteId"`
	Dates   []string `json:"dates"`
}

// FailureResponse is the failure shape shared by all endpoints.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// PNLResponse carries per-day takings and a range summary.
type PNLResponse struct {
	Success bool              `json:"success"`
	SiteID  string            `json:"siteId"`
	Start   string            `json:"start"`
	End     string            `json:"end"`
	Days    []report.DayTotal `json:"days"`
	Totals  report.Summary    `json:"totals"`
}

// HealthResponse reports process liveness.
type HealthResponse struct {
	Status string `json:"status"`
}
