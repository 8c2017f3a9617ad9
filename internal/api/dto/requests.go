package dto

import (
	"github.com/KaramelBytes/prophecy-cli/internal/regression"
	"github.com/KaramelBytes/prophecy-cli/internal/valuation"
)

// RegressionRequest is the body of POST /api/v1/regression.
type RegressionRequest struct {
	Observations []regression.Observation `json:"observations"`
	QuerySize    *float64                 `json:"query_size"`
}

// RegressionResponse is the fitted model plus the line endpoints across the
// observed size range.
type RegressionResponse struct {
	regression.Model
	Line []regression.Observation `json:"line"`
}

// ValuationRequest is the body of POST /api/v1/valuations. APIKey overrides
// the server's configured key for this request only.
type ValuationRequest struct {
	valuation.HouseInput
	APIKey string `json:"api_key,omitempty"`
}
