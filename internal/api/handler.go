package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/prophecy-cli/internal/ai"
	"github.com/KaramelBytes/prophecy-cli/internal/api/dto"
	"github.com/KaramelBytes/prophecy-cli/internal/credentials"
	"github.com/KaramelBytes/prophecy-cli/internal/regression"
	"github.com/KaramelBytes/prophecy-cli/internal/valuation"
)

// Predictor runs one valuation. apiKey, when non-empty, overrides the
// configured credential for this call only.
type Predictor interface {
	Predict(ctx context.Context, h valuation.HouseInput, apiKey string) (*valuation.Prediction, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, h valuation.HouseInput, apiKey string) (*valuation.Prediction, error)

func (f PredictorFunc) Predict(ctx context.Context, h valuation.HouseInput, apiKey string) (*valuation.Prediction, error) {
	return f(ctx, h, apiKey)
}

// Handler serves the regression and valuation endpoints.
type Handler struct {
	predictor Predictor
}

// NewHandler builds a Handler. A nil predictor disables /valuations.
func NewHandler(p Predictor) *Handler {
	return &Handler{predictor: p}
}

// PostRegression handles POST /api/v1/regression.
//
// Responses:
//   - 200 OK: the fitted model and its line across the observed sizes.
//   - 400 Bad Request: malformed JSON or missing query_size.
//   - 422 Unprocessable Entity: the engine rejected the observations; kind is
//     invalid_input or degenerate_input.
func (h *Handler) PostRegression(c *gin.Context) {
	var req dto.RegressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}
	if req.QuerySize == nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("query_size is required", nil))
		return
	}

	m, err := regression.Fit(req.Observations, *req.QuerySize)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(regression.UserMessage(err), err).WithKind(fitKind(err)))
		return
	}
	resp := dto.RegressionResponse{Model: m}
	if lo, hi, ok := regression.SizeRange(req.Observations); ok {
		resp.Line = []regression.Observation{{Size: lo, Price: m.At(lo)}, {Size: hi, Price: m.At(hi)}}
	}
	c.JSON(http.StatusOK, resp)
}

// PostValuation handles POST /api/v1/valuations.
//
// Responses:
//   - 200 OK: the full prediction.
//   - 400 Bad Request: malformed JSON or an invalid house.
//   - 401 Unauthorized: no usable API key, or the provider rejected it.
//   - 422 Unprocessable Entity: the comparables could not be fitted.
//   - 502 Bad Gateway: the AI runtime failed or replied with garbage.
//   - 504 Gateway Timeout: the request deadline expired.
func (h *Handler) PostValuation(c *gin.Context) {
	if h.predictor == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("valuations are not configured on this server", nil))
		return
	}
	var req dto.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}
	if req.PropertyType != "" {
		if pt, err := valuation.ParsePropertyType(string(req.PropertyType)); err == nil {
			req.PropertyType = pt
		}
	}

	p, err := h.predictor.Predict(c.Request.Context(), req.HouseInput, req.APIKey)
	if err != nil {
		_ = c.Error(err)
		status, resp := valuationError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, p)
}

func valuationError(err error) (int, dto.ErrorResponse) {
	switch {
	case errors.Is(err, valuation.ErrInvalidHouse):
		return http.StatusBadRequest, dto.NewErrorResponse("invalid house input", err)
	case errors.Is(err, regression.ErrInvalidInput), errors.Is(err, regression.ErrDegenerateInput):
		return http.StatusUnprocessableEntity, dto.NewErrorResponse(regression.UserMessage(err), err).WithKind(fitKind(err))
	case errors.Is(err, credentials.ErrMissing):
		return http.StatusUnauthorized, dto.NewErrorResponse("no API key configured", err)
	case ai.IsAuth(err):
		return http.StatusUnauthorized, dto.NewErrorResponse("the AI provider rejected the API key", err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, dto.NewErrorResponse("the AI runtime did not answer in time", err)
	default:
		return http.StatusBadGateway, dto.NewErrorResponse("failed to fetch market data", err)
	}
}

func fitKind(err error) string {
	switch {
	case errors.Is(err, regression.ErrDegenerateInput):
		return "degenerate_input"
	case errors.Is(err, regression.ErrInvalidInput):
		return "invalid_input"
	}
	return ""
}
