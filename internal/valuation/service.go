package valuation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/prophecy-cli/internal/ai"
	"github.com/KaramelBytes/prophecy-cli/internal/regression"
)

// Options controls how a Service talks to its runtime.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Comparables int
	Currency    string
}

// Prediction is the full result of one valuation round-trip.
type Prediction struct {
	ID          string                   `json:"id"`
	CreatedAt   time.Time                `json:"created_at"`
	Provider    string                   `json:"provider"`
	Model       string                   `json:"model"`
	RequestID   string                   `json:"request_id,omitempty"`
	Currency    string                   `json:"currency"`
	Input       HouseInput               `json:"input"`
	Comparables []regression.Observation `json:"comparables"`
	Regression  regression.Model         `json:"regression"`
	AIAnalysis  Analysis                 `json:"ai_analysis"`
	Divergence  Divergence               `json:"divergence"`
	Usage       ai.Usage                 `json:"usage"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

// Service fetches comparables from an AI runtime and fits them.
type Service struct {
	runtime ai.Runtime
	opts    Options
	log     zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService wires a runtime with options. A zero Comparables or Currency is
// replaced by the defaults.
func NewService(rt ai.Runtime, opts Options, log zerolog.Logger) *Service {
	if opts.Comparables <= 0 {
		opts.Comparables = DefaultComparables
	}
	opts.Currency = strings.ToUpper(strings.TrimSpace(opts.Currency))
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	return &Service{
		runtime: rt,
		opts:    opts,
		log:     log,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Options returns the effective options after defaults.
func (s *Service) Options() Options { return s.opts }

// PromptPreview returns the prompt that Predict would send, without calling
// the runtime.
func (s *Service) PromptPreview(h HouseInput) (string, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}
	return BuildPrompt(h, s.opts.Comparables, s.opts.Currency), nil
}

// Predict validates h, asks the runtime for comparables and an expert
// estimate, and fits the comparables locally.
//
// Runtime failures are returned wrapped as "fetch market data". Engine
// failures are returned wrapped as "regression" and still match
// regression.ErrInvalidInput or regression.ErrDegenerateInput.
func (s *Service) Predict(ctx context.Context, h HouseInput) (*Prediction, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if s.runtime == nil {
		return nil, errors.New("no AI runtime configured")
	}
	if strings.TrimSpace(s.opts.Model) == "" {
		return nil, errors.New("no model configured")
	}

	prompt := BuildPrompt(h, s.opts.Comparables, s.opts.Currency)
	req := ai.GenerateRequest{
		Model: s.opts.Model,
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      s.opts.MaxTokens,
		Temperature:    s.opts.Temperature,
		ResponseFormat: ai.JSONResponse,
	}

	s.log.Debug().
		Str("provider", s.opts.Provider).
		Str("model", s.opts.Model).
		Str("location", h.Location).
		Float64("sqft", h.SqFt).
		Int("comparables", s.opts.Comparables).
		Msg("requesting market data")

	start := s.now()
	resp, err := s.runtime.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch market data: %w", err)
	}
	s.log.Debug().
		Str("request_id", resp.RequestID).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", s.now().Sub(start)).
		Msg("market data received")

	reply, err := Decode(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("fetch market data: %w", err)
	}
	for _, w := range reply.Warnings {
		s.log.Warn().Str("request_id", resp.RequestID).Msg(w)
	}

	model, err := regression.Fit(reply.Comparables, h.SqFt)
	if err != nil {
		return nil, fmt.Errorf("regression: %w", err)
	}

	return &Prediction{
		ID:          s.newID(),
		CreatedAt:   s.now().UTC(),
		Provider:    s.opts.Provider,
		Model:       s.opts.Model,
		RequestID:   resp.RequestID,
		Currency:    s.opts.Currency,
		Input:       h,
		Comparables: reply.Comparables,
		Regression:  model,
		AIAnalysis:  reply.Analysis,
		Divergence:  Compare(reply.Analysis.EstimatedPrice, model.PredictedPrice),
		Usage:       resp.Usage,
		Warnings:    reply.Warnings,
	}, nil
}
