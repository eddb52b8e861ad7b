// Package handlers provides HTTP handlers for option pricing, stress testing
// and delta-hedging simulation.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/quantdesk/internal/apperr"
	"github.com/aristath/quantdesk/internal/modules/options"
)

// Handler handles options HTTP requests
type Handler struct {
	simulator *options.Simulator
	log       zerolog.Logger
}

// NewHandler creates a new options handler
func NewHandler(simulator *options.Simulator, log zerolog.Logger) *Handler {
	return &Handler{
		simulator: simulator,
		log:       log.With().Str("handler", "options").Logger(),
	}
}

// contractRequest carries the Black-Scholes inputs common to all three
// endpoints. N is the binomial step count; zero skips the tree.
type contractRequest struct {
	S          float64 `json:"S"`
	K          float64 `json:"K"`
	T          float64 `json:"T"`
	R          float64 `json:"r"`
	Sigma      float64 `json:"sigma"`
	OptionType string  `json:"option_type"`
	N          int     `json:"N"`
}

func (req contractRequest) contract() (options.Contract, error) {
	typ, err := options.ParseOptionType(req.OptionType)
	if err != nil {
		return options.Contract{}, err
	}
	c := options.Contract{
		Spot:   req.S,
		Strike: req.K,
		T:      req.T,
		R:      req.R,
		Sigma:  req.Sigma,
		Type:   typ,
	}
	return c, c.Validate()
}

// HandlePricing handles POST /api/options/pricing
func (h *Handler) HandlePricing(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.InvalidParameterError{Detail: "invalid request body"})
		return
	}

	contract, err := req.contract()
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"bs": options.BlackScholes(contract),
	}

	if req.N > 0 {
		tree, err := options.BinomialTree(contract, req.N)
		if err != nil {
			h.writeError(w, err)
			return
		}
		response["tree"] = tree
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleStress handles POST /api/options/stress
func (h *Handler) HandleStress(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.InvalidParameterError{Detail: "invalid request body"})
		return
	}

	contract, err := req.contract()
	if err != nil {
		h.writeError(w, err)
		return
	}

	scenarios, err := options.StressTest(contract)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scenarios)
}

type hedgingRequest struct {
	contractRequest
	NSteps int `json:"n_steps"`
	NPaths int `json:"n_paths"`
}

// HandleHedging handles POST /api/options/hedging
func (h *Handler) HandleHedging(w http.ResponseWriter, r *http.Request) {
	var req hedgingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.InvalidParameterError{Detail: "invalid request body"})
		return
	}

	contract, err := req.contract()
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.simulator.Run(options.HedgingParams{
		Contract: contract,
		Steps:    req.NSteps,
		Paths:    req.NPaths,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// writeError maps an application error to its HTTP status with a
// `{"detail": ...}` body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	} else {
		h.log.Warn().Err(err).Msg("Request rejected")
	}
	h.writeJSON(w, status, map[string]string{"detail": err.Error()})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
