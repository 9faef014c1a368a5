package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bankpulse/bankpulse/internal/config"
	"github.com/bankpulse/bankpulse/internal/engine"
	"github.com/bankpulse/bankpulse/internal/stream"
	"github.com/bankpulse/bankpulse/pkg/models"
)

const (
	maxCustomerCount    = 10000
	maxTransactionCount = 100000
	maxBatchSize        = 100
)

// Handlers contains all HTTP handlers
type Handlers struct {
	config *config.Config
	engine *engine.Engine
	stream *stream.Coordinator
}

// NewHandlers creates new handlers
func NewHandlers(cfg *config.Config, eng *engine.Engine, coord *stream.Coordinator) *Handlers {
	return &Handlers{
		config: cfg,
		engine: eng,
		stream: coord,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "bankpulse",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// GenerateRequest is the bulk generation request body
type GenerateRequest struct {
	CustomerCount    int `json:"customer_count"`
	TransactionCount int `json:"transaction_count"`
}

// GenerateDataset produces a linked synthetic dataset
func (h *Handlers) GenerateDataset(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CustomerCount <= 0 {
		req.CustomerCount = h.config.Generator.DefaultCustomers
	}
	if req.TransactionCount <= 0 {
		req.TransactionCount = h.config.Generator.DefaultTransactions
	}
	if req.CustomerCount > maxCustomerCount || req.TransactionCount > maxTransactionCount {
		respondError(w, http.StatusBadRequest, "Requested dataset too large")
		return
	}

	respond(w, http.StatusOK, h.engine.Generate(req.CustomerCount, req.TransactionCount))
}

// StartStream starts the live feed
func (h *Handlers) StartStream(w http.ResponseWriter, r *http.Request) {
	h.stream.Start()
	respond(w, http.StatusOK, map[string]interface{}{
		"streaming": true,
	})
}

// StopStream stops the live feed
func (h *Handlers) StopStream(w http.ResponseWriter, r *http.Request) {
	h.stream.Stop()
	respond(w, http.StatusOK, map[string]interface{}{
		"streaming": false,
	})
}

// GetStreamSnapshot returns the current rolling feed state
func (h *Handlers) GetStreamSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.stream.Snapshot()
	respond(w, http.StatusOK, map[string]interface{}{
		"streaming": h.stream.Running(),
		"snapshot":  snap,
	})
}

// Underwrite scores a loan application
func (h *Handlers) Underwrite(w http.ResponseWriter, r *http.Request) {
	var app models.LoanApplication
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if app.RequestedAmount < 0 || app.CreditScore < 0 {
		respondError(w, http.StatusBadRequest, "Negative amounts are not allowed")
		return
	}

	decision, err := h.engine.ScoreApplication(r.Context(), app)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusOK, decision)
}

// UnderwriteBatch scores multiple applications concurrently
func (h *Handlers) UnderwriteBatch(w http.ResponseWriter, r *http.Request) {
	var apps []models.LoanApplication
	if err := json.NewDecoder(r.Body).Decode(&apps); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(apps) == 0 {
		respondError(w, http.StatusBadRequest, "Empty batch")
		return
	}
	if len(apps) > maxBatchSize {
		respondError(w, http.StatusBadRequest, "Batch too large")
		return
	}
	for _, app := range apps {
		if app.RequestedAmount < 0 || app.CreditScore < 0 {
			respondError(w, http.StatusBadRequest, "Negative amounts are not allowed")
			return
		}
	}

	decisions, err := h.engine.ScoreBatch(r.Context(), apps)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusOK, decisions)
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
