package payout

import (
	"encoding/json"
	"net/http"

	"github.com/sharkfunded/risk-engine/internal/logger"
	"github.com/sharkfunded/risk-engine/internal/monitoring"
)

// Handler exposes the payout authorization API:
//
//	POST /api/payouts/request  {account_id, amount} -> {authorized, reason?}
//	GET  /api/payouts/balance  -> balance summary
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates the payout HTTP handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Register attaches the payout routes to a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/payouts/request", h.handleRequest)
	mux.HandleFunc("/api/payouts/balance", h.handleBalance)
}

type payoutRequestBody struct {
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body payoutRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.AccountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	decision, err := h.service.Authorize(r.Context(), body.AccountID, body.Amount)
	if err != nil {
		h.log.Error("payout authorize: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	monitoring.RecordPayoutDecision(decision.Authorized)
	writeJSON(w, http.StatusOK, decision)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summary, err := h.service.Balance(r.Context())
	if err != nil {
		h.log.Error("payout balance: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
