package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/internal/system"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// BriefingHandler handles briefing API endpoints
// ⭐ SSOT: 브리핑 API 핸들러는 이 구조체에서만
type BriefingHandler struct {
	system *system.System
	logger *logger.Logger
}

// NewBriefingHandler creates a new briefing handler
func NewBriefingHandler(sys *system.System, log *logger.Logger) *BriefingHandler {
	return &BriefingHandler{system: sys, logger: log}
}

// GetStatus returns dependency configuration and publish stats
// GET /api/status
func (h *BriefingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.system.Status())
}

// GetHistory returns the publish history
// GET /api/history
func (h *BriefingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.system.History())
}

// GetStoredData lists stored snapshots per date
// GET /api/data
func (h *BriefingHandler) GetStoredData(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.system.StoredData(r.Context()))
}

// Run executes one briefing slot immediately
// POST /api/run/{slot}  (slot: 07:00, 08:00, 12:00, 15:40, 19:00)
func (h *BriefingHandler) Run(w http.ResponseWriter, r *http.Request) {
	slot := market.TimeSlot(mux.Vars(r)["slot"])
	if !slot.Valid() {
		respondError(w, http.StatusBadRequest, "unsupported briefing time slot")
		return
	}

	result := h.system.RunBriefing(r.Context(), slot)
	respondJSON(w, http.StatusOK, result)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
