package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/visionline/api-middleware/internal/ingest"
	"github.com/visionline/api-middleware/internal/models"
)

// WebhookHandler receives GPS and alarm pushes from the device platform.
type WebhookHandler struct {
	service *ingest.Service
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(service *ingest.Service) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// ReceiveGPS handles POST /webhook/gps
func (h *WebhookHandler) ReceiveGPS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var payload models.GPSPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	stored, err := h.service.IngestGPS(r.Context(), payload)
	if err != nil {
		log.WithError(err).Warn("gps ingestion rejected")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "GPS data stored successfully",
		"stored":  stored,
	})
}

// ReceiveAlarm handles POST /webhook/alarm
func (h *WebhookHandler) ReceiveAlarm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var payload models.AlarmPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	processed, err := h.service.IngestAlarm(r.Context(), payload)
	if err != nil {
		log.WithError(err).Warn("alarm ingestion rejected")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   "Alarm data processed successfully",
		"processed": processed,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
