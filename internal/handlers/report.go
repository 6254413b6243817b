package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/visionline/api-middleware/internal/db"
	"github.com/visionline/api-middleware/internal/models"
)

// ReportHandler serves the read-only operational endpoints: recent positions,
// recent alarms per vehicle, and the delivery audit trail.
type ReportHandler struct {
	positions   db.PositionCollection
	alarms      db.AlarmCollection
	migtraAudit db.AuditCollection
	gaussAudit  db.AuditCollection
}

// NewReportHandler creates a new reporting handler
func NewReportHandler(positions db.PositionCollection, alarms db.AlarmCollection, migtraAudit, gaussAudit db.AuditCollection) *ReportHandler {
	return &ReportHandler{
		positions:   positions,
		alarms:      alarms,
		migtraAudit: migtraAudit,
		gaussAudit:  gaussAudit,
	}
}

// Positions handles GET /api/positions?vehicle_id=&limit=
func (h *ReportHandler) Positions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := queryLimit(r, 100)
	records, err := h.positions.FindRecent(r.Context(), r.URL.Query().Get("vehicle_id"), limit)
	if err != nil {
		http.Error(w, "Failed to query positions", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.PositionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Alarms handles GET /api/alarms?vehicle_id=&limit=
func (h *ReportHandler) Alarms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	vehicleID := r.URL.Query().Get("vehicle_id")
	if vehicleID == "" {
		http.Error(w, "vehicle_id is required", http.StatusBadRequest)
		return
	}
	records, err := h.alarms.FindByVehicle(r.Context(), vehicleID, queryLimit(r, 100))
	if err != nil {
		http.Error(w, "Failed to query alarms", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.AlarmRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Audit handles GET /api/audit/{migtra|gauss}?from=&to= with RFC3339 bounds.
func (h *ReportHandler) Audit(target models.Target) http.HandlerFunc {
	col := h.migtraAudit
	if target == models.TargetGauss {
		col = h.gaussAudit
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		from, err := queryTime(r, "from", time.Now().Add(-24*time.Hour))
		if err != nil {
			http.Error(w, "Invalid from time", http.StatusBadRequest)
			return
		}
		to, err := queryTime(r, "to", time.Now())
		if err != nil {
			http.Error(w, "Invalid to time", http.StatusBadRequest)
			return
		}
		entries, err := col.FindByTimeRange(r.Context(), from, to)
		if err != nil {
			http.Error(w, "Failed to query audit entries", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []models.DeliveryAuditEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func queryLimit(r *http.Request, fallback int64) int64 {
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func queryTime(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, v)
}
