package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionline/api-middleware/internal/models"
)

func TestReportPositions(t *testing.T) {
	positions := &memPositions{records: []models.PositionRecord{
		{VehicleID: "V1", Timestamp: time.Now().UTC()},
	}}
	handler := NewReportHandler(positions, &memAlarms{}, &memAudit{}, &memAudit{})

	req := httptest.NewRequest(http.MethodGet, "/api/positions?vehicle_id=V1", nil)
	rec := httptest.NewRecorder()
	handler.Positions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var out []models.PositionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out, 1)
}

func TestReportAlarms_RequiresVehicle(t *testing.T) {
	handler := NewReportHandler(&memPositions{}, &memAlarms{}, &memAudit{}, &memAudit{})

	req := httptest.NewRequest(http.MethodGet, "/api/alarms", nil)
	rec := httptest.NewRecorder()
	handler.Alarms(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportAudit(t *testing.T) {
	migtraAudit := &memAudit{entries: []models.DeliveryAuditEntry{
		{DeliveryID: "d1", Target: "migtra", Status: models.DeliverySuccess, SentAt: time.Now().UTC()},
	}}
	handler := NewReportHandler(&memPositions{}, &memAlarms{}, migtraAudit, &memAudit{})

	req := httptest.NewRequest(http.MethodGet, "/api/audit/migtra", nil)
	rec := httptest.NewRecorder()
	handler.Audit(models.TargetMigtra)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var out []models.DeliveryAuditEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "d1", out[0].DeliveryID)
}

func TestReportAudit_BadTimeBound(t *testing.T) {
	handler := NewReportHandler(&memPositions{}, &memAlarms{}, &memAudit{}, &memAudit{})

	req := httptest.NewRequest(http.MethodGet, "/api/audit/gauss?from=yesterday", nil)
	rec := httptest.NewRecorder()
	handler.Audit(models.TargetGauss)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
