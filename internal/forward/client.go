package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/visionline/api-middleware/internal/db"
	"github.com/visionline/api-middleware/internal/models"
)

// Outcome classifies one terminal delivery attempt.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeDelivered
	OutcomeNotActivated
)

// postJSON issues one JSON POST with an optional bearer token and returns the
// status code and response body. Transport errors come back as err.
func postJSON(ctx context.Context, client *http.Client, url, token string, payload interface{}) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("encoding payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}

// writeAudit appends one delivery audit entry. Audit failures are logged and
// swallowed: losing an audit line must never fail a delivery that the target
// already accepted.
func writeAudit(ctx context.Context, col db.AuditCollection, target models.Target, deliveryID string, payload interface{}, response string, status models.DeliveryStatus, errMsg string) {
	entry := models.DeliveryAuditEntry{
		DeliveryID:   deliveryID,
		SentAt:       time.Now().UTC(),
		Target:       string(target),
		Payload:      payload,
		Response:     response,
		Status:       status,
		ErrorMessage: errMsg,
	}
	if err := col.InsertEntry(ctx, entry); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"target":      target,
			"delivery_id": deliveryID,
		}).Error("failed to save delivery audit entry")
	}
}

func newDeliveryID() string {
	return uuid.NewString()
}
