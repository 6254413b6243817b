package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryStatus is the terminal outcome of one delivery attempt.
type DeliveryStatus string

const (
	DeliverySuccess      DeliveryStatus = "success"
	DeliveryFailed       DeliveryStatus = "failed"
	DeliveryNotActivated DeliveryStatus = "not_activated"
)

// DeliveryAuditEntry records one delivery attempt to a downstream target,
// including retries. Append-only; one entry per terminal attempt.
type DeliveryAuditEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DeliveryID   string             `bson:"delivery_id" json:"delivery_id"`
	SentAt       time.Time          `bson:"sent_at" json:"sent_at"`
	Target       string             `bson:"target" json:"target"`
	Payload      interface{}        `bson:"payload" json:"payload"`
	Response     string             `bson:"response,omitempty" json:"response,omitempty"`
	Status       DeliveryStatus     `bson:"status" json:"status"`
	ErrorMessage string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
}
