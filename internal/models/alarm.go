package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlarmKind marks which terminal of a two-part alarm an event carries.
type AlarmKind string

const (
	AlarmStart AlarmKind = "START"
	AlarmEnd   AlarmKind = "END"
)

// AlarmHalf is one terminal (START or END) of an alarm reported by a device.
// Halves are transient: they exist to be merged into an AlarmSession.
type AlarmHalf struct {
	AlarmID   string    `bson:"alarm_id" json:"alarm_id"`
	Kind      AlarmKind `bson:"kind" json:"kind"`
	VehicleID string    `bson:"vehicle_id" json:"vehicle_id"`
	DriverID  string    `bson:"driver_id,omitempty" json:"driver_id,omitempty"`
	AlarmType int       `bson:"alarm_type" json:"alarm_type"`
	// HasType distinguishes a report that carried alarm type code 0 (a real
	// device code) from one that omitted the field entirely.
	HasType   bool      `bson:"-" json:"-"`
	Severity  int       `bson:"severity,omitempty" json:"severity,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Location  Location  `bson:"location" json:"location"`
	Speed     float64   `bson:"speed,omitempty" json:"speed,omitempty"`
	MediaURL  string    `bson:"media_url,omitempty" json:"media_url,omitempty"`
}

// AlarmRecord is the raw alarm event as persisted on ingestion, before any
// correlation. Kept for reporting and replay.
type AlarmRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AlarmID   string             `bson:"alarm_id" json:"alarm_id"`
	Kind      AlarmKind          `bson:"kind" json:"kind"`
	VehicleID string             `bson:"vehicle_id" json:"vehicle_id"`
	AlarmType int                `bson:"alarm_type" json:"alarm_type"`
	Severity  int                `bson:"severity,omitempty" json:"severity,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Location  Location           `bson:"location" json:"location"`
}

// AlarmSession is a completed alarm formed by merging a START and an END half.
// Category and Subtype come from the half that carried the raw alarm type code.
type AlarmSession struct {
	AlarmID   string    `json:"alarm_id"`
	VehicleID string    `json:"vehicle_id"`
	DriverID  string    `json:"driver_id,omitempty"`
	AlarmType int       `json:"alarm_type"`
	Category  string    `json:"category"`
	Subtype   string    `json:"subtype"`
	Severity  int       `json:"severity,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	StartLoc  Location  `json:"start_location"`
	EndLoc    Location  `json:"end_location"`
	Speed     float64   `json:"speed,omitempty"`
	MediaURL  string    `json:"media_url,omitempty"`
}
