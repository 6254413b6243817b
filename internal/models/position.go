package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// PositionRecord is one stored GPS report from a device. The sent_to_* flags
// start false on ingestion and are flipped by the forwarding pipelines after a
// confirmed delivery; nothing else mutates a stored record.
type PositionRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DeviceID      string             `bson:"device_id" json:"device_id"`
	VehicleID     string             `bson:"vehicle_id" json:"vehicle_id"`
	VehicleNumber string             `bson:"vehicle_number" json:"vehicle_number"`
	FleetName     string             `bson:"fleet_name,omitempty" json:"fleet_name,omitempty"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	Location      Location           `bson:"location" json:"location"`
	Altitude      int                `bson:"altitude,omitempty" json:"altitude,omitempty"`
	Speed         float64            `bson:"speed" json:"speed"`
	Angle         int                `bson:"angle" json:"angle"`
	Satellites    int                `bson:"satellites,omitempty" json:"satellites,omitempty"`
	HDOP          float64            `bson:"hdop,omitempty" json:"hdop,omitempty"`
	SignalLevel   int                `bson:"signal_level,omitempty" json:"signal_level,omitempty"`
	Ignition      bool               `bson:"ignition" json:"ignition"`
	Mileage       float64            `bson:"mileage,omitempty" json:"mileage,omitempty"`
	ExtendData    string             `bson:"extend_data,omitempty" json:"extend_data,omitempty"`
	SentToMigtra  bool               `bson:"sent_to_migtra" json:"sent_to_migtra"`
	SentToGauss   bool               `bson:"sent_to_gauss" json:"sent_to_gauss"`
}
