package models

import (
	"fmt"
	"time"
)

// Wire timestamp format used by the device platform ("2025-01-02T15:04:05Z").
const WireTimeFormat = "2006-01-02T15:04:05Z"

// GPSData is one position report as it arrives on the wire.
type GPSData struct {
	ID             string  `json:"id"`
	UniqueID       string  `json:"uniqueId"`
	VehicleID      string  `json:"vehicleId"`
	Angle          int     `json:"angle"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Speed          float64 `json:"speed"`
	Time           string  `json:"time"`
	NumSatellites  int     `json:"numOfSatellites"`
	HDOP           float64 `json:"hdop"`
	SignalStrength int     `json:"signalStrength"`
	ACC            int     `json:"acc"`
	Altitude       int     `json:"altitude"`
	VehicleNumber  string  `json:"vehicleNumber"`
	FleetName      string  `json:"fleetName"`
	Mileage        float64 `json:"mileage"`
	ExtendData     string  `json:"extendData,omitempty"`
}

// GPSPayload is the webhook envelope carrying a batch of position reports.
type GPSPayload struct {
	TenantID int       `json:"tenantId"`
	Type     string    `json:"type"`
	Time     string    `json:"time"`
	Data     []GPSData `json:"data"`
}

// ToRecord converts a wire position report into a storable record. The record
// starts undelivered for both targets.
func (d GPSData) ToRecord() (PositionRecord, error) {
	ts, err := time.Parse(WireTimeFormat, d.Time)
	if err != nil {
		return PositionRecord{}, fmt.Errorf("invalid gps time %q: %w", d.Time, err)
	}
	return PositionRecord{
		DeviceID:      d.UniqueID,
		VehicleID:     d.VehicleID,
		VehicleNumber: d.VehicleNumber,
		FleetName:     d.FleetName,
		Timestamp:     ts.UTC(),
		Location:      Location{Lat: d.Lat, Lon: d.Lng},
		Altitude:      d.Altitude,
		Speed:         d.Speed,
		Angle:         d.Angle,
		Satellites:    d.NumSatellites,
		HDOP:          d.HDOP,
		SignalLevel:   d.SignalStrength,
		Ignition:      d.ACC != 0,
		Mileage:       d.Mileage,
		ExtendData:    d.ExtendData,
	}, nil
}

// AlarmData is one alarm terminal as it arrives on the wire.
type AlarmData struct {
	AlarmID   string  `json:"alarmId"`
	VehicleID string  `json:"vehicleId"`
	DriverID  string  `json:"driverId,omitempty"`
	AlarmType *int    `json:"alarmType"`
	Kind      string  `json:"kind"` // "START" or "END"
	Time      string  `json:"time"`
	Severity  int     `json:"severity"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Speed     float64 `json:"speed,omitempty"`
	MediaURL  string  `json:"mediaUrl,omitempty"`
}

// AlarmPayload is the webhook envelope carrying a batch of alarm terminals.
type AlarmPayload struct {
	TenantID int         `json:"tenantId"`
	Type     string      `json:"type"`
	Time     string      `json:"time"`
	Data     []AlarmData `json:"data"`
}

// ToHalf converts a wire alarm terminal into a correlation half.
func (d AlarmData) ToHalf() (AlarmHalf, error) {
	ts, err := time.Parse(WireTimeFormat, d.Time)
	if err != nil {
		return AlarmHalf{}, fmt.Errorf("invalid alarm time %q: %w", d.Time, err)
	}
	kind := AlarmKind(d.Kind)
	if kind != AlarmStart && kind != AlarmEnd {
		return AlarmHalf{}, fmt.Errorf("invalid alarm kind %q", d.Kind)
	}
	half := AlarmHalf{
		AlarmID:   d.AlarmID,
		Kind:      kind,
		VehicleID: d.VehicleID,
		DriverID:  d.DriverID,
		Severity:  d.Severity,
		Timestamp: ts.UTC(),
		Location:  Location{Lat: d.Lat, Lon: d.Lng},
		Speed:     d.Speed,
		MediaURL:  d.MediaURL,
	}
	if d.AlarmType != nil {
		half.AlarmType = *d.AlarmType
		half.HasType = true
	}
	return half, nil
}

// Claims are the validated contents of an ingress bearer token.
type Claims struct {
	Username string
	Exp      int64
}
