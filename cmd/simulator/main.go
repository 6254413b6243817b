// Device simulator: posts GPS batches and paired alarm START/END events to a
// running bridge the way the Visionline platform would, for load and
// end-to-end testing without real devices.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type gpsData struct {
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
}

type alarmData struct {
	AlarmID   string  `json:"alarmId"`
	VehicleID string  `json:"vehicleId"`
	AlarmType int     `json:"alarmType"`
	Kind      string  `json:"kind"`
	Time      string  `json:"time"`
	Severity  int     `json:"severity"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

type envelope struct {
	TenantID int         `json:"tenantId"`
	Type     string      `json:"type"`
	Time     string      `json:"time"`
	Data     interface{} `json:"data"`
}

// Cities used as jitter anchors so traffic looks geographically plausible.
var cities = []Location{
	{Lat: -33.4489, Lon: -70.6693}, // Santiago
	{Lat: -23.6509, Lon: -70.3975}, // Antofagasta
	{Lat: -36.8270, Lon: -73.0498}, // Concepción
	{Lat: -29.9533, Lon: -71.3395}, // La Serena
	{Lat: -41.4693, Lon: -72.9424}, // Puerto Montt
}

var alarmTypes = []int{8, 18006, 18007, 18010, 18011, 56000, 56002, 56003, 56004}

func jitterLocation(base Location, meters float64) Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

var authToken string

func authorizedPost(url string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func login(apiURL, username, password string) error {
	payload := map[string]string{"username": username, "password": password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(apiURL+"/api/auth/login", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	authToken = result.Token
	log.Info("Logged in to bridge")
	return nil
}

type vehicleState struct {
	VehicleID string
	Plate     string
	Position  Location
	SpeedKmh  float64
	Mileage   float64
	// Open alarm waiting for its END half, if any.
	openAlarmID   string
	openAlarmType int
}

func newFleet(n int) []*vehicleState {
	fleet := make([]*vehicleState, n)
	for i := range fleet {
		base := cities[rand.Intn(len(cities))]
		fleet[i] = &vehicleState{
			VehicleID: fmt.Sprintf("sim-veh-%03d", i+1),
			Plate:     fmt.Sprintf("SIM%04d", i+1),
			Position:  jitterLocation(base, 500),
			SpeedKmh:  20 + rand.Float64()*80,
			Mileage:   rand.Float64() * 100000,
		}
	}
	return fleet
}

func (s *vehicleState) step() {
	s.Position = jitterLocation(s.Position, 30+s.SpeedKmh)
	s.SpeedKmh = math.Max(0, s.SpeedKmh+(rand.Float64()*20-10))
	s.Mileage += s.SpeedKmh / 3600
}

func (s *vehicleState) gpsReport(now time.Time) gpsData {
	return gpsData{
		ID:             fmt.Sprintf("%s-%d", s.VehicleID, now.UnixNano()),
		UniqueID:       "imei-" + s.VehicleID,
		VehicleID:      s.VehicleID,
		Angle:          rand.Intn(360),
		Lat:            s.Position.Lat,
		Lng:            s.Position.Lon,
		Speed:          s.SpeedKmh,
		Time:           now.UTC().Format("2006-01-02T15:04:05Z"),
		NumSatellites:  6 + rand.Intn(8),
		HDOP:           0.5 + rand.Float64(),
		SignalStrength: 1 + rand.Intn(5),
		ACC:            1,
		Altitude:       400 + rand.Intn(200),
		VehicleNumber:  s.Plate,
		FleetName:      "sim-fleet",
		Mileage:        s.Mileage,
	}
}

func sendGPSBatch(apiURL string, fleet []*vehicleState) {
	now := time.Now()
	reports := make([]gpsData, 0, len(fleet))
	for _, v := range fleet {
		v.step()
		reports = append(reports, v.gpsReport(now))
	}
	body := envelope{
		TenantID: 1,
		Type:     "GPS",
		Time:     now.UTC().Format("2006-01-02T15:04:05Z"),
		Data:     reports,
	}
	data, _ := json.Marshal(body)
	resp, err := authorizedPost(apiURL+"/webhook/gps", bytes.NewBuffer(data))
	if err != nil {
		log.WithError(err).Error("Failed to send GPS batch")
		return
	}
	defer resp.Body.Close()
	log.WithFields(log.Fields{
		"vehicles": len(reports),
		"status":   resp.StatusCode,
	}).Info("Sent GPS batch")
}

func sendAlarm(apiURL string, v *vehicleState, kind string, alarmType int, alarmID string) {
	now := time.Now()
	body := envelope{
		TenantID: 1,
		Type:     "ALARM",
		Time:     now.UTC().Format("2006-01-02T15:04:05Z"),
		Data: []alarmData{{
			AlarmID:   alarmID,
			VehicleID: v.VehicleID,
			AlarmType: alarmType,
			Kind:      kind,
			Time:      now.UTC().Format("2006-01-02T15:04:05Z"),
			Severity:  1 + rand.Intn(3),
			Lat:       v.Position.Lat,
			Lng:       v.Position.Lon,
		}},
	}
	data, _ := json.Marshal(body)
	resp, err := authorizedPost(apiURL+"/webhook/alarm", bytes.NewBuffer(data))
	if err != nil {
		log.WithError(err).Error("Failed to send alarm")
		return
	}
	defer resp.Body.Close()
	log.WithFields(log.Fields{
		"vehicle_id": v.VehicleID,
		"alarm_id":   alarmID,
		"kind":       kind,
		"type":       alarmType,
		"status":     resp.StatusCode,
	}).Info("Sent alarm")
}

func maybeEmitAlarms(apiURL string, fleet []*vehicleState) {
	for _, v := range fleet {
		if v.openAlarmID != "" {
			// Close the open alarm with ~50% probability per tick.
			if rand.Float64() < 0.5 {
				sendAlarm(apiURL, v, "END", v.openAlarmType, v.openAlarmID)
				v.openAlarmID = ""
			}
			continue
		}
		if rand.Float64() < 0.1 {
			v.openAlarmID = fmt.Sprintf("alarm-%s-%d", v.VehicleID, time.Now().UnixNano())
			v.openAlarmType = alarmTypes[rand.Intn(len(alarmTypes))]
			sendAlarm(apiURL, v, "START", v.openAlarmType, v.openAlarmID)
		}
	}
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	username := os.Getenv("SIM_USERNAME")
	if username == "" {
		username = "visionline"
	}
	password := os.Getenv("SIM_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	fleetSize := 10
	if v := os.Getenv("SIM_FLEET_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			fleetSize = parsed
		}
	}
	interval := 10 * time.Second
	if v := os.Getenv("SIM_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			interval = parsed
		}
	}

	if err := login(apiURL, username, password); err != nil {
		log.WithError(err).Fatal("Cannot log in to bridge")
	}

	fleet := newFleet(fleetSize)
	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"interval":   interval.String(),
		"api_url":    apiURL,
	}).Info("Simulator started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		sendGPSBatch(apiURL, fleet)
		maybeEmitAlarms(apiURL, fleet)
	}
}
