package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/visionline/api-middleware/internal/models"
)

// MQTTSource subscribes to the device broker and feeds payloads into the same
// ingestion path as the webhooks. Some device fleets push over MQTT instead
// of calling the HTTP API.
type MQTTSource struct {
	Service    *Service
	BrokerURL  string
	ClientID   string
	GPSTopic   string
	AlarmTopic string

	client mqtt.Client
}

// Start connects to the broker and subscribes to both topics.
func (m *MQTTSource) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(m.BrokerURL).
		SetClientID(m.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		log.WithField("broker", m.BrokerURL).Info("connected to mqtt broker")
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.WithError(err).Warn("mqtt connection lost")
	}

	m.client = mqtt.NewClient(opts)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", token.Error())
	}

	if token := m.client.Subscribe(m.GPSTopic, 1, m.handleGPS); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribing to %s: %w", m.GPSTopic, token.Error())
	}
	if token := m.client.Subscribe(m.AlarmTopic, 1, m.handleAlarm); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribing to %s: %w", m.AlarmTopic, token.Error())
	}
	return nil
}

// Stop disconnects from the broker.
func (m *MQTTSource) Stop() {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
	}
}

func (m *MQTTSource) handleGPS(_ mqtt.Client, msg mqtt.Message) {
	var payload models.GPSPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("dropping undecodable mqtt message")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if _, err := m.Service.IngestGPS(ctx, payload); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Error("mqtt gps ingestion failed")
	}
}

func (m *MQTTSource) handleAlarm(_ mqtt.Client, msg mqtt.Message) {
	var payload models.AlarmPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("dropping undecodable mqtt message")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if _, err := m.Service.IngestAlarm(ctx, payload); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Error("mqtt alarm ingestion failed")
	}
}
