package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/metrics"
)

// Publisher is the part of mqtt.Client used to send change notifications.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// ConnectMQTT opens a client connection to broker.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect: timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}

// MQTTPublisher sends every change as JSON to <prefix>/<kind path>, e.g.
// dispatch/appointment/assigned.
type MQTTPublisher struct {
	client  Publisher
	prefix  string
	qos     byte
	timeout time.Duration
	logger  logrus.FieldLogger
	metrics *metrics.DispatchMetrics
}

func NewMQTTPublisher(client Publisher, prefix string, logger logrus.FieldLogger, m *metrics.DispatchMetrics) *MQTTPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MQTTPublisher{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "/"),
		qos:     1,
		timeout: 5 * time.Second,
		logger:  logger,
		metrics: m,
	}
}

// Topic returns the topic a change kind is published on.
func (p *MQTTPublisher) Topic(kind dispatch.ChangeKind) string {
	return p.prefix + "/" + strings.ReplaceAll(string(kind), ".", "/")
}

// Handle publishes c. Failures are logged and counted, never returned, so a
// broker outage cannot affect dispatch operations.
func (p *MQTTPublisher) Handle(c dispatch.Change) {
	err := p.publish(c)
	p.metrics.ObservePublish("mqtt", err)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"change":   c.Kind,
			"revision": c.Revision,
		}).Warn("Failed to publish change")
	}
}

func (p *MQTTPublisher) publish(c dispatch.Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	token := p.client.Publish(p.Topic(c.Kind), p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: timed out", c.Kind)
	}
	return token.Error()
}
