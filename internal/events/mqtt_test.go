package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/metrics"
	"github.com/ukydev/transport-dispatch/internal/models"
)

var testTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool                     { return t.complete }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.complete {
		close(ch)
	}
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	messages []published
	token    *fakeToken
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.messages = append(p.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return p.token
}

func TestMQTTPublisher_Handle(t *testing.T) {
	client := &fakePublisher{token: &fakeToken{complete: true}}
	p := NewMQTTPublisher(client, "dispatch/", nil, metrics.NewDispatchMetrics(prometheus.NewRegistry()))
	change := dispatch.Change{
		Kind:        dispatch.ChangeAssigned,
		Appointment: &models.Appointment{ID: "a1", VehicleID: "v1", Status: models.StatusAssigned},
		Revision:    4,
		At:          testTime,
	}

	p.Handle(change)

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "dispatch/appointment/assigned", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	var decoded dispatch.Change
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, dispatch.ChangeAssigned, decoded.Kind)
	assert.Equal(t, uint64(4), decoded.Revision)
	assert.Equal(t, "v1", decoded.Appointment.VehicleID)
}

func TestMQTTPublisher_Errors(t *testing.T) {
	tests := []struct {
		name  string
		token *fakeToken
	}{
		{"broker error", &fakeToken{complete: true, err: errors.New("not connected")}},
		{"timeout", &fakeToken{complete: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewMQTTPublisher(&fakePublisher{token: tt.token}, "dispatch", nil, nil)
			assert.Error(t, p.publish(dispatch.Change{Kind: dispatch.ChangeCreated}))
			// Handle swallows the error
			p.Handle(dispatch.Change{Kind: dispatch.ChangeCreated})
		})
	}
}

func TestMQTTPublisher_Topic(t *testing.T) {
	p := NewMQTTPublisher(&fakePublisher{}, "clinic/dispatch", nil, nil)
	assert.Equal(t, "clinic/dispatch/vehicle/removed", p.Topic(dispatch.ChangeVehicleRemoved))
}
