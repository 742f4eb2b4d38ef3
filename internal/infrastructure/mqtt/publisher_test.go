package mqtt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "snaily-cad/events/PanicButton", Topic("snaily-cad/events", "PanicButton"))
	assert.Equal(t, "PanicButton", Topic("", "PanicButton"))
}

func TestClientOptions(t *testing.T) {
	cfg := &config.Config{
		MQTTBrokerURL:   "tcp://broker:1883",
		MQTTClientID:    "cad",
		MQTTUsername:    "bridge",
		MQTTPassword:    "secret",
		MQTTQoS:         1,
		MQTTTopicPrefix: "cad/events/",
	}

	opts := clientOptions(cfg)
	assert.True(t, strings.HasPrefix(opts.ClientID, "cad-"))
	assert.Equal(t, "bridge", opts.Username)
	assert.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	assert.True(t, opts.AutoReconnect)
	assert.True(t, opts.ConnectRetry)

	p := NewPublisher(cfg)
	assert.Equal(t, "cad/events", p.prefix)
	assert.Equal(t, byte(1), p.qos)
	assert.False(t, p.client.IsConnected())
}

func TestPublishRejectsUnmarshalable(t *testing.T) {
	p := NewPublisher(&config.Config{MQTTBrokerURL: "tcp://127.0.0.1:1", MQTTClientID: "cad"})
	err := p.Publish("Bad", make(chan int))
	assert.Error(t, err)
}

func TestPublishFailsFastWhileDisconnected(t *testing.T) {
	p := NewPublisher(&config.Config{MQTTBrokerURL: "tcp://127.0.0.1:1", MQTTClientID: "cad"})

	start := time.Now()
	for i := 0; i < 50; i++ {
		assert.ErrorIs(t, p.Publish("PanicButton", map[string]string{"unit": "1A-10"}), ErrNotConnected)
	}
	assert.Less(t, time.Since(start), time.Second)
	p.Disconnect()
}
