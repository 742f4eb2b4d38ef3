// Package mqtt mirrors dispatch events onto an MQTT broker for bridges
// and in-vehicle devices that cannot hold a websocket.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

const (
	publishTimeout = 3 * time.Second
	connectTimeout = 5 * time.Second
	retryInterval  = 5 * time.Second
)

// ErrNotConnected is returned by Publish while the broker is unreachable
var ErrNotConnected = errors.New("mqtt broker not connected")

// Publisher publishes JSON events under <prefix>/<event>
type Publisher struct {
	client paho.Client
	qos    byte
	prefix string
}

// NewPublisher builds the client; call Connect before publishing
func NewPublisher(cfg *config.Config) *Publisher {
	return &Publisher{
		client: paho.NewClient(clientOptions(cfg)),
		qos:    byte(cfg.MQTTQoS),
		prefix: strings.TrimRight(cfg.MQTTTopicPrefix, "/"),
	}
}

func clientOptions(cfg *config.Config) *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.MQTTClientID, uuid.NewString()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(retryInterval)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		Logger.WithError(err).Warn("[MQTT] connection lost")
	})
	opts.SetOnConnectHandler(func(_ paho.Client) {
		Logger.Info("[MQTT] connected to %s", cfg.MQTTBrokerURL)
	})
	return opts
}

// Connect waits up to connectTimeout for the first connection. On failure
// the client keeps retrying in the background.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect timed out after %v, retrying every %v", connectTimeout, retryInterval)
	}
	return token.Error()
}

// Publish sends one event. It fails fast while disconnected and waits at
// most publishTimeout for the broker.
func (p *Publisher) Publish(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	token := p.client.Publish(Topic(p.prefix, event), p.qos, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s timed out", event)
	}
	return token.Error()
}

// Disconnect also stops a pending connect retry. It waits 250ms for
// in-flight work.
func (p *Publisher) Disconnect() {
	p.client.Disconnect(250)
}
// Topic joins the prefix and the event name
func Topic(prefix, event string) string {
	if prefix == "" {
		return event
	}
	return prefix + "/" + event
}
