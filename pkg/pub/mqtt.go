// Package pub publishes gauge readings over MQTT for telemetry
// consumers such as Home Assistant or a time-series collector.
package pub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Message is the wire payload for one published reading.
type Message struct {
	PowerW   int64     `json:"power_w"`
	ImportWh uint64    `json:"import_wh"`
	ExportWh uint64    `json:"export_wh"`
	Time     time.Time `json:"time"`
}

// Options configures the MQTT connection.
type Options struct {
	Broker   string // e.g. tcp://192.168.1.2:1883
	ClientID string
	Username string
	Password string
	Topic    string
}

// Publisher wraps an auto-reconnecting MQTT client. Publishing while
// disconnected is buffered by the client and flushed on reconnect.
type Publisher struct {
	client mqtt.Client
	topic  string
	log    *slog.Logger
}

// New builds a Publisher; call Connect before the first Publish.
func New(o Options, log *slog.Logger) *Publisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	opts.SetUsername(o.Username)
	opts.SetPassword(o.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", "err", err)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("mqtt connected", "broker", o.Broker)
	})

	return &Publisher{
		client: mqtt.NewClient(opts),
		topic:  o.Topic,
		log:    log,
	}
}

// Connect dials the broker and blocks until the first connection is
// established or fails.
func (p *Publisher) Connect() error {
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return nil
}

// Publish sends one reading on the configured topic at QoS 0. A lost
// sample is fine; the next cycle replaces it.
func (p *Publisher) Publish(m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 0, false, b)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	p.log.Debug("published", "topic", p.topic, "power_w", m.PowerW)
	return nil
}

// Close disconnects from the broker, allowing a short grace period for
// in-flight messages.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
