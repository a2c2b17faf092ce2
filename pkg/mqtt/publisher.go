package mqtt

import (
	"fmt"
	"log"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher is the publish side used by the simulator and tooling.
type IPublisher interface {
	PublishMessage(payload []byte) error
	PublishToQos(topic string, qos byte, retained bool, payload []byte) error
	Close()
}

// Publisher publishes to a fixed topic on the shared client.
type Publisher struct {
	client paho.Client
	topic  string
}

func NewPublisher(client paho.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// PublishMessage publishes to the configured topic at its default QoS.
func (p *Publisher) PublishMessage(payload []byte) error {
	return p.PublishToQos(p.topic, qosFor(p.topic), false, payload)
}

// PublishToQos publishes to an explicit topic and QoS.
func (p *Publisher) PublishToQos(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}
	return nil
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Println("mqtt: publisher client disconnected")
	}
}
