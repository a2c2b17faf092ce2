package mqtt

import (
	"context"
	"log"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one delivered message.
type Handler func(topic string, message paho.Message) error

// IConsumer is the subscription side used by the services.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// Consumer subscribes to a single topic on the shared client.
type Consumer struct {
	client  paho.Client
	topic   string
	handler Handler
}

func NewConsumer(client paho.Client, topic string, handler Handler) *Consumer {
	return &Consumer{client: client, topic: topic, handler: handler}
}

func (c *Consumer) SetHandler(handler Handler) { c.handler = handler }

// qosFor picks the per-topic QoS: raw sensor readings travel at-least-once,
// everything else at-most-once.
func qosFor(topic string) byte {
	if strings.HasPrefix(strings.TrimSpace(topic), "sensor/raw") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes and dispatches to the handler until ctx is done,
// then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	token := c.client.Subscribe(
		c.topic,
		qosFor(c.topic),
		func(_ paho.Client, message paho.Message) {
			if c.handler == nil {
				log.Printf("mqtt: no handler set for topic %s", c.topic)
				return
			}
			if err := c.handler(c.topic, message); err != nil {
				log.Printf("mqtt: error handling message on %s: %v", c.topic, err)
			}
		},
	)
	if token.Wait() && token.Error() != nil {
		log.Printf("mqtt: subscribe to %s failed: %v", c.topic, token.Error())
		return
	}
	log.Printf("mqtt: subscribed to %s", c.topic)

	<-ctx.Done()

	unsub := c.client.Unsubscribe(c.topic)
	unsub.Wait()
}
