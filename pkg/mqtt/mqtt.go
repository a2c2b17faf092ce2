// Package mqtt wraps the shared paho client used by every service: one
// connection established with exponential backoff, consumers and publishers
// built on top of it, and a context-driven disconnect.
package mqtt

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config holds the broker connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
}

// NewConn connects to the broker, retrying with exponential backoff. The
// connection is torn down when ctx is cancelled.
func NewConn(ctx context.Context, cfg *Config) (paho.Client, error) {
	addr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := paho.NewClientOptions()
	opts.AddBroker(addr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	maxRetries := 5

	var client paho.Client
	err := backoff.Retry(func() error {
		client = paho.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("mqtt: connect to %s failed: %v", addr, token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, uint64(maxRetries-1)))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	log.Printf("mqtt: connected to broker at %s", addr)

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Println("mqtt: connection closed")
	}()

	return client, nil
}

// CloseConn disconnects the shared client if still connected.
func CloseConn(client paho.Client) {
	if client.IsConnected() {
		client.Disconnect(250)
		log.Println("mqtt: connection closed")
	}
}
