package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/agrisense/agrisense/internal/services/simulator"
	"github.com/agrisense/agrisense/pkg/mqtt"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	cfg := struct {
		Mqtt        mqtt.Config
		RawTopic    string
		SensorCount int
		IntervalSec int
	}{
		Mqtt: mqtt.Config{
			Host:     envStr("MQTT_HOST", "localhost"),
			Port:     envInt("MQTT_PORT", 1883),
			User:     envStr("MQTT_USER", ""),
			Password: envStr("MQTT_PASSWORD", ""),
			ClientID: envStr("HOSTNAME", "sensor-simulator"),
		},
		RawTopic:    envStr("RAW_TOPIC", "sensor/raw"),
		SensorCount: envInt("SENSOR_COUNT", 6),
		IntervalSec: envInt("SAMPLE_INTERVAL_SEC", 120),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := mqtt.NewConn(ctx, &cfg.Mqtt)
	if err != nil {
		log.Fatalf("mqtt connection error: %v", err)
	}
	publisher := mqtt.NewPublisher(client, cfg.RawTopic)
	defer publisher.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	fleet := simulator.RandomFleet(rng, cfg.SensorCount, 48.1, 16.3)
	gen := simulator.NewGenerator(rng)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	ticker := time.NewTicker(time.Duration(cfg.IntervalSec) * time.Second)
	defer ticker.Stop()

	log.Printf("simulator: %d sensors publishing to %s every %ds", len(fleet), cfg.RawTopic, cfg.IntervalSec)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, spec := range fleet {
				payload, err := gen.Next(spec, now)
				if err != nil {
					log.Printf("simulator: generate error: %v", err)
					continue
				}
				if err := publisher.PublishMessage(payload); err != nil {
					log.Printf("simulator: publish error: %v", err)
				}
			}
		}
	}
}
