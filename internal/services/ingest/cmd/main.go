package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/agrisense/agrisense/internal/metrics"
	"github.com/agrisense/agrisense/internal/services/ingest"
	"github.com/agrisense/agrisense/internal/store"
	"github.com/agrisense/agrisense/pkg/guard"
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
		Mqtt     mqtt.Config
		RawTopic string

		InfluxURL    string
		InfluxToken  string
		InfluxOrg    string
		InfluxBucket string

		RedisAddr     string
		RedisPassword string
		RedisDB       int

		HTTPPort int
	}{
		Mqtt: mqtt.Config{
			Host:     envStr("MQTT_HOST", "localhost"),
			Port:     envInt("MQTT_PORT", 1883),
			User:     envStr("MQTT_USER", ""),
			Password: envStr("MQTT_PASSWORD", ""),
			ClientID: envStr("HOSTNAME", "ingest-service"),
		},
		RawTopic: envStr("RAW_TOPIC", "sensor/raw"),

		InfluxURL:    envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    envStr("INFLUX_ORG", "agrisense"),
		InfluxBucket: envStr("INFLUX_BUCKET", "readings"),

		RedisAddr:     envStr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		HTTPPort: envInt("HTTP_PORT", 8080),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Record store (InfluxDB) ===
	records, err := store.NewInfluxStore(store.InfluxConfig{
		URL:    cfg.InfluxURL,
		Token:  cfg.InfluxToken,
		Org:    cfg.InfluxOrg,
		Bucket: cfg.InfluxBucket,
	})
	if err != nil {
		log.Fatalf("influx store error: %v", err)
	}
	defer records.Close()

	// === Marker store (Redis) ===
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	g := guard.New(ingest.ConsumerName, store.NewRedisMarkerStore(rdb))

	// === MQTT ===
	mqttClient, err := mqtt.NewConn(ctx, &cfg.Mqtt)
	if err != nil {
		log.Fatalf("mqtt connection error: %v", err)
	}
	defer mqtt.CloseConn(mqttClient)

	// === HTTP ===
	mux := http.NewServeMux()
	mux.Handle("/healthz", ingest.NewHealthHandler(mqttClient))
	mux.Handle("/readyz", ingest.NewReadyHandler(mqttClient))
	mux.Handle("/metrics", metrics.Handler())

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("ingest-svc: HTTP listening on :%d", cfg.HTTPPort)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	// === Consumer ===
	consumer := mqtt.NewConsumer(mqttClient, cfg.RawTopic, nil)
	svc := ingest.NewService(consumer, records, g)

	log.Printf("ingest-svc: consuming %s", cfg.RawTopic)
	go svc.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Printf("ingest-svc: shutting down...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
