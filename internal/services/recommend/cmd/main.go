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
	"github.com/agrisense/agrisense/internal/profile"
	"github.com/agrisense/agrisense/internal/services/recommend"
	"github.com/agrisense/agrisense/internal/store"
	"github.com/agrisense/agrisense/pkg/guard"
	"github.com/agrisense/agrisense/pkg/telegram"
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
		InfluxURL    string
		InfluxToken  string
		InfluxOrg    string
		InfluxBucket string

		RedisAddr     string
		RedisPassword string
		RedisDB       int

		TelegramToken  string
		TelegramChatID string

		ProfilesPath  string
		WindowMinutes int
		TickMinutes   int
		HTTPPort      int
	}{
		InfluxURL:    envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    envStr("INFLUX_ORG", "agrisense"),
		InfluxBucket: envStr("INFLUX_BUCKET", "readings"),

		RedisAddr:     envStr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),

		ProfilesPath:  envStr("PROFILES_PATH", ""),
		WindowMinutes: envInt("TIME_WINDOW_MINUTES", 30),
		TickMinutes:   envInt("TICK_MINUTES", 30),
		HTTPPort:      envInt("HTTP_PORT", 8081),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Profiles ===
	profiles := profile.Default()
	if cfg.ProfilesPath != "" {
		var err error
		profiles, err = profile.Load(cfg.ProfilesPath)
		if err != nil {
			log.Fatalf("profile load error: %v", err)
		}
	}

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
	g := guard.New(recommend.ConsumerName, store.NewRedisMarkerStore(rdb))

	// === Dispatcher (Telegram) ===
	dispatcher, err := telegram.NewClient(telegram.Config{
		Token:  cfg.TelegramToken,
		ChatID: cfg.TelegramChatID,
	})
	if err != nil {
		log.Fatalf("telegram client error: %v", err)
	}

	// === HTTP (metrics only) ===
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.Handle("/metrics", metrics.Handler())

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("recommend-svc: HTTP listening on :%d", cfg.HTTPPort)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	svc := recommend.NewService(
		records, g, dispatcher, profiles,
		time.Duration(cfg.WindowMinutes)*time.Minute,
		time.Duration(cfg.TickMinutes)*time.Minute,
	)
	go svc.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Printf("recommend-svc: shutting down...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
