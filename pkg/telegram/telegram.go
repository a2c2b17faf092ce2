// Package telegram is the notification dispatcher: a thin Bot-API client
// that delivers the aggregated recommendation text (or a rendered image) to
// a fixed chat. Long messages are chunked here, at a safe length boundary,
// preferring to break at a newline; the engine never chunks.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/agrisense/agrisense/internal/store"
)

// MaxMessageLen is the Bot API limit for one sendMessage call.
const MaxMessageLen = 4096

const defaultBaseURL = "https://api.telegram.org"

// Dispatcher is what the recommendation service needs from a notification
// channel.
type Dispatcher interface {
	SendMessage(ctx context.Context, text string) error
	SendImage(ctx context.Context, locator, caption string) error
}

// Config holds the bot credentials and tuning knobs.
type Config struct {
	Token   string
	ChatID  string
	BaseURL string // override for tests; defaults to the public API
	Timeout time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration
}

// Client implements Dispatcher over the Telegram Bot API with a circuit
// breaker in front of the upstream.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" || strings.TrimSpace(cfg.ChatID) == "" {
		return nil, fmt.Errorf("telegram config incomplete")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	fails := cfg.BreakerFailures
	if fails < 1 {
		fails = 3
	}
	openFor := cfg.BreakerOpenFor
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "telegram",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
	})
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: cb,
	}, nil
}

// SendMessage delivers text, splitting it into chunks when it exceeds the
// API bound.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	for _, chunk := range ChunkMessage(text, MaxMessageLen) {
		body := map[string]string{"chat_id": c.cfg.ChatID, "text": chunk}
		if err := c.call(ctx, "sendMessage", body); err != nil {
			return err
		}
	}
	return nil
}

// SendImage delivers an image by storage locator (URL or file id) with an
// optional caption.
func (c *Client) SendImage(ctx context.Context, locator, caption string) error {
	if strings.TrimSpace(locator) == "" {
		return fmt.Errorf("image locator must not be empty")
	}
	body := map[string]string{"chat_id": c.cfg.ChatID, "photo": locator}
	if caption != "" {
		body["caption"] = caption
	}
	return c.call(ctx, "sendPhoto", body)
}

func (c *Client) call(ctx context.Context, method string, body map[string]string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		payload, _ := json.Marshal(body)
		url := fmt.Sprintf("%s/bot%s/%s", c.cfg.BaseURL, c.cfg.Token, method)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("telegram %s: upstream status %d", method, resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		log.Printf("telegram: %s failed: %v", method, err)
		return store.Transient("telegram "+method, err)
	}
	return nil
}

// ChunkMessage splits text into pieces of at most limit bytes, breaking at
// the last newline inside the limit when there is one.
func ChunkMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := limit
		if i := strings.LastIndex(text[:limit], "\n"); i > 0 {
			cut = i
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
