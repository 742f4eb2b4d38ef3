package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

// WebhookQueueKey is the Redis list the worker pops from
const WebhookQueueKey = "webhooks:queue"

type WebhookType string

const (
	WebhookCall911     WebhookType = "CALL_911"
	WebhookPanicButton WebhookType = "PANIC_BUTTON"
	WebhookWarrant     WebhookType = "WARRANT"
)

var webhookTitles = map[WebhookType]string{
	WebhookCall911:     "New 911 call",
	WebhookPanicButton: "Panic button pressed",
	WebhookWarrant:     "Warrant waiting for approval",
}

// Embed is a plain Discord embed
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color,omitempty"`
}

// WebhookMessage is the body posted to the webhook URL
type WebhookMessage struct {
	Type   WebhookType `json:"type"`
	Embeds []Embed     `json:"embeds"`
}

// InterfaceWebhookService sends notifications to Discord. Failures are
// logged and never reach the caller.
type InterfaceWebhookService interface {
	Send(ctx context.Context, typ WebhookType, description string)
	Run(ctx context.Context)
}

type WebhookService struct {
	URL    string
	Redis  *redis.Client
	Client *http.Client
}

// NewWebhookService queues through Redis when a client is given and
// delivers inline otherwise
func NewWebhookService(cfg *config.Config, redisClient *redis.Client) InterfaceWebhookService {
	return &WebhookService{
		URL:    cfg.DiscordWebhookURL,
		Redis:  redisClient,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// 1. Send delivers one webhook message
func (s *WebhookService) Send(ctx context.Context, typ WebhookType, description string) {
	if s.URL == "" {
		return
	}

	body, err := json.Marshal(WebhookMessage{
		Type:   typ,
		Embeds: []Embed{{Title: webhookTitles[typ], Description: description, Color: 0xE74C3C}},
	})
	if err != nil {
		Logger.WithError(err).Error("marshal webhook message")
		return
	}

	if s.Redis != nil {
		if err := s.Redis.RPush(ctx, WebhookQueueKey, body).Err(); err != nil {
			Logger.WithError(err).WithField("type", typ).Error("queue webhook")
		}
		return
	}
	if err := s.deliver(ctx, body); err != nil {
		Logger.WithError(err).WithField("type", typ).Error("deliver webhook")
	}
}

// 2. Run pops queued messages until ctx is done. Without Redis it returns at once.
func (s *WebhookService) Run(ctx context.Context) {
	if s.Redis == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := s.Redis.BLPop(ctx, time.Second, WebhookQueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			Logger.WithError(err).Error("BLPop webhook queue")
			time.Sleep(time.Second)
			continue
		}

		// res is [key, value]
		if err := s.deliver(ctx, []byte(res[1])); err != nil {
			Logger.WithError(err).WithFields(logrus.Fields{"queue": WebhookQueueKey}).Error("deliver queued webhook")
		}
	}
}

func (s *WebhookService) deliver(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}
