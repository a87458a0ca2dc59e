package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-json-experiment/json"
	"github.com/google/uuid"

	"github.com/jgoulah/powerdash/internal/config"
	"github.com/jgoulah/powerdash/internal/logger"
	"github.com/jgoulah/powerdash/pkg/models"
)

const publishTimeout = 10 * time.Second

// Publisher sends daily costs to MQTT and/or Home Assistant
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	haConfig    config.HAConfig
	httpClient  *http.Client
	currency    string
	log         *logger.Logger
}

// New creates a new publisher (supports both MQTT and HA HTTP API)
func New(cfg *config.Config, log *logger.Logger) (*Publisher, error) {
	mqttCfg, haCfg := cfg.MQTT, cfg.HomeAssistant

	if !mqttCfg.Enabled && !haCfg.Enabled {
		return nil, errors.New("neither MQTT nor Home Assistant publishing is enabled in config")
	}

	// Validate HA config if enabled
	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, errors.New("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, errors.New("Home Assistant token is required when enabled")
		}
		if haCfg.EntityID == "" {
			return nil, errors.New("Home Assistant entity_id is required when enabled")
		}
	}

	var client mqtt.Client
	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, errors.New("MQTT broker address is required when enabled")
		}

		// Configure MQTT client options
		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID("powerdash-" + uuid.NewString()[:8])
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		// Create and connect client
		client = mqtt.NewClient(opts)
		token := client.Connect()
		if !token.WaitTimeout(publishTimeout) {
			return nil, fmt.Errorf("timed out connecting to MQTT broker %s", mqttCfg.Broker)
		}
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", err)
		}
	}

	return newPublisher(client, cfg, log), nil
}

// newPublisher wires an already connected client
func newPublisher(client mqtt.Client, cfg *config.Config, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{
		client:      client,
		topicPrefix: cfg.GetTopicPrefix(),
		haConfig:    cfg.HomeAssistant,
		httpClient:  &http.Client{Timeout: publishTimeout},
		currency:    cfg.GetCurrency(),
		log:         log,
	}
}

// DailyCostPayload is the retained MQTT message for one date
type DailyCostPayload struct {
	Date      string  `json:"date"`
	Energy    float64 `json:"energy"`
	DailyCost float64 `json:"daily_cost"`
	Currency  string  `json:"currency"`
	Timestamp string  `json:"timestamp"`
}

// HAPayload matches the Home Assistant backfill service call data
type HAPayload struct {
	EntityID    string `json:"entity_id"`
	State       string `json:"state"`
	LastChanged string `json:"last_changed"`
	LastUpdated string `json:"last_updated"`
}

// Topic returns the MQTT topic for a date
func (p *Publisher) Topic(date string) string {
	return fmt.Sprintf("%s/%s", p.topicPrefix, date)
}

// PublishDaily sends the latest reading of a date to every enabled target
func (p *Publisher) PublishDaily(ctx context.Context, entry models.AnnotatedReading) error {
	var errs []error
	if p.client != nil {
		if err := p.publishMQTT(entry); err != nil {
			errs = append(errs, fmt.Errorf("mqtt: %w", err))
		}
	}
	if p.haConfig.Enabled {
		if err := p.publishHA(ctx, entry); err != nil {
			errs = append(errs, fmt.Errorf("home assistant: %w", err))
		}
	}
	return errors.Join(errs...)
}

// publishMQTT sends a retained JSON message for the date
func (p *Publisher) publishMQTT(entry models.AnnotatedReading) error {
	payload := DailyCostPayload{
		Date:      entry.DateKey(),
		Energy:    entry.Energy,
		DailyCost: entry.DailyCost,
		Currency:  p.currency,
		Timestamp: entry.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	token := p.client.Publish(p.Topic(payload.Date), 1, true, body)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing %s", payload.Date)
	}
	if err := token.Error(); err != nil {
		return err
	}

	p.log.Debugw("published to mqtt", "topic", p.Topic(payload.Date), "daily_cost", payload.DailyCost)
	return nil
}

// publishHA backfills the daily cost state via the AppDaemon endpoint
func (p *Publisher) publishHA(ctx context.Context, entry models.AnnotatedReading) error {
	apiURL := fmt.Sprintf("%s/api/appdaemon/backfill_state", p.haConfig.URL)

	timestamp := entry.Timestamp.Format(time.RFC3339)
	payload := HAPayload{
		EntityID:    p.haConfig.EntityID,
		State:       fmt.Sprintf("%.2f", entry.DailyCost),
		LastChanged: timestamp,
		LastUpdated: timestamp,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read error response body for debugging
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	p.log.Debugw("published to home assistant", "entity_id", p.haConfig.EntityID, "date", entry.DateKey())
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// StatsResult is the AppDaemon statistics compilation summary
type StatsResult struct {
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	TotalHours int `json:"total_hours"`
}

// GenerateStatistics asks AppDaemon to compile long-term statistics from the backfilled states
func (p *Publisher) GenerateStatistics(ctx context.Context) (*StatsResult, error) {
	if !p.haConfig.Enabled {
		return nil, errors.New("Home Assistant is not enabled in config")
	}

	apiURL := fmt.Sprintf("%s/api/appdaemon/generate_statistics", p.haConfig.URL)

	body, err := json.Marshal(map[string]string{"entity_id": p.haConfig.EntityID})
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	// Statistics compilation is slower than a single backfill
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	var result StatsResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return &result, nil
}
