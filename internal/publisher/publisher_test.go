package publisher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/powerdash/internal/config"
	"github.com/jgoulah/powerdash/pkg/models"
)

// fakeToken is an already completed mqtt.Token
type fakeToken struct {
	err error
}

func (t fakeToken) Wait() bool { return true }

func (t fakeToken) WaitTimeout(time.Duration) bool { return true }

func (t fakeToken) Error() error { return t.err }

func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes; unused mqtt.Client methods panic via the nil embed
type fakeClient struct {
	mqtt.Client
	messages     []published
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return fakeToken{err: c.err}
}

func (c *fakeClient) IsConnected() bool { return !c.disconnected }

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func testEntry() models.AnnotatedReading {
	ts := time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)
	return models.AnnotatedReading{
		Reading: models.Reading{
			Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Timestamp: ts,
			Energy:    40,
		},
		DailyCost: 130,
	}
}

func TestPublishDailyMQTT(t *testing.T) {
	client := &fakeClient{}
	cfg := &config.Config{MQTT: config.MQTTConfig{Enabled: true, Broker: "test:1883", TopicPrefix: "home/meter"}}
	p := newPublisher(client, cfg, nil)

	require.NoError(t, p.PublishDaily(context.Background(), testEntry()))
	require.Len(t, client.messages, 1)

	msg := client.messages[0]
	assert.Equal(t, "home/meter/2024-03-01", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var payload DailyCostPayload
	require.NoError(t, json.Unmarshal(msg.payload, &payload))
	assert.Equal(t, DailyCostPayload{
		Date:      "2024-03-01",
		Energy:    40,
		DailyCost: 130,
		Currency:  "₹",
		Timestamp: "2024-03-01T21:00:00Z",
	}, payload)

	p.Close()
	assert.True(t, client.disconnected)
}

func TestPublishDailyMQTTError(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	p := newPublisher(client, &config.Config{}, nil)

	err := p.PublishDaily(context.Background(), testEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt: not connected")
}

func TestPublishDailyHomeAssistant(t *testing.T) {
	var got HAPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appdaemon/backfill_state", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &config.Config{HomeAssistant: config.HAConfig{Enabled: true, URL: srv.URL, Token: "secret", EntityID: "sensor.daily_cost"}}
	p := newPublisher(nil, cfg, nil)

	require.NoError(t, p.PublishDaily(context.Background(), testEntry()))
	assert.Equal(t, "sensor.daily_cost", got.EntityID)
	assert.Equal(t, "130.00", got.State)
	assert.Equal(t, "2024-03-01T21:00:00Z", got.LastChanged)
}

func TestPublishDailyHomeAssistantFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := &config.Config{HomeAssistant: config.HAConfig{Enabled: true, URL: srv.URL, Token: "x", EntityID: "sensor.x"}}
	err := newPublisher(nil, cfg, nil).PublishDaily(context.Background(), testEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"nothing enabled", config.Config{}},
		{"ha without url", config.Config{HomeAssistant: config.HAConfig{Enabled: true, Token: "t", EntityID: "e"}}},
		{"ha without token", config.Config{HomeAssistant: config.HAConfig{Enabled: true, URL: "http://ha", EntityID: "e"}}},
		{"ha without entity", config.Config{HomeAssistant: config.HAConfig{Enabled: true, URL: "http://ha", Token: "t"}}},
		{"mqtt without broker", config.Config{MQTT: config.MQTTConfig{Enabled: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tt.cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestGenerateStatistics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appdaemon/generate_statistics", r.URL.Path)
		w.Write([]byte(`{"inserted": 4, "updated": 1, "total_hours": 96, "extra": true}`))
	}))
	defer srv.Close()

	cfg := &config.Config{HomeAssistant: config.HAConfig{Enabled: true, URL: srv.URL, Token: "t", EntityID: "sensor.daily_cost"}}
	res, err := newPublisher(nil, cfg, nil).GenerateStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &StatsResult{Inserted: 4, Updated: 1, TotalHours: 96}, res)

	_, err = newPublisher(nil, &config.Config{}, nil).GenerateStatistics(context.Background())
	assert.Error(t, err)
}
