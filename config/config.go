package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"log"
	"strings"
	"time"
)

const (
	AdapterStructuredAPI = "structured-api"
	AdapterMarkupScrape  = "markup-scrape"

	defaultStatusEndpoint = "https://webapis.ups.com/track/api/Track/GetStatus?loc=en_US"
	defaultTrackPage      = "https://www.ups.com/track?loc=en_US&requester=ST/trackdetails&tracknum="
)

var (
	ErrMissingTrackingNumber = errors.New("TRACKING_NUMBER is required")
	ErrUnknownAdapter        = errors.New("unknown TRACKING_ADAPTER")
)

type TrackingConfig struct {
	Number   string
	Adapter  string
	Endpoint string
	Link     string
	Carrier  string
	Selector string
	Timeout  time.Duration
	Headers  map[string]string
	Cookies  map[string]string
	Schedule string
}

type SlackConfig struct {
	BotToken         string
	AppToken         string
	Channel          string
	SigningSecret    string
	Command          string
	TriggerPhrase    string
	TriggerOnMention bool
}

// Enabled reports whether there are enough credentials to talk to Slack.
func (s *SlackConfig) Enabled() bool {
	return s.BotToken != ""
}

type Config struct {
	DSN           string
	LogsDirectory string
	LogLevel      string
	HTTPAddr      string
	Tracking      *TrackingConfig
	Slack         *SlackConfig
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	tracking := &TrackingConfig{
		Number:   strings.TrimSpace(k.String("TRACKING_NUMBER")),
		Adapter:  valueOrDefault(k.String("TRACKING_ADAPTER"), AdapterStructuredAPI),
		Carrier:  valueOrDefault(k.String("TRACKING_CARRIER"), "UPS"),
		Selector: valueOrDefault(k.String("TRACKING_SELECTOR"), "div.latest-status"),
		Timeout:  parseDuration(k.String("TRACKING_TIMEOUT"), "30s"),
		Schedule: valueOrDefault(k.String("POLL_SCHEDULE"), "@every 1h"),
	}

	if tracking.Number == "" {
		return nil, ErrMissingTrackingNumber
	}

	trackPage := defaultTrackPage + tracking.Number
	switch tracking.Adapter {
	case AdapterStructuredAPI:
		tracking.Endpoint = valueOrDefault(k.String("TRACKING_ENDPOINT"), defaultStatusEndpoint)
	case AdapterMarkupScrape:
		tracking.Endpoint = valueOrDefault(k.String("TRACKING_ENDPOINT"), trackPage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, tracking.Adapter)
	}
	tracking.Link = valueOrDefault(k.String("TRACKING_LINK"), trackPage)

	headers, err := parseStringMap(k.String("TRACKING_HEADERS"))
	if err != nil {
		return nil, fmt.Errorf("parse TRACKING_HEADERS: %w", err)
	}
	tracking.Headers = headers

	cookies, err := parseStringMap(k.String("TRACKING_COOKIES"))
	if err != nil {
		return nil, fmt.Errorf("parse TRACKING_COOKIES: %w", err)
	}
	tracking.Cookies = cookies

	return &Config{
		DSN:           k.String("DATABASE_DSN"),
		LogsDirectory: k.String("LOGS_DIRECTORY"),
		LogLevel:      valueOrDefault(k.String("LOG_LEVEL"), "info"),
		HTTPAddr:      valueOrDefault(k.String("HTTP_ADDR"), ":8080"),
		Tracking:      tracking,
		Slack: &SlackConfig{
			BotToken:         k.String("SLACK_BOT_TOKEN"),
			AppToken:         k.String("SLACK_APP_TOKEN"),
			Channel:          valueOrDefault(k.String("SLACK_CHANNEL"), "#general"),
			SigningSecret:    k.String("SLACK_SIGNING_SECRET"),
			Command:          valueOrDefault(k.String("SLACK_COMMAND"), "/track"),
			TriggerPhrase:    strings.TrimSpace(k.String("TRIGGER_PHRASE")),
			TriggerOnMention: parseBool(k.String("TRIGGER_ON_MENTION"), true),
		},
	}, nil
}

func parseStringMap(raw string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
