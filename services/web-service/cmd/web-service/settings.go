package main

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/config"
	"github.com/md-rashed-zaman/groombook/libs/kafkax"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/session"
)

type settings struct {
	service        string
	port           string
	apiURL         string
	apiTimeout     time.Duration
	sessionSecret  string
	sessionMaxAge  time.Duration
	sessionStore   string
	cookieSecure   bool
	redisAddr      string
	redisPassword  string
	redisDB        int
	loginPerMinute int
	limitFailOpen  bool
	profileTTL     time.Duration
	listTTL        time.Duration
	location       *time.Location
	kafkaBrokers   []string
	bodyLimit      int64
	requestTimeout time.Duration
}

func loadSettings() (settings, error) {
	s := settings{
		service:        config.String("SERVICE_NAME", "web-service"),
		apiTimeout:     config.Seconds("API_TIMEOUT_SECONDS", 10*time.Second),
		sessionMaxAge:  config.Seconds("SESSION_MAX_AGE_SECONDS", session.DefaultMaxAge),
		sessionStore:   config.String("SESSION_STORE", "cookie"),
		cookieSecure:   config.Bool("COOKIE_SECURE", false),
		redisAddr:      config.String("REDIS_ADDR", ""),
		redisPassword:  config.String("REDIS_PASSWORD", ""),
		redisDB:        config.Int("REDIS_DB", 0),
		loginPerMinute: config.Int("LOGIN_RATE_LIMIT_PER_MINUTE", 10),
		limitFailOpen:  config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		profileTTL:     config.Seconds("PROFILE_CACHE_SECONDS", 5*time.Minute),
		listTTL:        config.Seconds("LIST_CACHE_SECONDS", time.Minute),
		kafkaBrokers:   kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")),
		bodyLimit:      int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)),
		requestTimeout: config.Seconds("REQUEST_TIMEOUT_SECONDS", 15*time.Second),
	}

	var err error
	if s.port, err = config.Port("PORT", "3000"); err != nil {
		return settings{}, err
	}
	if s.apiURL, err = config.RequiredString("API_URL"); err != nil {
		return settings{}, err
	}
	if u, err := url.Parse(s.apiURL); err != nil || u.Scheme == "" || u.Host == "" {
		return settings{}, fmt.Errorf("API_URL must be an absolute URL (got %q)", s.apiURL)
	}
	if s.sessionSecret, err = config.RequiredString("SESSION_SECRET"); err != nil {
		return settings{}, err
	}
	if len(s.sessionSecret) < session.MinSecretLength {
		return settings{}, fmt.Errorf("SESSION_SECRET must be at least %d characters", session.MinSecretLength)
	}
	switch s.sessionStore {
	case "cookie":
	case "redis":
		if s.redisAddr == "" {
			return settings{}, errors.New("SESSION_STORE=redis needs REDIS_ADDR")
		}
	default:
		return settings{}, fmt.Errorf("SESSION_STORE must be cookie or redis (got %q)", s.sessionStore)
	}
	tz := config.String("DISPLAY_TIMEZONE", "Asia/Jerusalem")
	if s.location, err = time.LoadLocation(tz); err != nil {
		return settings{}, fmt.Errorf("DISPLAY_TIMEZONE %q: %w", tz, err)
	}
	return s, nil
}
