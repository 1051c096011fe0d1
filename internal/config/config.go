package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Report schedule
	ReportDay        time.Weekday
	ReportTime       string // "HH:MM" in ReportTimezone
	ReportTimezone   string // IANA zone name
	ReportWindowDays int

	// Mail delivery
	MailFrom          string
	MailTo            string
	MailSubjectPrefix string

	// AMQP (optional report events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Pipeline timeouts
	StoreTimeout    time.Duration
	DeliveryTimeout time.Duration

	// Env values that were set but unparseable; Validate reports them so a
	// typo'd schedule fails at startup instead of silently using defaults.
	envErrors []string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/clockslayer.db"),

		ReportTime:     getEnv("REPORT_TIME", "18:00"),
		ReportTimezone: getEnv("REPORT_TIMEZONE", "UTC"),

		MailFrom:          getEnv("MAIL_FROM", ""),
		MailTo:            getEnv("MAIL_TO", ""),
		MailSubjectPrefix: getEnv("MAIL_SUBJECT_PREFIX", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "clockslayer"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_events"),
	}

	cfg.ReportDay = cfg.weekdayEnv("REPORT_DAY", time.Sunday)
	cfg.ReportWindowDays = cfg.intEnv("REPORT_WINDOW_DAYS", 7)
	cfg.StoreTimeout = cfg.durationEnv("STORE_TIMEOUT", 7*time.Second)
	cfg.DeliveryTimeout = cfg.durationEnv("DELIVERY_TIMEOUT", 30*time.Second)

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.envErrors...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if _, _, err := ParseClock(c.ReportTime); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report time '%s': %v", c.ReportTime, err))
	}

	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report timezone '%s': %v", c.ReportTimezone, err))
	}

	if c.ReportWindowDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid report window %d: must be at least 1 day", c.ReportWindowDays))
	} else if c.ReportWindowDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid report window %d: must be at most 365 days", c.ReportWindowDays))
	}

	// Mail addresses travel together: either both set or both empty
	// (empty disables delivery, e.g. for a CRUD-only deployment).
	if (c.MailFrom == "") != (c.MailTo == "") {
		errors = append(errors, "MAIL_FROM and MAIL_TO must both be set or both be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.StoreTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be at least 1 second", c.StoreTimeout))
	}
	if c.DeliveryTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid delivery timeout %v: must be at least 1 second", c.DeliveryTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location resolves the configured report time zone. Validate first.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ReportTimezone)
}

// ParseClock parses an "HH:MM" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) intEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		c.envErrors = append(c.envErrors, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
		return defaultValue
	}
	return i
}

func (c *Config) durationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.envErrors = append(c.envErrors, fmt.Sprintf("invalid %s '%s': must be a duration like 30s or 2m", key, value))
		return defaultValue
	}
	return d
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func (c *Config) weekdayEnv(key string, defaultValue time.Weekday) time.Weekday {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		c.envErrors = append(c.envErrors, fmt.Sprintf("invalid %s '%s': must be a weekday name", key, value))
		return defaultValue
	}
	return d
}
