package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Output files
	DataDir   string
	Workbooks map[price.Domain]string
	Snapshots map[price.Domain]string
	ErrorLog  string

	// Targets file overriding the built-in tracking lists
	TargetsFile string

	// Calendar
	Timezone   string
	WeekStart  string
	RunAt      string
	FlightDays []int
	RunOnStart bool

	// Fetching
	RequestInterval time.Duration
	FetchTimeout    time.Duration
	RateLimitBlock  time.Duration
	BrowserHeadless bool
	BrowserBin      string
	GoldURL         string
	BookingURL      string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	maxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "100"))
	intervalMs, _ := strconv.Atoi(getEnv("REQUEST_INTERVAL_MS", "3000"))
	timeoutSec, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "30"))
	blockMin, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_MINUTES", "10"))

	cfg := &Config{
		DataDir:     dataDir,
		Workbooks:   make(map[price.Domain]string),
		Snapshots:   make(map[price.Domain]string),
		ErrorLog:    getEnv("ERROR_LOG", filepath.Join(dataDir, "error_log.txt")),
		TargetsFile: getEnv("TARGETS_FILE", ""),

		Timezone:   getEnv("TIMEZONE", "Asia/Qatar"),
		WeekStart:  getEnv("WEEK_START", "monday"),
		RunAt:      getEnv("RUN_AT", "09:00"),
		FlightDays: parseDays(getEnv("FLIGHT_DAYS", "4,10,17,24")),
		RunOnStart: getBool("RUN_ON_START", false),

		RequestInterval: time.Duration(intervalMs) * time.Millisecond,
		FetchTimeout:    time.Duration(timeoutSec) * time.Second,
		RateLimitBlock:  time.Duration(blockMin) * time.Minute,
		BrowserHeadless: getBool("BROWSER_HEADLESS", true),
		BrowserBin:      getEnv("BROWSER_BIN", ""),
		GoldURL:         getEnv("GOLD_URL", ""),
		BookingURL:      getEnv("BOOKING_URL", ""),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "pricesheet"),
		RedisStreamMaxLength: maxLength,

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		Environment: getEnv("PRICESHEET_ENVIRONMENT", "development"),
	}

	for _, d := range price.Domains {
		prefix := strings.ToUpper(string(d))
		cfg.Workbooks[d] = getEnv(prefix+"_WORKBOOK", filepath.Join(dataDir, string(d)+"_prices.xlsx"))
		cfg.Snapshots[d] = getEnv(prefix+"_SNAPSHOT", filepath.Join(dataDir, string(d)+"_prices.json"))
	}
	return cfg
}

// Validate checks that the configuration can be used to run.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return errors.NewConfiguration(fmt.Sprintf("unknown TIMEZONE %q", c.Timezone), err)
	}
	if _, err := c.FirstWeekday(); err != nil {
		return errors.NewConfiguration("invalid WEEK_START", err)
	}
	if _, _, err := c.RunClock(); err != nil {
		return errors.NewConfiguration("invalid RUN_AT", err)
	}
	if len(c.FlightDays) == 0 {
		return errors.NewConfiguration("FLIGHT_DAYS must list at least one day of the month between 1 and 31", nil)
	}
	if c.RequestInterval < 0 {
		return errors.NewConfiguration("REQUEST_INTERVAL_MS must not be negative", nil)
	}
	if c.FetchTimeout <= 0 {
		return errors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.RateLimitBlock <= 0 {
		return errors.NewConfiguration("RATE_LIMIT_BLOCK_MINUTES must be positive", nil)
	}
	if c.RedisAddr != "" && c.RedisStreamMaxLength <= 0 {
		return errors.NewConfiguration("REDIS_STREAM_MAX_LENGTH must be positive", nil)
	}
	for _, d := range price.Domains {
		if c.Workbooks[d] == "" {
			return errors.NewConfiguration(fmt.Sprintf("no workbook path for %s", d), nil)
		}
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location returns the time zone whose calendar decides periods and schedules.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// FirstWeekday returns the day weekly periods start on.
func (c *Config) FirstWeekday() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(c.WeekStart))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%q is not a weekday", c.WeekStart)
}

// RunClock returns the hour and minute of the daily run time.
func (c *Config) RunClock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.RunAt))
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// parseDays reads a comma separated list of days of the month. Entries that
// are not between 1 and 31 are dropped.
func parseDays(s string) []int {
	var days []int
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 1 || d > 31 {
			continue
		}
		days = append(days, d)
	}
	return days
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}
