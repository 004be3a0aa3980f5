// Package config loads the run configuration for termin-watch.
//
// Values come from built-in defaults, an optional YAML file, an optional .env file
// next to it and TERMIN_* environment variables, in that order. Secrets are only
// read from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/termin-watch/internal/slot"

	_ "time/tzdata" // window timezone must resolve without system zoneinfo
)

const (
	DefaultBaseURL  = "https://service.berlin.de"
	DefaultEntryURL = DefaultBaseURL + "/terminvereinbarung/termin/tag.php?termin=1&anliegen[]=120686&dienstleisterlist=" +
		"122210,122217,327316,122219,327312,122227,327314,122231,327346,122243,327348,122252,329742,122260,329745," +
		"122262,329748,122254,329751,122271,327278,122273,327274,122277,327276,122280,327294,122282,327290,122284," +
		"327292,327539,122291,327270,122285,327266,122286,327264,122296,327268,150230,329760,122301,327282,122297," +
		"327286,122294,327284,122312,329763,122304,327330,122311,327334,122309,327332,122281,327352,122279,329772," +
		"122276,327324,122274,327326,122267,329766,122246,327318,122251,327320,122257,327322,122208,327298,122226,327300"
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_12_6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/65.0.3312.0 Safari/537.36"
)

// BrowserConfig controls the automated browser session
type BrowserConfig struct {
	Debug     bool          `yaml:"debug"` // headed browser, slowed down
	SlowMo    time.Duration `yaml:"slow_mo"`
	UserAgent string        `yaml:"user_agent"`
	ExecPath  string        `yaml:"exec_path"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ScreenshotConfig controls page screenshots taken during an attempt
type ScreenshotConfig struct {
	Enabled bool   `yaml:"enabled"`
	Before  string `yaml:"before"` // current month
	After   string `yaml:"after"`  // after advancing a month
}

// OpenConfig controls opening a matched link in an external browser
type OpenConfig struct {
	Enabled bool     `yaml:"enabled"`
	App     string   `yaml:"app"`
	Args    []string `yaml:"args"`
}

// TelegramConfig holds Telegram Bot API settings
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"-"` // Loaded from environment
	ChatID   string `yaml:"chat_id"`
}

// TwitterConfig holds Twitter API credentials
type TwitterConfig struct {
	Enabled      bool   `yaml:"enabled"`
	APIKey       string `yaml:"-"`
	APISecret    string `yaml:"-"`
	AccessToken  string `yaml:"-"`
	AccessSecret string `yaml:"-"`
}

// NotifyConfig selects notification channels
type NotifyConfig struct {
	Desktop  bool           `yaml:"desktop"`
	Sticky   bool           `yaml:"sticky"`
	DryRun   bool           `yaml:"dry_run"`
	Telegram TelegramConfig `yaml:"telegram"`
	Twitter  TwitterConfig  `yaml:"twitter"`
}

// LogConfig controls log output
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Config is the run configuration. It is passed by value and not modified after Load.
type Config struct {
	EntryURL string `yaml:"entry_url"`
	BaseURL  string `yaml:"base_url"`

	MinDate  string `yaml:"min_date"` // YYYY-MM-DD, exclusive
	MaxDate  string `yaml:"max_date"` // YYYY-MM-DD, exclusive
	Timezone string `yaml:"timezone"`

	ContinueForever bool          `yaml:"continue_forever"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	MaxAttempts     int           `yaml:"max_attempts"` // 0 means unlimited
	MarkerFile      string        `yaml:"marker_file"`
	ICSFile         string        `yaml:"ics_file"`

	Browser    BrowserConfig    `yaml:"browser"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	Open       OpenConfig       `yaml:"open"`
	Notify     NotifyConfig     `yaml:"notify"`
	Log        LogConfig        `yaml:"log"`
}

// Default returns the configuration used when nothing else is provided
func Default() Config {
	return Config{
		EntryURL:   DefaultEntryURL,
		BaseURL:    DefaultBaseURL,
		MinDate:    "2023-06-01",
		MaxDate:    "2023-09-01",
		Timezone:   "Europe/Berlin",
		RetryDelay: 30 * time.Second,
		MarkerFile: "logFile.txt",
		Browser: BrowserConfig{
			SlowMo:    250 * time.Millisecond,
			UserAgent: DefaultUserAgent,
			Timeout:   30 * time.Second,
		},
		Screenshot: ScreenshotConfig{
			Before: "screenshot1.png",
			After:  "screenshot2.png",
		},
		Open: OpenConfig{
			App:  "safari",
			Args: []string{"--incognito"},
		},
		Notify: NotifyConfig{
			Desktop: true,
			Sticky:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads defaults, the YAML file at configPath (if any), a sibling .env file
// and environment overrides, then validates the result.
// An empty configPath or a missing file leaves the defaults in place.
func Load(configPath string) (Config, error) {
	cfg := Default()

	envPath := ".env"
	if configPath != "" {
		envPath = filepath.Join(filepath.Dir(configPath), ".env")
	}
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("error parsing config file: %w", err)
			}
		case os.IsNotExist(err):
			// defaults only
		default:
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv loads secrets and TERMIN_* overrides from the environment
func (c *Config) applyEnv() error {
	c.Notify.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok {
		c.Notify.Telegram.ChatID = v
	}
	c.Notify.Twitter.APIKey = os.Getenv("TWITTER_API_KEY")
	c.Notify.Twitter.APISecret = os.Getenv("TWITTER_API_SECRET")
	c.Notify.Twitter.AccessToken = os.Getenv("TWITTER_ACCESS_TOKEN")
	c.Notify.Twitter.AccessSecret = os.Getenv("TWITTER_ACCESS_SECRET")

	setString(&c.EntryURL, "TERMIN_ENTRY_URL")
	setString(&c.MinDate, "TERMIN_MIN_DATE")
	setString(&c.MaxDate, "TERMIN_MAX_DATE")
	setString(&c.Timezone, "TERMIN_TIMEZONE")
	setString(&c.MarkerFile, "TERMIN_MARKER_FILE")
	setString(&c.Log.Level, "TERMIN_LOG_LEVEL")

	if err := setBool(&c.ContinueForever, "TERMIN_CONTINUE_FOREVER"); err != nil {
		return err
	}
	if err := setBool(&c.Browser.Debug, "TERMIN_DEBUG"); err != nil {
		return err
	}
	if err := setBool(&c.Open.Enabled, "TERMIN_OPEN"); err != nil {
		return err
	}
	if err := setDuration(&c.RetryDelay, "TERMIN_RETRY_DELAY"); err != nil {
		return err
	}
	return setDuration(&c.Browser.Timeout, "TERMIN_TIMEOUT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if c.EntryURL == "" {
		return fmt.Errorf("entry URL is required")
	}
	if !strings.HasPrefix(c.EntryURL, "http://") && !strings.HasPrefix(c.EntryURL, "https://") {
		return fmt.Errorf("entry URL must be http(s): %s", c.EntryURL)
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative")
	}
	if c.Browser.Timeout <= 0 {
		return fmt.Errorf("browser timeout must be positive")
	}
	if c.MarkerFile == "" {
		return fmt.Errorf("marker file is required")
	}
	if c.Open.Enabled && c.Open.App == "" {
		return fmt.Errorf("open app is required when open is enabled")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is required for telegram notifications")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("telegram chat ID is required")
		}
	}
	if c.Notify.Twitter.Enabled {
		tw := c.Notify.Twitter
		if tw.APIKey == "" || tw.APISecret == "" || tw.AccessToken == "" || tw.AccessSecret == "" {
			return fmt.Errorf("missing required Twitter credentials in environment variables")
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	return nil
}

// Location resolves the configured timezone
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Window returns the acceptable appointment window
func (c Config) Window() (slot.Window, error) {
	loc, err := c.Location()
	if err != nil {
		return slot.Window{}, err
	}
	return slot.ParseWindow(c.MinDate, c.MaxDate, loc)
}
