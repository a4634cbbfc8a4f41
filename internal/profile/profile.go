package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the assistant.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the HTTP API
	Addr string
	// Port is the binding port for the HTTP API
	Port int
	// Data is the data directory
	Data string
	// DSN points to where orbita stores memories, checkpoints and events
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the assistant
	Version string

	// LLM configuration
	LLMProvider          string  // ORBITA_LLM_PROVIDER (default: openai)
	LLMAPIKey            string  // ORBITA_LLM_API_KEY
	LLMBaseURL           string  // ORBITA_LLM_BASE_URL (default depends on provider)
	LLMModel             string  // ORBITA_LLM_MODEL (default: gpt-4o-mini)
	LLMMaxTokens         int     // ORBITA_LLM_MAX_TOKENS (default: 1024)
	LLMTemperature       float32 // ORBITA_LLM_TEMPERATURE (default: 0.2)
	LLMRequestsPerSecond float64 // ORBITA_LLM_RPS (default: 2)

	// Memory configuration
	MemoryUpdatePolicy string // ORBITA_MEMORY_UPDATE_POLICY (always|keywords, default: always)
	RequireUserID      bool   // ORBITA_REQUIRE_USER_ID (default: false)

	// Router rules loaded from the config file (router.rules)
	RouterRules []RouterRule

	// Email handler
	IMAPAddr         string // ORBITA_IMAP_ADDR (default: imap.gmail.com:993)
	SMTPAddr         string // ORBITA_SMTP_ADDR (default: smtp.gmail.com:587)
	EmailAddress     string // ORBITA_EMAIL_ADDRESS
	EmailAppPassword string // ORBITA_EMAIL_APP_PASSWORD

	// Budget handler
	SePayAPIToken string // ORBITA_SEPAY_API_TOKEN
	SePayBaseURL  string // ORBITA_SEPAY_BASE_URL (default: https://my.sepay.vn/userapi)
	SePayAccount  string // ORBITA_SEPAY_ACCOUNT_NUMBER, offered to the model as the default account

	// Calendar handler
	CalendarBackend        string // ORBITA_CALENDAR_BACKEND (local|google, default: local)
	CalendarTimezone       string // ORBITA_CALENDAR_TIMEZONE (default: Asia/Ho_Chi_Minh)
	GoogleClientSecretFile string // ORBITA_GOOGLE_CLIENT_SECRET_FILE (default: client_secret.json)
	GoogleTokenFile        string // ORBITA_GOOGLE_TOKEN_FILE (default: token.json)

	// JWTSecret enables bearer token auth on the HTTP API when set.
	JWTSecret string // ORBITA_JWT_SECRET
	// APIRequestsPerSecond limits each API client.
	APIRequestsPerSecond float64 // ORBITA_API_RPS (default: 5)
}

// RouterRule maps a CEL expression to a route name.
type RouterRule struct {
	Route string `mapstructure:"route"`
	Expr  string `mapstructure:"expr"`
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMConfigured returns true if an API key is set or the provider needs none.
func (p *Profile) IsLLMConfigured() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// defaultBaseURL returns the OpenAI-compatible endpoint for a provider.
func defaultBaseURL(provider string) string {
	switch provider {
	case "deepseek":
		return "https://api.deepseek.com"
	case "siliconflow":
		return "https://api.siliconflow.cn/v1"
	case "ollama":
		return "http://localhost:11434/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// FromEnv loads LLM, memory and handler configuration from environment variables.
func (p *Profile) FromEnv() {
	getEnvWithDefault := func(key, defaultValue string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultValue
	}
	getIntEnv := func(key string, defaultValue int) int {
		if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
			return v
		}
		return defaultValue
	}
	getFloatEnv := func(key string, defaultValue float64) float64 {
		if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
			return v
		}
		return defaultValue
	}

	p.LLMProvider = getEnvWithDefault("ORBITA_LLM_PROVIDER", "openai")
	p.LLMAPIKey = os.Getenv("ORBITA_LLM_API_KEY")
	p.LLMBaseURL = getEnvWithDefault("ORBITA_LLM_BASE_URL", defaultBaseURL(p.LLMProvider))
	p.LLMModel = getEnvWithDefault("ORBITA_LLM_MODEL", "gpt-4o-mini")
	p.LLMMaxTokens = getIntEnv("ORBITA_LLM_MAX_TOKENS", 1024)
	p.LLMTemperature = float32(getFloatEnv("ORBITA_LLM_TEMPERATURE", 0.2))
	p.LLMRequestsPerSecond = getFloatEnv("ORBITA_LLM_RPS", 2)

	p.MemoryUpdatePolicy = getEnvWithDefault("ORBITA_MEMORY_UPDATE_POLICY", "always")
	p.RequireUserID = os.Getenv("ORBITA_REQUIRE_USER_ID") == "true"

	p.IMAPAddr = getEnvWithDefault("ORBITA_IMAP_ADDR", "imap.gmail.com:993")
	p.SMTPAddr = getEnvWithDefault("ORBITA_SMTP_ADDR", "smtp.gmail.com:587")
	p.EmailAddress = os.Getenv("ORBITA_EMAIL_ADDRESS")
	p.EmailAppPassword = os.Getenv("ORBITA_EMAIL_APP_PASSWORD")

	p.SePayAPIToken = os.Getenv("ORBITA_SEPAY_API_TOKEN")
	p.SePayBaseURL = getEnvWithDefault("ORBITA_SEPAY_BASE_URL", "https://my.sepay.vn/userapi")
	p.SePayAccount = os.Getenv("ORBITA_SEPAY_ACCOUNT_NUMBER")

	p.CalendarBackend = getEnvWithDefault("ORBITA_CALENDAR_BACKEND", "local")
	p.CalendarTimezone = getEnvWithDefault("ORBITA_CALENDAR_TIMEZONE", "Asia/Ho_Chi_Minh")
	p.GoogleClientSecretFile = getEnvWithDefault("ORBITA_GOOGLE_CLIENT_SECRET_FILE", "client_secret.json")
	p.GoogleTokenFile = getEnvWithDefault("ORBITA_GOOGLE_TOKEN_FILE", "token.json")

	p.JWTSecret = os.Getenv("ORBITA_JWT_SECRET")
	p.APIRequestsPerSecond = getFloatEnv("ORBITA_API_RPS", 5)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if err := os.MkdirAll(dataDir, 0o770); err != nil {
		return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
	}
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		if p.Mode == "prod" {
			p.Data = "/var/opt/orbita"
		} else {
			p.Data = "."
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "":
		p.Driver = "sqlite"
	case "sqlite", "postgres":
	default:
		return errors.Errorf("unsupported driver %q: only sqlite and postgres are supported", p.Driver)
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("orbita_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	switch p.MemoryUpdatePolicy {
	case "":
		p.MemoryUpdatePolicy = "always"
	case "always", "keywords":
	default:
		return errors.Errorf("unsupported memory update policy %q", p.MemoryUpdatePolicy)
	}

	switch p.CalendarBackend {
	case "":
		p.CalendarBackend = "local"
	case "local", "google":
	default:
		return errors.Errorf("unsupported calendar backend %q", p.CalendarBackend)
	}

	if p.LLMMaxTokens <= 0 {
		p.LLMMaxTokens = 1024
	}
	if p.LLMRequestsPerSecond <= 0 {
		p.LLMRequestsPerSecond = 2
	}
	if p.APIRequestsPerSecond <= 0 {
		p.APIRequestsPerSecond = 5
	}
	return nil
}
