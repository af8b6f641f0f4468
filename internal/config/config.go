package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for telcd.
type Config struct {
	BaseDir     string            `toml:"base_dir"`
	LogDir      string            `toml:"log_dir"`
	Server      ServerConfig      `toml:"server"`
	RateLimit   RateLimitConfig   `toml:"rate_limit"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
	Translation TranslationConfig `toml:"translation"`
	Providers   []ProviderConfig  `toml:"providers"`
	Validator   ValidatorConfig   `toml:"validator"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr           string `toml:"addr"`
	BasePath       string `toml:"base_path"`
	FrontendOrigin string `toml:"frontend_origin"`
	BodyLimit      string `toml:"body_limit"` // echo size string, e.g. "2M"
	AdminToken     string `toml:"admin_token,omitempty"`
	Debug          bool   `toml:"debug"`
}

// RateLimitConfig limits whole-exam translation requests per client.
type RateLimitConfig struct {
	Disabled      bool `toml:"disabled"`
	Requests      int  `toml:"requests"`
	WindowSeconds int  `toml:"window_seconds"`
}

// DatabaseConfig represents configuration for the application database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `toml:"level"` // zerolog level name
	Pretty bool   `toml:"pretty"`
}

// TranslationConfig tunes the translation pipeline.
type TranslationConfig struct {
	Concurrency int `toml:"concurrency"` // parallel field translations per request
}

// ProviderConfig represents one translation provider. Providers are tried in
// the order they are listed.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ProviderConfig struct {
	Type           string `toml:"type"` // "mymemory", "libretranslate" or "llm"
	Endpoint       string `toml:"endpoint,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`

	// MyMemory: contact address for the higher anonymous quota
	Email string `toml:"email,omitempty"`

	// LibreTranslate and LLM
	APIKey string `toml:"api_key,omitempty"`

	// LLM-specific fields (only used when Type == "llm")
	Model    string `toml:"model,omitempty"`
	SiteURL  string `toml:"site_url,omitempty"`
	SiteName string `toml:"site_name,omitempty"`
}

// ValidatorConfig overrides the translation quality rules. Zero values keep
// the built-in defaults.
type ValidatorConfig struct {
	Threshold      int           `toml:"threshold,omitempty"`
	MinLengthRatio float64       `toml:"min_length_ratio,omitempty"`
	MaxLengthRatio float64       `toml:"max_length_ratio,omitempty"`
	Weights        WeightsConfig `toml:"weights"`
}

// WeightsConfig holds per-rule score penalties.
type WeightsConfig struct {
	TooShort       int `toml:"too_short,omitempty"`
	TooLong        int `toml:"too_long,omitempty"`
	MissingScript  int `toml:"missing_script,omitempty"`
	LatinHeavy     int `toml:"latin_heavy,omitempty"`
	NumberMismatch int `toml:"number_mismatch,omitempty"`
	Punctuation    int `toml:"punctuation,omitempty"`
	HTMLEntity     int `toml:"html_entity,omitempty"`
	Encoding       int `toml:"encoding,omitempty"`
	Artifact       int `toml:"artifact,omitempty"`
}

// NewConfig creates a new Config rooted at baseDir with the default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Server: ServerConfig{
			Addr:           ":5001",
			BasePath:       "/api",
			FrontendOrigin: "http://localhost:5173",
			BodyLimit:      "2M",
		},
		RateLimit: RateLimitConfig{
			Requests:      20,
			WindowSeconds: 60,
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Log: LogConfig{Level: "info"},
		Translation: TranslationConfig{
			Concurrency: 4,
		},
		Providers: []ProviderConfig{
			{Type: "mymemory"},
			{Type: "libretranslate", Endpoint: "https://libretranslate.com/translate"},
			{Type: "llm", Endpoint: "https://openrouter.ai/api/v1", Model: "openai/gpt-oss-20b:free"},
		},
	}
}

// Validate reports settings that would make the server unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, fmt.Errorf("server.base_path must start with '/': %q", c.Server.BasePath))
	}
	if !c.RateLimit.Disabled && (c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0) {
		errs = append(errs, errors.New("rate_limit.requests and rate_limit.window_seconds must be positive"))
	}
	if c.Translation.Concurrency < 0 {
		errs = append(errs, errors.New("translation.concurrency must not be negative"))
	}
	for i, p := range c.Providers {
		switch p.Type {
		case "mymemory", "libretranslate", "llm":
		default:
			errs = append(errs, fmt.Errorf("providers[%d]: unknown type %q", i, p.Type))
		}
		if p.TimeoutSeconds < 0 {
			errs = append(errs, fmt.Errorf("providers[%d]: timeout_seconds must not be negative", i))
		}
	}
	if c.Validator.Threshold < 0 || c.Validator.Threshold > 100 {
		errs = append(errs, fmt.Errorf("validator.threshold must be within 0..100, got %d", c.Validator.Threshold))
	}
	return errors.Join(errs...)
}

// ApplyEnv overrides secrets and deployment switches from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("ADMIN_TOKEN")); v != "" {
		c.Server.AdminToken = v
	}
	if v := getenv("FRONTEND_ORIGIN"); v != "" {
		c.Server.FrontendOrigin = v
	}
	if strings.EqualFold(getenv("RATE_LIMIT_DISABLED"), "true") {
		c.RateLimit.Disabled = true
	}
	for i := range c.Providers {
		p := &c.Providers[i]
		switch p.Type {
		case "libretranslate":
			if v := getenv("LIBRETRANSLATE_URL"); v != "" {
				p.Endpoint = v
			}
		case "llm":
			if v := getenv("OPENROUTER_API_KEY"); v != "" {
				p.APIKey = v
			}
			if v := getenv("OPENROUTER_MODEL"); v != "" {
				p.Model = v
			}
			if v := getenv("OPENROUTER_SITE_URL"); v != "" {
				p.SiteURL = v
			}
			if v := getenv("OPENROUTER_SITE_NAME"); v != "" {
				p.SiteName = v
			}
		}
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
