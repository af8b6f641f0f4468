package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/telcd",
		LogDir:  "/home/user/.local/share/telcd/log",
		Server: ServerConfig{
			Addr:           "127.0.0.1:5001",
			BasePath:       "/api",
			FrontendOrigin: "https://exam.example.com",
			BodyLimit:      "1M",
			AdminToken:     "s3cret",
		},
		RateLimit: RateLimitConfig{Requests: 5, WindowSeconds: 30},
		Database:  DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/telcd/db"},
		Log:       LogConfig{Level: "debug", Pretty: true},
		Providers: []ProviderConfig{
			{Type: "libretranslate", Endpoint: "http://localhost:5000/translate", TimeoutSeconds: 5},
			{Type: "llm", APIKey: "key", Model: "m1", SiteName: "telc"},
		},
		Validator: ValidatorConfig{
			Threshold: 60,
			Weights:   WeightsConfig{Artifact: 25},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.Server != original.Server {
		t.Errorf("Server = %+v, want %+v", got.Server, original.Server)
	}
	if got.RateLimit != original.RateLimit {
		t.Errorf("RateLimit = %+v, want %+v", got.RateLimit, original.RateLimit)
	}
	if got.Log != original.Log {
		t.Errorf("Log = %+v, want %+v", got.Log, original.Log)
	}
	if len(got.Providers) != 2 {
		t.Fatalf("len(Providers) = %d, want 2", len(got.Providers))
	}
	if got.Providers[0] != original.Providers[0] {
		t.Errorf("Providers[0] = %+v, want %+v", got.Providers[0], original.Providers[0])
	}
	if got.Providers[1].Model != "m1" {
		t.Errorf("Providers[1].Model = %q, want %q", got.Providers[1].Model, "m1")
	}
	if got.Validator.Threshold != 60 {
		t.Errorf("Validator.Threshold = %d, want 60", got.Validator.Threshold)
	}
	if got.Validator.Weights.Artifact != 25 {
		t.Errorf("Validator.Weights.Artifact = %d, want 25", got.Validator.Weights.Artifact)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/telcd")

	if cfg.BaseDir != "/data/telcd" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/telcd")
	}
	if cfg.LogDir != "/data/telcd/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/telcd/log")
	}
	if cfg.Database.DataDir != "/data/telcd/db" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/telcd/db")
	}
	if cfg.RateLimit.Requests != 20 || cfg.RateLimit.WindowSeconds != 60 {
		t.Errorf("RateLimit = %+v, want 20 per 60s", cfg.RateLimit)
	}

	var types []string
	for _, p := range cfg.Providers {
		types = append(types, p.Type)
	}
	if got := strings.Join(types, ","); got != "mymemory,libretranslate,llm" {
		t.Errorf("provider order = %s", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: "server.addr",
		},
		{
			name:    "relative base path",
			mutate:  func(c *Config) { c.Server.BasePath = "api" },
			wantErr: "base_path",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RateLimit.Requests = 0 },
			wantErr: "rate_limit",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Providers = append(c.Providers, ProviderConfig{Type: "deepl"}) },
			wantErr: `unknown type "deepl"`,
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Validator.Threshold = 120 },
			wantErr: "validator.threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(t.TempDir())
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}

	t.Run("disabled rate limit skips its checks", func(t *testing.T) {
		cfg := NewConfig(t.TempDir())
		cfg.RateLimit = RateLimitConfig{Disabled: true}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})
}

func TestConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		"ADMIN_TOKEN":         "  tok  ",
		"RATE_LIMIT_DISABLED": "TRUE",
		"LIBRETRANSLATE_URL":  "http://libre.local/translate",
		"OPENROUTER_API_KEY":  "or-key",
		"OPENROUTER_MODEL":    "other/model",
	}
	cfg := NewConfig(t.TempDir())
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Server.AdminToken != "tok" {
		t.Errorf("AdminToken = %q, want %q", cfg.Server.AdminToken, "tok")
	}
	if !cfg.RateLimit.Disabled {
		t.Error("RateLimit.Disabled = false, want true")
	}
	if cfg.Providers[1].Endpoint != "http://libre.local/translate" {
		t.Errorf("libretranslate endpoint = %q", cfg.Providers[1].Endpoint)
	}
	if cfg.Providers[2].APIKey != "or-key" || cfg.Providers[2].Model != "other/model" {
		t.Errorf("llm provider = %+v", cfg.Providers[2])
	}
	if cfg.Providers[0].APIKey != "" {
		t.Errorf("mymemory provider picked up an api key: %+v", cfg.Providers[0])
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "telcd.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "telcd.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "telcd.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
		if len(got.Providers) != 3 {
			t.Errorf("len(Providers) = %d, want 3", len(got.Providers))
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/telcd.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
