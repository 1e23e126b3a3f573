package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds the OAuth client credentials for one social provider.
// A provider is enabled only when all three values are present; a missing
// value silently disables it (it is omitted from /api/auth/providers).
type ProviderConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
}

func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.RedirectURI != ""
}

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// mongo | memory
		Driver string `yaml:"driver"`
		Mongo  struct {
			URL      string `yaml:"url"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		// Secret signs session tokens (HS256). Required in prod.
		Secret    string `yaml:"secret"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	Frontend struct {
		// BaseURL is where OAuth callbacks land the browser.
		BaseURL string `yaml:"base_url"`
	} `yaml:"frontend"`

	Uploads struct {
		Dir string `yaml:"dir"`
	} `yaml:"uploads"`

	OAuth struct {
		// StateTTL bounds how long an issued state value stays redeemable.
		StateTTL time.Duration  `yaml:"state_ttl"`
		Discord  ProviderConfig `yaml:"discord"`
		Google   ProviderConfig `yaml:"google"`
	} `yaml:"oauth"`
}

// Load reads an optional YAML file, applies env overrides and defaults.
// path may be empty: env-only configuration is the common deployment mode.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Storage.Driver == "" {
		if c.Storage.Mongo.URL != "" {
			c.Storage.Driver = "mongo"
		} else {
			c.Storage.Driver = "memory"
		}
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "portal"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "30m"
	}
	if c.Frontend.BaseURL == "" {
		c.Frontend.BaseURL = "http://localhost:3000"
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.OAuth.StateTTL == 0 {
		c.OAuth.StateTTL = 10 * time.Minute
	}

	if _, err := time.ParseDuration(c.JWT.AccessTTL); err != nil {
		return nil, fmt.Errorf("config: invalid jwt access_ttl: %w", err)
	}
	if c.Storage.Driver == "mongo" && c.Storage.Mongo.URL == "" {
		return nil, fmt.Errorf("config: storage driver mongo requires MONGO_URL")
	}
	if strings.EqualFold(c.App.Env, "prod") && c.JWT.Secret == "" {
		return nil, fmt.Errorf("config: SECRET_KEY is required in prod")
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = "dev-secret-change-me"
	}

	return &c, nil
}

// AccessTTL returns the parsed token lifetime. Load validated the string.
func (c *Config) AccessTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTTL)
	return d
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("CORS_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("MONGO_URL"); ok {
		c.Storage.Mongo.URL = v
	}
	if v, ok := getEnvStr("DB_NAME"); ok {
		c.Storage.Mongo.Database = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	if v, ok := getEnvStr("SECRET_KEY"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("ACCESS_TOKEN_TTL"); ok {
		c.JWT.AccessTTL = v
	}

	if v, ok := getEnvStr("FRONTEND_URL"); ok {
		c.Frontend.BaseURL = v
	}
	if v, ok := getEnvStr("UPLOAD_DIR"); ok {
		c.Uploads.Dir = v
	}

	if v, ok := getEnvDur("OAUTH_STATE_TTL"); ok {
		c.OAuth.StateTTL = v
	}
	overrideProvider(&c.OAuth.Discord, "DISCORD")
	overrideProvider(&c.OAuth.Google, "GOOGLE")
}

func overrideProvider(p *ProviderConfig, prefix string) {
	if v, ok := getEnvStr(prefix + "_CLIENT_ID"); ok {
		p.ClientID = v
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_SECRET"); ok {
		p.ClientSecret = v
	}
	if v, ok := getEnvStr(prefix + "_REDIRECT_URI"); ok {
		p.RedirectURI = v
	}
}

// ---- env helpers ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}
