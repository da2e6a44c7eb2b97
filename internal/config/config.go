package config

import (
    "errors"
    "fmt"
    "net/url"
    "os"
    "strconv"
    "strings"
    "time"

    "gopkg.in/yaml.v3"
)

var (
    ErrMissingAPIBaseURL      = errors.New("config: NEXT_PUBLIC_API_BASE_URL is not set")
    ErrMissingFrontendBaseURL = errors.New("config: NEXT_PUBLIC_FRONTEND_BASE_URL is not set")
)

type Config struct {
    APIBaseURL      string `yaml:"api_base_url"`
    FrontendBaseURL string `yaml:"frontend_base_url"`
    AppEnv          string `yaml:"app_env"`
    LogLevel        string `yaml:"log_level"`
    // Local store
    DBDriver   string `yaml:"db_driver"` // sqlite | postgres
    DBPath     string `yaml:"db_path"`
    DBHost     string `yaml:"db_host"`
    DBPort     string `yaml:"db_port"`
    DBUser     string `yaml:"db_user"`
    DBPassword string `yaml:"db_password"`
    DBName     string `yaml:"db_name"`
    DBSSLMode  string `yaml:"db_sslmode"`
    // Teacher dashboard server
    DashboardPort   string `yaml:"dashboard_port"`
    DashboardSecret string `yaml:"dashboard_secret"`
    // Client behaviour
    HTTPTimeoutSeconds   string `yaml:"http_timeout_seconds"`
    PageSize             string `yaml:"page_size"`
    RedirectDelaySeconds string `yaml:"redirect_delay_seconds"`
}

func Load() *Config {
    return &Config{
        APIBaseURL:           strings.TrimRight(getenv("NEXT_PUBLIC_API_BASE_URL", getenv("FEEDHUB_API_BASE_URL", "")), "/"),
        FrontendBaseURL:      strings.TrimRight(getenv("NEXT_PUBLIC_FRONTEND_BASE_URL", getenv("FEEDHUB_FRONTEND_BASE_URL", "")), "/"),
        AppEnv:               getenv("APP_ENV", "development"),
        LogLevel:             getenv("LOG_LEVEL", "info"),
        DBDriver:             getenv("DB_DRIVER", "sqlite"),
        DBPath:               getenv("DB_PATH", "feedhub.db"),
        DBHost:               getenv("DB_HOST", "localhost"),
        DBPort:               getenv("DB_PORT", "5432"),
        DBUser:               getenv("DB_USER", "postgres"),
        DBPassword:           getenv("DB_PASSWORD", "postgres"),
        DBName:               getenv("DB_NAME", "feedhub"),
        DBSSLMode:            getenv("DB_SSLMODE", "disable"),
        DashboardPort:        getenv("DASHBOARD_PORT", "8090"),
        DashboardSecret:      getenv("DASHBOARD_SECRET", ""),
        HTTPTimeoutSeconds:   getenv("HTTP_TIMEOUT_SECONDS", "10"),
        PageSize:             getenv("PAGE_SIZE", "5"),
        RedirectDelaySeconds: getenv("REDIRECT_DELAY_SECONDS", "5"),
    }
}

// LoadFile loads the environment first and then overlays the keys present in
// the YAML file at path.
func LoadFile(path string) (*Config, error) {
    cfg := Load()
    if path == "" {
        return cfg, nil
    }
    raw, err := os.ReadFile(path)
    if err != nil {
        return nil, fmt.Errorf("config: read %s: %w", path, err)
    }
    if err := yaml.Unmarshal(raw, cfg); err != nil {
        return nil, fmt.Errorf("config: parse %s: %w", path, err)
    }
    cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
    cfg.FrontendBaseURL = strings.TrimRight(cfg.FrontendBaseURL, "/")
    return cfg, nil
}

// Validate reports the settings network features cannot work without.
func (c *Config) Validate() error {
    if c.APIBaseURL == "" {
        return ErrMissingAPIBaseURL
    }
    if _, err := url.Parse(c.APIBaseURL); err != nil {
        return fmt.Errorf("config: invalid api base url: %w", err)
    }
    return nil
}

// WebSocketBaseURL derives ws(s)://host from the API base URL.
func (c *Config) WebSocketBaseURL() (string, error) {
    if c.APIBaseURL == "" {
        return "", ErrMissingAPIBaseURL
    }
    u, err := url.Parse(c.APIBaseURL)
    if err != nil {
        return "", fmt.Errorf("config: invalid api base url: %w", err)
    }
    switch u.Scheme {
    case "https":
        u.Scheme = "wss"
    default:
        u.Scheme = "ws"
    }
    return strings.TrimRight(u.String(), "/"), nil
}

func (c *Config) IsProduction() bool {
    return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) HTTPTimeout() time.Duration {
    return seconds(c.HTTPTimeoutSeconds, 10)
}

func (c *Config) RedirectDelay() time.Duration {
    return seconds(c.RedirectDelaySeconds, 5)
}

func (c *Config) PageSizeOrDefault() int {
    n, err := strconv.Atoi(strings.TrimSpace(c.PageSize))
    if err != nil || n <= 0 {
        return 5
    }
    return n
}

func seconds(v string, fallback int) time.Duration {
    n, err := strconv.Atoi(strings.TrimSpace(v))
    if err != nil || n < 0 {
        n = fallback
    }
    return time.Duration(n) * time.Second
}

func getenv(key, fallback string) string {
    v := os.Getenv(key)
    if v == "" {
        return fallback
    }
    return v
}
