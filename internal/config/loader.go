package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "ruedaya.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "RUEDAYA_PORT")
	setString(&cfg.Server.CORSOrigin, "RUEDAYA_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "RUEDAYA_REQUEST_TIMEOUT")
	setFloat64(&cfg.Server.LoginRate, "RUEDAYA_LOGIN_RATE")
	setInt(&cfg.Server.LoginBurst, "RUEDAYA_LOGIN_BURST")

	// Tenancy
	setBool(&cfg.Tenancy.Enabled, "RUEDAYA_TENANCY_ENABLED")
	setString(&cfg.Tenancy.RootDomain, "RUEDAYA_ROOT_DOMAIN")
	setString(&cfg.Tenancy.MainLabel, "RUEDAYA_MAIN_LABEL")
	setList(&cfg.Tenancy.AliasLabels, "RUEDAYA_ALIAS_LABELS")
	setString(&cfg.Tenancy.DealerPrefix, "RUEDAYA_DEALER_PREFIX")
	setList(&cfg.Tenancy.AllowedDealers, "RUEDAYA_ALLOWED_DEALERS")

	// Backend
	setString(&cfg.Backend.URL, "RUEDAYA_BACKEND_URL")
	setString(&cfg.Backend.APIKey, "RUEDAYA_BACKEND_API_KEY")
	setDuration(&cfg.Backend.Timeout, "RUEDAYA_BACKEND_TIMEOUT")
	setDuration(&cfg.Backend.SyncTimeout, "RUEDAYA_BACKEND_SYNC_TIMEOUT")
	setBool(&cfg.Backend.SyncEnabled, "RUEDAYA_BACKEND_SYNC_ENABLED")

	// Session
	setString(&cfg.Session.Secret, "RUEDAYA_SESSION_SECRET")
	setDuration(&cfg.Session.TTL, "RUEDAYA_SESSION_TTL")
	setString(&cfg.Session.CookieName, "RUEDAYA_SESSION_COOKIE")
	setBool(&cfg.Session.Secure, "RUEDAYA_SESSION_SECURE")

	setString(&cfg.Renderer.URL, "RUEDAYA_RENDERER_URL")

	setInt64(&cfg.Cache.MaxSizeMB, "RUEDAYA_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.DealerTTL, "RUEDAYA_CACHE_DEALER_TTL")
	setString(&cfg.Cache.SharedURL, "RUEDAYA_CACHE_SHARED_URL")
	setString(&cfg.Cache.SharedBucket, "RUEDAYA_CACHE_SHARED_BUCKET")

	setInt(&cfg.Breaker.MaxFailures, "RUEDAYA_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "RUEDAYA_BREAKER_TIMEOUT")

	setString(&cfg.Logging.Level, "RUEDAYA_LOG_LEVEL")
	setString(&cfg.Logging.Service, "RUEDAYA_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "RUEDAYA_LOG_ASYNC")

	// Telemetry
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "RUEDAYA_OTEL_INSECURE")
	setFloat64(&cfg.Telemetry.SampleRatio, "RUEDAYA_OTEL_SAMPLE_RATIO")
}

// validate checks struct tags and the cross-field rules tags cannot express.
func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return formatValidationErrors(err)
	}

	for _, alias := range cfg.Tenancy.AliasLabels {
		if alias == cfg.Tenancy.MainLabel {
			return fmt.Errorf("tenancy.alias_labels: %q duplicates tenancy.main_label", alias)
		}
	}
	if cfg.Backend.SyncTimeout > cfg.Backend.Timeout {
		return errors.New("backend.sync_timeout must not exceed backend.timeout")
	}
	return nil
}

// formatValidationErrors turns validator output into "field: rule" messages.
func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setList reads a comma-separated list; blank items are dropped.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
