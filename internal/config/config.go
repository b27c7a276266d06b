// Package config provides hierarchical configuration loading for the RuedaYa storefront edge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the storefront edge service.
type Config struct {
	Server    Server    `yaml:"server"`
	Tenancy   Tenancy   `yaml:"tenancy"`
	Backend   Backend   `yaml:"backend"`
	Session   Session   `yaml:"session"`
	Renderer  Renderer  `yaml:"renderer"`
	Cache     Cache     `yaml:"cache"`
	Breaker   Breaker   `yaml:"breaker"`
	Logging   Logging   `yaml:"logging"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port           string        `yaml:"port" validate:"required,numeric"`
	CORSOrigin     string        `yaml:"cors_origin"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	LoginRate      float64       `yaml:"login_rate" validate:"gt=0"` // OAuth sign-ins per second per client
	LoginBurst     int           `yaml:"login_burst" validate:"gte=1"`
}

// Tenancy holds the host-based dealer resolution rules.
type Tenancy struct {
	Enabled        bool     `yaml:"enabled"`
	RootDomain     string   `yaml:"root_domain" validate:"required,hostname"`
	MainLabel      string   `yaml:"main_label" validate:"required"`
	AliasLabels    []string `yaml:"alias_labels"`    // labels that also mean the main site, e.g. "www"
	LocalSuffix    string   `yaml:"local_suffix"`    // development host marker, e.g. ".local"
	LoopbackPrefix string   `yaml:"loopback_prefix"` // e.g. "127.0.0.1"
	DealerParam    string   `yaml:"dealer_param" validate:"required"`
	DealerPrefix   string   `yaml:"dealer_prefix" validate:"required,startswith=/"`
	AllowedDealers []string `yaml:"allowed_dealers" validate:"dive,required"`
	BypassPrefixes []string `yaml:"bypass_prefixes" validate:"dive,startswith=/"`
	BypassFiles    []string `yaml:"bypass_files" validate:"dive,startswith=/"`
}

// Backend holds the marketplace backend API configuration.
type Backend struct {
	URL         string        `yaml:"url" validate:"omitempty,url"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	SyncTimeout time.Duration `yaml:"sync_timeout" validate:"gt=0"`
	SyncEnabled bool          `yaml:"sync_enabled"`
}

// Session holds signed session token configuration.
type Session struct {
	Secret     string        `yaml:"secret" validate:"required,min=16"`
	TTL        time.Duration `yaml:"ttl" validate:"gt=0"`
	CookieName string        `yaml:"cookie_name" validate:"required"`
	Issuer     string        `yaml:"issuer" validate:"required"`
	Secure     bool          `yaml:"secure"` // mark the cookie Secure; enable behind HTTPS
}

// Renderer holds the page-rendering upstream. An empty URL serves the tenant echo page.
type Renderer struct {
	URL string `yaml:"url" validate:"omitempty,url"`
}

// Cache holds dealer context cache configuration. With SharedURL set, a NATS
// JetStream KV bucket shared by all replicas backs the in-process cache.
type Cache struct {
	MaxSizeMB    int64         `yaml:"max_size_mb" validate:"gte=1"`
	DealerTTL    time.Duration `yaml:"dealer_ttl" validate:"gt=0"`
	SharedURL    string        `yaml:"shared_url" validate:"omitempty,url"`
	SharedBucket string        `yaml:"shared_bucket" validate:"required,max=64"`
}

// Breaker holds circuit breaker configuration for backend calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures" validate:"gte=1"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Service string `yaml:"service" validate:"required"`
	Async   bool   `yaml:"async"`
}

// Telemetry holds OpenTelemetry tracing configuration. Tracing is off when Endpoint is empty.
type Telemetry struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`
}

// DefaultDealerSlugs is the allow-list accepted through the ?dealer= query parameter.
var DefaultDealerSlugs = []string{
	"peugeot-loja",
	"nissan-loja",
	"toyota-loja",
	"ford-loja",
	"chevrolet-loja",
	"hyundai-loja",
	"kia-loja",
	"volkswagen-loja",
	"mazda-loja",
	"honda-loja",
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:           "8080",
			CORSOrigin:     "http://localhost:3000",
			RequestTimeout: 30 * time.Second,
			LoginRate:      0.5,
			LoginBurst:     10,
		},
		Tenancy: Tenancy{
			Enabled:        true,
			RootDomain:     "ruedaya.com",
			MainLabel:      "ruedaya",
			AliasLabels:    []string{"www"},
			LocalSuffix:    ".local",
			LoopbackPrefix: "127.0.0.1",
			DealerParam:    "dealer",
			DealerPrefix:   "/dealer",
			AllowedDealers: append([]string(nil), DefaultDealerSlugs...),
			BypassPrefixes: []string{"/_next", "/api", "/static"},
			BypassFiles:    []string{"/favicon.ico", "/robots.txt", "/sitemap.xml"},
		},
		Backend: Backend{
			URL:         "http://localhost:4000/api",
			Timeout:     10 * time.Second,
			SyncTimeout: 5 * time.Second,
			SyncEnabled: true,
		},
		Session: Session{
			Secret:     "ruedaya-dev-session-secret",
			TTL:        30 * 24 * time.Hour,
			CookieName: "ruedaya_session",
			Issuer:     "ruedaya-web",
		},
		Cache: Cache{
			MaxSizeMB:    16,
			DealerTTL:    5 * time.Minute,
			SharedBucket: "ruedaya_dealers",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "ruedaya-web",
		},
		Telemetry: Telemetry{
			SampleRatio: 1,
		},
	}
}
