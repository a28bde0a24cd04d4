// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables and optional .env files. Each component receives its slice of
// the Config explicitly; nothing reads the environment after Load.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"storyteller/internal/ai"
	"storyteller/internal/story"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel slog.Level

	// AI providers
	AIProvider      string // text: "openai", "gemini", "claude", "mistral"
	AIImageProvider string // image: "openai" or "gemini"
	AITemperature   float64
	AITextTimeout   time.Duration
	AIImageTimeout  time.Duration
	ImageSize       string

	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIImageModel string
	OpenAIBaseURL    string

	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	GeminiBaseURL    string

	ClaudeAPIKey  string
	ClaudeModel   string
	ClaudeBaseURL string

	MistralAPIKey  string
	MistralModel   string
	MistralBaseURL string

	// WordPress
	WPURL         string
	WPUser        string
	WPAppPassword string
	WPTimeout     time.Duration
	Categories    story.CategoryMap
	LastRunOption string

	// Rate guard
	GuardWindow   time.Duration
	GuardDisabled bool

	// Valkey run lock; disabled when ValkeyHost is empty.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	LockTTL        time.Duration

	// Runs
	RunSchedule  string // cron expression, empty disables the scheduler
	RunTimezone  *time.Location
	RunTimeout   time.Duration
	RunRateLimit int // trigger requests per minute and client, 0 disables
}

// envFiles are loaded in order; earlier files and the real environment win.
var envFiles = []string{".env.local", ".env"}

// Load reads .env files when present and then the environment. Malformed
// values are reported together. Missing CMS credentials are not an error
// here; the CMS client reports them when it is first used.
func Load() (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", "8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: p.level("LOG_LEVEL", slog.LevelInfo),

		AIProvider:     envOrDefault("AI_PROVIDER", "openai"),
		AITemperature:  p.float("AI_TEMPERATURE", 0.9),
		AITextTimeout:  p.duration("AI_TEXT_TIMEOUT", 90*time.Second),
		AIImageTimeout: p.duration("AI_IMAGE_TIMEOUT", 180*time.Second),
		ImageSize:      envOrDefault("AI_IMAGE_SIZE", story.DefaultImageSize),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIImageModel: envOrDefault("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiImageModel: envOrDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:    os.Getenv("GEMINI_BASE_URL"),

		ClaudeAPIKey:  os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:   envOrDefault("CLAUDE_MODEL", "claude-sonnet-4-5"),
		ClaudeBaseURL: os.Getenv("CLAUDE_BASE_URL"),

		MistralAPIKey:  os.Getenv("MISTRAL_API_KEY"),
		MistralModel:   envOrDefault("MISTRAL_MODEL", "mistral-large-latest"),
		MistralBaseURL: os.Getenv("MISTRAL_BASE_URL"),

		WPURL:         strings.TrimRight(envOrDefault("WP_URL", "https://godnathistorierforborn.dk"), "/"),
		WPUser:        os.Getenv("WP_USER"),
		WPAppPassword: os.Getenv("WP_APP_PASSWORD"),
		WPTimeout:     p.duration("WP_TIMEOUT", 60*time.Second),
		LastRunOption: envOrDefault("WP_LAST_RUN_OPTION", "storyteller_last_run"),

		GuardWindow:   p.duration("GUARD_WINDOW", 24*time.Hour),
		GuardDisabled: p.bool("GUARD_DISABLED", false),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		LockTTL:        p.duration("RUN_LOCK_TTL", 10*time.Minute),

		RunSchedule:  strings.TrimSpace(os.Getenv("RUN_SCHEDULE")),
		RunTimezone:  p.location("RUN_TIMEZONE", time.UTC),
		RunTimeout:   p.duration("RUN_TIMEOUT", 5*time.Minute),
		RunRateLimit: p.int("RUN_RATE_LIMIT", 10),
	}
	cfg.AIImageProvider = envOrDefault("AI_IMAGE_PROVIDER", cfg.AIProvider)
	cfg.Categories = p.categories()

	if cfg.AITemperature < 0 || cfg.AITemperature > 2 {
		p.fail("AI_TEMPERATURE", fmt.Errorf("%v is outside 0..2", cfg.AITemperature))
	}

	// A lock that expires mid-run would let a second trigger in.
	if cfg.LockEnabled() && cfg.LockTTL <= cfg.RunTimeout {
		p.fail("RUN_LOCK_TTL", fmt.Errorf("%s must be longer than RUN_TIMEOUT %s", cfg.LockTTL, cfg.RunTimeout))
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// AIProviders returns the per-provider settings for ai.NewRegistry.
func (c *Config) AIProviders() map[string]ai.ProviderConfig {
	base := ai.ProviderConfig{
		Temperature:  c.AITemperature,
		Timeout:      c.AITextTimeout,
		ImageTimeout: c.AIImageTimeout,
	}
	with := func(key, model, imageModel, baseURL string) ai.ProviderConfig {
		pc := base
		pc.APIKey, pc.Model, pc.ImageModel, pc.BaseURL = key, model, imageModel, baseURL
		return pc
	}
	return map[string]ai.ProviderConfig{
		"openai":  with(c.OpenAIAPIKey, c.OpenAIModel, c.OpenAIImageModel, c.OpenAIBaseURL),
		"gemini":  with(c.GeminiAPIKey, c.GeminiModel, c.GeminiImageModel, c.GeminiBaseURL),
		"claude":  with(c.ClaudeAPIKey, c.ClaudeModel, "", c.ClaudeBaseURL),
		"mistral": with(c.MistralAPIKey, c.MistralModel, "", c.MistralBaseURL),
	}
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// LockEnabled reports whether a Valkey run lock is configured.
func (c *Config) LockEnabled() bool {
	return c.ValkeyHost != ""
}

// loadEnvFiles loads each file that exists. Variables already set are kept.
func loadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser converts typed variables and collects every failure.
type parser struct {
	errs []error
}

func (p *parser) fail(key string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	if d <= 0 {
		p.fail(key, fmt.Errorf("must be positive, got %s", v))
		return fallback
	}
	return d
}

func (p *parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return b
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return f
}

func (p *parser) level(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, err)
		return fallback
	}
	return l
}

func (p *parser) location(key string, fallback *time.Location) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return loc
}

// categories builds the category map from WP_CATEGORY_MAP
// ("label=id,label=id") and WP_DEFAULT_CATEGORY on top of the defaults.
func (p *parser) categories() story.CategoryMap {
	m := story.DefaultCategories()

	if v := os.Getenv("WP_CATEGORY_MAP"); v != "" {
		ids, err := story.ParseCategoryIDs(v)
		if err != nil {
			p.fail("WP_CATEGORY_MAP", err)
			return m
		}
		m.IDs = ids
	}
	if v := os.Getenv("WP_DEFAULT_CATEGORY"); v != "" {
		m.Default = v
	}
	if err := m.Validate(); err != nil {
		p.fail("WP_DEFAULT_CATEGORY", err)
		return story.DefaultCategories()
	}
	return m
}
