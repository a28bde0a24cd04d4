// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai provides a unified interface for the text and image models the
// story pipeline talks to (OpenAI, Gemini, Claude, Mistral). Each provider
// implements Provider, and the Registry selects the active one by name.
// Text and image generation may be served by different providers.
package ai

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Provider defines the interface that all AI providers must implement.
// Each provider handles its own HTTP communication and response parsing.
type Provider interface {
	// Generate sends a prompt to the LLM and returns the generated text.
	// systemPrompt sets the model's behaviour; userPrompt is the user's request.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey     string
	Model      string
	ImageModel string // OpenAI falls back to gpt-image-1; Gemini needs one set
	BaseURL    string

	// Temperature is sent with every text request. Zero leaves the
	// provider default in place.
	Temperature float64

	// Timeout bounds a single text request. Image requests use
	// ImageTimeout. Zero values fall back to the package defaults.
	Timeout      time.Duration
	ImageTimeout time.Duration
}

const (
	defaultTextTimeout  = 90 * time.Second
	defaultImageTimeout = 180 * time.Second
)

func (c ProviderConfig) textTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTextTimeout
}

func (c ProviderConfig) imageTimeout() time.Duration {
	if c.ImageTimeout > 0 {
		return c.ImageTimeout
	}
	return defaultImageTimeout
}

// Registry manages available AI providers and selects the active ones for
// text and image generation. All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	active      string
	activeImage string
}

// NewRegistry creates a registry and initialises providers for every config
// that has a non-empty API key. Providers without keys are silently skipped.
// activeImage selects the image provider; empty means "same as active".
func NewRegistry(active, activeImage string, configs map[string]ProviderConfig) *Registry {
	if activeImage == "" {
		activeImage = active
	}
	r := &Registry{
		providers:   make(map[string]Provider),
		active:      active,
		activeImage: activeImage,
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		case "gemini":
			r.providers[name] = newGemini(cfg)
		case "claude":
			r.providers[name] = newClaude(cfg)
		case "mistral":
			r.providers[name] = newMistral(cfg)
		}
	}

	return r
}

// Generate calls the active provider's Generate method.
func (r *Registry) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	p, err := r.Active()
	if err != nil {
		return "", err
	}
	return p.Generate(ctx, systemPrompt, userPrompt)
}

// Active returns the currently active text provider.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("ai: no provider configured for %q", r.active)
	}
	return p, nil
}

// ActiveName returns the name of the currently active text provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// ActiveImageName returns the name of the provider used for images.
func (r *Registry) ActiveImageName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.activeImage
}

// Available returns the sorted names of all providers that have API keys.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a provider in the registry. This allows injecting
// custom providers at runtime (e.g. for testing).
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider checks whether a named provider is configured and available.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[name]
	return ok
}
