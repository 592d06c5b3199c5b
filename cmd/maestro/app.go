package main

import (
	"fmt"
	"log/slog"

	"maestro-hq/maestro/pkg/analysis"
	"maestro-hq/maestro/pkg/config"
	"maestro-hq/maestro/pkg/dispatch"
	"maestro-hq/maestro/pkg/llm"
	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/providers/claude"
	"maestro-hq/maestro/pkg/providers/gemini"
	"maestro-hq/maestro/pkg/providers/local"
	"maestro-hq/maestro/pkg/providers/perplexity"
	"maestro-hq/maestro/pkg/refinement"
	"maestro-hq/maestro/pkg/session"
	"maestro-hq/maestro/pkg/shaping"
	"maestro-hq/maestro/pkg/store"
	"maestro-hq/maestro/pkg/synthesis"
	"maestro-hq/maestro/pkg/telemetry/metrics"
	"maestro-hq/maestro/pkg/validation"
)

// app bundles the long-lived components the commands share.
type app struct {
	cfg        *config.Config
	profiles   map[providers.ID]providers.Profile
	adapters   map[providers.ID]providers.Adapter
	registry   *session.Registry
	store      *store.Store
	collector  *metrics.Collector
	dispatcher *dispatch.Dispatcher
}

// buildApp wires every component from the loaded configuration. The caller
// owns the returned app and must Close it.
func buildApp(cfg *config.Config) (*app, error) {
	profiles := profilesFromConfig(cfg)

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return nil, err
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no providers enabled in configuration")
	}

	sessionProfiles := make(map[providers.ID]session.Profile, len(adapters))
	for id := range adapters {
		sessionProfiles[id] = session.Profile{MaxConcurrent: profiles[id].MaxConcurrent}
	}
	registry := session.NewRegistry(sessionProfiles)

	st, err := store.Open(&store.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	generator, err := llm.NewClient(llm.Config{
		BaseURL: cfg.Synthesis.LocalBaseURL,
		Model:   cfg.Synthesis.LocalModel,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create local model client: %w", err)
	}

	weights := make(map[providers.ID]float64, len(profiles))
	for id, profile := range profiles {
		weights[id] = profile.Weight
	}

	rules, err := loadRules(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	dispatcher, err := dispatch.New(dispatch.Options{
		Registry:        registry,
		Adapters:        adapters,
		Profiles:        profiles,
		Shaper:          shaping.NewShaper(),
		Validator:       validation.NewValidator(),
		Rules:           rules,
		Analyzer:        analysis.NewAnalyzer(generator, weights),
		Synthesizer: synthesis.NewSynthesizer(generator, synthesis.Config{
			FallbackOnly: cfg.Synthesis.FallbackOnly,
			MaxTokens:    cfg.Synthesis.MaxTokens,
		}),
		Store:           st,
		Metrics:         collector,
		QueueMultiplier: cfg.Dispatcher.QueueMultiplier,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	return &app{
		cfg:        cfg,
		profiles:   profiles,
		adapters:   adapters,
		registry:   registry,
		store:      st,
		collector:  collector,
		dispatcher: dispatcher,
	}, nil
}

// Close releases the app's adapters and store.
func (a *app) Close() {
	for id, adapter := range a.adapters {
		if err := adapter.Close(); err != nil {
			slog.Warn("failed to close adapter", "provider", id, "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close store", "error", err)
	}
}

// profilesFromConfig overlays the configured weight, concurrency cap and
// pacing interval on the shipped provider profiles.
func profilesFromConfig(cfg *config.Config) map[providers.ID]providers.Profile {
	profiles := providers.DefaultProfiles()
	for name, pc := range cfg.Providers {
		id := providers.ID(name)
		profile, ok := profiles[id]
		if !ok {
			continue
		}
		if pc.Weight > 0 {
			profile.Weight = pc.Weight
		}
		if pc.MaxConcurrent > 0 {
			profile.MaxConcurrent = pc.MaxConcurrent
		}
		profile.MinInterval = pc.MinInterval
		profiles[id] = profile
	}
	return profiles
}

// buildAdapters creates one adapter per enabled provider section.
func buildAdapters(cfg *config.Config) (map[providers.ID]providers.Adapter, error) {
	adapters := make(map[providers.ID]providers.Adapter)

	for name, pc := range cfg.Providers {
		if !pc.ProviderEnabled() {
			continue
		}
		id := providers.ID(name)
		if !id.Valid() {
			return nil, fmt.Errorf("unknown provider %q in configuration", name)
		}

		adapterCfg := providers.AdapterConfig{
			Provider:   id,
			BaseURL:    pc.BaseURL,
			APIKey:     pc.APIKey,
			Model:      pc.Model,
			Timeout:    pc.Timeout,
			MaxRetries: pc.MaxRetries,
		}

		var (
			adapter providers.Adapter
			err     error
		)
		switch id {
		case providers.Claude:
			adapter, err = claude.NewAdapter(adapterCfg)
		case providers.Gemini:
			adapter, err = gemini.NewAdapter(adapterCfg)
		case providers.Perplexity:
			adapter, err = perplexity.NewAdapter(adapterCfg)
		case providers.Local:
			adapter, err = local.NewAdapter(adapterCfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s adapter: %w", id, err)
		}
		adapters[id] = adapter
	}

	return adapters, nil
}

// loadRules reads the configured rules file, or returns nil so the
// dispatcher falls back to the built-in rule table.
func loadRules(cfg *config.Config) ([]refinement.Rule, error) {
	if cfg.Refinement.RulesPath == "" {
		return nil, nil
	}
	rules, err := refinement.LoadRulesFile(cfg.Refinement.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load refinement rules: %w", err)
	}
	return rules, nil
}
