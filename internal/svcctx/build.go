package svcctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openfdd/dossier/internal/calllog"
	"github.com/openfdd/dossier/internal/config"
	"github.com/openfdd/dossier/internal/detect"
	"github.com/openfdd/dossier/internal/extract"
	"github.com/openfdd/dossier/internal/home"
	"github.com/openfdd/dossier/internal/monitor"
	"github.com/openfdd/dossier/internal/pipeline"
	"github.com/openfdd/dossier/internal/prompts"
	"github.com/openfdd/dossier/internal/prompts/item19"
	"github.com/openfdd/dossier/internal/prompts/item20"
	"github.com/openfdd/dossier/internal/prompts/item21"
	"github.com/openfdd/dossier/internal/prompts/item5"
	"github.com/openfdd/dossier/internal/prompts/item6"
	"github.com/openfdd/dossier/internal/prompts/item7"
	"github.com/openfdd/dossier/internal/providers"
	"github.com/openfdd/dossier/internal/router"
	"github.com/openfdd/dossier/internal/segment"
	"github.com/openfdd/dossier/internal/store"
)

// templateRegistrations lists every built-in extraction template. A new
// item gets a package under internal/prompts and a line here.
var templateRegistrations = []func(*prompts.Catalog) error{
	item5.Register,
	item6.Register,
	item7.Register,
	item19.Register,
	item20.Register,
	item21.Register,
}

// BuildOptions configure service construction.
type BuildOptions struct {
	// ConfigFile overrides config discovery (./dossier.yaml, then
	// ~/.dossier/dossier.yaml).
	ConfigFile string

	// HomeDir overrides the default home (~/.dossier).
	HomeDir string

	// Logger overrides the config-built logger, mainly for tests.
	Logger *slog.Logger

	// SkipHealthCheck skips the startup backend probes.
	SkipHealthCheck bool
}

// Build constructs the full service graph from configuration: home
// directory, prompt catalog with overrides applied, model backends,
// router, store, and the extraction pipeline.
func Build(ctx context.Context, opts BuildOptions) (*Services, error) {
	h, err := home.New(opts.HomeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	cfgFile := opts.ConfigFile
	if cfgFile == "" && h.ConfigExists() {
		cfgFile = h.ConfigPath()
	}
	cfgMgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := cfgMgr.Get()

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg.Log)
	}

	catalog := prompts.NewCatalog(logger)
	for _, register := range templateRegistrations {
		if err := register(catalog); err != nil {
			return nil, err
		}
	}
	if n, err := catalog.LoadOverrides(h.PromptOverridesDir()); err != nil {
		return nil, fmt.Errorf("load prompt overrides: %w", err)
	} else if n > 0 {
		logger.Info("prompt overrides applied", "count", n, "dir", h.PromptOverridesDir())
	}

	registry := providers.NewRegistry(logger)
	if err := registerBackends(ctx, registry, cfg, logger); err != nil {
		return nil, err
	}
	if len(registry.Names()) == 0 {
		return nil, errors.New("no backends enabled; check the backends section of dossier.yaml")
	}
	if !opts.SkipHealthCheck {
		registry.CheckHealth(ctx)
	}

	rtr := router.New(registry, cfg.RouterConfig(), logger)
	st := store.NewFS(h)
	mon := monitor.New(logger)
	calls := calllog.NewRecorder(h, logger)

	engine, err := extract.New(extract.Deps{
		Catalog:  catalog,
		Registry: registry,
		Router:   rtr,
		Store:    st,
		Monitor:  mon,
		Calls:    calls,
		Logger:   logger,
	}, cfg.ExtractConfig())
	if err != nil {
		return nil, err
	}

	detector := detect.New(cfg.DetectConfig(), logger)
	segmenter := segment.New(logger)

	coordinator, err := pipeline.New(pipeline.Deps{
		Detector:  detector,
		Segmenter: segmenter,
		Store:     st,
		Engine:    engine,
		Monitor:   mon,
		Logger:    logger,
	}, cfg.PipelineConfig())
	if err != nil {
		return nil, err
	}

	// A config file edit mid-run adjusts the few-shot cap on the next
	// section; everything else takes effect on the next invocation.
	cfgMgr.OnChange(func(c *config.Config) {
		engine.SetMaxFewShot(c.Extraction.MaxFewShot)
		logger.Info("configuration reloaded", "file", cfgMgr.ConfigFileUsed())
	})
	cfgMgr.WatchConfig()

	return &Services{
		Config:      cfgMgr,
		Home:        h,
		Catalog:     catalog,
		Registry:    registry,
		Router:      rtr,
		Store:       st,
		Monitor:     mon,
		Calls:       calls,
		Engine:      engine,
		Detector:    detector,
		Segmenter:   segmenter,
		Coordinator: coordinator,
		Logger:      logger,
	}, nil
}

// registerBackends builds a backend per enabled config entry. Hosted
// backends without credentials still register when their constructor
// allows it; the router skips unavailable backends at call time.
func registerBackends(ctx context.Context, registry *providers.Registry, cfg *config.Config, logger *slog.Logger) error {
	for name, bc := range cfg.EnabledBackends() {
		switch bc.Type {
		case "local":
			registry.Register(providers.NewLocal(providers.LocalConfig{
				BaseURL: bc.BaseURL,
				Model:   bc.Model,
				Timeout: bc.Timeout(),
				RPS:     bc.RateLimit,
			}))
		case "openrouter":
			registry.Register(providers.NewOpenRouter(providers.OpenRouterConfig{
				APIKey:  bc.ResolvedKey(),
				BaseURL: bc.BaseURL,
				Model:   bc.Model,
				Timeout: bc.Timeout(),
				RPS:     bc.RateLimit,
			}))
		case "gemini":
			key := bc.ResolvedKey()
			if key == "" {
				logger.Debug("skipping backend, no API key", "name", name)
				continue
			}
			g, err := providers.NewGemini(ctx, providers.GeminiConfig{
				APIKey: key,
				Model:  bc.Model,
				RPS:    bc.RateLimit,
			})
			if err != nil {
				return fmt.Errorf("configure backend %s: %w", name, err)
			}
			registry.Register(g)
		default:
			return fmt.Errorf("backend %s: unknown type %q", name, bc.Type)
		}
	}
	return nil
}

// NewLogger builds the process logger from config. Logs go to stderr so
// structured command output on stdout stays parseable.
func NewLogger(cfg config.LogCfg) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
