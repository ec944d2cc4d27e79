// Package permctx wires the library together from configuration: it builds
// the calculator registry, the scripting engine and its scripted calculators,
// and the context manager, so embedders and tools need a single call instead
// of assembling the pieces by hand.
package permctx

import (
	"fmt"
	"time"

	"github.com/permkit/permctx/pkg/calculator"
	luacalc "github.com/permkit/permctx/pkg/calculator/adapters/lua"
	staticcalc "github.com/permkit/permctx/pkg/calculator/adapters/static"
	"github.com/permkit/permctx/pkg/config"
	"github.com/permkit/permctx/pkg/log"
	"github.com/permkit/permctx/pkg/manager"
	"github.com/permkit/permctx/pkg/scripting"
)

// Library bundles a configured context manager with the resources backing it.
type Library struct {
	manager *manager.Manager
	engine  scripting.Engine
	config  *config.Config
}

// NewFromConfig loads configuration from path and builds the library. An
// empty path uses the defaults.
func NewFromConfig(path string) (*Library, error) {
	if path == "" {
		cfg := config.Default()
		return New(&cfg)
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(cfg)
}

// New builds the library from an already loaded configuration.
func New(cfg *config.Config) (*Library, error) {
	log.Setup(log.Config{
		Level:  log.Level(cfg.Logging.Level),
		Format: log.Format(cfg.Logging.Format),
	})

	registry := calculator.NewRegistry()
	registry.RegisterStatic(staticcalc.New(cfg.Static.Server, cfg.Static.Entries))

	engine, err := initScriptedCalculators(cfg, registry)
	if err != nil {
		return nil, err
	}

	mgr, err := manager.New(registry, cfg, manager.Config{
		CacheTTL:    time.Duration(cfg.Cache.TTLMillis) * time.Millisecond,
		MaxSubjects: cfg.Cache.MaxSubjects,
	})
	if err != nil {
		if engine != nil {
			engine.Close()
		}
		return nil, fmt.Errorf("failed to initialize context manager: %w", err)
	}

	log.Info("permctx initialized",
		"server", cfg.Static.Server,
		"cache_ttl_ms", cfg.Cache.TTLMillis,
		"scripted_calculators", len(cfg.Scripting.Calculators)+len(cfg.Scripting.StaticCalculators),
	)

	return &Library{
		manager: mgr,
		engine:  engine,
		config:  cfg,
	}, nil
}

// initScriptedCalculators builds the Lua engine, loads the configured script
// directories and registers the configured calculator functions. Returns a
// nil engine when no scripting is configured.
func initScriptedCalculators(cfg *config.Config, registry *calculator.Registry) (scripting.Engine, error) {
	if len(cfg.Scripting.Paths) == 0 {
		if len(cfg.Scripting.Calculators) > 0 || len(cfg.Scripting.StaticCalculators) > 0 {
			return nil, fmt.Errorf("scripted calculators configured without script paths")
		}
		return nil, nil
	}

	engine, err := scripting.NewLuaEngine(scripting.Config{
		EnableSandboxing: cfg.Scripting.Sandbox,
		ScriptTimeoutMs:  cfg.Scripting.TimeoutMillis,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scripting engine: %w", err)
	}

	for _, dir := range cfg.Scripting.Paths {
		if err := engine.LoadScriptDir(dir); err != nil {
			engine.Close()
			return nil, fmt.Errorf("failed to load scripts from %s: %w", dir, err)
		}
	}

	for _, funcName := range cfg.Scripting.Calculators {
		calc, err := luacalc.New(engine, funcName)
		if err != nil {
			engine.Close()
			return nil, err
		}
		registry.Register(calc)
	}
	for _, funcName := range cfg.Scripting.StaticCalculators {
		calc, err := luacalc.NewStatic(engine, funcName)
		if err != nil {
			engine.Close()
			return nil, err
		}
		registry.RegisterStatic(calc)
	}

	return engine, nil
}

// Manager returns the context manager.
func (l *Library) Manager() *manager.Manager {
	return l.manager
}

// Config returns the loaded configuration.
func (l *Library) Config() *config.Config {
	return l.config
}

// Close releases the resources held by the library.
func (l *Library) Close() error {
	if l.engine != nil {
		return l.engine.Close()
	}
	return nil
}
