package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/revops/internal/agent"
	"github.com/soyeahso/revops/internal/config"
	"github.com/soyeahso/revops/internal/dataset"
	"github.com/soyeahso/revops/internal/hooks"
	"github.com/soyeahso/revops/internal/llm"
	"github.com/soyeahso/revops/internal/store"
)

// loadConfig reads the config file, falling back to defaults plus
// environment overrides when it does not exist.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, fmt.Errorf("loading config %s: %w", paths.Config, err)
	}
	return cfg, nil
}

// validate reports every issue and fails if there is any.
func validate(cfg config.Config) error {
	issues := config.Validate(&cfg)
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(issues))
	for _, issue := range issues {
		log.Error().Str("path", issue.Path).Msg(issue.Message)
		msgs = append(msgs, issue.String())
	}
	return fmt.Errorf("config validation failed with %d issue(s): %s", len(issues), strings.Join(msgs, "; "))
}

// openSource returns the configured table source and a function releasing
// any database it opened.
func openSource(cfg config.Config) (dataset.Source, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Data.Source {
	case "", "csv":
		return dataset.CSVSource{Dir: cfg.Data.Dir}, noop, nil
	case "sqlite", "postgres":
		db, err := openStore(cfg, cfg.Data.Source)
		if err != nil {
			return nil, noop, err
		}
		return dataset.SQLSource{DB: db.SQL(), Dialect: db.Dialect()}, db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

// openStore opens the sqlite state database or the configured postgres
// server.
func openStore(cfg config.Config, kind string) (*store.DB, error) {
	switch kind {
	case "sqlite":
		if err := paths.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
		return store.Open(paths.DatabasePath(cfg), log)
	case "postgres":
		if cfg.Data.DSN == "" {
			return nil, errors.New("data.dsn is required for postgres")
		}
		return store.OpenPostgres(cfg.Data.DSN, log)
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

// app is the wiring shared by every command that answers questions.
type app struct {
	cfg       config.Config
	holder    *dataset.Holder
	assistant *agent.Assistant
	hooks     *hooks.Manager
	close     func() error
}

// newApp loads the dataset and wires the assistant. With complete unset no
// completion provider is required, for commands that never call one.
func newApp(ctx context.Context, cfg config.Config, complete bool) (*app, error) {
	if complete {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}

	src, closeSrc, err := openSource(cfg)
	if err != nil {
		return nil, err
	}
	holder := dataset.NewHolder(src, log)
	if _, err := holder.Current(ctx); err != nil {
		closeSrc()
		return nil, fmt.Errorf("loading dataset from %s: %w", src.Describe(), err)
	}

	hm := hooks.NewManager(log)
	hooks.RegisterCommands(hm, cfg.Hooks)

	registry := llm.NewRegistryFromConfig(cfg, log)
	return &app{
		cfg:       cfg,
		holder:    holder,
		assistant: agent.NewAssistant(agent.AssistantConfigFrom(cfg), registry, holder, hm, log),
		hooks:     hm,
		close:     closeSrc,
	}, nil
}

// Close waits for async hooks and releases the data source.
func (a *app) Close() error {
	a.hooks.Wait()
	return a.close()
}
