package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/app"
	"github.com/abhisek/tutorly/internal/config"
	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/logging"
	"github.com/abhisek/tutorly/internal/outline"
	"github.com/abhisek/tutorly/internal/registry"
	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/tutor"
)

// deps is everything a front end needs to run sessions.
type deps struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *store.Store
	provider llm.Provider // nil when no model is configured
	catalog  *outline.Catalog
	factory  *session.Factory // nil when provider is nil
	sessions *registry.Memory
}

// buildDeps opens the store and wires the tutoring stack. In terminal
// mode the log goes to a file next to the database so it does not draw
// over the UI.
func buildDeps(cmd *cobra.Command, terminal bool) (*deps, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}

	logOpts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	if terminal && logOpts.File == "" {
		logOpts.File = filepath.Join(filepath.Dir(dbPath), "tutorly.log")
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}
	d := &deps{cfg: cfg, logger: logger, store: st}

	d.catalog = outline.NewCatalog(cfg.OutlineDir, outline.WithLogger(logger.Named("catalog")))
	if err := d.catalog.Load(); err != nil {
		logger.Warn("outline catalog unavailable", zap.String("dir", cfg.OutlineDir), zap.Error(err))
	}

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), logger.Named("llm"))
	if err != nil {
		logger.Warn("llm provider not configured", zap.Error(err))
	} else {
		d.provider = provider
	}

	var sources []outline.Source
	sources = append(sources, d.catalog)
	if d.provider != nil {
		sources = append(sources, outline.NewGenerator(d.provider, outline.DefaultGeneratorConfig(), logger.Named("outline")))
	}

	if d.provider != nil {
		sc := session.DefaultConfig()
		sc.AssessmentEnabled = cfg.Tutor.Assessment
		sc.MaxDrainSteps = cfg.Tutor.MaxDrainSteps
		d.factory = &session.Factory{
			Provider:              d.provider,
			Outlines:              outline.Chain(sources...),
			Config:                sc,
			BreakThresholdMinutes: cfg.Tutor.BreakThresholdMinutes,
			Logger:                logger.Named("session"),
		}
	}

	ropts := registry.Options{
		MaxSessions:   cfg.Registry.MaxSessions,
		IdleTTL:       cfg.Registry.IdleTTL,
		SweepInterval: cfg.Registry.SweepInterval,
		Persister:     registry.NewStorePersister(st.SessionRepo(), st.EventRepo()),
		Logger:        logger.Named("registry"),
	}
	if d.factory != nil {
		ropts.Loader = registry.StoreLoader(st.SessionRepo(), d.factory.Restore,
			tutor.WithBreakThreshold(cfg.Tutor.BreakThresholdMinutes))
	}
	d.sessions = registry.NewMemory(ropts)

	return d, nil
}

func (d *deps) Close() {
	if err := d.store.Close(); err != nil {
		d.logger.Warn("close store", zap.Error(err))
	}
	_ = d.logger.Sync()
}

// runApp launches the terminal client.
func runApp(cmd *cobra.Command) error {
	d, err := buildDeps(cmd, true)
	if err != nil {
		return err
	}
	defer d.Close()

	if d.provider == nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured: set ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY.")
		fmt.Fprintln(os.Stderr, "Saved sessions can be browsed, but tutoring is unavailable.")
	}

	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		user = "learner"
	}

	opts := app.Options{
		UserID:  user,
		Catalog: d.catalog,
		Records: d.store.SessionRepo(),
		Logger:  d.logger,
	}
	if d.factory != nil {
		opts.Factory = d.factory
		opts.Sessions = d.sessions
	}
	return app.Run(opts)
}
