package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/snapetech/clipgen/internal/clips"
	"github.com/snapetech/clipgen/internal/config"
	"github.com/snapetech/clipgen/internal/content"
	"github.com/snapetech/clipgen/internal/journal"
	"github.com/snapetech/clipgen/internal/logging"
)

// app carries what every subcommand needs once the root pre-run has loaded config.
type app struct {
	configPath string
	envFile    string
	storage    string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
	reg *prometheus.Registry

	// overridable in tests
	buildCatalog func(cfg *config.Config) (*content.Catalog, error)
	interactive  func() bool
}

func newApp() *app {
	return &app{
		envFile: ".env",
		buildCatalog: func(cfg *config.Config) (*content.Catalog, error) {
			return clips.Catalog(clips.FFmpeg{Path: cfg.FFmpegPath, Codec: cfg.FFmpegCodec})
		},
		interactive: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.storage != "" {
		cfg.StorageRoot = a.storage
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.reg = prometheus.NewRegistry()
	a.reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return nil
}

// session is an initialized coordinator plus the journal feeding it, if any.
type session struct {
	c       *content.Coordinator
	journal *journal.Journal
}

func (s *session) Close() {
	if s.journal != nil {
		s.journal.Close()
	}
}

// openSession builds the catalog, opens the journal and initializes storage.
func (a *app) openSession() (*session, error) {
	cat, err := a.buildCatalog(a.cfg)
	if err != nil {
		return nil, err
	}
	opts := []content.Option{
		content.WithLogger(a.log.Named("content")),
		content.WithMetrics(content.NewMetrics(a.reg)),
	}
	s := &session{}
	if a.cfg.JournalPath != "" {
		j, err := journal.Open(a.cfg.JournalPath, a.log.Named("journal"))
		if err != nil {
			return nil, err
		}
		s.journal = j
		opts = append(opts, content.WithObserver(j))
	}
	s.c = content.New(cat, opts...)
	if err := s.c.Initialize(a.cfg.StorageRoot); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// ensureReady adopts what is on disk and, when anything is missing and
// generation on start is enabled, starts a background run over the catalog.
func (a *app) ensureReady(c *content.Coordinator) *content.Run {
	c.Adopt()
	if c.IsContentReady() || !a.cfg.GenerateOnStart {
		return nil
	}
	a.log.Info("content not ready; generating", zap.Int("missing", len(c.Missing())))
	return c.GenerateAll(content.NewLogSink(a.log.Named("generate"), c.Catalog()))
}
