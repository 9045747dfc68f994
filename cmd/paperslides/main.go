package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/unalkalkan/PaperSlides/internal/config"
	"github.com/unalkalkan/PaperSlides/internal/logging"
	"github.com/unalkalkan/PaperSlides/internal/packaging"
	"github.com/unalkalkan/PaperSlides/internal/pipeline"
	"github.com/unalkalkan/PaperSlides/internal/provider"
	"github.com/unalkalkan/PaperSlides/internal/storage"
	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Version is set at build time
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "paperslides: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "paperslides",
		Usage:   "Turn an academic paper into a slide deck",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (defaults apply when empty)",
				EnvVars: []string{"PS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error), overrides logging.level",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Environment file loaded before the configuration",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert one paper (path or URL, argument or first line of stdin)",
				ArgsUsage: "[path-or-url]",
				Action:    convertAction,
			},
			{
				Name:      "bundle",
				Usage:     "Write the ZIP bundle (deck, analysis, figures) of a stored run",
				ArgsUsage: "<run-id> [output.zip|-]",
				Action:    bundleAction,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveAction,
			},
		},
		Action: convertAction,
	}
}

// environment holds everything a command needs
type environment struct {
	cfg      *types.Config
	logger   *logrus.Logger
	storage  storage.Adapter
	registry *provider.Registry
	pipeline *pipeline.Pipeline
	offline  bool
}

func (e *environment) Close() {
	if err := e.registry.Close(); err != nil {
		e.logger.WithError(err).Warn("Failed to close analyzers")
	}
	if err := e.storage.Close(); err != nil {
		e.logger.WithError(err).Warn("Failed to close storage adapter")
	}
}

func setup(c *cli.Context) (*environment, error) {
	if err := loadEnvFile(c.String("env-file"), c.IsSet("env-file")); err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	logger := logging.NewWithOutput(cfg.Logging, c.App.ErrWriter)

	adapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage adapter: %w", err)
	}

	registry := provider.NewRegistry(logger)
	if err := registry.InitializeProviders(cfg.Providers); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	env := &environment{cfg: cfg, logger: logger, storage: adapter, registry: registry}

	analyzer, err := registry.Get(cfg.Pipeline.Analyzer)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to select analyzer: %w", err)
	}
	_, env.offline = analyzer.(*provider.StubAnalyzer)

	env.pipeline, err = pipeline.NewFromConfig(cfg.Pipeline, adapter, analyzer, logger)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"storage":  cfg.Storage.Adapter,
		"analyzer": analyzer.Name(),
		"matching": cfg.Pipeline.FigureMatching,
	}).Debug("PaperSlides initialized")

	return env, nil
}

// loadEnvFile loads a dotenv file; a missing default file is not an error
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func convertAction(c *cli.Context) error {
	locator := c.Args().First()
	if locator == "" {
		var err error
		if locator, err = readLocator(c.App.Reader); err != nil {
			return err
		}
	}

	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := env.pipeline.Convert(c.Context, locator)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if len(result.UnresolvedReferences) > 0 {
		env.logger.WithField("references", strings.Join(result.UnresolvedReferences, ", ")).
			Warn("Some figure references could not be resolved")
	}

	fmt.Fprintln(c.App.Writer, deckLocation(env.cfg.Storage, result.DeckPath))
	return nil
}

func bundleAction(c *cli.Context) error {
	runID := c.Args().First()
	if runID == "" {
		return errors.New("run id required")
	}
	output := c.Args().Get(1)
	if output == "" {
		output = runID + ".zip"
	}

	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	bundle, err := packaging.NewService(env.pipeline.Runs(), env.logger).PackageRun(c.Context, runID)
	if err != nil {
		return fmt.Errorf("failed to package run: %w", err)
	}

	if output == "-" {
		_, err = io.Copy(c.App.Writer, bundle)
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if _, err := io.Copy(f, bundle); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintln(c.App.Writer, output)
	return nil
}

// readLocator returns the first non-blank line of r
func readLocator(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return "", errors.New("no paper path or URL given")
}

// deckLocation is the filesystem path for local storage and the storage key otherwise
func deckLocation(cfg types.StorageConfig, key string) string {
	if cfg.Adapter == "local" {
		return filepath.Join(cfg.Local.BasePath, filepath.FromSlash(key))
	}
	return key
}
