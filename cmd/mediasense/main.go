package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/elsanchez/mediasense/internal/config"
	"github.com/elsanchez/mediasense/internal/logging"
	"github.com/elsanchez/mediasense/internal/repository/sqlite"
	"github.com/elsanchez/mediasense/internal/session"
	"github.com/elsanchez/mediasense/pkg/client"
)

const (
	version = "0.2.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    "mediasense",
		Usage:   "download media through a MediaSense service",
		Version: version,
		Flags:   config.Flags(),
		// mediasense <url> es atajo de "mediasense tui <url>"
		ArgsUsage: "[url]",
		Action: func(c *cli.Context) error {
			if arg := c.Args().First(); arg != "" && !strings.HasPrefix(arg, "http") {
				return fmt.Errorf("unknown command: %s", arg)
			}
			return runTUI(c)
		},
		Commands: []*cli.Command{
			{
				Name:      "tui",
				Usage:     "interactive downloader",
				ArgsUsage: "[url]",
				Action:    runTUI,
			},
			{
				Name:      "analyze",
				Usage:     "show the title and formats of a link",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "check", Usage: "ping the service first"},
				},
				Action: runAnalyze,
			},
			{
				Name:      "get",
				Usage:     "download one format of a link without the UI",
				ArgsUsage: "<url> <format-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "format `ID` to download, instead of the second argument (see analyze)"},
				},
				Action: runGet,
			},
			{
				Name:  "history",
				Usage: "list finished downloads",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "show at most `N` entries"},
				},
				Action: runHistory,
			},
			{
				Name:  "version",
				Usage: "show version",
				Action: func(c *cli.Context) error {
					fmt.Printf("mediasense v%s\n", version)
					return nil
				},
			},
		},
		HideHelpCommand: true,
	}
}

// app agrupa lo que comparten los comandos: config, logger, cliente e historial
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	logFile bool
	client  *client.Client
	db      *sqlite.Database
}

// newApp resuelve la configuración y abre los recursos.
// interactive manda el log a archivo para no romper la TUI.
func newApp(c *cli.Context, interactive bool, withHistory bool) (*app, error) {
	cfg, err := config.FromCLI(c)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logPath := cfg.LogPath(interactive)
	logger, err := logging.New(cfg.LogLevel, logPath)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	zap.RedirectStdLog(logger)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		logFile: logPath != "",
		client:  client.NewClient(cfg.APIURL, cfg.RequestTimeout, logger.Sugar().Named("client")),
	}

	if withHistory && !cfg.NoHistory {
		db, err := sqlite.NewDatabase(cfg.DataDir)
		if err != nil {
			// Sin historial se puede seguir descargando
			logger.Sugar().Warnf("History disabled: %v", err)
		} else {
			a.db = db
			logger.Sugar().Debugf("History database: %s", db.Path())
		}
	}

	return a, nil
}

// recorder retorna nil (interfaz vacía) si no hay historial
func (a *app) recorder() session.Recorder {
	if a.db == nil {
		return nil
	}
	return a.db.HistoryRepo
}

func (a *app) newEngine(retriever session.Retriever) *session.Engine {
	return session.NewEngine(a.client, session.Options{
		PollInterval: a.cfg.PollInterval,
		Retriever:    retriever,
		Recorder:     a.recorder(),
		Logger:       a.logger.Sugar().Named("session"),
	})
}

// runEngine arranca el engine y retorna una función que lo detiene y
// espera a que libere todo
func runEngine(ctx context.Context, engine *session.Engine) func() error {
	ctx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- engine.Run(ctx) }()

	return func() error {
		cancel()
		return <-errCh
	}
}

// Close libera todo y junta los errores
func (a *app) Close() error {
	var result *multierror.Error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close history: %w", err))
		}
	}
	// Sync sobre stderr falla en algunas terminales, solo importa con archivo
	if err := a.logger.Sync(); err != nil && a.logFile && !errors.Is(err, syscall.EINVAL) {
		result = multierror.Append(result, fmt.Errorf("sync log: %w", err))
	}
	return result.ErrorOrNil()
}
