// Package config resuelve la configuración del cliente una sola vez
// (flags, variables de entorno y defaults) para todos los comandos.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/elsanchez/mediasense/pkg/client"
)

// LogFileName es el log de la TUI dentro del data dir
const LogFileName = "mediasense.log"

// Config agrupa todo lo configurable del cliente
type Config struct {
	APIURL         string
	OutputDir      string
	DataDir        string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	LogLevel       string
	LogFile        string
	NoHistory      bool
}

// Default retorna la configuración por defecto
func Default() Config {
	dataDir := filepath.Join(".local", "share", "mediasense")
	outputDir := filepath.Join("Downloads", "mediasense")
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, dataDir)
		outputDir = filepath.Join(home, outputDir)
	}

	return Config{
		APIURL:         client.DefaultAPIURL,
		OutputDir:      outputDir,
		DataDir:        dataDir,
		PollInterval:   time.Second,
		RequestTimeout: 30 * time.Second,
		LogLevel:       "info",
	}
}

// Flags retorna los flags globales, con sus variables de entorno
func Flags() []cli.Flag {
	def := Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "api-url",
			Value:   def.APIURL,
			Usage:   "MediaSense service root `URL`",
			EnvVars: []string{"MEDIASENSE_API_URL", "API_URL"},
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Value:   def.OutputDir,
			Usage:   "save downloaded files to `DIR`",
			EnvVars: []string{"MEDIASENSE_OUTPUT_DIR"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Value:   def.DataDir,
			Usage:   "keep history and logs in `DIR`",
			EnvVars: []string{"MEDIASENSE_DATA_DIR"},
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Value:   def.PollInterval,
			Usage:   "task status polling period",
			EnvVars: []string{"MEDIASENSE_POLL_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Value:   def.RequestTimeout,
			Usage:   "timeout for analyze/download/status requests",
			EnvVars: []string{"MEDIASENSE_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   def.LogLevel,
			Usage:   "debug, info, warn or error",
			EnvVars: []string{"MEDIASENSE_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "write logs to `FILE` (the TUI defaults to <data-dir>/" + LogFileName + ")",
			EnvVars: []string{"MEDIASENSE_LOG_FILE"},
		},
		&cli.BoolFlag{
			Name:    "no-history",
			Usage:   "do not record finished downloads",
			EnvVars: []string{"MEDIASENSE_NO_HISTORY"},
		},
	}
}

// FromCLI resuelve la configuración desde el contexto de urfave/cli
func FromCLI(c *cli.Context) (Config, error) {
	cfg := Config{
		APIURL:         strings.TrimRight(strings.TrimSpace(c.String("api-url")), "/"),
		OutputDir:      c.String("output-dir"),
		DataDir:        c.String("data-dir"),
		PollInterval:   c.Duration("poll-interval"),
		RequestTimeout: c.Duration("timeout"),
		LogLevel:       c.String("log-level"),
		LogFile:        c.String("log-file"),
		NoHistory:      c.Bool("no-history"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reporta todos los problemas de una vez
func (c Config) Validate() error {
	var result *multierror.Error

	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("api url %q: must be an absolute http(s) URL", c.APIURL))
	}
	if c.OutputDir == "" {
		result = multierror.Append(result, errors.New("output dir: must not be empty"))
	}
	if c.DataDir == "" && !c.NoHistory {
		result = multierror.Append(result, errors.New("data dir: must not be empty unless history is disabled"))
	}
	if c.PollInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("poll interval %v: must be positive", c.PollInterval))
	}
	if c.RequestTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout %v: must not be negative", c.RequestTimeout))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("log level: %w", err))
	}

	return result.ErrorOrNil()
}

// LogPath decide a dónde va el log: el archivo configurado, o para la TUI
// uno dentro del data dir. Vacío significa stderr.
func (c Config) LogPath(interactive bool) string {
	if c.LogFile != "" {
		return c.LogFile
	}
	if interactive && c.DataDir != "" {
		return filepath.Join(c.DataDir, LogFileName)
	}
	return ""
}
