package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/daemon"
	"github.com/itohio/kbtelemetry/pkg/keymap"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

var (
	configPath = "kbtelemetry.yaml"
	port       = ""
	mock       = false
	verbose    = false
	quiet      = false
	record     = ""
	redisAddr  = ""
	showKeymap = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "configuration file (.yaml or .toml)")
	pflag.StringVarP(&port, "port", "p", port, "serial port, overrides the config file")
	pflag.BoolVar(&mock, "mock", mock, "use the simulated keyboard")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
	pflag.BoolVarP(&quiet, "quiet", "q", quiet, "do not echo lines to stdout")
	pflag.StringVar(&record, "record", record, "record frames to this CSV file")
	pflag.StringVar(&redisAddr, "redis", redisAddr, "publish frames to this Redis address")
	pflag.BoolVar(&showKeymap, "keymap", showKeymap, "print the keymap and LED layout, then exit")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	// Library packages log through the standard logger.
	log.SetOutput(os.Stderr)

	if err := run(logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	if showKeymap {
		return printKeymap(os.Stdout)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	applyFlags(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := daemon.Options{Mock: mock}
	if !quiet {
		opts.Stdout = os.Stdout
	}

	d, err := daemon.New(cfg, logger, opts)
	if err != nil {
		return errors.Wrap(err, "failed to create daemon")
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "daemon failed")
	}

	return nil
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(cfg *config.Config) {
	if port != "" {
		cfg.Serial.Port = port
	}
	if record != "" {
		cfg.Record.Path = record
	}
	if redisAddr != "" {
		cfg.Redis.Addr = redisAddr
	}
}

func printKeymap(w io.Writer) error {
	if err := keymap.Validate(); err != nil {
		return errors.Wrap(err, "keymap is inconsistent")
	}
	for l := range keymap.NumLayers {
		if err := keymap.WriteLayer(w, l); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return keymap.WriteLEDs(w)
}
