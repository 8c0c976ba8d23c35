package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nhdewitt/sysprobe/internal/config"
)

type options struct {
	configPath string
	format     string
	logLevel   string
	watch      bool
	interval   time.Duration
	count      int
	iface      string
	all        bool
	usage      bool
	total      bool
}

// app carries everything a subcommand needs once flags and config are
// resolved.
type app struct {
	cfg      *config.Config
	opts     options
	logger   *slog.Logger
	printer  *printer
	hostname string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		if len(args) == 0 {
			return errors.New("missing subcommand")
		}
		return pflag.ErrHelp
	}

	command, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown subcommand %q", args[0])
	}

	var opts options
	flagSet := pflag.NewFlagSet("sysprobe "+args[0], pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file")
	flagSet.StringVarP(&opts.format, "format", "f", "", "output format: text, json or yaml (default: text on a terminal, json otherwise)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "override log.level from the config")
	flagSet.BoolVarP(&opts.watch, "watch", "w", false, "keep collecting every interval")
	flagSet.DurationVarP(&opts.interval, "interval", "i", 0, "collection interval (default: collection.interval_seconds)")
	flagSet.IntVarP(&opts.count, "count", "n", 0, "stop watching after this many collections (0 = until interrupted)")
	flagSet.StringVar(&opts.iface, "iface", "", "net: read only this interface")
	flagSet.BoolVarP(&opts.all, "all", "a", false, "cpu: print every processor; net: include ignored interfaces")
	flagSet.BoolVarP(&opts.usage, "usage", "u", false, "cpu: report utilisation over one interval")
	flagSet.BoolVar(&opts.total, "total", false, "net: report the sum across interfaces")

	if err := flagSet.Parse(args[1:]); err != nil {
		return err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	a, err := newApp(opts, stdout, stderr)
	if err != nil {
		return err
	}
	return command(ctx, a)
}

func newApp(opts options, stdout, stderr io.Writer) (*app, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	cfg, err := config.NormalizeAndValidate(cfg)
	if err != nil {
		return nil, err
	}

	if opts.interval <= 0 {
		opts.interval = time.Duration(cfg.Collection.IntervalSeconds) * time.Second
	}
	if opts.count < 0 {
		return nil, fmt.Errorf("--count must not be negative, got %d", opts.count)
	}

	format, err := resolveFormat(opts.format, stdout)
	if err != nil {
		return nil, err
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	hostname, _ := os.Hostname()

	return &app{
		cfg:      cfg,
		opts:     opts,
		logger:   newLogger(stderr, cfg.Log.Format, level),
		printer:  &printer{w: stdout, format: format},
		hostname: hostname,
	}, nil
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `sysprobe reads CPU, temperature and network statistics.

Usage:
  sysprobe <command> [flags]

Commands:
  cpu       processor topology (--all for every processor, --usage for load)
  sensors   temperature sensors
  net       network interface counters (--iface NAME, --total, --all)
  host      host identity, kernel, root filesystem and load average

Common flags:
  -c, --config PATH      TOML config file
  -f, --format FORMAT    text, json or yaml
  -w, --watch            repeat every --interval
  -i, --interval DUR     collection interval
  -n, --count N          stop after N collections
      --log-level LEVEL  debug, info, warn or error
`)
}
