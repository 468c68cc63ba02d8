// Package main is the entry point for the secretcode listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/dshills/secretcode/internal/app"
	"github.com/dshills/secretcode/internal/config"
	"github.com/dshills/secretcode/internal/input/key"
	"github.com/dshills/secretcode/internal/sequence"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// flags holds the parsed command line.
type flags struct {
	configPath  string
	logLevel    string
	input       string
	code        string
	timeout     time.Duration
	watch       bool
	showVersion bool
	showHelp    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if f.showHelp {
		fs.Usage()
		return 0
	}
	if f.showVersion {
		fmt.Fprintf(stdout, "secretcode %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	opts, err := buildOptions(f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *flags) {
	f := &flags{}
	fs := flag.NewFlagSet("secretcode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVarP(&f.configPath, "config", "c", "", "Path to configuration file (TOML or YAML)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVarP(&f.input, "input", "i", "", "Input source (terminal, stdin)")
	fs.StringVar(&f.code, "code", "", `Listen for a single code, e.g. "Up Up Down Down b a"`)
	fs.DurationVar(&f.timeout, "timeout", 0, "Idle timeout for --code (default 850ms)")
	fs.BoolVarP(&f.watch, "watch", "w", false, "Reload the configuration file when it changes")
	fs.BoolVarP(&f.showVersion, "version", "v", false, "Show version information")
	fs.BoolVarP(&f.showHelp, "help", "h", false, "Show help message")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "secretcode - listen for secret key sequences\n\n")
		fmt.Fprintf(stderr, "Usage: secretcode [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEnvironment:\n")
		fmt.Fprintf(stderr, "  %-20s configuration file\n", config.EnvConfig)
		fmt.Fprintf(stderr, "  %-20s log level\n", config.EnvLogLevel)
		fmt.Fprintf(stderr, "  %-20s log file\n", config.EnvLogFile)
		fmt.Fprintf(stderr, "  %-20s input source\n", config.EnvInput)
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  secretcode                               Type 1 2 3 4 5 in the terminal\n")
		fmt.Fprintf(stderr, "  secretcode --code \"Up Up Down Down b a\"   Listen for a custom code\n")
		fmt.Fprintf(stderr, "  echo 1 2 3 4 5 | secretcode -i stdin     Read key names from stdin\n")
	}
	return fs, f
}

// buildOptions turns flags into application options. An ad-hoc --code
// replaces the configured codes and disables live reload.
func buildOptions(f *flags) (app.Options, error) {
	opts := app.Options{
		ConfigPath: config.ResolvePath(f.configPath),
		LogLevel:   f.logLevel,
		Input:      f.input,
		Watch:      f.watch,
	}

	if f.timeout < 0 {
		return opts, fmt.Errorf("invalid timeout %v", f.timeout)
	}
	if f.code == "" {
		if f.timeout != 0 {
			return opts, errors.New("--timeout requires --code")
		}
		return opts, nil
	}

	if _, err := key.ParseCodes(f.code); err != nil {
		return opts, fmt.Errorf("--code: %w", err)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return opts, err
	}
	cfg.Codes = []config.CodeConfig{{
		Name:          sequence.DefaultNotificationID,
		Keys:          f.code,
		IdleTimeoutMs: int(f.timeout / time.Millisecond),
		Message:       config.DefaultCode().Message,
	}}
	opts.Config = cfg
	opts.Watch = false
	return opts, nil
}
