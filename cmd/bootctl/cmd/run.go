package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/GoCodeAlone/bootevents"
	"github.com/GoCodeAlone/bootevents/feeders"
	"github.com/GoCodeAlone/bootevents/health"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/spf13/cobra"
)

// ErrUnsupportedConfigFormat is returned for config files that are neither
// YAML nor TOML.
var ErrUnsupportedConfigFormat = errors.New("unsupported config file format")

// RunOptions holds the flags of the run command.
type RunOptions struct {
	ConfigFiles   []string
	EnvPrefix     string
	ProbeAddr     string
	Name          string
	LogFormat     string
	Verbose       bool
	Once          bool
	ShutdownGrace time.Duration
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [flags] [-- application args]",
		Short: "Run the application bootstrap",
		Long: `Run the application bootstrap and print every lifecycle event as a
CloudEvent, one JSON document per line. Arguments after -- are passed to the
application and become command line properties (--key=value).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApplication(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.ConfigFiles, "config", "c", nil, "YAML or TOML config file; earlier files take precedence")
	flags.StringVar(&opts.EnvPrefix, "env-prefix", "", "Read properties from environment variables with this prefix (APP_ turns APP_SERVER_PORT into server.port)")
	flags.StringVar(&opts.ProbeAddr, "probe-addr", "", "Serve /livez, /readyz and /health on this address")
	flags.StringVar(&opts.Name, "name", "bootctl", "Application name")
	flags.StringVar(&opts.LogFormat, "log-format", "text", "Log format: text or json")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&opts.Once, "once", false, "Exit as soon as the application is ready")
	flags.DurationVar(&opts.ShutdownGrace, "shutdown-grace", 5*time.Second, "Time allowed for the probe server to drain")

	return cmd
}

func runApplication(cmd *cobra.Command, opts *RunOptions, args []string) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.LogFormat, opts.Verbose)

	appFeeders, err := buildFeeders(opts, logger)
	if err != nil {
		return err
	}

	printer := newEventPrinter(cmd.OutOrStdout())
	app := bootevents.NewApplication(logger,
		bootevents.WithName(opts.Name),
		bootevents.WithFeeders(appFeeders...),
		bootevents.WithListeners(bootevents.NewObserverListener(printer)),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var server *http.Server
	if opts.ProbeAddr != "" {
		server, err = startProbeServer(opts.ProbeAddr, app, logger)
		if err != nil {
			return err
		}
		defer shutdownProbeServer(server, opts.ShutdownGrace, logger)
	}

	appCtx, err := app.Run(ctx, args...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := appCtx.Close(context.Background()); cerr != nil {
			logger.Warn("Failed to close application context", "error", cerr)
		}
	}()

	if opts.Once {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("Application ready, waiting for shutdown signal", "name", app.Name())
	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping application...")
	return nil
}

func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func buildFeeders(opts *RunOptions, logger *slog.Logger) ([]bootevents.PropertyFeeder, error) {
	var result []bootevents.PropertyFeeder
	for _, path := range opts.ConfigFiles {
		feeder, err := feederFor(path, opts.Verbose, logger)
		if err != nil {
			return nil, err
		}
		result = append(result, feeder)
	}
	if opts.EnvPrefix != "" {
		envFeeder := feeders.NewEnvFeeder(opts.EnvPrefix)
		envFeeder.SetVerboseDebug(opts.Verbose, logger)
		// environment variables override files
		result = append([]bootevents.PropertyFeeder{envFeeder}, result...)
	}
	return result, nil
}

func feederFor(path string, verbose bool, logger *slog.Logger) (bootevents.PropertyFeeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f := feeders.NewYamlFeeder(path)
		f.SetVerboseDebug(verbose, logger)
		return f, nil
	case ".toml":
		f := feeders.NewTomlFeeder(path)
		f.SetVerboseDebug(verbose, logger)
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, path)
	}
}

func startProbeServer(addr string, app *bootevents.Application, logger *slog.Logger) (*http.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("probe server: %w", err)
	}
	server := &http.Server{
		Handler:           health.NewRouter(app.Availability(), health.WithLogger(logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Probe server stopped", "error", err)
		}
	}()
	logger.Info("Serving probes", "addr", listener.Addr().String())
	return server, nil
}

func shutdownProbeServer(server *http.Server, grace time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("Probe server shutdown failed", "error", err)
	}
}

// eventPrinter is an Observer writing each CloudEvent as one JSON line.
type eventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func newEventPrinter(w io.Writer) *eventPrinter {
	return &eventPrinter{w: w}
}

func (p *eventPrinter) ObserverID() string {
	return "bootctl.printer"
}

func (p *eventPrinter) OnEvent(_ context.Context, event cloudevents.Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Type(), err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = fmt.Fprintln(p.w, string(line))
	return err
}
