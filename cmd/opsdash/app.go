package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/config"
	"github.com/nao1215/opsdash/internal/controller"
	"github.com/nao1215/opsdash/internal/log"
	"github.com/nao1215/opsdash/internal/report"
)

// app is what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *api.Client
	stdout io.Writer
}

// newApp builds the configuration, the logger and the API client for cmd.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	client, err := api.NewClient(cfg.BaseURL,
		api.WithTimeout(cfg.Timeout),
		api.WithCookie(cfg.Cookie),
		api.WithHeaders(cfg.Headers),
		api.WithProxy(cfg.ProxyAddress),
		api.WithUserAgent(cfg.UserAgent),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return &app{cfg: cfg, logger: logger, client: client, stdout: cmd.OutOrStdout()}, nil
}

// buildConfig layers defaults, the config file and the flags the user set,
// in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit path must exist. Without one, a missing file means
	// defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("cookie") {
		if cfg.Cookie, err = flags.GetString("cookie"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}

	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.TeeReport, err = flags.GetBool("tee"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return nil, err
	}

	if cfg.DBDir, err = flags.GetString("data-dir"); err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// setupLogger creates the secure logger selected by the configuration.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return log.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return log.NewSecureLogger(w, cfg.Verbose)
}

// controllerOptions passes the configuration down to a page controller.
func (a *app) controllerOptions() []controller.Option {
	return []controller.Option{
		controller.WithLogger(a.logger),
		controller.FromConfig(a.cfg),
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func (a *app) signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			a.logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (a *app) format() report.Format {
	switch {
	case a.cfg.JSONReport:
		return report.FormatJSON
	case a.cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// write outputs results in the requested format, to the report file when
// one is set and to stdout as well with --tee.
func (a *app) write(results ...*report.Result) error {
	w, closeFile, err := a.reportWriter()
	if err != nil {
		return err
	}
	defer closeFile()

	for _, r := range results {
		if _, err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) reportWriter() (report.Writer, func(), error) {
	newWriter := func(out io.Writer) (report.Writer, error) {
		return report.New(a.format(), out, getVersion(), a.cfg.Verbose)
	}
	if a.cfg.ReportFile == "" {
		w, err := newWriter(a.stdout)
		return w, func() {}, err
	}

	dir := filepath.Dir(a.cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	// Reports may carry session ids and message text.
	f, err := os.OpenFile(a.cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	closeFile := func() { _ = f.Close() }

	w, err := newWriter(f)
	if err != nil {
		closeFile()
		return nil, nil, err
	}
	if a.cfg.TeeReport {
		// Same format on both: a tee'd JSON report stays parseable.
		tw, err := newWriter(a.stdout)
		if err != nil {
			closeFile()
			return nil, nil, err
		}
		w = report.NewMultiWriter(w, tw)
	}
	return w, closeFile, nil
}

// fail reports err for the command title and returns it for the exit
// status. In JSON mode a failed result document is written first.
func (a *app) fail(title string, err error) error {
	if a.cfg.JSONReport {
		if werr := a.write(report.FromError(title, api.UserMessage(err))); werr != nil {
			return errors.Join(err, werr)
		}
	}
	return fmt.Errorf("%s: %w", title, err)
}

// save writes a download into the output directory and returns a result
// line describing it.
func (a *app) save(dl *controller.Download) (*report.Result, error) {
	if err := os.MkdirAll(a.cfg.OutputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	path := filepath.Join(a.cfg.OutputDir, filepath.Base(dl.Name))
	if err := os.WriteFile(path, dl.Data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	a.logger.Debug("download saved", "path", path, "type", dl.ContentType)
	return report.FromMessage("Download", "saved %s (%s)", path, humanize.Bytes(uint64(len(dl.Data)))), nil //nolint:gosec // length is never negative
}
