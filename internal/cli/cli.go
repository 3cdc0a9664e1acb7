// Package cli wires the cobra command tree of the bizaudit binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/raysh454/bizaudit/internal/app"
	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/batch"
	"github.com/raysh454/bizaudit/internal/config"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/scoring"
	"github.com/raysh454/bizaudit/internal/server"
)

const (
	appName          = "bizaudit"
	configFlag       = "config"
	logLevelFlag     = "log-level"
	logFormatFlag    = "log-format"
	shutdownDeadline = 20 * time.Second
)

// Application holds the root command and the state its subcommands share.
type Application struct {
	root   *cobra.Command
	loader *config.Loader
	out    io.Writer

	cfg    *config.Config
	loaded config.Loaded
	logger logging.Logger
	zap    *logging.ZapLogger

	configPath string
	logLevel   string
	logFormat  string

	appOptions []app.Option
}

// Option customises an Application.
type Option func(*Application)

// WithOutput redirects command output, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(a *Application) { a.out = w }
}

// WithAppOptions forwards options to app.NewApplication for serve and audit.
func WithAppOptions(opts ...app.Option) Option {
	return func(a *Application) { a.appOptions = append(a.appOptions, opts...) }
}

// WithLoader replaces the configuration loader.
func WithLoader(l *config.Loader) Option {
	return func(a *Application) { a.loader = l }
}

// NewApplication assembles the command tree.
func NewApplication(opts ...Option) *Application {
	a := &Application{
		loader: config.NewLoader(),
		out:    os.Stdout,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Audit the public listing of a local business",
		Long:          "bizaudit fetches a business listing at a paced rate, scores it out of 100 and explains every point.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(a.out)
	root.SetContext(context.Background())

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, configFlag, "", "Optional path to a YAML configuration file.")
	flags.StringVar(&a.logLevel, logLevelFlag, "", "Override the configured log level (debug, info, warn, error).")
	flags.StringVar(&a.logFormat, logFormatFlag, "", "Override the configured log format (json or console).")

	root.AddCommand(a.serveCommand(), a.auditCommand(), a.batchCommand(), a.scoreCommand(), a.configCommand())
	a.root = root
	return a
}

// Root exposes the cobra command, mainly for tests.
func (a *Application) Root() *cobra.Command { return a.root }

// Execute runs the command tree with args and flushes the logger.
func (a *Application) Execute(args ...string) error {
	if args != nil {
		a.root.SetArgs(args)
	}
	err := a.root.Execute()
	if a.zap != nil {
		if syncErr := a.zap.Sync(); syncErr != nil && !ignorableSyncError(syncErr) && err == nil {
			err = fmt.Errorf("unable to flush logger: %w", syncErr)
		}
	}
	return err
}

// Execute builds a fresh Application and runs it against os.Args.
func Execute() error {
	return NewApplication().Execute()
}

func ignorableSyncError(err error) bool {
	return errors.Is(err, syscall.ENOTSUP) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}

func (a *Application) initialize(cmd *cobra.Command) error {
	cfg, loaded, err := a.loader.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}
	if flagChanged(cmd, logLevelFlag) || flagChanged(cmd, logFormatFlag) {
		cfg.ApplyLogOverrides(a.logLevel, a.logFormat)
	}

	z, err := logging.NewZapLoggerTo(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	if err != nil {
		return fmt.Errorf("unable to create logger: %w", err)
	}
	a.cfg, a.loaded, a.zap = cfg, loaded, z
	a.logger = z.With(logging.F("app", appName))

	a.logger.Debug("configuration initialized",
		logging.F("log_level", cfg.Logging.Level),
		logging.F("log_format", cfg.Logging.Format),
		logging.F("config_file", loaded.ConfigFileUsed))
	return nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	sets := []*pflag.FlagSet{cmd.PersistentFlags(), cmd.InheritedFlags()}
	if root := cmd.Root(); root != nil {
		sets = append(sets, root.PersistentFlags())
	}
	for _, fs := range sets {
		if fs != nil && fs.Changed(name) {
			return true
		}
	}
	return false
}

func (a *Application) buildPipeline() (*app.Application, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.NewApplication(&a.cfg.App, a.logger, a.appOptions...)
}

func (a *Application) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// serve

func (a *Application) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP audit API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.ListenAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.listen_addr.")
	return cmd
}

// serve runs the API until ctx ends, then drains HTTP and the pipeline.
func (a *Application) serve(ctx context.Context) error {
	pipeline, err := a.buildPipeline()
	if err != nil {
		return err
	}
	srv, err := server.NewServer(a.cfg.Server, pipeline.Auditor, a.logger)
	if err != nil {
		_ = pipeline.Shutdown(context.Background())
		return err
	}
	httpServer := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", logging.F("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", logging.Err(err))
	}
	if err := pipeline.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("pipeline shutdown", logging.Err(err))
	}
	return serveErr
}

// audit

func (a *Application) auditCommand() *cobra.Command {
	var req model.AuditRequest
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit one business and print the result as JSON",
		Example: `  bizaudit audit --name "Blue Door Cafe" --area "Park Street, Kolkata"
  bizaudit audit --place-url "https://www.google.com/maps/place/..."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAudit(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&req.SubjectName, "name", "", "Business name.")
	cmd.Flags().StringVar(&req.Area, "area", "", "Area or locality of the business.")
	cmd.Flags().StringVar(&req.ResourceRef, "place-url", "", "Direct listing URL, bypasses the name search.")
	return cmd
}

func (a *Application) runAudit(ctx context.Context, req model.AuditRequest) error {
	// Bad input never starts a backend.
	if err := req.Validate(); err != nil {
		return err
	}
	pipeline, err := a.buildPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = pipeline.Shutdown(context.Background()) }()

	res, err := pipeline.Auditor.RunAudit(ctx, req)
	if err != nil {
		e, _ := auditerr.As(err)
		if e != nil {
			_ = a.writeJSON(server.ErrorResponse{Error: string(e.Code), Message: e.Message, RetryAfter: int(e.RetryAfter.Seconds())})
		}
		return err
	}
	return a.writeJSON(res)
}

// batch

func (a *Application) batchCommand() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "batch <requests.jsonl|->",
		Short: "Audit every request of a JSON Lines file, one outcome per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			reqs, err := batch.ReadRequests(r)
			if err != nil {
				return err
			}
			if concurrency > 0 {
				a.cfg.Batch.MaxConcurrency = concurrency
			}

			pipeline, err := a.buildPipeline()
			if err != nil {
				return err
			}
			defer func() { _ = pipeline.Shutdown(context.Background()) }()

			runner, err := batch.New(a.cfg.Batch, pipeline.Auditor, batch.NewJSONLinesSink(a.out), a.logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			sum, err := runner.Run(ctx, reqs)
			if err != nil {
				return err
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d audits failed", sum.Failed, len(reqs))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Outstanding audits, overrides batch.max_concurrency.")
	return cmd
}

// openInput opens path, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// score

func (a *Application) scoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score <facts.json|->",
		Short: "Score a RawFacts JSON document offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			var facts model.RawFacts
			dec := json.NewDecoder(r)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&facts); err != nil {
				return fmt.Errorf("decoding facts: %w", err)
			}
			return a.writeJSON(scoring.Score(facts))
		},
	}
}

// config

func (a *Application) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			if a.loaded.ConfigFileUsed != "" {
				fmt.Fprintf(a.out, "# loaded from %s\n", a.loaded.ConfigFileUsed)
			}
			_, err = io.WriteString(a.out, strings.TrimRight(string(out), "\n")+"\n")
			return err
		},
	}
}
