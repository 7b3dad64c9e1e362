package watch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/config"
	"nathanbeddoewebdev/eventwatch/internal/database"
	"nathanbeddoewebdev/eventwatch/internal/events/providers"
	"nathanbeddoewebdev/eventwatch/internal/events/queue"
	"nathanbeddoewebdev/eventwatch/internal/events/scheduler"
	eventstui "nathanbeddoewebdev/eventwatch/internal/events/tui"
	"nathanbeddoewebdev/eventwatch/internal/logger"
	"nathanbeddoewebdev/eventwatch/internal/metrics"
	"nathanbeddoewebdev/eventwatch/internal/notifylog"
	"nathanbeddoewebdev/eventwatch/internal/services/auth"
	"nathanbeddoewebdev/eventwatch/internal/services/poller"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

const (
	defaultProvider   = "linode"
	defaultMaxPages   = 1
	snapshotBuffer    = 16
	metricsShutdown   = 5 * time.Second
	maxCompletedCache = 200
)

// NewCommand returns the "watch" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch account events and report completions",
		Long: `Poll the provider's account event feed, track actions that are in
progress and report each one exactly once when it completes.

On a terminal a live dashboard is shown; press r to poll again soon and
q to quit. With --plain, or when stdout is not a terminal, one line is
printed per completion, failure or change in the number of running events.

Flags fall back to the config file (see 'eventwatch config').

Examples:
  eventwatch watch
  eventwatch watch --provider hetzner --interval 5s
  eventwatch watch --plain --metrics-addr :9464`,
		Args:         cobra.NoArgs,
		RunE:         runWatch,
		SilenceUsage: true,
	}

	cmd.Flags().String("provider", "", "Events provider (default from config, else linode)")
	cmd.Flags().Bool("plain", false, "Print plain lines instead of the dashboard")
	cmd.Flags().Duration("interval", 0, "Base poll interval (default from config, else 2s)")
	cmd.Flags().Int("max-backoff", 0, "Largest backoff multiplier for quiet polls")
	cmd.Flags().Int("max-pages", 0, "Pages to read per poll")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().String("log-file", "", "Write logs to this file (default: stderr, or a file next to the database when the dashboard runs)")
	cmd.Flags().Bool("no-history", false, "Do not record completions in the local notification history")

	return cmd
}

// options are the resolved settings for one watch run.
type options struct {
	provider    string
	interval    time.Duration
	maxBackoff  int
	maxPages    int
	metricsAddr string
	logLevel    string
	logFile     string
	apiURL      string
	plain       bool
	noHistory   bool
}

// resolveOptions merges flags over the config file over built-in defaults.
func resolveOptions(cmd *cobra.Command, cfg *config.Config) (options, error) {
	f := cmd.Flags()
	provider, _ := f.GetString("provider")
	interval, _ := f.GetDuration("interval")
	maxBackoff, _ := f.GetInt("max-backoff")
	maxPages, _ := f.GetInt("max-pages")
	metricsAddr, _ := f.GetString("metrics-addr")
	logLevel, _ := f.GetString("log-level")
	logFile, _ := f.GetString("log-file")
	plain, _ := f.GetBool("plain")
	noHistory, _ := f.GetBool("no-history")

	if interval < 0 || maxBackoff < 0 || maxPages < 0 {
		return options{}, errors.New("--interval, --max-backoff and --max-pages must not be negative")
	}
	if interval > 0 && interval < 500*time.Millisecond {
		return options{}, fmt.Errorf("--interval must be at least 500ms, got %s", interval)
	}

	if interval == 0 {
		interval = cfg.PollIntervalOr(scheduler.DefaultBaseInterval)
	}

	return options{
		provider:    config.StringOr(provider, config.StringOr(cfg.DefaultProvider, defaultProvider)),
		interval:    interval,
		maxBackoff:  config.IntOr(maxBackoff, config.IntOr(cfg.MaxBackoff, scheduler.DefaultMaxIteration)),
		maxPages:    config.IntOr(maxPages, config.IntOr(cfg.MaxPages, defaultMaxPages)),
		metricsAddr: metricsAddr,
		logLevel:    config.StringOr(logLevel, config.StringOr(cfg.LogLevel, "info")),
		logFile:     logFile,
		apiURL:      cfg.APIURL,
		plain:       plain,
		noHistory:   noHistory,
	}, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	opts, err := resolveOptions(cmd, cfg)
	if err != nil {
		return err
	}

	interactive := !opts.plain && term.IsTerminal(int(os.Stdout.Fd()))

	log, err := newLogger(opts, interactive)
	if err != nil {
		return err
	}
	defer log.Sync()

	fetcher, err := providers.Get(opts.provider, auth.DefaultStore(), providers.Settings{BaseURL: opts.apiURL})
	if err != nil {
		return err
	}

	m := metrics.New(opts.provider)

	var sink poller.Sink
	if !opts.noHistory {
		repo, err := notifylog.Open()
		if err != nil {
			log.Warn("notification history disabled", zap.Error(err))
		} else {
			defer repo.Close()
			sink = notifylog.NewSink(repo)
		}
	}

	sched := scheduler.New(
		scheduler.WithBaseInterval(opts.interval),
		scheduler.WithMaxIteration(opts.maxBackoff),
	)
	svc := poller.NewService(fetcher, sched, queue.New(queue.WithMaxCompleted(maxCompletedCache)), poller.Options{
		ProviderName: opts.provider,
		MaxPages:     opts.maxPages,
		Logger:       log,
		Metrics:      m,
		Sink:         sink,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching events",
		zap.String("provider", opts.provider),
		zap.Duration("interval", opts.interval),
		zap.Int("max_backoff", opts.maxBackoff),
		zap.Int("max_pages", opts.maxPages),
	)

	ui := func(ctx context.Context, snapshots <-chan poller.Snapshot) error {
		if interactive {
			return eventstui.RunDashboard(ctx, fetcher.GetDisplayName(), svc, snapshots)
		}
		return eventstui.RunPlain(ctx, cmd.OutOrStdout(), snapshots)
	}
	return run(ctx, svc, m, opts.metricsAddr, log, ui)
}

// run drives the poll loop, the optional metrics server and the UI until
// ctx is cancelled or the UI returns.
func run(ctx context.Context, svc *poller.Service, m *metrics.Metrics, metricsAddr string, log *logger.Logger, ui func(context.Context, <-chan poller.Snapshot) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots, unsubscribe := svc.Subscribe(snapshotBuffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer unsubscribe()
		err := svc.Run(gctx, poller.DefaultResolution)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		// Leaving the UI stops everything else.
		defer cancel()
		return ui(gctx, snapshots)
	})

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.Info("serving metrics", zap.String("addr", metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdown)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// newLogger logs to stderr unless the dashboard owns the terminal, in which
// case logs go to a file next to the database.
func newLogger(opts options, interactive bool) (*logger.Logger, error) {
	output := opts.logFile
	if output == "" && interactive {
		dbPath, err := database.DefaultPath()
		if err != nil {
			return nil, err
		}
		output = filepath.Join(filepath.Dir(dbPath), "watch.log")
	}
	if output != "" {
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	log, err := logger.New(logger.Options{Level: opts.logLevel, OutputPath: output})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}
