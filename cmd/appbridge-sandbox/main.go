// Command appbridge-sandbox serves the bridge routes from a local folder or
// an in-memory filesystem so clients can be developed without the app.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localapp/appbridge_go/internal/devseed"
	"github.com/localapp/appbridge_go/internal/sandbox"
	"github.com/localapp/appbridge_go/internal/telemetry"
	"github.com/localapp/appbridge_go/pkg/dialogs"
	"github.com/localapp/appbridge_go/pkg/remotefs"
	"github.com/localapp/appbridge_go/pkg/remotefs/mock"
)

type flags struct {
	addr          string
	root          string
	mem           bool
	fsSeed        string
	static        bool
	latency       time.Duration
	fail          string
	rate          float64
	burst         int
	dialogAnswer  string
	allowCommands bool
	metrics       bool
	tlsCert       string
	tlsKey        string
	open          bool
	entry         string
	log           telemetry.LogConfig
}

var opts flags

var rootCmd = &cobra.Command{
	Use:           "appbridge-sandbox [entry-page]",
	Short:         "Serve the app bridge API for local development",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := applyEntry(opts, args)
		if err != nil {
			return err
		}
		return run(cmd.Context(), o)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.addr, "addr", "127.0.0.1:8787", "listen address")
	f.StringVar(&opts.root, "root", ".", "folder served by the disk store and static file handler")
	f.BoolVar(&opts.mem, "mem", false, "use an in-memory filesystem instead of --root")
	f.StringVar(&opts.fsSeed, "fs-seed", "", "JSON seed for the in-memory filesystem (implies --mem)")
	f.BoolVar(&opts.static, "static", true, "serve files under --root outside /api")
	f.DurationVar(&opts.latency, "latency", 0, "artificial latency injected per call")
	f.StringVar(&opts.fail, "fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	f.Float64Var(&opts.rate, "rate", 0, "calls per second allowed, 0 for unlimited")
	f.IntVar(&opts.burst, "burst", 10, "rate limiter burst size")
	f.StringVar(&opts.dialogAnswer, "dialog-answer", "", "path returned by every dialog, empty cancels")
	f.BoolVar(&opts.allowCommands, "allow-commands", false, "let /api/command start processes on this host")
	f.BoolVar(&opts.metrics, "metrics", true, "expose Prometheus metrics on "+sandbox.MetricsPath)
	f.StringVar(&opts.tlsCert, "tls-cert", "", "PEM certificate, serves HTTPS together with --tls-key")
	f.StringVar(&opts.tlsKey, "tls-key", "", "PEM private key for --tls-cert")
	f.BoolVar(&opts.open, "open", false, "open the entry page in the default browser")
	f.StringVar(&opts.log.Level, "log-level", "info", "log level (debug|info|warn|error)")
	f.StringVar(&opts.log.File, "log-file", "", "also write JSON logs to this rotating file")
	f.IntVar(&opts.log.MaxSizeMB, "log-max-size", 50, "rotate the log file after this many megabytes")
	f.IntVar(&opts.log.MaxBackups, "log-max-backups", 3, "rotated log files to keep")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "appbridge-sandbox: %v\n", err)
		os.Exit(1)
	}
}

// applyEntry points --root at the folder holding the entry page argument.
func applyEntry(o flags, args []string) (flags, error) {
	o.entry = sandbox.DefaultEntryFile
	if len(args) == 0 {
		return o, nil
	}
	root, entry, err := sandbox.SplitEntry(args[0])
	if err != nil {
		return o, err
	}
	o.root, o.entry = root, entry
	return o, nil
}

func run(ctx context.Context, o flags) error {
	logger, err := telemetry.NewLogger(o.log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	failCfg, err := sandbox.ParseFailConfig(o.fail)
	if err != nil {
		return fmt.Errorf("parse --fail: %w", err)
	}

	store, staticRoot, err := openStore(o)
	if err != nil {
		return err
	}

	var answers dialogs.Backend = dialogs.Cancel
	if o.dialogAnswer != "" {
		answers = dialogs.Answer(o.dialogAnswer)
	}
	control := sandbox.NewSystemControl(o.allowCommands, logger)

	var reg *prometheus.Registry
	if o.metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	gin.SetMode(gin.ReleaseMode)
	handler, err := sandbox.NewHandler(sandbox.Config{
		FS:         store,
		Dialogs:    answers,
		App:        control,
		StaticRoot: staticRoot,
		Logger:     logger,
		Registry:   reg,
		Latency:    o.latency,
		Fail:       failCfg,
		RateLimit:  o.rate,
		Burst:      o.burst,
	})
	if err != nil {
		return err
	}

	tlsCfg, err := sandbox.ResolveTLS(o.tlsCert, o.tlsKey, ".", o.root)
	if err != nil {
		return err
	}
	scheme := "http"
	if tlsCfg != nil {
		scheme = "https"
	}

	server := &http.Server{
		Addr:              o.addr,
		Handler:           handler,
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("sandbox listening",
			zap.String("addr", o.addr),
			zap.String("api", sandbox.EntryURL(scheme, o.addr, "api")),
			zap.Bool("tls", tlsCfg != nil),
			zap.Bool("in_memory", o.mem || o.fsSeed != ""),
			zap.Bool("commands", o.allowCommands),
		)
		if tlsCfg != nil {
			errCh <- server.ListenAndServeTLS("", "")
			return
		}
		errCh <- server.ListenAndServe()
	}()

	if staticRoot != "" {
		page := sandbox.EntryURL(scheme, o.addr, o.entry)
		logger.Info("entry page", zap.String("url", page))
		if o.open {
			if err := browser.OpenURL(page); err != nil {
				logger.Warn("open browser", zap.String("url", page), zap.Error(err))
			}
		}
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("reason", "signal"))
	case <-control.Done():
		logger.Info("shutting down", zap.String("reason", "exit requested"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(o flags) (remotefs.Backend, string, error) {
	if o.mem || o.fsSeed != "" {
		m := mock.New()
		if o.fsSeed != "" {
			entries, err := devseed.LoadFSSeed(o.fsSeed)
			if err != nil {
				return nil, "", fmt.Errorf("load fs seed: %w", err)
			}
			if err := m.Seed(entries); err != nil {
				return nil, "", fmt.Errorf("apply fs seed: %w", err)
			}
		}
		return m, "", nil
	}

	disk, err := sandbox.NewDiskStore(o.root)
	if err != nil {
		return nil, "", err
	}
	if !o.static {
		return disk, "", nil
	}
	return disk, disk.Root(), nil
}
