// Command suvctl drives a suv deployment from the terminal: it logs in,
// keeps the session cookie between runs, and wraps the record and account
// APIs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	suvclient "github.com/MrEthical07/suvclient"
	"github.com/MrEthical07/suvclient/metrics/export/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var errSessionExpired = errors.New("not logged in or session expired; run `suvctl login`")

type app struct {
	v       *viper.Viper
	cfgFile string
	metrics bool

	cfg    cliConfig
	loc    *time.Location
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	client  *suvclient.Client
	rdb     redis.UniversalClient
	expired atomic.Bool
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "suvctl",
		Short:         "Command-line client for the suv disciplinary records service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/suvctl/config.yaml)")
	flags.String("base-url", "", "suv deployment root")
	flags.StringP("output", "o", "", "output format: table, json or yaml")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.Duration("timeout", 0, "HTTP timeout")
	flags.String("timezone", "", "timezone for displayed times")
	flags.String("cookie-backend", "", "where the session lives: file, redis or memory")
	flags.String("cookie-file", "", "cookie file for the file backend")
	flags.String("redis-addr", "", "redis address for the redis backend")
	flags.BoolVar(&a.metrics, "metrics", false, "print client metrics to stderr on exit")

	for key, flag := range map[string]string{
		"base_url":       "base-url",
		"output":         "output",
		"verbose":        "verbose",
		"timeout":        "timeout",
		"timezone":       "timezone",
		"cookie_backend": "cookie-backend",
		"cookie_file":    "cookie-file",
		"redis_addr":     "redis-addr",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}
	setDefaults(a.v)

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRequestCmd(a),
		newViolationsCmd(a),
		newExportCmd(a),
		newUsersCmd(a),
		newStatsCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := readConfigFile(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := loadConfig(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.loc, _ = cfg.location()

	if a.logger == nil {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if cfg.Verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = logger
	}
	a.logger.Debug("configuration loaded",
		zap.String("command", cmd.CommandPath()),
		zap.String("base_url", cfg.BaseURL),
		zap.String("cookie_backend", cfg.CookieBackend),
		zap.String("config_file", a.v.ConfigFileUsed()),
	)
	return nil
}

// teardown runs after every command, including failed ones.
func (a *app) teardown() {
	if a.client != nil {
		if a.metrics {
			fmt.Fprint(a.stderr, prometheus.NewPrometheusExporter(a.client).Render())
		}
		a.client.Close()
		a.client = nil
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
		a.rdb = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func run(a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	defer a.teardown()
	return root.Execute()
}

// open builds the client on first use.
func (a *app) open() (*suvclient.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	clientCfg := a.cfg.clientConfig()

	b := suvclient.New().
		WithConfig(clientCfg).
		WithLogger(a.logger.Named("suvclient")).
		WithNotifySink(suvclient.NewWriterSink(a.stderr)).
		WithNavigator(suvclient.NavigatorFunc(func(_ context.Context, target string) {
			if target == clientCfg.Paths.Login {
				a.expired.Store(true)
			}
		}))

	if clientCfg.CookieStore.Backend == suvclient.CookieBackendRedis {
		a.rdb = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		b.WithRedis(a.rdb)
	}

	c, err := b.Build()
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// check maps the unauthenticated outcome to the login hint.
func (a *app) check(err error) error {
	if errors.Is(err, suvclient.ErrUnauthenticated) {
		return errSessionExpired
	}
	return err
}

func (a *app) out() printer {
	return printer{format: a.cfg.Output, w: a.stdout}
}

func main() {
	if err := run(newApp(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "suvctl:", err)
		os.Exit(1)
	}
}
