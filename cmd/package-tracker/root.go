package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/BearBump/PackageTracker/config"
	"github.com/BearBump/PackageTracker/internal/broker/kafka"
	"github.com/BearBump/PackageTracker/internal/services/packages"
	"github.com/BearBump/PackageTracker/internal/storage/backend"
	"github.com/spf13/cobra"
)

// cli holds what the commands share: streams, flags and the lazily opened service.
type cli struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	configPath string
	dataDir    string
	debug      bool

	svc     *packages.Service
	closers []func()
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		now:    time.Now,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "package-tracker",
		Short:        "Track parcels across carriers from the command line",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if c.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level})))
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			c.close()
		},
	}
	cmd.SetIn(c.in)
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (defaults to $configPath)")
	cmd.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "directory for the file backend")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose logging to stderr")

	cmd.AddCommand(
		detectCmd(c),
		carriersCmd(c),
		addCmd(c),
		listCmd(c),
		deleteCmd(c),
		archiveCmd(c),
		restoreCmd(c),
		clearCmd(c),
		backupCmd(c),
		importCmd(c),
	)
	return cmd
}

func (c *cli) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = os.Getenv("configPath")
	}
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.dataDir != "" {
		cfg.Storage.FileDir = c.dataDir
		if cfg.Storage.Backend == "" {
			cfg.Storage.Backend = backend.File
		}
	}
	return cfg, nil
}

// service opens storage on first use, so detect and carriers never touch it.
func (c *cli) service(ctx context.Context) (*packages.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	kv, closeKV, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeKV)

	var producer packages.Producer
	topic := cfg.Kafka.PackageChangedTopicName
	if cfg.Kafka.Enabled() {
		p := kafka.NewProducer(cfg.Kafka.Brokers())
		producer = p
		c.closers = append(c.closers, func() { _ = p.Close() })
		if topic == "" {
			topic = "packages.changed"
		}
	}

	now := func() time.Time { return c.now().UTC() }
	c.svc = packages.New(packages.NewStore(kv).WithClock(now), producer, topic).WithClock(now)
	return c.svc, nil
}

func (c *cli) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	c.svc = nil
}
