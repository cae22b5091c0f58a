package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/PackageTracker/config"
	packageshttp "github.com/BearBump/PackageTracker/internal/api/packages_http"
	"github.com/BearBump/PackageTracker/internal/broker/kafka"
	"github.com/BearBump/PackageTracker/internal/cache/rediscache"
	"github.com/BearBump/PackageTracker/internal/services/packages"
	"github.com/BearBump/PackageTracker/internal/storage/backend"
)

type packageAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     packageAPIOpts
	svc      *packages.Service
	limiter  packageshttp.RateLimiter
	consumer *kafka.Consumer
	closers  []func()
}

func mustBootstrapPackageAPI() *packageAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config, %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app, err := bootstrapPackageAPI(ctx, cfg)
	if err != nil {
		cancel()
		panic(err)
	}
	app.ctx, app.cancel = ctx, cancel
	if p := os.Getenv("swaggerPath"); p != "" {
		app.opts.swaggerPath = p
	}
	return app
}

func bootstrapPackageAPI(ctx context.Context, cfg *config.Config) (*packageAPIApp, error) {
	opts := packageAPIOpts{
		grpcAddr:      cfg.Tracker.GRPCAddr,
		httpAddr:      cfg.Tracker.HTTPAddr,
		grpcDialAddr:  cfg.Tracker.GRPCDialAddr,
		swaggerPath:   cfg.Tracker.SwaggerPath,
		topic:         cfg.Kafka.PackageUpdatedTopicName,
		consumerGroup: cfg.Tracker.KafkaConsumerGroup,
	}
	if opts.grpcAddr == "" {
		opts.grpcAddr = ":50051"
	}
	if opts.httpAddr == "" {
		opts.httpAddr = ":8080"
	}
	if opts.consumerGroup == "" {
		opts.consumerGroup = "package-api"
	}
	if opts.topic == "" {
		opts.topic = "packages.updated"
	}
	changedTopic := cfg.Kafka.PackageChangedTopicName
	if changedTopic == "" {
		changedTopic = "packages.changed"
	}

	kv, closeKV, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &packageAPIApp{opts: opts, closers: []func(){closeKV}}

	var producer packages.Producer
	if cfg.Kafka.Enabled() {
		p := kafka.NewProducer(cfg.Kafka.Brokers())
		producer = p
		app.closers = append(app.closers, func() { _ = p.Close() })
		app.consumer = kafka.NewConsumer(cfg.Kafka.Brokers(), opts.topic, opts.consumerGroup)
	} else {
		slog.Info("kafka not configured, change events and status updates are off")
	}

	if cfg.Tracker.RateLimitPerMinute > 0 && cfg.Redis.Host != "" {
		rc := rediscache.New(cfg.Redis.Addr(), cfg.Redis.KeyPrefix)
		app.limiter = rc.RateLimiter(int64(cfg.Tracker.RateLimitPerMinute), time.Minute)
		app.closers = append(app.closers, func() { _ = rc.Close() })
	}

	app.svc = packages.New(packages.NewStore(kv), producer, changedTopic)
	return app, nil
}

func (a *packageAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.consumer, a.closers = nil, nil
}

func (a *packageAPIApp) Run() error {
	var consumer kafkaConsumer
	if a.consumer != nil {
		consumer = a.consumer
	}
	return runPackageAPI(a.ctx, a.opts, a.svc, a.limiter, consumer)
}
