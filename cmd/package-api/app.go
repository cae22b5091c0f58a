package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	packagesapi "github.com/BearBump/PackageTracker/internal/api/packages_api"
	packageshttp "github.com/BearBump/PackageTracker/internal/api/packages_http"
	"github.com/BearBump/PackageTracker/internal/broker/kafka"
	"github.com/BearBump/PackageTracker/internal/broker/messages"
	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/BearBump/PackageTracker/internal/services/packages"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type packageAPIOpts struct {
	grpcAddr     string
	httpAddr     string
	grpcDialAddr string
	swaggerPath  string

	topic         string
	consumerGroup string

	onListen func(grpcAddr, httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, h kafka.Handler) error
}

// runPackageAPI serves gRPC and HTTP until ctx is done. limiter and consumer are optional.
func runPackageAPI(ctx context.Context, opts packageAPIOpts, svc *packages.Service, limiter packageshttp.RateLimiter, consumer kafkaConsumer) error {
	if opts.swaggerPath != "" {
		if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
			return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
		}
	}

	grpcLis, err := net.Listen("tcp", opts.grpcAddr)
	if err != nil {
		return err
	}
	httpLis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		_ = grpcLis.Close()
		return err
	}

	if opts.onListen != nil {
		opts.onListen(grpcLis.Addr().String(), httpLis.Addr().String())
	}

	dialAddr := opts.grpcDialAddr
	if dialAddr == "" || strings.HasSuffix(dialAddr, ":0") {
		dialAddr = grpcLis.Addr().String()
	}

	cc, err := grpc.NewClient(dialAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		_ = grpcLis.Close()
		_ = httpLis.Close()
		return err
	}
	defer func() { _ = cc.Close() }()
	gw, err := packagesapi.NewGateway(cc)
	if err != nil {
		_ = grpcLis.Close()
		_ = httpLis.Close()
		return err
	}

	grpcErr := make(chan error, 1)
	go func() {
		grpcErr <- runGRPCServer(ctx, grpcLis, packagesapi.New(svc))
	}()

	router := packageshttp.NewRouter(svc, packageshttp.Options{
		SwaggerPath: opts.swaggerPath,
		Limiter:     limiter,
	})
	router.Mount(packagesapi.GatewayPrefix, gw)

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, httpLis, router)
	}()

	if consumer != nil {
		go func() {
			slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
			err := consumer.Consume(ctx, packageUpdatedHandler(svc))
			if err != nil && ctx.Err() == nil {
				slog.Error("kafka consumer stopped", "error", err.Error())
			}
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-grpcErr:
		return err
	case err := <-httpErr:
		return err
	}
}

// packageUpdatedHandler applies status updates. Updates the service
// rejects as invalid are skipped like undecodable ones.
func packageUpdatedHandler(svc *packages.Service) kafka.Handler {
	return kafka.JSONHandler(func(ctx context.Context, m messages.PackageUpdated) error {
		err := svc.ApplyUpdate(ctx, m)
		if errors.Is(err, models.ErrValidation) {
			return kafka.Skip(err)
		}
		return err
	})
}

func runGRPCServer(ctx context.Context, lis net.Listener, api *packagesapi.PackagesAPI) error {
	s := grpc.NewServer()
	packagesapi.RegisterPackagesServiceServer(s, api)

	go func() {
		<-ctx.Done()
		stopped := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			s.Stop()
		}
		_ = lis.Close()
	}()

	slog.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.Serve(lis)
}

func runHTTPServer(ctx context.Context, lis net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	err := srv.Serve(lis)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
