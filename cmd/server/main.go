package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ndquoc/ecom-service/internal/adapter/handler"
	"github.com/ndquoc/ecom-service/internal/adapter/storage"
	"github.com/ndquoc/ecom-service/internal/config"
	"github.com/ndquoc/ecom-service/internal/core/service"
	"github.com/ndquoc/ecom-service/internal/port"
	"github.com/ndquoc/ecom-service/pkg/logging"
	"github.com/ndquoc/ecom-service/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store: one pool for the whole process, injected into the services.
	store, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		logger.Fatal("failed to ping store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if err := store.InitSchema(ctx); err != nil {
		logger.Fatal("failed to init schema", zap.Error(err))
	}
	logger.Info("connected to store", zap.String("driver", cfg.DBDriver))

	// Optional Redis product cache.
	var cache port.ProductCache = storage.NopCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		cache = storage.NewRedisCache(rdb, cfg.CacheTTL)
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	}

	orderService := service.NewOrderService(store, store, cache, logger)
	productService := service.NewProductService(store, cache, logger)

	m := metrics.NewServerMetrics("server")
	httpHandler := handler.NewHTTPHandler(productService, orderService, logger)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Routes(m),
	}

	// gRPC side carries only the standard health service, for load
	// balancers and orchestrators that probe over gRPC.
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("gRPC health server listening", zap.String("addr", cfg.GRPCAddr))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", zap.Error(err))
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("stopped")
}
