package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpctx "github.com/dtroode/recipebox-server/internal/api/http/context"
	"github.com/dtroode/recipebox-server/internal/api/http/handler"
	httprouter "github.com/dtroode/recipebox-server/internal/api/http/router"
	httpserver "github.com/dtroode/recipebox-server/internal/api/http/server"
	grpcrouter "github.com/dtroode/recipebox-server/internal/api/grpc/router"
	grpcserver "github.com/dtroode/recipebox-server/internal/api/grpc/server"
	"github.com/dtroode/recipebox-server/internal/config"
	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/model"
	"github.com/dtroode/recipebox-server/internal/password"
	"github.com/dtroode/recipebox-server/internal/server"
	"github.com/dtroode/recipebox-server/internal/service"
	storage "github.com/dtroode/recipebox-server/internal/storage/minio"
	"github.com/dtroode/recipebox-server/internal/token"
	"github.com/dtroode/recipebox-server/internal/tracing"
)

const (
	serviceName         = "recipebox"
	healthProbeInterval = 5 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the optional gRPC health probe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), *cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Info("starting recipebox", "version", buildVersion, "commit", buildCommit, "date", buildDate)

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, serviceName, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("failed to flush traces", "error", err)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)
	authService := service.NewAuth(store, password.NewBcrypt(cfg.Bcrypt.Cost), tokenManager, log)
	tokenService := service.NewTokenService(tokenManager, log)
	pagesService := service.NewPages(store, cfg.Store.MaxAttempts, log)

	var exportService handler.ExportService
	if cfg.Storage.Enabled {
		client, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize storage client: %w", err)
		}
		exportService = service.NewExport(pagesService, client, log)
	}

	opts := httprouter.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Cookie: handler.CookieOptions{
			TTL:    cfg.JWT.TTL,
			Secure: cfg.HTTP.EnableHTTPS,
		},
	}
	if cfg.Tracing.Enabled {
		opts.ServiceName = serviceName
	}

	engine := httprouter.New(authService, pagesService, exportService, tokenService, store, httpctx.NewManager(), opts, log).Register()

	servers := []model.Server{httpserver.NewHTTPServer(engine, ":"+cfg.HTTP.Port)}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.GRPC.Enabled {
		probe := grpcrouter.New(store, log)
		servers = append(servers, grpcserver.NewGRPCServer(probe.Register(), ":"+cfg.GRPC.Port))
		g.Go(func() error {
			probe.Watch(gctx, healthProbeInterval)
			return nil
		})
	}

	sl := server.Select(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	for _, s := range servers {
		g.Go(func() error {
			log.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				return fmt.Errorf("server %s: %w", s.Address(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, s := range servers {
			if err := s.Stop(shutdownCtx); err != nil {
				log.Error("error during server shutdown", "error", err, "address", s.Address())
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
