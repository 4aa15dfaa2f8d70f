package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/billed/internal/application/service"
	"github.com/garyjia/billed/internal/config"
	"github.com/garyjia/billed/internal/container"
	"github.com/garyjia/billed/internal/domain/event"
	httpserver "github.com/garyjia/billed/internal/interfaces/http"
	"github.com/garyjia/billed/pkg/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("BILLED_CONFIG"), "path to the yaml configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Name:       "server",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	registry := httpserver.NewDraftRegistry(
		func(ui *httpserver.Recorder) service.NewBillWorkflow {
			return c.NewWorkflow(ui, ui, ui)
		},
		func() *httpserver.Recorder { return httpserver.NewRecorder(c.Reporter()) },
	)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		ReceiptsDir:      c.ReceiptsDir(),
		DraftIdleTimeout: cfg.Server.DraftIdleTimeout,
	}, c.Bills(), registry, c.Exporter(), utils.NewZapAdapter(logger.Named("http")))

	c.Events().SubscribeNamed(event.TypeBillFinalized, "http.bills", server.BillsChanged)

	logger.Info("Starting bill service",
		zap.String("address", server.Address()),
		zap.String("store", cfg.Store.Driver),
		zap.String("locale", cfg.Format.Locale))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", zap.Int("open_drafts", registry.Len()))
		return nil
	})
	return g.Wait()
}
