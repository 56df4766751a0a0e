// cmd/document-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shop-documents/internal/api"
	"shop-documents/internal/audit"
	awsclients "shop-documents/internal/common/aws"
	"shop-documents/internal/common/camunda"
	"shop-documents/internal/common/config"
	"shop-documents/internal/common/database"
	"shop-documents/internal/common/logger"
	"shop-documents/internal/common/observability"
	"shop-documents/internal/delivery"
	"shop-documents/internal/documents/composer"
	"shop-documents/internal/repository"

	cod "shop-documents/internal/workers/communication/deliver-order-document"
	ced "shop-documents/internal/workers/documents/compose-evidence-document"
	cor "shop-documents/internal/workers/documents/compose-order-document"
)

const maxRetryDelay = 30 * time.Second

// retryWithBackoff runs operation until it succeeds, maxAttempts is reached
// or ctx ends. The delay doubles after every failure up to maxRetryDelay.
func retryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, delay time.Duration, log *zap.Logger, name string) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = operation(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		log.Warn(name+" failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.Duration("nextRetryIn", delay),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s abandoned after %d attempts: %w", name, attempt, ctx.Err())
		}
		delay = min(delay*2, maxRetryDelay)
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, maxAttempts, err)
}

type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// pingOrClose pings c and closes it when the ping fails, so a failed
// connection attempt does not keep its pool open.
func pingOrClose(ctx context.Context, c pingCloser) error {
	err := c.Ping(ctx)
	if err == nil {
		return nil
	}
	if cerr := c.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting document server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if err := run(cfg, zapLog, log); err != nil {
		zapLog.Fatal("document server stopped with error", zap.Error(err))
	}
	zapLog.Info("Document server stopped")
}

func run(cfg *config.Config, zapLog *zap.Logger, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pingOrClose(ctx, pg)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return err
	}
	defer func() {
		log.Info("PostgreSQL pool stats", pg.Stats())
		pg.Close()
	}()
	zapLog.Info("PostgreSQL connected successfully")

	checks := map[string]api.ReadinessCheck{"postgres": pg.Ping}

	var orders composer.OrderSource = repository.NewOrderStore(pg, log)

	// --- Redis (optional order record cache) ---
	if cfg.Database.Redis.Address != "" && cfg.Cache.OrderRecordTTL > 0 {
		redis := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(ctx, func() error {
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return err
		}
		defer func() {
			log.Info("Redis pool stats", redis.Stats())
			redis.Close()
		}()
		checks["redis"] = redis.Ping
		orders = repository.NewCachedOrderStore(orders, redis.Client,
			time.Duration(cfg.Cache.OrderRecordTTL)*time.Second, cfg.Cache.KeyPrefix, log)
		zapLog.Info("Redis connected successfully")
	}

	// --- Elasticsearch (optional audit trail) ---
	var recorder audit.Recorder = audit.NopRecorder{}
	if cfg.Database.Elasticsearch.GetURL() != "" {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(ctx, func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return err
		}
		if err := audit.Bootstrap(ctx, esClient, cfg.Documents.AuditIndex, log); err != nil {
			return err
		}
		checks["elasticsearch"] = esClient.Ping
		recorder = audit.NewElasticRecorder(esClient, cfg.Documents.AuditIndex, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Document composer ---
	assets, err := loadAssets(cfg.Documents)
	if err != nil {
		return err
	}
	composerCfg := composer.DefaultConfig()
	composerCfg.MaxImageBytes = cfg.Documents.MaxImageBytes
	composerCfg.EvidenceTitle = cfg.Documents.EvidenceTitle
	composerCfg.CompactSlots = cfg.Documents.CompactSlots
	composerCfg.ShopName = cfg.Shop.Name
	if len(cfg.Shop.Letterhead) > 0 {
		composerCfg.Letterhead = cfg.Shop.Letterhead
	}
	docs := composer.NewService(composer.ServiceDependencies{
		Evidence:      repository.NewEvidenceStore(pg, log),
		Orders:        orders,
		Assets:        assets,
		Logger:        log,
		Observability: obs,
		Audit:         recorder,
	}, composerCfg)

	// --- Delivery (SES / SNS) ---
	deliveryDeps := delivery.ServiceDependencies{
		Composer: docs,
		Orders:   orders,
		Logger:   log,
	}
	if cfg.AWS.SES.Enabled || cfg.AWS.SNS.Enabled {
		awsCfg, err := awsclients.LoadConfig(ctx, cfg.AWS)
		if err != nil {
			return err
		}
		if cfg.AWS.SES.Enabled {
			deliveryDeps.Email = awsclients.NewSESClient(awsCfg, cfg.AWS.SES.ConfigurationSet, config.GetDuration(cfg.AWS.RequestTimeout))
		}
		if cfg.AWS.SNS.Enabled {
			deliveryDeps.SMS = awsclients.NewSNSClient(awsCfg, config.GetDuration(cfg.AWS.RequestTimeout))
		}
		zapLog.Info("AWS clients initialized",
			zap.Bool("ses", cfg.AWS.SES.Enabled),
			zap.Bool("sns", cfg.AWS.SNS.Enabled),
		)
	}
	deliverer := delivery.NewService(deliveryDeps, &delivery.Config{
		EmailEnabled: cfg.AWS.SES.Enabled,
		SMSEnabled:   cfg.AWS.SNS.Enabled,
		FromEmail:    cfg.AWS.SES.FromEmail,
		SMSSenderID:  cfg.AWS.SNS.DefaultSMSSenderID,
		ShopName:     cfg.Shop.Name,
	})

	// --- Zeebe workers ---
	var workers []*camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		var zeebe *camunda.Client
		err = retryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClient(ctx, cfg.Camunda.BrokerAddress)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			return err
		}
		defer zeebe.Close()
		checks["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		workers = startWorkers(zeebe, cfg, docs, deliverer, log)
	}
	defer func() {
		for _, w := range workers {
			w.Stop()
		}
	}()

	// --- HTTP API ---
	server := api.NewServer(api.Dependencies{
		Composer: docs,
		Delivery: deliverer,
		Checks:   checks,
		Logger:   log,
	}, &api.Config{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		Version:        cfg.App.Version,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func startWorkers(zeebe *camunda.Client, cfg *config.Config, docs *composer.Service, deliverer *delivery.Service, log logger.Logger) []*camunda.CamundaWorker {
	var workers []*camunda.CamundaWorker
	add := func(w *camunda.CamundaWorker) {
		if w != nil {
			workers = append(workers, w)
		}
	}

	evidenceCfg := config.GetWorkerConfig(cfg, ced.TaskType)
	evidenceHandler := ced.NewHandler(&ced.Config{
		Timeout:          config.GetDuration(evidenceCfg.Timeout),
		MaxDocumentBytes: ced.LoadConfig().MaxDocumentBytes,
	}, docs, log)
	add(camunda.StartWorker(zeebe.Raw(), ced.TaskType, evidenceCfg, evidenceHandler, log))

	orderCfg := config.GetWorkerConfig(cfg, cor.TaskType)
	orderHandler := cor.NewHandler(&cor.Config{
		Timeout:          config.GetDuration(orderCfg.Timeout),
		MaxDocumentBytes: cor.LoadConfig().MaxDocumentBytes,
	}, docs, log)
	add(camunda.StartWorker(zeebe.Raw(), cor.TaskType, orderCfg, orderHandler, log))

	deliverCfg := config.GetWorkerConfig(cfg, cod.TaskType)
	deliverHandler := cod.NewHandler(&cod.Config{
		Timeout: config.GetDuration(deliverCfg.Timeout),
	}, deliverer, log)
	add(camunda.StartWorker(zeebe.Raw(), cod.TaskType, deliverCfg, deliverHandler, log))

	return workers
}

// loadAssets reads the shop logo and contract text. A missing logo file
// leaves the letterhead without a picture; the contract text is required.
func loadAssets(cfg config.DocumentsConfig) (composer.Assets, error) {
	var assets composer.Assets

	logo, err := os.ReadFile(cfg.ShopLogoPath)
	switch {
	case err == nil:
		assets.ShopLogo = strings.TrimSpace(string(logo))
	case !errors.Is(err, os.ErrNotExist):
		return assets, fmt.Errorf("read shop logo %s: %w", cfg.ShopLogoPath, err)
	}

	contract, err := os.ReadFile(cfg.ContractTextPath)
	if err != nil {
		return assets, fmt.Errorf("read contract text %s: %w", cfg.ContractTextPath, err)
	}
	assets.Contract = string(contract)
	return assets, nil
}
