// Package bootstrap builds the bridge components from configuration. It is
// shared by the HTTP server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appcatalogsync "github.com/erp/posbridge/internal/application/catalogsync"
	appsalesync "github.com/erp/posbridge/internal/application/salesync"
	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/domain/salesync"
	"github.com/erp/posbridge/internal/domain/shared"
	"github.com/erp/posbridge/internal/infrastructure/cache"
	"github.com/erp/posbridge/internal/infrastructure/config"
	"github.com/erp/posbridge/internal/infrastructure/crm"
	"github.com/erp/posbridge/internal/infrastructure/logger"
	"github.com/erp/posbridge/internal/infrastructure/pos"
	"github.com/erp/posbridge/internal/infrastructure/queue"
)

// executorShutdownTimeout bounds how long asynq waits for in-flight tasks
const executorShutdownTimeout = 30 * time.Second

// Executor is a task executor that can report whether it is processing
type Executor interface {
	shared.TaskExecutor
	Running() bool
}

// NewLogger creates the process logger from the log section
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
}

// NewCRMClient creates the CRM API client
func NewCRMClient(cfg *config.Config, log *zap.Logger) (*crm.Client, error) {
	return crm.NewClient(&crm.Config{
		BaseURL:           cfg.CRM.BaseURL,
		APIKey:            cfg.CRM.APIKey,
		RequestsPerMinute: cfg.CRM.RequestsPerMinute,
		PageSize:          cfg.CRM.PageSize,
		PageDelay:         cfg.CRM.PageDelay,
		Timeout:           cfg.CRM.Timeout,
	}, log.Named("crm"))
}

// NewPOSClient creates the POS API client. It does not sign in.
func NewPOSClient(cfg *config.Config, log *zap.Logger) (*pos.Client, error) {
	return pos.NewClient(&pos.Config{
		BaseURL:    cfg.POS.BaseURL,
		Login:      cfg.POS.Login,
		Password:   cfg.POS.Password,
		LicenseKey: cfg.POS.LicenseKey,
		PageSize:   cfg.POS.PageSize,
		PageDelay:  cfg.POS.PageDelay,
		Timeout:    cfg.POS.Timeout,
	}, log.Named("pos"))
}

// NewReconciler wires the catalog reconciler. recorder may be nil.
func NewReconciler(
	cfg *config.Config,
	source appcatalogsync.CatalogSource,
	target interface {
		appcatalogsync.CatalogTarget
		appcatalogsync.GroupStore
	},
	recorder appcatalogsync.RunRecorder,
	log *zap.Logger,
) *appcatalogsync.Reconciler {
	log = log.Named("catalogsync")
	mapper := catalogsync.NewMapper(catalogsync.ParseTaxCodes(cfg.Catalog.TaxCodes))
	groups := appcatalogsync.NewGroupResolver(source, target, log)
	reconciler := appcatalogsync.NewReconciler(source, target, groups, mapper, log)
	if recorder != nil {
		reconciler.SetRecorder(recorder)
	}
	return reconciler
}

// NewExecutor creates the executor selected by webhook.executor
func NewExecutor(cfg *config.Config, log *zap.Logger) (Executor, error) {
	log = log.Named("executor")
	switch cfg.Webhook.Executor {
	case config.ExecutorInProcess:
		return queue.NewInMemoryExecutor(cfg.Webhook.Workers, cfg.Webhook.QueueSize, log), nil
	case config.ExecutorAsynq:
		return queue.NewAsynqExecutor(queue.AsynqConfig{
			Addr:            cfg.Redis.Addr(),
			Password:        cfg.Redis.Password,
			DB:              cfg.Redis.DB,
			Queue:           queue.DefaultAsynqQueue,
			Concurrency:     cfg.Webhook.Workers,
			ShutdownTimeout: executorShutdownTimeout,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown webhook executor %q", cfg.Webhook.Executor)
	}
}

// OrderConfig maps the order section onto the order builder settings
func OrderConfig(cfg *config.Config) appsalesync.OrderConfig {
	return appsalesync.OrderConfig{
		Buyer: salesync.Buyer{
			FullName: cfg.Order.BuyerName,
			Phone:    cfg.Order.BuyerPhone,
			Email:    cfg.Order.BuyerEmail,
		},
		SourceID:        cfg.Order.SourceID,
		PaymentMethodID: cfg.Order.PaymentMethodID,
		FollowUp: salesync.OrderUpdate{
			StatusID: cfg.Order.FollowUpStatusID,
			ClientID: cfg.Order.FollowUpClientID,
		},
		FollowUpDelay: cfg.Order.FollowUpDelay,
	}
}

// Ingestion is the wired sale ingestion side
type Ingestion struct {
	Pipeline *appsalesync.Pipeline
	Executor Executor
	Store    shared.IdempotencyStore
	Recent   *cache.RecentWebhooks
}

// Close releases the idempotency store
func (i *Ingestion) Close() error {
	if i.Store == nil {
		return nil
	}
	return i.Store.Close()
}

// NewIngestion wires the sale ingestion pipeline onto a fresh executor.
// recorder may be nil. The executor is not started.
func NewIngestion(
	cfg *config.Config,
	crmClient interface {
		appsalesync.ProductCatalog
		appsalesync.OrderGateway
	},
	cashier appsalesync.CashierIdentity,
	recorder appsalesync.IngestRecorder,
	log *zap.Logger,
) (*Ingestion, error) {
	log = log.Named("salesync")

	executor, err := NewExecutor(cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := cache.OpenIdempotencyStore(cfg.Redis, cache.PreferRedis, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create idempotency store: %w", err)
	}

	recent := cache.NewRecentWebhooks(cfg.Webhook.RecentBufferSize)

	pipeline := appsalesync.NewPipeline(
		appsalesync.PipelineConfig{
			Secret:     cfg.Webhook.Secret,
			ReceiptTTL: cfg.Webhook.ReceiptTTL,
		},
		salesync.NewSaleFilter(salesync.DefaultGuards()...),
		cashier,
		appsalesync.NewProductResolver(crmClient, log),
		appsalesync.NewOrderBuilder(crmClient, OrderConfig(cfg), log),
		executor,
		log,
	)
	pipeline.SetIdempotencyStore(store)
	pipeline.SetWebhookLog(recent)
	if recorder != nil {
		pipeline.SetRecorder(recorder)
	}

	return &Ingestion{
		Pipeline: pipeline,
		Executor: executor,
		Store:    store,
		Recent:   recent,
	}, nil
}

// SignIn signs the POS client in, bounded by timeout
func SignIn(ctx context.Context, client *pos.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.SignIn(ctx); err != nil {
		return fmt.Errorf("pos sign-in failed: %w", err)
	}
	return nil
}
