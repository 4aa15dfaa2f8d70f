package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/dispatcher"
	"github.com/garyjia/billed/internal/application/format"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/application/service"
	"github.com/garyjia/billed/internal/config"
	"github.com/garyjia/billed/internal/domain/event"
	"github.com/garyjia/billed/internal/export"
	"github.com/garyjia/billed/pkg/utils"
)

// Container manages the application dependencies and their lifecycle
type Container struct {
	config *config.Config
	logger *zap.Logger

	stores   *StoreBundle
	session  port.SessionProvider
	reporter port.ErrorReporter

	events   dispatcher.Dispatcher
	bills    service.BillListService
	exporter *export.Exporter

	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a container. Call Start to initialize it.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes the session, the store, the event dispatcher and the services, in that order
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	sess, err := ProvideSession(&c.config.Session)
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	c.session = sess

	stores, err := ProvideStore(c.config, sess, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.stores = stores
	c.logger.Info("Store initialized", zap.String("driver", c.config.Store.Driver))

	c.events = dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewZapAdapter(c.logger.Named("events"))))
	c.events.SubscribeAll("audit-log", c.auditLog,
		event.TypeBillCreated, event.TypeBillFinalized, event.TypeSubmissionFailed)

	formatter := format.New(c.config.Format.Locale)
	c.reporter = utils.NewLogReporter(c.logger)
	c.bills = service.NewBillListService(c.stores.Store, formatter, utils.NewZapAdapter(c.logger.Named("bills")))
	c.exporter = export.NewExporter(formatter.Locale(), c.logger.Named("export"))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close waits for event handlers then releases the store
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Swap(true) {
		return fmt.Errorf("container already closed")
	}
	c.ready.Store(false)

	if c.events != nil {
		if err := c.events.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
		}
	}

	if c.stores != nil && c.stores.DB != nil {
		if err := c.stores.DB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			return fmt.Errorf("close database: %w", err)
		}
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    c.ready.Load(),
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case c.stores == nil:
		status.Components["store"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	case c.stores.Store == nil:
		status.Components["store"] = ComponentHealth{Healthy: true, Message: "no store configured"}
	case c.stores.DB != nil:
		if err := c.stores.DB.Ping(); err != nil {
			status.Components["store"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
			status.Overall = false
		} else {
			status.Components["store"] = ComponentHealth{Healthy: true, Message: config.DriverSQLite}
		}
	default:
		status.Components["store"] = ComponentHealth{Healthy: true, Message: c.config.Store.Driver}
	}

	return status
}

// NewWorkflow opens a new bill workflow whose UI effects go to ui.
// Remote errors reach both ui and the log.
func (c *Container) NewWorkflow(notifier port.Notifier, navigator port.Navigator, reporter port.ErrorReporter) service.NewBillWorkflow {
	if reporter == nil {
		reporter = c.reporter
	}
	return service.NewNewBillWorkflow(service.WorkflowDeps{
		Store:     c.stores.Store,
		Session:   c.session,
		Notifier:  notifier,
		Navigator: navigator,
		Reporter:  reporter,
		Events:    c.events,
		Logger:    utils.NewZapAdapter(c.logger.Named("new_bill")),
	})
}

// Events returns the dispatcher the workflows publish to
func (c *Container) Events() dispatcher.Dispatcher {
	return c.events
}

// auditLog keeps a trace of every submission milestone
func (c *Container) auditLog(ctx context.Context, evt *event.Event) error {
	c.logger.Info("Bill submission event",
		zap.String("type", evt.Type.String()),
		zap.String("bill_id", evt.BillID),
		zap.String("email", evt.Email),
		zap.String("correlation_id", evt.CorrelationID),
		zap.Any("payload", evt.Payload))
	return nil
}

// Bills returns the bill list service
func (c *Container) Bills() service.BillListService {
	return c.bills
}

// Exporter returns the spreadsheet exporter
func (c *Container) Exporter() *export.Exporter {
	return c.exporter
}

// Reporter returns the log-backed error reporter
func (c *Container) Reporter() port.ErrorReporter {
	return c.reporter
}

// Session returns the identity source
func (c *Container) Session() port.SessionProvider {
	return c.session
}

// ReceiptsDir returns the local receipts directory, or "" when the store keeps none
func (c *Container) ReceiptsDir() string {
	if c.stores == nil || c.stores.Receipts == nil {
		return ""
	}
	return c.config.Storage.ReceiptsDir
}

// Logger returns the root logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}
