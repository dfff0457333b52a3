// Package orderdesk is the persistence and business-logic core of a small
// ordering application: users, a categorized product catalog, promocodes and
// the cart/order lifecycle over PostgreSQL. It is consumed as a library; a
// bot or API front-end passes plain ids and names in and gets detached value
// snapshots back.
package orderdesk

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/cantinalabs/orderdesk/internal/cart"
	"github.com/cantinalabs/orderdesk/internal/catalog"
	"github.com/cantinalabs/orderdesk/internal/messaging"
	"github.com/cantinalabs/orderdesk/internal/storage"
	"github.com/cantinalabs/orderdesk/internal/telemetry"
	"github.com/cantinalabs/orderdesk/internal/users"
)

const serviceName = "orderdesk"

type Config struct {
	PostgresURL string
	// KafkaBrokers is optional; without it finalized orders are not
	// announced.
	KafkaBrokers   []string
	ServiceVersion string
	// EnableTelemetry installs the global tracer and meter providers.
	EnableTelemetry bool
	Logger          *slog.Logger
}

func ConfigFromEnv() Config {
	cfg := Config{
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		ServiceVersion: os.Getenv("SERVICE_VERSION"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// Core holds the constructed services and everything they share. Build one
// at startup with New and Close it at shutdown; there is no ambient state.
type Core struct {
	Users   *users.UserRepository
	Catalog *catalog.CatalogRepository
	Cart    *cart.Engine

	// Metrics serves the prometheus scrape endpoint when telemetry is
	// enabled, nil otherwise.
	Metrics http.Handler

	gateway   *storage.Gateway
	producer  *messaging.Producer
	shutdowns []func(context.Context) error
}

func New(ctx context.Context, cfg Config) (*Core, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	core := &Core{}

	if cfg.EnableTelemetry {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.ServiceVersion)
		if err != nil {
			return nil, err
		}
		core.shutdowns = append(core.shutdowns, shutdownTracer)

		metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
		if err != nil {
			_ = core.Close(ctx)
			return nil, err
		}
		core.Metrics = metricsHandler
		core.shutdowns = append(core.shutdowns, shutdownMeter)
	}

	gw, err := storage.Open(cfg.PostgresURL)
	if err != nil {
		_ = core.Close(ctx)
		return nil, err
	}
	core.gateway = gw

	if len(cfg.KafkaBrokers) > 0 {
		core.producer = messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderPaid)
	}

	core.Users = users.NewUserRepository(gw, logger)
	core.Catalog = catalog.NewCatalogRepository(gw, logger)
	core.Cart = cart.NewEngine(gw, core.producer, logger)

	return core, nil
}

func (c *Core) Close(ctx context.Context) error {
	var errs []error

	if c.producer != nil {
		errs = append(errs, c.producer.Close())
	}
	if c.gateway != nil {
		errs = append(errs, c.gateway.Close())
	}
	for _, shutdown := range c.shutdowns {
		errs = append(errs, shutdown(ctx))
	}

	return errors.Join(errs...)
}
