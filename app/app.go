package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"pedidos-restaurante/app/controller"
	"pedidos-restaurante/app/router"
	"pedidos-restaurante/config"
	"pedidos-restaurante/db"
	"pedidos-restaurante/metrics"
	"pedidos-restaurante/pricing"
	"pedidos-restaurante/repository"
	"pedidos-restaurante/service"
)

// App holds the wired HTTP handler and the resources to release on shutdown
type App struct {
	Handler http.Handler
	closers []func()
}

// Close releases the catalog connections
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Initialize initializes the application
func Initialize(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*App, error) {
	a := &App{}

	catalog, err := a.initCatalog(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		gatherer = reg
	}

	engine := pricing.NewEngine(catalog, pricing.Config{
		TaxRate:             cfg.TaxRate,
		ClampFixedDiscounts: cfg.ClampFixedDiscounts,
		LookupConcurrency:   cfg.LookupConcurrency,
	}, log.Named("pricing"))

	cartService := service.NewCartService(engine, m, log.Named("service"))

	// Create controllers
	controllers := &router.Controllers{
		Cart: controller.NewCartController(cartService, cfg.RequestTimeout, log.Named("controller")),
	}

	a.Handler = router.NewRouter(controllers, gatherer, log.Named("http"))
	log.Infof("✅ App initialized: catalog=%s taxRate=%s clampFixedDiscounts=%t", cfg.CatalogBackend, cfg.TaxRate, cfg.ClampFixedDiscounts)
	return a, nil
}

// initCatalog opens the configured catalog backend
func (a *App) initCatalog(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (repository.CatalogRepositoryInterface, error) {
	switch cfg.CatalogBackend {
	case config.BackendFirestore:
		client, err := db.NewFirestoreClient(ctx, cfg.FirestoreProjectID, cfg.CredentialsFile, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firestore: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return repository.NewFirestoreCatalogRepository(client, cfg.ProductsCollection, cfg.PromotionsCollection, log.Named("catalog")), nil

	default:
		if cfg.AutoMigrate {
			if err := db.RunMigrations(cfg.DSN(), log); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		pool, err := db.NewPool(ctx, cfg.DSN(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		return repository.NewPostgresCatalogRepository(pool, log.Named("catalog")), nil
	}
}
