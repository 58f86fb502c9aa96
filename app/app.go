package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crystal-shop/config"
	"crystal-shop/libs"
	"crystal-shop/middleware"
	"crystal-shop/repositories"
	"crystal-shop/routes"
	"crystal-shop/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	janitorInterval = time.Minute
	cartMaxIdle     = 30 * time.Minute
)

type expiringStore interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// App is the composition root shared by the server binary and the serverless handler.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Router   *gin.Engine
	Registry *services.CartRegistry

	store repositories.KeyValueStore
	db    *pgxpool.Pool
	redis *redis.Client

	stop    context.CancelFunc
	janitor sync.WaitGroup
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := a.openStore(); err != nil {
		a.closeConnections()
		return nil, err
	}

	commerce := libs.NewCommerceClient(libs.CommerceConfig{
		StoreDomain:     cfg.CommerceStoreDomain,
		StorefrontToken: cfg.CommerceStorefrontToken,
		APIVersion:      cfg.CommerceAPIVersion,
	})

	pricing := services.PricingRules{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		StandardFee:           cfg.StandardShippingFee,
		ExpressFee:            cfg.ExpressShippingFee,
	}

	a.Registry = services.NewCartRegistry(a.store, commerce, pricing, logger, cfg.SyncTimeout)
	products := services.NewProductService(commerce, a.store, 0, logger)
	checkout := services.NewCheckoutService(commerce, cfg.SyncTimeout, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	a.Router = gin.New()
	a.Router.Use(gin.Recovery())
	a.Router.Use(middleware.RequestLogger(logger))
	a.Router.Use(middleware.CORSMiddleware(cfg.OriginURL))

	routes.SetupRoutes(a.Router, routes.Dependencies{
		Registry:      a.Registry,
		Products:      products,
		Checkout:      checkout,
		Sessions:      middleware.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL),
		SecureCookies: cfg.IsProduction(),
		Logger:        logger,
	})

	ctx, stop := context.WithCancel(context.Background())
	a.stop = stop
	a.janitor.Add(1)
	go a.runJanitor(ctx)

	return a, nil
}

func (a *App) openStore() error {
	cfg := a.Config
	switch cfg.StorageDriver {
	case "memory", "":
		a.store = repositories.NewMemoryStore()
	case "redis":
		client, err := config.ConnectRedis(cfg, a.Logger)
		if err != nil {
			return err
		}
		a.redis = client
		a.store = repositories.NewRedisStore(client, cfg.CartTTL)
	case "postgres":
		if err := config.RunMigrations(cfg, a.Logger); err != nil {
			return err
		}
		pool, err := config.ConnectDB(cfg, a.Logger)
		if err != nil {
			return err
		}
		a.db = pool
		a.store = repositories.NewPostgresStore(pool, cfg.CartTTL)
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	a.Logger.Info("cart storage ready", zap.String("driver", cfg.StorageDriver))
	return nil
}

func (a *App) runJanitor(ctx context.Context) {
	defer a.janitor.Done()

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Registry.EvictIdle(cartMaxIdle)
			if s, ok := a.store.(expiringStore); ok {
				n, err := s.PurgeExpired(ctx)
				if err != nil {
					a.Logger.Warn("failed to purge expired cart keys", zap.Error(err))
				} else if n > 0 {
					a.Logger.Debug("purged expired cart keys", zap.Int64("count", n))
				}
			}
		}
	}
}

// Close stops the janitor, waits for in-flight cart syncs and releases connections.
func (a *App) Close() {
	if a.stop != nil {
		a.stop()
	}
	a.janitor.Wait()
	if a.Registry != nil {
		a.Registry.Shutdown()
	}
	a.closeConnections()
}

func (a *App) closeConnections() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
