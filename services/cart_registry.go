package services

import (
	"context"
	"sync"
	"time"

	"crystal-shop/repositories"

	"go.uber.org/zap"
)

type cartEntry struct {
	once sync.Once
	svc  *CartService
}

// CartRegistry hands out exactly one CartService per shopper session and
// hydrates it from the key-value store on first use.
type CartRegistry struct {
	mu    sync.Mutex
	carts map[string]*cartEntry

	store       repositories.KeyValueStore
	gateway     CartGateway
	pricing     PricingRules
	logger      *zap.Logger
	syncTimeout time.Duration
}

func NewCartRegistry(store repositories.KeyValueStore, gateway CartGateway, pricing PricingRules, logger *zap.Logger, syncTimeout time.Duration) *CartRegistry {
	return &CartRegistry{
		carts:       make(map[string]*cartEntry),
		store:       store,
		gateway:     gateway,
		pricing:     pricing,
		logger:      logger,
		syncTimeout: syncTimeout,
	}
}

func (r *CartRegistry) Get(ctx context.Context, sessionID string) *CartService {
	r.mu.Lock()
	entry, ok := r.carts[sessionID]
	if !ok {
		entry = &cartEntry{svc: r.newService(sessionID)}
		r.carts[sessionID] = entry
	}
	// Touched under the lock so EvictIdle cannot drop a cart that is being handed out.
	entry.svc.touch()
	r.mu.Unlock()

	entry.once.Do(func() {
		// A cancelled request must not leave the cart hydrated as empty.
		entry.svc.Hydrate(context.WithoutCancel(ctx))
	})
	return entry.svc
}

func (r *CartRegistry) newService(sessionID string) *CartService {
	logger := r.logger.With(zap.String("session", sessionID))
	storage := repositories.NewCartStorage(r.store, sessionID, r.logger)
	return NewCartService(storage, r.gateway, r.pricing, logger, r.syncTimeout)
}

// Release clears the session's cart, in memory and in storage, and forgets it.
func (r *CartRegistry) Release(ctx context.Context, sessionID string) {
	r.mu.Lock()
	entry, ok := r.carts[sessionID]
	delete(r.carts, sessionID)
	r.mu.Unlock()

	if ok {
		entry.svc.Clear(ctx)
		return
	}
	if err := repositories.NewCartStorage(r.store, sessionID, r.logger).Clear(ctx); err != nil {
		r.logger.Warn("failed to clear released cart", zap.String("session", sessionID), zap.Error(err))
	}
}

// EvictIdle drops carts untouched for longer than maxIdle and with no sync in
// flight. Their persisted state stays and is hydrated again on the next Get.
func (r *CartRegistry) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, entry := range r.carts {
		if entry.svc.idleSince().Before(cutoff) && !entry.svc.hasPendingSyncs() {
			delete(r.carts, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Debug("evicted idle carts", zap.Int("count", evicted))
	}
	return evicted
}

func (r *CartRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// Shutdown waits for the background syncs of every live cart.
func (r *CartRegistry) Shutdown() {
	r.mu.Lock()
	services := make([]*CartService, 0, len(r.carts))
	for _, entry := range r.carts {
		services = append(services, entry.svc)
	}
	r.mu.Unlock()

	for _, svc := range services {
		svc.Wait()
	}
}
