package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"crystal-shop/libs"
	"crystal-shop/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartGateway is the remote commerce backend as seen by the cart.
type CartGateway interface {
	CreateCart(ctx context.Context, variantID string, quantity int) (*libs.RemoteCart, error)
	AddLine(ctx context.Context, cartID, variantID string, quantity int) (*libs.RemoteCart, error)
	ApplyDiscount(ctx context.Context, cartID, code string) (*libs.DiscountResult, error)
}

// CartPersistence is satisfied by *repositories.CartStorage.
type CartPersistence interface {
	Load(ctx context.Context) models.PersistedCart
	SaveItems(ctx context.Context, items []models.CartItem) error
	SaveCartID(ctx context.Context, cartID string) error
	SaveCoupon(ctx context.Context, coupon models.AppliedCoupon) error
	DeleteCoupon(ctx context.Context) error
	SaveShippingMethod(ctx context.Context, method models.ShippingMethod) error
	Clear(ctx context.Context) error
}

// CartService owns one shopper's cart. Local state is applied first and is
// authoritative; remote reconciliation runs in the background and its
// failures are only logged.
type CartService struct {
	mu       sync.Mutex
	items    []models.CartItem
	remoteID string
	coupon   *models.AppliedCoupon
	shipping models.ShippingMethod
	// generation changes on Clear so late remote responses cannot rebind a cleared cart.
	generation uint64

	storage     CartPersistence
	gateway     CartGateway
	pricing     PricingRules
	logger      *zap.Logger
	syncTimeout time.Duration

	creating   singleflight.Group
	syncs      sync.WaitGroup
	pending    atomic.Int32
	lastAccess atomic.Int64
}

func NewCartService(storage CartPersistence, gateway CartGateway, pricing PricingRules, logger *zap.Logger, syncTimeout time.Duration) *CartService {
	if syncTimeout <= 0 {
		syncTimeout = 10 * time.Second
	}
	s := &CartService{
		shipping:    models.ShippingStandard,
		storage:     storage,
		gateway:     gateway,
		pricing:     pricing,
		logger:      logger,
		syncTimeout: syncTimeout,
	}
	s.touch()
	return s
}

// Hydrate replaces in-memory state with what the storage holds.
func (s *CartService) Hydrate(ctx context.Context) {
	persisted := s.storage.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = persisted.Items
	s.remoteID = persisted.RemoteCartID
	s.coupon = persisted.Coupon
	if persisted.ShippingMethod.Valid() {
		s.shipping = persisted.ShippingMethod
	}
}

// AddItem merges quantity into the line with the same ID or appends a new
// line. A zero quantity means one.
func (s *CartService) AddItem(ctx context.Context, item models.CartItem, quantity int) (models.CartItem, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return models.CartItem{}, NewInvalidArgument(ErrMsgQuantityPositive)
	}
	if quantity > models.MaxLineQuantity {
		return models.CartItem{}, NewInvalidArgument(ErrMsgQuantityTooLarge)
	}
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return models.CartItem{}, NewInvalidArgument(ErrMsgItemIDRequired)
	}
	if item.Price.IsNegative() {
		return models.CartItem{}, NewInvalidArgument(ErrMsgPriceNegative)
	}
	s.touch()

	s.mu.Lock()
	line, err := s.mergeLocked(item, quantity)
	if err != nil {
		s.mu.Unlock()
		return models.CartItem{}, err
	}
	s.persistItemsLocked(ctx)
	remoteID, gen := s.remoteID, s.generation
	s.syncs.Add(1)
	s.pending.Add(1)
	s.mu.Unlock()

	go s.syncAdd(gen, remoteID, item.ID, quantity)
	return line, nil
}

func (s *CartService) mergeLocked(item models.CartItem, quantity int) (models.CartItem, error) {
	for i := range s.items {
		if s.items[i].ID == item.ID {
			if s.items[i].Quantity > models.MaxLineQuantity-quantity {
				return models.CartItem{}, NewInvalidArgument(ErrMsgQuantityTooLarge)
			}
			s.items[i].Quantity += quantity
			return s.items[i], nil
		}
	}
	item.Quantity = quantity
	s.items = append(s.items, item)
	return item, nil
}

func (s *CartService) syncAdd(gen uint64, remoteID, variantID string, quantity int) {
	defer s.syncs.Done()
	defer s.pending.Add(-1)

	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	log := s.logger.With(zap.String("variant_id", variantID), zap.Int("quantity", quantity))

	if s.isStale(gen) {
		return
	}

	if remoteID == "" {
		created, cartID, err := s.ensureRemoteCart(ctx, gen, variantID, quantity)
		if err != nil {
			log.Warn("remote cart create failed, keeping local cart", zap.Error(err))
			return
		}
		if created || cartID == "" {
			return
		}
		remoteID = cartID
	}

	if s.isStale(gen) {
		return
	}

	if _, err := s.gateway.AddLine(ctx, remoteID, variantID, quantity); err != nil {
		log.Warn("remote cart update failed, keeping local cart", zap.String("cart_id", remoteID), zap.Error(err))
	}
}

// ensureRemoteCart coalesces concurrent first additions into one create call.
// created reports whether this caller's line went into that create; callers
// that only waited on it must still add their own line. A stale generation
// yields an empty cartID and no create.
func (s *CartService) ensureRemoteCart(ctx context.Context, gen uint64, variantID string, quantity int) (created bool, cartID string, err error) {
	v, err, _ := s.creating.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		s.mu.Lock()
		stale := s.generation != gen
		existing := s.remoteID
		s.mu.Unlock()
		if stale {
			return "", nil
		}
		if existing != "" {
			return existing, nil
		}

		created = true
		cart, err := s.gateway.CreateCart(ctx, variantID, quantity)
		if err != nil {
			return nil, err
		}
		s.bindRemote(ctx, gen, cart.ID)
		return cart.ID, nil
	})
	if err != nil {
		return created, "", err
	}
	return created, v.(string), nil
}

func (s *CartService) isStale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != gen
}

func (s *CartService) bindRemote(ctx context.Context, gen uint64, cartID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.logger.Info("discarding remote cart created before clear", zap.String("cart_id", cartID))
		return
	}
	s.remoteID = cartID
	if err := s.storage.SaveCartID(ctx, cartID); err != nil {
		s.logger.Warn("failed to persist remote cart id", zap.String("cart_id", cartID), zap.Error(err))
	}
	s.logger.Debug("cart bound to remote cart", zap.String("cart_id", cartID))
}

// UpdateQuantity sets the quantity exactly. It reports false and changes
// nothing when quantity is outside 1..MaxLineQuantity or the line does not exist.
func (s *CartService) UpdateQuantity(ctx context.Context, id string, quantity int) bool {
	if quantity < 1 || quantity > models.MaxLineQuantity {
		return false
	}
	s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			s.persistItemsLocked(ctx)
			return true
		}
	}
	return false
}

func (s *CartService) RemoveItem(ctx context.Context, id string) bool {
	s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistItemsLocked(ctx)
			return true
		}
	}
	return false
}

// Clear empties the cart, unbinds it from the remote cart and falls back to
// standard shipping.
func (s *CartService) Clear(ctx context.Context) {
	s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.remoteID = ""
	s.coupon = nil
	s.shipping = models.ShippingStandard
	s.generation++
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear persisted cart", zap.Error(err))
	}
}

// ApplyCoupon asks the remote backend to price the code and freezes the
// resulting discount. Cart items are never changed.
func (s *CartService) ApplyCoupon(ctx context.Context, code string) (models.AppliedCoupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.AppliedCoupon{}, NewInvalidArgument(ErrMsgCouponCodeRequired)
	}
	s.touch()

	s.mu.Lock()
	remoteID, gen := s.remoteID, s.generation
	subtotal := Subtotal(s.items)
	s.mu.Unlock()

	if remoteID == "" {
		return models.AppliedCoupon{}, NewFailedPrecondition(ErrMsgCartNotInitialized)
	}

	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	log := s.logger.With(zap.String("cart_id", remoteID), zap.String("code", code))

	res, err := s.gateway.ApplyDiscount(ctx, remoteID, code)
	if err != nil {
		log.Error("discount apply failed", zap.Error(err))
		return models.AppliedCoupon{}, NewUnavailable(ErrMsgDiscountFailed, err)
	}
	if !res.Success {
		msg := res.ErrorMessage
		if msg == "" {
			msg = ErrMsgInvalidCode
		}
		log.Info("discount code rejected", zap.String("reason", msg))
		return models.AppliedCoupon{}, NewRejected(msg)
	}

	discount := subtotal.Sub(res.NewTotal)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	coupon := models.AppliedCoupon{Code: code, Amount: discount}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return models.AppliedCoupon{}, NewFailedPrecondition(ErrMsgCartNotInitialized)
	}
	s.coupon = &coupon
	if err := s.storage.SaveCoupon(ctx, coupon); err != nil {
		log.Warn("failed to persist coupon", zap.Error(err))
	}
	return coupon, nil
}

func (s *CartService) RemoveCoupon(ctx context.Context) {
	s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = nil
	if err := s.storage.DeleteCoupon(ctx); err != nil {
		s.logger.Warn("failed to delete persisted coupon", zap.Error(err))
	}
}

func (s *CartService) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ItemCount(s.items)
}

func (s *CartService) SetShippingMethod(ctx context.Context, method models.ShippingMethod) error {
	if !method.Valid() {
		return NewInvalidArgument(ErrMsgInvalidShipping)
	}
	s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipping = method
	if err := s.storage.SaveShippingMethod(ctx, method); err != nil {
		s.logger.Warn("failed to persist shipping method", zap.Error(err))
	}
	return nil
}

func (s *CartService) RemoteCartID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteID
}

// Snapshot returns a copy of the cart with freshly computed totals.
func (s *CartService) Snapshot() models.CartSnapshot {
	s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)

	var coupon *models.AppliedCoupon
	if s.coupon != nil {
		c := *s.coupon
		coupon = &c
	}

	return models.CartSnapshot{
		Items:          items,
		RemoteCartID:   s.remoteID,
		Coupon:         coupon,
		ShippingMethod: s.shipping,
		Totals:         s.pricing.Totals(items, s.shipping, coupon),
	}
}

// Wait blocks until every background sync started so far has finished.
func (s *CartService) Wait() {
	s.syncs.Wait()
}

func (s *CartService) persistItemsLocked(ctx context.Context) {
	if err := s.storage.SaveItems(ctx, s.items); err != nil {
		s.logger.Warn("failed to persist cart items", zap.Error(err))
	}
}

func (s *CartService) touch() {
	s.lastAccess.Store(time.Now().UnixNano())
}

func (s *CartService) idleSince() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

func (s *CartService) hasPendingSyncs() bool {
	return s.pending.Load() > 0
}
