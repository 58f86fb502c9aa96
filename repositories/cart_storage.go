package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"crystal-shop/models"

	"go.uber.org/zap"
)

const (
	keyCartID        = "cartId"
	keyCartItems     = "cartItems"
	keyAppliedCoupon = "appliedCoupon"
	keyShipping      = "shippingMethod"
)

// CartStorage persists one session's cart under fixed keys in a KeyValueStore.
type CartStorage struct {
	store     KeyValueStore
	sessionID string
	logger    *zap.Logger
}

func NewCartStorage(store KeyValueStore, sessionID string, logger *zap.Logger) *CartStorage {
	return &CartStorage{
		store:     store,
		sessionID: sessionID,
		logger:    logger.With(zap.String("session", sessionID)),
	}
}

func (s *CartStorage) key(name string) string {
	return "cart:" + s.sessionID + ":" + name
}

// Load reads every key independently. A missing, unreadable or corrupt key
// yields its empty default; failures are logged and never returned.
func (s *CartStorage) Load(ctx context.Context) models.PersistedCart {
	var out models.PersistedCart

	if raw, ok := s.read(ctx, keyCartID); ok {
		out.RemoteCartID = raw
	}

	if raw, ok := s.read(ctx, keyCartItems); ok {
		var items []models.CartItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			s.logger.Warn("discarding unparsable cart items", zap.Error(err))
		} else {
			out.Items = sanitizeItems(items)
		}
	}

	if raw, ok := s.read(ctx, keyAppliedCoupon); ok {
		var coupon models.AppliedCoupon
		if err := json.Unmarshal([]byte(raw), &coupon); err != nil {
			s.logger.Warn("discarding unparsable coupon", zap.Error(err))
		} else if coupon.Code != "" {
			out.Coupon = &coupon
		}
	}

	if raw, ok := s.read(ctx, keyShipping); ok {
		if method := models.ShippingMethod(raw); method.Valid() {
			out.ShippingMethod = method
		} else {
			s.logger.Warn("discarding unknown shipping method", zap.String("method", raw))
		}
	}

	return out
}

func (s *CartStorage) read(ctx context.Context, name string) (string, bool) {
	raw, ok, err := s.store.Get(ctx, s.key(name))
	if err != nil {
		s.logger.Warn("failed to read cart key", zap.String("key", name), zap.Error(err))
		return "", false
	}
	return raw, ok
}

// sanitizeItems drops lines that break the one-line-per-id and quantity bounds.
func sanitizeItems(items []models.CartItem) []models.CartItem {
	seen := make(map[string]bool, len(items))
	out := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 || it.Quantity > models.MaxLineQuantity || it.Price.IsNegative() || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}

func (s *CartStorage) SaveItems(ctx context.Context, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}
	if err := s.store.Set(ctx, s.key(keyCartItems), string(data)); err != nil {
		return fmt.Errorf("save cart items: %w", err)
	}
	return nil
}

func (s *CartStorage) SaveCartID(ctx context.Context, cartID string) error {
	if err := s.store.Set(ctx, s.key(keyCartID), cartID); err != nil {
		return fmt.Errorf("save cart id: %w", err)
	}
	return nil
}

func (s *CartStorage) SaveCoupon(ctx context.Context, coupon models.AppliedCoupon) error {
	data, err := json.Marshal(coupon)
	if err != nil {
		return fmt.Errorf("encode coupon: %w", err)
	}
	if err := s.store.Set(ctx, s.key(keyAppliedCoupon), string(data)); err != nil {
		return fmt.Errorf("save coupon: %w", err)
	}
	return nil
}

func (s *CartStorage) DeleteCoupon(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key(keyAppliedCoupon)); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	return nil
}

func (s *CartStorage) SaveShippingMethod(ctx context.Context, method models.ShippingMethod) error {
	if err := s.store.Set(ctx, s.key(keyShipping), string(method)); err != nil {
		return fmt.Errorf("save shipping method: %w", err)
	}
	return nil
}

// Clear removes every key owned by this session.
func (s *CartStorage) Clear(ctx context.Context) error {
	err := s.store.Delete(ctx, s.key(keyCartID), s.key(keyCartItems), s.key(keyAppliedCoupon), s.key(keyShipping))
	if err != nil {
		return fmt.Errorf("clear cart storage: %w", err)
	}
	return nil
}
