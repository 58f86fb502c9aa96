package repositories

import (
	"context"
	"errors"
	"testing"

	"crystal-shop/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("connection refused") }
func (failingStore) Delete(context.Context, ...string) error    { return errors.New("connection refused") }

func amethyst(qty int) models.CartItem {
	return models.CartItem{
		ID:       "gid://shop/ProductVariant/1",
		Title:    "Amethyst Cluster",
		Variant:  "Small",
		Price:    decimal.RequireFromString("20.00"),
		Quantity: qty,
		Image:    "amethyst.jpg",
	}
}

func TestCartStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewCartStorage(store, "sess-1", zap.NewNop())

	require.NoError(t, s.SaveItems(ctx, []models.CartItem{amethyst(2)}))
	require.NoError(t, s.SaveCartID(ctx, "gid://shop/Cart/abc"))
	require.NoError(t, s.SaveCoupon(ctx, models.AppliedCoupon{Code: "SPRING", Amount: decimal.RequireFromString("8")}))
	require.NoError(t, s.SaveShippingMethod(ctx, models.ShippingExpress))

	loaded := NewCartStorage(store, "sess-1", zap.NewNop()).Load(ctx)

	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
	assert.True(t, loaded.Items[0].Price.Equal(decimal.RequireFromString("20")))
	assert.Equal(t, "gid://shop/Cart/abc", loaded.RemoteCartID)
	require.NotNil(t, loaded.Coupon)
	assert.Equal(t, "SPRING", loaded.Coupon.Code)
	assert.True(t, loaded.Coupon.Amount.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, models.ShippingExpress, loaded.ShippingMethod)
}

func TestCartStorage_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, NewCartStorage(store, "a", zap.NewNop()).SaveCartID(ctx, "cart-a"))

	loaded := NewCartStorage(store, "b", zap.NewNop()).Load(ctx)
	assert.Empty(t, loaded.RemoteCartID)
	assert.Empty(t, loaded.Items)
	assert.Nil(t, loaded.Coupon)
}

func TestCartStorage_LoadFallsBackOnCorruptKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "cart:s:cartItems", "{not json"))
	require.NoError(t, store.Set(ctx, "cart:s:appliedCoupon", "[]"))
	require.NoError(t, store.Set(ctx, "cart:s:cartId", "cart-1"))
	require.NoError(t, store.Set(ctx, "cart:s:shippingMethod", "overnight"))

	loaded := NewCartStorage(store, "s", zap.NewNop()).Load(ctx)

	assert.Empty(t, loaded.Items)
	assert.Nil(t, loaded.Coupon)
	assert.Empty(t, loaded.ShippingMethod)
	assert.Equal(t, "cart-1", loaded.RemoteCartID, "a corrupt key must not affect the others")
}

func TestCartStorage_LoadDropsInvalidLines(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	raw := `[{"id":"a","price":"1","quantity":1},{"id":"a","price":"1","quantity":4},` +
		`{"id":"b","price":"1","quantity":0},{"id":"","price":"1","quantity":1},` +
		`{"id":"c","price":"1","quantity":1000}]`
	require.NoError(t, store.Set(ctx, "cart:s:cartItems", raw))

	loaded := NewCartStorage(store, "s", zap.NewNop()).Load(ctx)

	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "a", loaded.Items[0].ID)
	assert.Equal(t, 1, loaded.Items[0].Quantity)
}

func TestCartStorage_StoreErrors(t *testing.T) {
	ctx := context.Background()
	s := NewCartStorage(failingStore{}, "s", zap.NewNop())

	loaded := s.Load(ctx)
	assert.Empty(t, loaded.Items)
	assert.Empty(t, loaded.RemoteCartID)

	assert.Error(t, s.SaveItems(ctx, nil))
	assert.Error(t, s.SaveCartID(ctx, "x"))
	assert.Error(t, s.Clear(ctx))
}

func TestCartStorage_ClearAndDeleteCoupon(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewCartStorage(store, "s", zap.NewNop())

	require.NoError(t, s.SaveItems(ctx, []models.CartItem{amethyst(1)}))
	require.NoError(t, s.SaveCartID(ctx, "cart-1"))
	require.NoError(t, s.SaveCoupon(ctx, models.AppliedCoupon{Code: "X", Amount: decimal.NewFromInt(1)}))
	require.NoError(t, s.SaveShippingMethod(ctx, models.ShippingExpress))

	require.NoError(t, s.DeleteCoupon(ctx))
	assert.Nil(t, s.Load(ctx).Coupon)

	require.NoError(t, s.Clear(ctx))
	_, ok, _ := store.Get(ctx, "cart:s:cartItems")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "cart:s:cartId")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "cart:s:shippingMethod")
	assert.False(t, ok)
}

func TestCartStorage_SaveNilItemsWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewCartStorage(store, "s", zap.NewNop())

	require.NoError(t, s.SaveItems(ctx, nil))
	raw, ok, err := store.Get(ctx, "cart:s:cartItems")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", raw)
}
