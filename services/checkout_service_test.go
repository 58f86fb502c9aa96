package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResolver struct {
	url    string
	err    error
	gotIDs []string
}

func (f *fakeResolver) CheckoutURL(ctx context.Context, cartID string) (string, error) {
	f.gotIDs = append(f.gotIDs, cartID)
	return f.url, f.err
}

func boundCart(t *testing.T) *CartService {
	t.Helper()
	svc, _ := newTestCart(t, &fakeGateway{})
	_, err := svc.AddItem(context.Background(), crystal("A", "30"), 1)
	require.NoError(t, err)
	svc.Wait()
	require.NotEmpty(t, svc.RemoteCartID())
	return svc
}

func TestCheckoutService_CheckoutURL(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the bound cart", func(t *testing.T) {
		resolver := &fakeResolver{url: "https://pay.example/c/1"}
		url, err := NewCheckoutService(resolver, time.Second, zap.NewNop()).CheckoutURL(ctx, boundCart(t))
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/c/1", url)
		assert.Equal(t, []string{"cart-1"}, resolver.gotIDs)
	})

	t.Run("unbound cart", func(t *testing.T) {
		svc, _ := newTestCart(t, &fakeGateway{})
		_, err := NewCheckoutService(&fakeResolver{}, time.Second, zap.NewNop()).CheckoutURL(ctx, svc)
		assertCartError(t, err, CodeFailedPrecondition, ErrMsgCartNotInitialized)
	})

	t.Run("expired remote cart", func(t *testing.T) {
		_, err := NewCheckoutService(&fakeResolver{}, time.Second, zap.NewNop()).CheckoutURL(ctx, boundCart(t))
		assertCartError(t, err, CodeExpired, ErrMsgCartExpired)
	})

	t.Run("lookup failure", func(t *testing.T) {
		resolver := &fakeResolver{err: errors.New("dial tcp: timeout")}
		_, err := NewCheckoutService(resolver, time.Second, zap.NewNop()).CheckoutURL(ctx, boundCart(t))
		assertCartError(t, err, CodeUnavailable, ErrMsgCheckoutFailed)
	})
}
