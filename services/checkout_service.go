package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type CheckoutResolver interface {
	CheckoutURL(ctx context.Context, cartID string) (string, error)
}

// CheckoutService turns a bound cart into the hosted checkout URL.
type CheckoutService struct {
	resolver CheckoutResolver
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCheckoutService(resolver CheckoutResolver, timeout time.Duration, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{resolver: resolver, timeout: timeout, logger: logger}
}

func (s *CheckoutService) CheckoutURL(ctx context.Context, cart *CartService) (string, error) {
	cartID := cart.RemoteCartID()
	if cartID == "" {
		return "", NewFailedPrecondition(ErrMsgCartNotInitialized)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	url, err := s.resolver.CheckoutURL(ctx, cartID)
	if err != nil {
		s.logger.Error("checkout url lookup failed", zap.String("cart_id", cartID), zap.Error(err))
		return "", NewUnavailable(ErrMsgCheckoutFailed, err)
	}
	if url == "" {
		return "", NewExpired(ErrMsgCartExpired)
	}
	return url, nil
}
