package services

type ErrorCode int

const (
	CodeInvalidArgument ErrorCode = iota
	CodeFailedPrecondition
	CodeRejected
	CodeUnavailable
	CodeExpired
)

// Error messages surfaced to shoppers.
const (
	ErrMsgItemIDRequired     = "Item ID is required"
	ErrMsgQuantityPositive   = "Quantity must be positive"
	ErrMsgQuantityTooLarge   = "Quantity cannot exceed 999 per item"
	ErrMsgPriceNegative      = "Price cannot be negative"
	ErrMsgCouponCodeRequired = "Coupon code is required"
	ErrMsgCartNotInitialized = "Cart not initialized"
	ErrMsgInvalidCode        = "Invalid code"
	ErrMsgDiscountFailed     = "Unable to apply discount right now"
	ErrMsgInvalidShipping    = "Shipping method must be standard or express"
	ErrMsgCatalogUnavailable = "Unable to load products right now"
	ErrMsgInvalidPriceFilter = "Price filter must be a non-negative number"
	ErrMsgCheckoutFailed     = "Unable to resolve checkout right now"
	ErrMsgCartExpired        = "Cart has expired"

	MsgDiscountApplied = "Discount applied"
)

func (c ErrorCode) String() string {
	switch c {
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeFailedPrecondition:
		return "FAILED_PRECONDITION"
	case CodeRejected:
		return "REJECTED"
	case CodeUnavailable:
		return "UNAVAILABLE"
	case CodeExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

type CartError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *CartError) Error() string {
	return e.Message
}

func (e *CartError) Unwrap() error {
	return e.Err
}

func NewInvalidArgument(message string) *CartError {
	return &CartError{Code: CodeInvalidArgument, Message: message}
}

func NewFailedPrecondition(message string) *CartError {
	return &CartError{Code: CodeFailedPrecondition, Message: message}
}

func NewRejected(message string) *CartError {
	return &CartError{Code: CodeRejected, Message: message}
}

func NewUnavailable(message string, cause error) *CartError {
	return &CartError{Code: CodeUnavailable, Message: message, Err: cause}
}

func NewExpired(message string) *CartError {
	return &CartError{Code: CodeExpired, Message: message}
}
