package libs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crystal-shop/models"

	"github.com/shopspring/decimal"
)

var (
	ErrUserErrors        = errors.New("commerce rejected the request")
	ErrGraphQL           = errors.New("commerce graphql error")
	ErrMalformedResponse = errors.New("malformed commerce response")
)

type CommerceConfig struct {
	StoreDomain     string
	StorefrontToken string
	APIVersion      string
	// Endpoint overrides the URL derived from StoreDomain and APIVersion.
	Endpoint   string
	HTTPClient *http.Client
}

// CommerceClient talks to the storefront GraphQL API. Every call is a single
// request; nothing is retried.
type CommerceClient struct {
	endpoint string
	token    string
	http     *http.Client
}

type RemoteCart struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
}

type DiscountResult struct {
	Success      bool
	NewTotal     decimal.Decimal
	ErrorMessage string
}

type userError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func NewCommerceClient(cfg CommerceConfig) *CommerceClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", cfg.StoreDomain, cfg.APIVersion)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &CommerceClient{
		endpoint: endpoint,
		token:    cfg.StorefrontToken,
		http:     httpClient,
	}
}

const cartCreateMutation = `
mutation cartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart { id checkoutUrl }
    userErrors { field message }
  }
}`

func (c *CommerceClient) CreateCart(ctx context.Context, variantID string, quantity int) (*RemoteCart, error) {
	vars := map[string]interface{}{
		"input": map[string]interface{}{
			"lines": []map[string]interface{}{
				{"merchandiseId": variantID, "quantity": quantity},
			},
		},
	}

	var data struct {
		CartCreate struct {
			Cart       *RemoteCart `json:"cart"`
			UserErrors []userError `json:"userErrors"`
		} `json:"cartCreate"`
	}
	if err := c.do(ctx, cartCreateMutation, vars, &data); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cartOrError("create cart", data.CartCreate.Cart, data.CartCreate.UserErrors)
}

const cartLinesAddMutation = `
mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { id checkoutUrl }
    userErrors { field message }
  }
}`

func (c *CommerceClient) AddLine(ctx context.Context, cartID, variantID string, quantity int) (*RemoteCart, error) {
	vars := map[string]interface{}{
		"cartId": cartID,
		"lines": []map[string]interface{}{
			{"merchandiseId": variantID, "quantity": quantity},
		},
	}

	var data struct {
		CartLinesAdd struct {
			Cart       *RemoteCart `json:"cart"`
			UserErrors []userError `json:"userErrors"`
		} `json:"cartLinesAdd"`
	}
	if err := c.do(ctx, cartLinesAddMutation, vars, &data); err != nil {
		return nil, fmt.Errorf("add cart line: %w", err)
	}
	return cartOrError("add cart line", data.CartLinesAdd.Cart, data.CartLinesAdd.UserErrors)
}

func cartOrError(op string, cart *RemoteCart, userErrors []userError) (*RemoteCart, error) {
	if len(userErrors) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUserErrors, joinMessages(userErrors))
	}
	if cart == nil || cart.ID == "" {
		return nil, fmt.Errorf("%s: %w: missing cart", op, ErrMalformedResponse)
	}
	return cart, nil
}

const discountApplyMutation = `
mutation checkoutDiscountCodeApplyV2($checkoutId: ID!, $discountCode: String!) {
  checkoutDiscountCodeApplyV2(checkoutId: $checkoutId, discountCode: $discountCode) {
    checkout { totalPrice { amount currencyCode } }
    userErrors: checkoutUserErrors { field message }
  }
}`

// ApplyDiscount reports merchant-side rejections through DiscountResult and
// transport or decoding problems through the error.
func (c *CommerceClient) ApplyDiscount(ctx context.Context, cartID, code string) (*DiscountResult, error) {
	vars := map[string]interface{}{
		"checkoutId":   cartID,
		"discountCode": code,
	}

	var data struct {
		Apply struct {
			Checkout *struct {
				TotalPrice struct {
					Amount *decimal.Decimal `json:"amount"`
				} `json:"totalPrice"`
			} `json:"checkout"`
			UserErrors []userError `json:"userErrors"`
		} `json:"checkoutDiscountCodeApplyV2"`
	}
	if err := c.do(ctx, discountApplyMutation, vars, &data); err != nil {
		return nil, fmt.Errorf("apply discount: %w", err)
	}

	if len(data.Apply.UserErrors) > 0 {
		return &DiscountResult{Success: false, ErrorMessage: data.Apply.UserErrors[0].Message}, nil
	}
	if data.Apply.Checkout == nil || data.Apply.Checkout.TotalPrice.Amount == nil {
		return nil, fmt.Errorf("apply discount: %w: missing total", ErrMalformedResponse)
	}
	return &DiscountResult{Success: true, NewTotal: *data.Apply.Checkout.TotalPrice.Amount}, nil
}

const cartCheckoutQuery = `
query cart($id: ID!) {
  cart(id: $id) { checkoutUrl }
}`

// CheckoutURL returns "" when the remote cart no longer exists.
func (c *CommerceClient) CheckoutURL(ctx context.Context, cartID string) (string, error) {
	var data struct {
		Cart *struct {
			CheckoutURL string `json:"checkoutUrl"`
		} `json:"cart"`
	}
	if err := c.do(ctx, cartCheckoutQuery, map[string]interface{}{"id": cartID}, &data); err != nil {
		return "", fmt.Errorf("checkout url: %w", err)
	}
	if data.Cart == nil {
		return "", nil
	}
	return data.Cart.CheckoutURL, nil
}

const productsQuery = `
query products($first: Int!) {
  products(first: $first, sortKey: CREATED_AT, reverse: true) {
    edges {
      node {
        id title description productType createdAt availableForSale
        featuredImage { url }
        priceRange { minVariantPrice { amount } }
        variants(first: 20) {
          edges { node { id title availableForSale price { amount } } }
        }
      }
    }
  }
}`

type moneyV2 struct {
	Amount decimal.Decimal `json:"amount"`
}

type productNode struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ProductType      string    `json:"productType"`
	CreatedAt        time.Time `json:"createdAt"`
	AvailableForSale bool      `json:"availableForSale"`
	FeaturedImage    *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
	PriceRange struct {
		MinVariantPrice moneyV2 `json:"minVariantPrice"`
	} `json:"priceRange"`
	Variants struct {
		Edges []struct {
			Node struct {
				ID               string  `json:"id"`
				Title            string  `json:"title"`
				AvailableForSale bool    `json:"availableForSale"`
				Price            moneyV2 `json:"price"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

func (c *CommerceClient) Products(ctx context.Context, first int) ([]models.Product, error) {
	var data struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := c.do(ctx, productsQuery, map[string]interface{}{"first": first}, &data); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]models.Product, 0, len(data.Products.Edges))
	for _, edge := range data.Products.Edges {
		n := edge.Node
		p := models.Product{
			ID:          n.ID,
			Title:       n.Title,
			Description: n.Description,
			Category:    n.ProductType,
			Price:       n.PriceRange.MinVariantPrice.Amount,
			Available:   n.AvailableForSale,
			CreatedAt:   n.CreatedAt,
			Variants:    make([]models.ProductVariant, 0, len(n.Variants.Edges)),
		}
		if n.FeaturedImage != nil {
			p.Image = n.FeaturedImage.URL
		}
		for _, v := range n.Variants.Edges {
			p.Variants = append(p.Variants, models.ProductVariant{
				ID:        v.Node.ID,
				Title:     v.Node.Title,
				Price:     v.Node.Price.Amount,
				Available: v.Node.AvailableForSale,
			})
		}
		products = append(products, p)
	}
	return products, nil
}

func (c *CommerceClient) do(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%w: empty data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func joinMessages(errs []userError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
