package libs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func newTestClient(t *testing.T, status int, body string) (*CommerceClient, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-token", r.Header.Get("X-Shopify-Storefront-Access-Token"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(rec))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := NewCommerceClient(CommerceConfig{Endpoint: srv.URL, StorefrontToken: "test-token"})
	return client, rec
}

func TestNewCommerceClient_DefaultEndpoint(t *testing.T) {
	c := NewCommerceClient(CommerceConfig{StoreDomain: "crystals.example.com", APIVersion: "2024-01"})
	assert.Equal(t, "https://crystals.example.com/api/2024-01/graphql.json", c.endpoint)
}

func TestCreateCart(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK,
		`{"data":{"cartCreate":{"cart":{"id":"gid://shop/Cart/1","checkoutUrl":"https://pay/1"},"userErrors":[]}}}`)

	cart, err := client.CreateCart(context.Background(), "gid://shop/ProductVariant/9", 2)
	require.NoError(t, err)
	assert.Equal(t, "gid://shop/Cart/1", cart.ID)
	assert.Equal(t, "https://pay/1", cart.CheckoutURL)

	assert.Contains(t, rec.Query, "cartCreate")
	input := rec.Variables["input"].(map[string]interface{})
	line := input["lines"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "gid://shop/ProductVariant/9", line["merchandiseId"])
	assert.Equal(t, float64(2), line["quantity"])
}

func TestCreateCart_UserErrors(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK,
		`{"data":{"cartCreate":{"cart":null,"userErrors":[{"field":["lines"],"message":"Variant sold out"}]}}}`)

	_, err := client.CreateCart(context.Background(), "v", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserErrors))
	assert.Contains(t, err.Error(), "Variant sold out")
}

func TestAddLine(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK,
		`{"data":{"cartLinesAdd":{"cart":{"id":"cart-1","checkoutUrl":"https://pay/1"},"userErrors":[]}}}`)

	cart, err := client.AddLine(context.Background(), "cart-1", "variant-2", 1)
	require.NoError(t, err)
	assert.Equal(t, "cart-1", cart.ID)
	assert.Equal(t, "cart-1", rec.Variables["cartId"])
}

func TestApplyDiscount(t *testing.T) {
	t.Run("success returns the new total", func(t *testing.T) {
		client, rec := newTestClient(t, http.StatusOK,
			`{"data":{"checkoutDiscountCodeApplyV2":{"checkout":{"totalPrice":{"amount":"72.0","currencyCode":"USD"}},"userErrors":[]}}}`)

		res, err := client.ApplyDiscount(context.Background(), "cart-1", "SPRING")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.True(t, res.NewTotal.Equal(decimal.NewFromInt(72)))
		assert.Equal(t, "SPRING", rec.Variables["discountCode"])
	})

	t.Run("user errors become a rejected result", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusOK,
			`{"data":{"checkoutDiscountCodeApplyV2":{"checkout":null,"userErrors":[{"message":"Code expired"}]}}}`)

		res, err := client.ApplyDiscount(context.Background(), "cart-1", "OLD")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Code expired", res.ErrorMessage)
	})

	t.Run("missing total is malformed", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusOK,
			`{"data":{"checkoutDiscountCodeApplyV2":{"checkout":null,"userErrors":[]}}}`)

		_, err := client.ApplyDiscount(context.Background(), "cart-1", "X")
		assert.True(t, errors.Is(err, ErrMalformedResponse))
	})
}

func TestCheckoutURL(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"data":{"cart":{"checkoutUrl":"https://pay/abc"}}}`)
	url, err := client.CheckoutURL(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay/abc", url)

	expired, _ := newTestClient(t, http.StatusOK, `{"data":{"cart":null}}`)
	url, err = expired.CheckoutURL(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestProducts(t *testing.T) {
	body := `{"data":{"products":{"edges":[{"node":{
		"id":"p1","title":"Rose Quartz Point","description":"Pink","productType":"Points",
		"createdAt":"2024-05-01T10:00:00Z","availableForSale":true,
		"featuredImage":{"url":"https://img/rq.jpg"},
		"priceRange":{"minVariantPrice":{"amount":"24.50"}},
		"variants":{"edges":[{"node":{"id":"v1","title":"Small","availableForSale":true,"price":{"amount":"24.50"}}}]}
	}}]}}}`
	client, rec := newTestClient(t, http.StatusOK, body)

	products, err := client.Products(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "Rose Quartz Point", p.Title)
	assert.Equal(t, "Points", p.Category)
	assert.Equal(t, "https://img/rq.jpg", p.Image)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("24.5")))
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "v1", p.Variants[0].ID)
	assert.Equal(t, float64(50), rec.Variables["first"])
}

func TestDo_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "non-2xx status", status: http.StatusBadGateway, body: "upstream down", wantMsg: "unexpected status 502"},
		{name: "invalid json", status: http.StatusOK, body: "<html>", wantErr: ErrMalformedResponse},
		{name: "graphql errors", status: http.StatusOK, body: `{"errors":[{"message":"Throttled"}]}`, wantErr: ErrGraphQL},
		{name: "null data", status: http.StatusOK, body: `{"data":null}`, wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.status, tt.body)
			_, err := client.CreateCart(context.Background(), "v", 1)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), err.Error())
			}
			if tt.wantMsg != "" {
				assert.True(t, strings.Contains(err.Error(), tt.wantMsg), err.Error())
			}
		})
	}
}

func TestDo_TransportError(t *testing.T) {
	client := NewCommerceClient(CommerceConfig{Endpoint: "http://127.0.0.1:0/graphql"})
	_, err := client.CheckoutURL(context.Background(), "cart-1")
	assert.Error(t, err)
}
