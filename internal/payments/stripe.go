package payments

import (
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// OrderTypeProduct tags checkout sessions created by the product-order flow.
// Other order types (gift cards, dealer invoices) are handled elsewhere and
// ignored by the order materializer.
const OrderTypeProduct = "product"

// Metadata keys attached to every checkout session we create.
const (
	MetadataUserID    = "userId"
	MetadataOrderType = "orderType"
)

// Client wraps an explicitly constructed Stripe API client so handlers never
// touch SDK-global state.
type Client struct {
	api           *client.API
	webhookSecret string
}

func New(secretKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, webhookSecret: webhookSecret}
}

func (c *Client) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return c.api.CheckoutSessions.New(params)
}

// GetCheckoutSession retrieves a session with the payment intent expanded so
// the materializer can record the payment identifier.
func (c *Client) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("payment_intent")
	return c.api.CheckoutSessions.Get(id, params)
}

// VerifyWebhook checks the Stripe-Signature header against the shared secret
// and returns the parsed event.
func (c *Client) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signature, c.webhookSecret)
}
