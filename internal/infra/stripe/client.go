package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/enums"
	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
)

// SignatureHeader carries the processor's webhook signature.
const SignatureHeader = "Stripe-Signature"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrEventDecode      = errors.New("decode webhook event")
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	// Tolerance bounds the signed timestamp age. Zero keeps the library default.
	Tolerance time.Duration
	// HTTPClient carries API calls. Nil uses the library's client.
	HTTPClient *http.Client
}

type Client struct {
	api           *stripeclient.API
	webhookSecret string
	tolerance     time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("stripe webhook secret is required")
	}

	var backends *stripe.Backends
	if cfg.HTTPClient != nil {
		backends = stripe.NewBackends(cfg.HTTPClient)
	}

	api := &stripeclient.API{}
	api.Init(cfg.SecretKey, backends)

	return &Client{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     cfg.Tolerance,
	}, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req model.CheckoutSessionRequest) (model.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(req.Mode)),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
		CustomerEmail: stripe.String(req.CustomerEmail),
	}
	params.Context = ctx
	if len(req.PaymentMethodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(req.PaymentMethodTypes)
	}
	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Name),
					Description: stripe.String(item.Description),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return model.CheckoutSession{}, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return toModelSession(session), nil
}

func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (model.CheckoutSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return model.CheckoutSession{}, fmt.Errorf("session id is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return model.CheckoutSession{}, fmt.Errorf("retrieve stripe checkout session: %w", err)
	}

	return toModelSession(session), nil
}

// VerifyEvent authenticates a raw webhook payload against its signature header
// and decodes the checkout session it carries.
func (c *Client) VerifyEvent(payload []byte, signature string) (model.WebhookEvent, error) {
	return verifyEvent(payload, signature, c.webhookSecret, c.tolerance)
}

func verifyEvent(payload []byte, signature, secret string, tolerance time.Duration) (model.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return model.WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return model.WebhookEvent{}, fmt.Errorf("%w: %v", ErrEventDecode, err)
	}

	out := model.WebhookEvent{
		ID:   event.ID,
		Type: enums.EventType(event.Type),
	}

	if strings.HasPrefix(string(event.Type), "checkout.session.") && event.Data != nil && len(event.Data.Raw) > 0 {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return model.WebhookEvent{}, fmt.Errorf("%w: checkout session payload: %v", ErrEventDecode, err)
		}
		converted := toModelSession(&session)
		out.Session = &converted
	}

	return out, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func toModelSession(session *stripe.CheckoutSession) model.CheckoutSession {
	if session == nil {
		return model.CheckoutSession{}
	}

	metadata := make(map[string]string, len(session.Metadata))
	for k, v := range session.Metadata {
		metadata[k] = v
	}

	return model.CheckoutSession{
		ID:            session.ID,
		URL:           session.URL,
		PaymentStatus: enums.PaymentStatus(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		CustomerEmail: session.CustomerEmail,
		Metadata:      metadata,
	}
}
