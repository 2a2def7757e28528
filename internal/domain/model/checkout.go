package model

import "github.com/dogepandaCodes/PokinPokin/internal/domain/enums"

// CheckoutSessionRequest is what the processor needs to open a hosted checkout.
type CheckoutSessionRequest struct {
	PaymentMethodTypes []string
	Mode               enums.CheckoutMode
	Currency           string
	LineItems          []CheckoutLineItem
	SuccessURL         string
	CancelURL          string
	CustomerEmail      string
	Metadata           map[string]string
}

type CheckoutLineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// CheckoutSession is the processor-owned session as seen by this service.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus enums.PaymentStatus
	AmountTotal   int64
	CustomerEmail string
	Metadata      map[string]string
}

// WebhookEvent is a verified processor notification. Session is set only for
// checkout session events.
type WebhookEvent struct {
	ID      string
	Type    enums.EventType
	Session *CheckoutSession
}
