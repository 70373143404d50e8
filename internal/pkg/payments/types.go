package payments

import "encoding/json"

// Provider event types that apply a paid unlock.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentSucceeded  = "payment_intent.succeeded"
)

// Defaults when the event omits amount information.
const (
	DefaultPaymentAmount   = 10
	DefaultPaymentCurrency = "USD"
)

// Event is the envelope of a provider webhook delivery.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// checkoutSession is the payload of a checkout.session.completed event.
type checkoutSession struct {
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
}

// paymentIntent is the payload of a payment_intent.succeeded event.
type paymentIntent struct {
	Metadata map[string]string `json:"metadata"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
}

// CheckoutSession is the provider checkout session handed back to clients.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
