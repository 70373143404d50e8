package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ameibeauty/cards/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

const checkoutProductName = "12 Months Card Updates + Better Search Placement"
const checkoutProductDescription = "Unlock 12 months of free updates and better search placement (equivalent to 10 endorsements)"

// StripeClient creates checkout sessions against the provider API.
type StripeClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CheckoutInput describes the one-off paid unlock purchase for a card.
type CheckoutInput struct {
	CardID     string
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutSession opens a provider checkout session for the paid
// unlock. The card id rides along as client_reference_id and metadata so
// the webhook can route the confirmation back to the card.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	if strings.TrimSpace(in.CardID) == "" {
		return nil, errors.New("card id is required")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[]", "card")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(DefaultPaymentCurrency))
	form.Set("line_items[0][price_data][product_data][name]", checkoutProductName)
	form.Set("line_items[0][price_data][product_data][description]", checkoutProductDescription)
	form.Set("line_items[0][price_data][unit_amount]", strconv.Itoa(DefaultPaymentAmount*100))
	form.Set("line_items[0][quantity]", "1")
	form.Set("client_reference_id", in.CardID)
	form.Set("metadata[card_id]", in.CardID)
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	form.Set("allow_promotion_codes", "true")

	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("checkout session request failed: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("checkout session request failed with status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("invalid checkout session response: %w", err)
	}
	if session.URL == "" {
		return nil, errors.New("checkout session response missing url")
	}
	return &session, nil
}
