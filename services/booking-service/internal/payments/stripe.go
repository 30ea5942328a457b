package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

var ErrNoPrice = errors.New("appointment has no chargeable price")

// StripeProcessor opens a PaymentIntent for each completed appointment. The
// idempotency key makes a repeated completion reuse the same intent.
type StripeProcessor struct {
	api      *client.API
	currency string
}

type StripeConfig struct {
	SecretKey string
	Currency  string
	// Backend overrides the API backend; nil uses Stripe's.
	Backend stripe.Backend
}

func NewStripeProcessor(cfg StripeConfig) *StripeProcessor {
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyUSD)
	}
	var backends *stripe.Backends
	if cfg.Backend != nil {
		backends = &stripe.Backends{API: cfg.Backend, Connect: cfg.Backend, Uploads: cfg.Backend}
	}
	return &StripeProcessor{
		api:      client.New(cfg.SecretKey, backends),
		currency: strings.ToLower(cfg.Currency),
	}
}

func (p *StripeProcessor) CollectPayment(ctx context.Context, appt model.Appointment) (string, error) {
	cents, err := priceToCents(appt.ServicePrice)
	if err != nil {
		return "", err
	}
	if cents <= 0 {
		return "", ErrNoPrice
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(cents),
		Currency:    stripe.String(p.currency),
		Description: stripe.String(fmt.Sprintf("%s with %s", appt.ServiceName, appt.ProviderName)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("appointment:" + appt.ID)
	params.AddMetadata("appointment_id", appt.ID)
	params.AddMetadata("customer_id", appt.CustomerID)
	params.AddMetadata("provider_id", appt.ProviderID)

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// priceToCents accepts display prices such as "20", "20.5", "$20.00" or "1,250.00".
func priceToCents(price string) (int64, error) {
	s := strings.TrimSpace(price)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrNoPrice
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("price %q has more than two decimals", price)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("invalid price %q", price)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid price %q", price)
	}
	return w*100 + f, nil
}

// Noop is used when payment collection is disabled.
type Noop struct{}

func (Noop) CollectPayment(context.Context, model.Appointment) (string, error) { return "", nil }
