package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"go.uber.org/zap"

	dbm "certean-billing/internal/models/db_models"
	"certean-billing/pkg/utils"
)

type CheckoutSessionInput struct {
	CustomerID string
	PriceID    string
	ClientID   string
	SuccessURL string
	CancelURL  string
}

type CheckoutSessionResult struct {
	ID  string
	URL string
}

// Processor is the subset of the payment processor API the service calls.
// Implementations return *utils.UpstreamError on failure.
type Processor interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSubject, error)
	FindOrCreateCustomer(ctx context.Context, email, clientID string) (string, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSessionResult, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

type stripeProcessor struct {
	sc  *client.API
	log *zap.Logger
}

// NewStripeProcessor builds a Stripe client bound to httpClient, whose
// Timeout bounds every processor call.
func NewStripeProcessor(secretKey string, httpClient *http.Client, log *zap.Logger) (Processor, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY is required", utils.ErrConfiguration)
	}
	sc := &client.API{}
	sc.Init(secretKey, stripe.NewBackends(httpClient))
	return &stripeProcessor{sc: sc, log: log}, nil
}

func (p *stripeProcessor) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSubject, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.sc.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, classifyStripeError("retrieve subscription", err)
	}

	out := &SubscriptionSubject{
		ID:                sub.ID,
		Status:            dbm.SubscriptionStatus(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
		out.CurrentPeriodStart = utils.FromUnixSeconds(item.CurrentPeriodStart)
		out.CurrentPeriodEnd = utils.FromUnixSeconds(item.CurrentPeriodEnd)
	}
	return out, nil
}

// FindOrCreateCustomer reuses the first customer with this email, otherwise
// creates one tagged with client_id.
func (p *stripeProcessor) FindOrCreateCustomer(ctx context.Context, email, clientID string) (string, error) {
	list := &stripe.CustomerListParams{Email: stripe.String(email)}
	list.Context = ctx
	list.Limit = stripe.Int64(1)

	iter := p.sc.Customers.List(list)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", classifyStripeError("list customers", err)
	}

	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"client_id": clientID},
	}
	params.Context = ctx

	cus, err := p.sc.Customers.New(params)
	if err != nil {
		return "", classifyStripeError("create customer", err)
	}
	p.log.Info("stripe customer created", zap.String("customer_id", cus.ID), zap.String("client_id", clientID))
	return cus.ID, nil
}

func (p *stripeProcessor) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSessionResult, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(in.CustomerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(in.PriceID), Quantity: stripe.Int64(1)},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		Metadata:   map[string]string{"client_id": in.ClientID},
	}
	params.Context = ctx

	sess, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, classifyStripeError("create checkout session", err)
	}
	return &CheckoutSessionResult{ID: sess.ID, URL: sess.URL}, nil
}

func (p *stripeProcessor) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := p.sc.BillingPortalSessions.New(params)
	if err != nil {
		return "", classifyStripeError("create portal session", err)
	}
	return sess.URL, nil
}

// classifyStripeError turns caller-caused rejections into 400 and everything
// else into 502.
func classifyStripeError(op string, err error) error {
	status := http.StatusBadGateway

	var se *stripe.Error
	if errors.As(err, &se) {
		switch se.Type {
		case stripe.ErrorTypeInvalidRequest, stripe.ErrorTypeCard:
			status = http.StatusBadRequest
		}
		msg := se.Msg
		if msg == "" {
			msg = string(se.Type)
		}
		return utils.NewUpstreamError(status, fmt.Errorf("%s: %s", op, msg))
	}
	return utils.NewUpstreamError(status, fmt.Errorf("%s: %w", op, err))
}
