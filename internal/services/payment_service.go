package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"certean-billing/internal/models/request_models"
	"certean-billing/internal/models/response_models"
	"certean-billing/pkg/utils"
)

type PaymentConfig struct {
	FrontendURL string
}

func (c PaymentConfig) defaultSuccessURL() string { return c.FrontendURL + "/billing?success=true" }
func (c PaymentConfig) defaultCancelURL() string  { return c.FrontendURL + "/pricing?canceled=true" }
func (c PaymentConfig) defaultReturnURL() string  { return c.FrontendURL + "/billing" }

// PaymentService starts hosted Stripe flows. It never touches the store;
// the resulting subscription arrives later through the webhook.
type PaymentService interface {
	CreateCheckout(ctx context.Context, req request_models.CreateCheckoutRequest) (*response_models.CreateCheckoutResponse, error)
	CreatePortal(ctx context.Context, req request_models.CreatePortalRequest) (*response_models.CreatePortalResponse, error)
}

type paymentService struct {
	processor Processor
	cfg       PaymentConfig
	log       *zap.Logger
}

func NewPaymentService(processor Processor, cfg PaymentConfig, log *zap.Logger) PaymentService {
	return &paymentService{processor: processor, cfg: cfg, log: log}
}

func (p *paymentService) CreateCheckout(ctx context.Context, req request_models.CreateCheckoutRequest) (*response_models.CreateCheckoutResponse, error) {
	if err := ValidateClientID(req.ClientID); err != nil {
		return nil, err
	}
	if req.PriceID == "" || req.UserEmail == "" {
		return nil, fmt.Errorf("%w: price_id and user_email are required", utils.ErrInvalidRequest)
	}

	customerID, err := p.processor.FindOrCreateCustomer(ctx, req.UserEmail, req.ClientID)
	if err != nil {
		return nil, err
	}

	in := CheckoutSessionInput{
		CustomerID: customerID,
		PriceID:    req.PriceID,
		ClientID:   req.ClientID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	}
	if in.SuccessURL == "" {
		in.SuccessURL = p.cfg.defaultSuccessURL()
	}
	if in.CancelURL == "" {
		in.CancelURL = p.cfg.defaultCancelURL()
	}

	sess, err := p.processor.CreateCheckoutSession(ctx, in)
	if err != nil {
		return nil, err
	}
	if sess.URL == "" {
		return nil, utils.NewUpstreamError(0, errors.New("checkout session returned no url"))
	}

	p.log.Info("checkout session created",
		zap.String("client_id", req.ClientID),
		zap.String("session_id", sess.ID),
		zap.String("price_id", req.PriceID))

	return &response_models.CreateCheckoutResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

func (p *paymentService) CreatePortal(ctx context.Context, req request_models.CreatePortalRequest) (*response_models.CreatePortalResponse, error) {
	if req.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer_id is required", utils.ErrInvalidRequest)
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = p.cfg.defaultReturnURL()
	}

	url, err := p.processor.CreatePortalSession(ctx, req.CustomerID, returnURL)
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, utils.NewUpstreamError(0, errors.New("portal session returned no url"))
	}
	return &response_models.CreatePortalResponse{URL: url}, nil
}
