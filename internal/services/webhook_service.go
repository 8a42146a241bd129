package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	mem "certean-billing/pkg/memcache"
	"certean-billing/pkg/metrics"
	"certean-billing/pkg/utils"
)

type WebhookResult struct {
	EventID string `json:"event_id"`
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
}

type WebhookService interface {
	Handle(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error)
}

type webhookService struct {
	normalizer *EventNormalizer
	reconciler ReconcilerService
	processed  mem.EventStore
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewWebhookService(normalizer *EventNormalizer, reconciler ReconcilerService, processed mem.EventStore, m *metrics.Metrics, log *zap.Logger) WebhookService {
	return &webhookService{
		normalizer: normalizer,
		reconciler: reconciler,
		processed:  processed,
		metrics:    m,
		log:        log,
	}
}

// Handle verifies and applies one webhook delivery. Kinds the service does
// not act on are acknowledged so Stripe stops retrying them.
func (w *webhookService) Handle(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	evt, err := w.normalizer.Normalize(payload, signatureHeader)
	if err != nil {
		outcome := metrics.OutcomeRejected
		if errors.Is(err, utils.ErrConfiguration) {
			outcome = metrics.OutcomeFailed
		}
		w.metrics.ObserveWebhook("unknown", outcome)
		w.log.Warn("webhook rejected", zap.Error(err))
		return nil, err
	}

	res := &WebhookResult{EventID: evt.ID, Kind: string(evt.Kind)}
	logger := w.log.With(zap.String("event_id", evt.ID), zap.String("kind", res.Kind))

	switch {
	case !evt.Kind.Handled():
		res.Outcome = metrics.OutcomeIgnored
		logger.Debug("webhook event ignored")
	case w.processed.Seen(evt.ID):
		res.Outcome = metrics.OutcomeDuplicate
		logger.Info("webhook event already applied")
	default:
		if err := w.dispatch(ctx, evt); err != nil {
			outcome := metrics.OutcomeFailed
			if errors.Is(err, utils.ErrInvalidPayload) {
				outcome = metrics.OutcomeRejected
			}
			w.metrics.ObserveWebhook(res.Kind, outcome)
			logger.Error("webhook event failed", zap.Error(err))
			return nil, err
		}
		w.processed.Remember(evt.ID)
		res.Outcome = metrics.OutcomeApplied
		logger.Info("webhook event applied")
	}

	w.metrics.ObserveWebhook(res.Kind, res.Outcome)
	return res, nil
}

func (w *webhookService) dispatch(ctx context.Context, evt *Event) error {
	switch s := evt.Subject.(type) {
	case *CheckoutSubject:
		return w.reconciler.OnCheckoutCompleted(ctx, s)
	case *SubscriptionSubject:
		if evt.Kind == KindSubscriptionDeleted {
			return w.reconciler.OnSubscriptionDeleted(ctx, s)
		}
		return w.reconciler.OnSubscriptionUpdated(ctx, s)
	case *InvoiceSubject:
		if evt.Kind == KindInvoicePaymentFailed {
			return w.reconciler.OnInvoicePaymentFailed(ctx, s)
		}
		return w.reconciler.OnInvoicePaid(ctx, s)
	default:
		return fmt.Errorf("%w: %s event without subject", utils.ErrInvalidPayload, evt.Kind)
	}
}
