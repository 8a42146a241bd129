package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"certean-billing/internal/models/response_models"
	"certean-billing/internal/repositories"
)

const serviceName = "certean-billing"

type HealthService interface {
	Check(ctx context.Context) response_models.HealthResponse
}

type healthService struct {
	store   repositories.Store
	timeout time.Duration
	log     *zap.Logger
}

func NewHealthService(store repositories.Store, timeout time.Duration, log *zap.Logger) HealthService {
	return &healthService{store: store, timeout: timeout, log: log}
}

// Check never fails; an unreachable store only degrades the status.
func (h *healthService) Check(ctx context.Context) response_models.HealthResponse {
	resp := response_models.HealthResponse{
		Status:   "healthy",
		Service:  serviceName,
		Database: "connected",
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("store ping failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = "disconnected"
	}
	return resp
}
