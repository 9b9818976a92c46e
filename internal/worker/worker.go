package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rookgm/checkout/internal/logger"
	"github.com/rookgm/checkout/internal/models"
	"go.uber.org/zap"
)

const defaultInterval = 3 * time.Second

// StatusFetcher returns current order status
type StatusFetcher interface {
	FetchStatus(ctx context.Context, orderID string) (*models.OrderState, error)
}

// StatusPoller is worker watching order status until it is terminal
type StatusPoller struct {
	api      StatusFetcher
	interval time.Duration
}

// NewStatusPoller creates new status poller
func NewStatusPoller(api StatusFetcher, interval time.Duration) *StatusPoller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &StatusPoller{api: api, interval: interval}
}

// Poll fetches order status on every tick and calls onChange when status changes.
// It returns the terminal state, or ctx error when ctx is done first.
func (sp *StatusPoller) Poll(ctx context.Context, orderID string, onChange func(models.OrderState)) (models.OrderState, error) {
	ticker := time.NewTicker(sp.interval)
	defer ticker.Stop()

	var (
		last models.OrderState
		seen bool
	)

	for {
		state, err := sp.api.FetchStatus(ctx, orderID)
		switch {
		case err == nil:
			if !seen || state.Status != last.Status {
				logger.Log.Debug("order status changed",
					zap.String("order_id", orderID),
					zap.Stringer("status", state.Status))
				if onChange != nil {
					onChange(*state)
				}
			}
			last, seen = *state, true
			if state.Status.IsTerminal() {
				return last, nil
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return last, err
		case errors.Is(err, models.ErrInvalidOrderID):
			return last, err
		default:
			logger.Log.Error("fetch order status", zap.String("order_id", orderID), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Log.Debug("status poller is done", zap.String("order_id", orderID))
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
