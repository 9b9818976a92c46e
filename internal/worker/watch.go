package worker

import (
	"context"
	"sync"

	"github.com/rookgm/checkout/internal/logger"
	"github.com/rookgm/checkout/internal/models"
	"github.com/rookgm/checkout/internal/service"
	"go.uber.org/zap"
)

// SessionSource publishes session state changes
type SessionSource interface {
	Subscribe() (<-chan service.State, func())
	OrderID() string
}

// Watch polls status of every order the session loads until ctx is done.
// Loading another order stops polling of the previous one.
// onTerminal is called once per order reaching a terminal status.
func (sp *StatusPoller) Watch(ctx context.Context, src SessionSource, onTerminal func(orderID string, state models.OrderState)) error {
	states, unsubscribe := src.Subscribe()
	defer unsubscribe()

	var (
		wg      sync.WaitGroup
		current string
		stop    context.CancelFunc = func() {}
	)
	defer func() {
		stop()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-states:
			if !ok {
				return nil
			}
		}

		id := src.OrderID()
		if id == "" || id == current {
			continue
		}

		stop()
		current = id

		var pctx context.Context
		pctx, stop = context.WithCancel(ctx)
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			state, err := sp.Poll(pctx, orderID, nil)
			if err != nil {
				logger.Log.Debug("status polling stopped", zap.String("order_id", orderID), zap.Error(err))
				return
			}
			if onTerminal != nil {
				onTerminal(orderID, state)
			}
		}(id)
	}
}
