package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rookgm/checkout/internal/models"
	"github.com/rookgm/checkout/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu      sync.Mutex
	orderID string
	states  chan service.State
}

func (s *fakeSession) Subscribe() (<-chan service.State, func()) {
	return s.states, func() {}
}

func (s *fakeSession) OrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderID
}

func (s *fakeSession) load(id string) {
	s.mu.Lock()
	s.orderID = id
	s.mu.Unlock()
	s.states <- service.State{}
}

type terminal struct {
	orderID string
	status  models.StatusCode
}

func TestStatusPoller_Watch(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{status: models.StatusWaiting},
		{status: models.StatusFail},
	}}
	src := &fakeSession{states: make(chan service.State)}

	got := make(chan terminal, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewStatusPoller(f, time.Millisecond).Watch(ctx, src, func(id string, st models.OrderState) {
			got <- terminal{orderID: id, status: st.Status}
		})
	}()

	src.load("P1")

	select {
	case tr := <-got:
		assert.Equal(t, terminal{orderID: "P1", status: models.StatusFail}, tr)
	case <-time.After(5 * time.Second):
		t.Fatal("no terminal status")
	}

	// same order again does not restart polling
	src.load("P1")

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, got)
}

func TestStatusPoller_Watch_IgnoresEmptyOrder(t *testing.T) {
	f := &scriptedFetcher{steps: []step{{status: models.StatusSuccess}}}
	src := &fakeSession{states: make(chan service.State)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewStatusPoller(f, time.Millisecond).Watch(ctx, src, nil)
	}()

	src.states <- service.State{}
	cancel()
	require.NoError(t, <-done)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Zero(t, f.calls)
}
