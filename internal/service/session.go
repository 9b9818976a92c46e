package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rookgm/checkout/internal/expiry"
	"github.com/rookgm/checkout/internal/logger"
	"github.com/rookgm/checkout/internal/models"
	"go.uber.org/zap"
)

// resultPathPrefix is in-app view an order falls back to when it can not be loaded
const resultPathPrefix = "/result/"

// OrderFetcher is interface for fetching order from backend
type OrderFetcher interface {
	// FetchOrder returns order decoded over a default snapshot and the raw payload
	FetchOrder(ctx context.Context, orderID string) (*models.Order, json.RawMessage, error)
}

// Navigator changes what the user sees
type Navigator interface {
	// NavigateTo opens in-app path
	NavigateTo(path string)
	// Redirect leaves the app to url
	Redirect(url string)
}

// SnapshotSink receives every successfully loaded snapshot
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, orderID string, order models.Order) error
}

// State is session state at one moment
type State struct {
	Order  models.Order         `json:"order"`
	Config models.SessionConfig `json:"config"`
}

// SessionOption configures SessionManager
type SessionOption func(*SessionManager)

// WithSnapshotSink sets snapshot journal
func WithSnapshotSink(sink SnapshotSink) SessionOption {
	return func(m *SessionManager) {
		m.sink = sink
	}
}

// WithClock sets clock used for countdown
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSessionLogger sets logger
func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(m *SessionManager) {
		if l != nil {
			m.log = l
		}
	}
}

// SessionManager owns order state of one checkout session.
// Only SessionManager mutates the state, readers get copies.
type SessionManager struct {
	fetcher OrderFetcher
	nav     Navigator
	sink    SnapshotSink
	log     *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	order   models.Order
	config  models.SessionConfig
	orderID string

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int
}

// NewSessionManager creates new SessionManager instance with default state
func NewSessionManager(fetcher OrderFetcher, nav Navigator, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		fetcher: fetcher,
		nav:     nav,
		log:     logger.Log,
		now:     time.Now,
		order:   models.DefaultOrder(),
		config:  models.DefaultSessionConfig(),
		subs:    map[int]chan State{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadOrder fetches order and replaces session snapshot with it.
// On failure user is sent to the order result view and the error is returned as is.
func (m *SessionManager) LoadOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	m.setBusy(true)
	defer m.setBusy(false)

	order, raw, err := m.fetcher.FetchOrder(ctx, orderID)
	if err != nil {
		m.log.Warn("load order failed",
			zap.String("order_id", orderID),
			zap.String("kind", models.Kind(err)),
			zap.Error(err))
		m.nav.NavigateTo(ResultPath(orderID))
		return nil, err
	}

	snapshot := m.replace(orderID, *order)

	m.log.Debug("order loaded",
		zap.String("order_id", orderID),
		zap.Int64("remaining_seconds", m.Config().RemainingSeconds))

	if m.sink != nil {
		if err := m.sink.SaveSnapshot(ctx, orderID, snapshot); err != nil {
			m.log.Error("save snapshot", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	return raw, nil
}

// replace swaps the whole snapshot, no field of a previous order survives
func (m *SessionManager) replace(orderID string, order models.Order) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = order.Clone()
	m.orderID = orderID
	m.config.RemainingSeconds = expiry.SecondsUntilAt(m.order.ExpireTime.Unix(), m.now())
	m.publishLocked()

	return m.order.Clone()
}

// ReturnToMerchant sends user back to merchant return url or to the root
func (m *SessionManager) ReturnToMerchant() {
	target := m.MerchantTarget()
	m.log.Info("return to merchant", zap.String("url", target))
	m.nav.Redirect(target)
}

// MerchantTarget returns where ReturnToMerchant would send the user
func (m *SessionManager) MerchantTarget() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if u := m.order.MerchantURL(); u != "" {
		return u
	}
	return "/"
}

// Tick recomputes countdown from current snapshot and returns it
func (m *SessionManager) Tick() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining := expiry.SecondsUntilAt(m.order.ExpireTime.Unix(), m.now())
	if remaining != m.config.RemainingSeconds {
		m.config.RemainingSeconds = remaining
		m.publishLocked()
	}
	return remaining
}

// Order returns copy of current order snapshot
func (m *SessionManager) Order() models.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.order.Clone()
}

// OrderID returns id of the last successfully loaded order
func (m *SessionManager) OrderID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orderID
}

// Config returns copy of session config
func (m *SessionManager) Config() models.SessionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// State returns copy of order and config taken at the same moment
func (m *SessionManager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{Order: m.order.Clone(), Config: m.config}
}

// Subscribe returns channel receiving state after every change and a cancel func.
// A slow subscriber skips intermediate states but always sees the latest one.
func (m *SessionManager) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (m *SessionManager) setBusy(busy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config.Busy = busy
	m.publishLocked()
}

// publishLocked sends state to subscribers, m.mu must be held
func (m *SessionManager) publishLocked() {
	st := State{Order: m.order.Clone(), Config: m.config}

	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, ch := range m.subs {
		select {
		case ch <- st:
		default:
			// drop stale state
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// ResultPath returns in-app result view path of order
func ResultPath(orderID string) string {
	return resultPathPrefix + orderID
}
