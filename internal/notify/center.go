// Package notify keeps the short queue of messages shown to the user.
package notify

import (
	"sync"
	"time"

	"github.com/rookgm/checkout/internal/logger"
	"github.com/rookgm/checkout/internal/models"
	"go.uber.org/zap"
)

const (
	defaultLimit = 5
	defaultTTL   = 3 * time.Second
)

type entry struct {
	msg       models.Notification
	expiresAt time.Time
}

// Center is bounded queue of user notifications. Messages expire after ttl,
// the oldest message is evicted when the queue is full.
type Center struct {
	mu      sync.Mutex
	entries []entry
	limit   int
	ttl     time.Duration
	now     func() time.Time
	nextID  uint64
	log     *zap.Logger
}

// Option configures Center
type Option func(*Center)

// WithLimit sets queue capacity
func WithLimit(n int) Option {
	return func(c *Center) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithTTL sets message lifetime
func WithTTL(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock sets clock
func WithClock(now func() time.Time) Option {
	return func(c *Center) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Center) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCenter creates new Center instance
func NewCenter(opts ...Option) *Center {
	c := &Center{
		limit: defaultLimit,
		ttl:   defaultTTL,
		now:   time.Now,
		log:   logger.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify adds message to the queue
func (c *Center) Notify(kind models.NotifyKind, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	now := c.now()
	c.expireLocked(now)
	c.entries = append(c.entries, entry{
		msg:       models.Notification{ID: c.nextID, Kind: kind, Text: text},
		expiresAt: now.Add(c.ttl),
	})
	if len(c.entries) > c.limit {
		c.entries = c.entries[len(c.entries)-c.limit:]
	}

	c.log.Info("user notification", zap.String("kind", string(kind)), zap.String("text", text))
}

// Error adds error message
func (c *Center) Error(text string) { c.Notify(models.NotifyError, text) }

// Warning adds warning message
func (c *Center) Warning(text string) { c.Notify(models.NotifyWarning, text) }

// Success adds success message
func (c *Center) Success(text string) { c.Notify(models.NotifySuccess, text) }

// Info adds info message
func (c *Center) Info(text string) { c.Notify(models.NotifyInfo, text) }

// Messages returns messages that are not expired, oldest first
func (c *Center) Messages() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked(c.now())
	msgs := make([]models.Notification, 0, len(c.entries))
	for _, e := range c.entries {
		msgs = append(msgs, e.msg)
	}
	return msgs
}

// Remove deletes message by id
func (c *Center) Remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.msg.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// Clear deletes all messages
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

func (c *Center) expireLocked(now time.Time) {
	kept := c.entries[:0]
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}
