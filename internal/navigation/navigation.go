// Package navigation moves the user between checkout views and out to the merchant.
package navigation

import (
	"strings"
	"sync"

	"github.com/rookgm/checkout/internal/logger"
	"go.uber.org/zap"
)

// DefaultConfirmText is asked before leaving the page outside production
const DefaultConfirmText = "Test environment detected, the page is about to navigate. Continue?"

// Browser navigates a hash routed checkout page
type Browser struct {
	// Origin is page origin, e.g. https://pay.example.com
	Origin string
	// Production skips confirmation
	Production bool
	// Confirm asks the user, navigation is cancelled when it returns false
	Confirm func(text string) bool
	// Go performs location change
	Go func(url string)
}

// NavigateTo opens in-app path
func (b *Browser) NavigateTo(path string) {
	target := strings.TrimRight(b.Origin, "/") + "#" + path
	if !b.Production && b.Confirm != nil && !b.Confirm(DefaultConfirmText) {
		logger.Log.Debug("navigation cancelled", zap.String("url", target))
		return
	}
	b.Redirect(target)
}

// Redirect changes location to url
func (b *Browser) Redirect(url string) {
	if b.Go == nil {
		return
	}
	b.Go(url)
}

// Recorder keeps navigation history
type Recorder struct {
	mu      sync.Mutex
	history []string
	next    func(url string)
}

// NewRecorder creates Recorder, next is called after every recorded url when not nil
func NewRecorder(next func(url string)) *Recorder {
	return &Recorder{next: next}
}

// Go records url
func (r *Recorder) Go(url string) {
	r.mu.Lock()
	r.history = append(r.history, url)
	next := r.next
	r.mu.Unlock()

	logger.Log.Info("navigate", zap.String("url", url))
	if next != nil {
		next(url)
	}
}

// Last returns last recorded url
func (r *Recorder) Last() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return "", false
	}
	return r.history[len(r.history)-1], true
}

// History returns all recorded urls
func (r *Recorder) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}
