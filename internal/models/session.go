package models

import "time"

// DefaultCurrency is display currency symbol
const DefaultCurrency = "₩"

// SessionConfig is ui-adjacent state kept next to the order
type SessionConfig struct {
	RemainingSeconds int64  `json:"timeDownSeconds"`
	Busy             bool   `json:"waitingLoading"`
	Currency         string `json:"currency"`
}

// DefaultSessionConfig returns config at session start
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{Currency: DefaultCurrency}
}

// NotifyKind is user notification level
type NotifyKind string

// notification kinds
const (
	NotifyError   NotifyKind = "error"
	NotifyWarning NotifyKind = "warning"
	NotifySuccess NotifyKind = "success"
	NotifyInfo    NotifyKind = "info"
)

// Notification is a message shown to the user
type Notification struct {
	ID   uint64     `json:"id"`
	Kind NotifyKind `json:"type"`
	Text string     `json:"msg"`
}

// Snapshot is order snapshot as it was last journalled
type Snapshot struct {
	OrderID   string    `json:"orderId"`
	Order     Order     `json:"order"`
	FetchedAt time.Time `json:"fetchedAt"`
}
