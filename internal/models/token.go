package models

import "time"

// TokenPayload is session token content
type TokenPayload struct {
	OrderID   string
	ExpiresAt time.Time
}
