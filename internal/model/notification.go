package model

import "time"

// Notification is an alert addressed to one identity.
type Notification struct {
	ID        string
	ForUserID UserID
	Message   string
	Timestamp time.Time
	Read      bool
}
