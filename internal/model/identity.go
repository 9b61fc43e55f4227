package model

// UserID names one of the two fixed roles a client can act as.
type UserID string

const (
	UserA UserID = "user_a"
	UserB UserID = "user_b"
)

// Users lists both identities in display order.
func Users() []UserID {
	return []UserID{UserA, UserB}
}

// Valid reports whether id is one of the two known identities.
func (id UserID) Valid() bool {
	return id == UserA || id == UserB
}

// Partner returns the other identity.
func (id UserID) Partner() UserID {
	if id == UserA {
		return UserB
	}
	return UserA
}
