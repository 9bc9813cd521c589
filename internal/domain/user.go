package domain

import "time"

// User is an account known to the access gate.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
}

// Actor is the resolved identity behind a request.
type Actor struct {
	ID       int64
	Username string
	Email    string
	Role     UserRole
}

// ActorOf projects a user onto the identity carried through request contexts.
func ActorOf(u User) Actor {
	return Actor{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// SubscriptionPreference holds a user's notification opt-ins. A user without a
// stored preference is treated as opted out of everything.
type SubscriptionPreference struct {
	UserID          int64
	NotifyDocuments bool
	NotifyEvents    bool
	NotifyNews      bool
	UpdatedAt       time.Time
}

// DefaultSubscriptionPreference returns the all-false preference for a user.
func DefaultSubscriptionPreference(userID int64) SubscriptionPreference {
	return SubscriptionPreference{UserID: userID}
}

// Wants reports whether the preference opts in to notifications of kind k.
func (p SubscriptionPreference) Wants(k Kind) bool {
	switch k {
	case KindDocument:
		return p.NotifyDocuments
	case KindEvent:
		return p.NotifyEvents
	case KindNews:
		return p.NotifyNews
	}
	return false
}

// Subscriber is a notification recipient for a content kind.
type Subscriber struct {
	UserID int64  `db:"user_id"`
	Email  string `db:"email"`
}
