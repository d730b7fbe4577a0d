package store

import "context"

// UserStore is the persistence boundary for user documents. Implementations
// must provide per-document atomic merge writes; multi-document transactions
// are not assumed anywhere.
type UserStore interface {
	// EnsureUser returns the user's document, creating it with free-tier
	// defaults on first contact. Also bumps last_seen.
	EnsureUser(ctx context.Context, userID int64) (*UserAccount, error)

	// GetUser returns the user's document or ErrUserNotFound.
	GetUser(ctx context.Context, userID int64) (*UserAccount, error)

	// GetPreferences returns the user's settings.
	GetPreferences(ctx context.Context, userID int64) (*Preferences, error)

	// UpdatePreferences overwrites the user's settings.
	UpdatePreferences(ctx context.Context, userID int64, prefs Preferences) error

	// GetPremium returns the user's denormalized subscription state.
	GetPremium(ctx context.Context, userID int64) (*Premium, error)

	// UpdatePremium overwrites the user's premium state unconditionally.
	UpdatePremium(ctx context.Context, userID int64, premium Premium) error

	// GetMonthlyUsage returns the current month's bucket. A month that was
	// never touched reads as a zero bucket, not an error.
	GetMonthlyUsage(ctx context.Context, userID int64) (*MonthlyUsage, error)

	// IncrementUsage atomically bumps the current month's counters and
	// premium.summaries_used in a single per-document write. The month
	// bucket is created implicitly on first touch.
	IncrementUsage(ctx context.Context, userID int64, isAudio bool, processingTime float64) error
}

// SubscriptionStore is the persistence boundary for the subscription audit
// trail.
type SubscriptionStore interface {
	// StoreSubscription upserts a record by provider subscription id.
	StoreSubscription(ctx context.Context, rec SubscriptionRecord) error

	// GetUserSubscription returns the user's latest record with status in
	// {active, trialing}, or ErrSubscriptionNotFound.
	GetUserSubscription(ctx context.Context, userID int64) (*SubscriptionRecord, error)

	// MarkCancelAtPeriodEnd flags a record as ending at period close.
	MarkCancelAtPeriodEnd(ctx context.Context, subscriptionID string) error

	// ListSubscriptionHistory returns all of a user's records, newest first.
	ListSubscriptionHistory(ctx context.Context, userID int64) ([]SubscriptionRecord, error)
}
