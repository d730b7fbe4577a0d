package store

import "time"

// Tier names a subscription level. Stored as plain strings in the database.
type Tier string

const (
	TierFree  Tier = "free"
	TierBased Tier = "based"
	TierPro   Tier = "pro"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierBased, TierPro:
		return true
	}
	return false
}

// UnlimitedSummaries marks a summaries limit with no ceiling.
const UnlimitedSummaries = -1

// SummaryLength enumerates the summary detail levels a user can pick.
type SummaryLength string

const (
	SummaryShort    SummaryLength = "short"
	SummaryMedium   SummaryLength = "medium"
	SummaryDetailed SummaryLength = "detailed"
)

// Preferences holds user-facing settings. Created with defaults on first
// contact and mutated by settings actions only.
type Preferences struct {
	MenuLanguage         string        `bson:"menu_language"`
	SummaryLanguage      string        `bson:"summary_language"`
	SummaryLength        SummaryLength `bson:"summary_length"`
	AudioEnabled         bool          `bson:"audio_enabled"`
	VoiceGender          string        `bson:"voice_gender"`
	VoiceLanguage        string        `bson:"voice_language"`
	NotificationsEnabled bool          `bson:"notifications_enabled"`
}

// DefaultPreferences returns the settings a freshly created account gets.
func DefaultPreferences() Preferences {
	return Preferences{
		MenuLanguage:         "en",
		SummaryLanguage:      "en",
		SummaryLength:        SummaryMedium,
		AudioEnabled:         false,
		VoiceGender:          "female",
		VoiceLanguage:        "en",
		NotificationsEnabled: true,
	}
}

// Premium is the denormalized fast-path subscription state read on every
// admission decision. Mutated by the lifecycle manager on payment events and
// by usage recording (summaries_used increments).
type Premium struct {
	Tier              Tier       `bson:"tier"`
	Active            bool       `bson:"active"`
	ActivationDate    *time.Time `bson:"activation_date,omitempty"`
	ExpiryDate        *time.Time `bson:"expiry_date,omitempty"`
	SummariesLimit    int        `bson:"summaries_limit"`
	SummariesUsed     int        `bson:"summaries_used"`
	SubscriptionID    string     `bson:"subscription_id,omitempty"`
	Cancelled         bool       `bson:"cancelled"`
	CancelAtPeriodEnd bool       `bson:"cancel_at_period_end"`
	Renewable         bool       `bson:"renewable"`
}

// FreePremium returns the free-tier premium state with the configured
// monthly limit.
func FreePremium(freeLimit int) Premium {
	return Premium{
		Tier:           TierFree,
		Active:         true,
		SummariesLimit: freeLimit,
		Renewable:      true,
	}
}

// MonthlyUsage is one month's usage bucket. Buckets are append-only and
// created implicitly the first time a month is touched.
type MonthlyUsage struct {
	SummariesUsed       int     `bson:"summaries_used"`
	AudioSummaries      int     `bson:"audio_summaries"`
	TotalProcessingTime float64 `bson:"total_processing_time"`
}

// Stats holds per-month usage buckets keyed by "YYYY-MM".
type Stats struct {
	Monthly map[string]MonthlyUsage `bson:"monthly,omitempty"`
}

// UserAccount is one user's document, keyed by the numeric Telegram user id.
type UserAccount struct {
	ID          int64       `bson:"_id"`
	CreatedAt   time.Time   `bson:"created_at"`
	LastSeen    time.Time   `bson:"last_seen"`
	Preferences Preferences `bson:"preferences"`
	Premium     Premium     `bson:"premium"`
	Stats       Stats       `bson:"stats,omitempty"`
}

// SubscriptionStatus enumerates provider subscription states we track.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusEnded    SubscriptionStatus = "ended"
)

// Terminal reports whether the status ends the subscription.
func (s SubscriptionStatus) Terminal() bool {
	return s == StatusCanceled || s == StatusEnded
}

// SubscriptionRecord mirrors the provider's subscription object. One row per
// provider subscription id; rows are status-transitioned, never deleted, so
// accumulated rows form the user's subscription history.
type SubscriptionRecord struct {
	SubscriptionID     string             `bson:"_id"`
	UserID             int64              `bson:"user_id"`
	Provider           string             `bson:"provider"`
	Status             SubscriptionStatus `bson:"status"`
	Tier               Tier               `bson:"tier"`
	ProductID          string             `bson:"product_id,omitempty"`
	PriceID            string             `bson:"price_id,omitempty"`
	Interval           string             `bson:"interval,omitempty"`
	Amount             int64              `bson:"amount,omitempty"`
	Currency           string             `bson:"currency,omitempty"`
	CurrentPeriodStart *time.Time         `bson:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time         `bson:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool               `bson:"cancel_at_period_end"`
	CreatedAt          time.Time          `bson:"created_at"`
	CanceledAt         *time.Time         `bson:"canceled_at,omitempty"`
	EndedAt            *time.Time         `bson:"ended_at,omitempty"`
}

// MonthKey returns the usage bucket key for t in UTC, e.g. "2026-08".
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// CurrentMonthKey returns the bucket key for the current month.
func CurrentMonthKey() string {
	return MonthKey(time.Now())
}
