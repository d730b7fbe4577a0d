// Package subscription manages the premium subscription lifecycle for
// Briefly users.
//
// The package normalizes provider-specific payment notifications into a
// single PaymentEvent shape and drives every tier transition through the
// Manager state machine: free, active(tier), cancel-pending(tier) and back
// to free. Providers (Stripe for card subscriptions, NOWPayments for crypto
// invoices) implement the PaymentProvider interface for checkout creation
// and cancellation; webhook verification lives in the gateway layer.
//
// Tier definitions come from a YAML catalog (Catalog) mapping tiers to
// monthly summary limits and provider price identifiers. The catalog is
// the source of truth for limits: activation always writes the catalog
// limit for the purchased tier, never a limit carried by the event.
//
// # Key Behaviors
//
//   - Activation is idempotent. Replaying an event for an already active
//     subscription id leaves the user's state unchanged, including the
//     usage counter and activation date.
//   - Cancellation calls the provider first and mutates local state only
//     after the provider confirms, so the two can never diverge.
//   - A cancelled subscription keeps its tier and limit until the
//     provider's terminal event arrives, then premium falls back to the
//     free defaults.
package subscription
