// Package store persists user accounts and the subscription audit trail.
//
// Two collections: users (one document per Telegram user id, holding
// preferences, the denormalized premium state and monthly usage buckets) and
// subscriptions (one record per provider subscription id, upserted on every
// webhook, never deleted).
//
// The UserStore and SubscriptionStore interfaces have a production MongoDB
// implementation and an in-memory one with matching semantics for tests.
// Writes are per-document atomic merges; nothing here relies on
// multi-document transactions.
package store
