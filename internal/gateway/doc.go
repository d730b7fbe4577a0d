// Package gateway terminates payment provider webhooks.
//
// Each route verifies the provider's signature against the raw request body
// before any JSON parsing: Stripe events through the official webhook
// construction helper, NOWPayments IPN callbacks through an HMAC-SHA512
// digest compared in constant time. Verified payloads are normalized into
// subscription.PaymentEvent values and dispatched to the lifecycle manager;
// a manager rejection maps to HTTP 400 so the provider retries.
//
// A per-IP fixed window rate limit wraps the webhook routes ahead of the
// signature work, keeping HMAC computation off the hot path for abusive
// traffic.
package gateway
