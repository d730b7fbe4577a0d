// Package clientip resolves the real client IP address behind proxies and
// CDNs. The webhook gateway uses it to key per-IP rate limits, so spoofable
// inputs are validated: every header value must parse as a real IP before it
// is trusted.
package clientip
