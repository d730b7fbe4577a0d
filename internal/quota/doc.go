// Package quota gates summary generation against monthly tier limits.
//
// The engine reads the denormalized premium state and the current month's
// usage bucket, decides admission, and fires threshold notifications as the
// user approaches their limit. Store read failures deny the request rather
// than silently allowing unlimited usage.
//
// The check/record pair is deliberately not atomic across concurrent
// requests for one user; counter increments themselves are single atomic
// document writes, bounding any overshoot to the number of in-flight
// requests.
package quota
