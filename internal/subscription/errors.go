package subscription

import "errors"

var (
	ErrInvalidCatalog       = errors.New("invalid tier catalog")
	ErrFailedToLoadCatalog  = errors.New("failed to load tier catalog")
	ErrUnknownTier          = errors.New("unknown tier")
	ErrUnknownProduct       = errors.New("invalid product ID")
	ErrUnknownUser          = errors.New("user not resolvable from event metadata")
	ErrUnknownProvider      = errors.New("unknown payment provider")
	ErrUnknownEventType     = errors.New("unknown payment event type")
	ErrInvalidOrderID       = errors.New("invalid order ID")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrProviderCallFailed   = errors.New("payment provider call failed")
)
