package store

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrFailedToReadUser     = errors.New("failed to read user document")
	ErrFailedToWriteUser    = errors.New("failed to write user document")
	ErrFailedToReadSubs     = errors.New("failed to read subscription records")
	ErrFailedToWriteSubs    = errors.New("failed to write subscription record")
)
