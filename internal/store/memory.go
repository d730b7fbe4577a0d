package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory implements UserStore and SubscriptionStore with mutex-guarded maps.
// Used by tests and local development; semantics match the Mongo
// implementation, including implicit month bucket creation.
type Memory struct {
	mu        sync.RWMutex
	users     map[int64]*UserAccount
	subs      map[string]*SubscriptionRecord
	freeLimit int
}

// NewMemory creates the in-memory store.
func NewMemory(freeLimit int) *Memory {
	return &Memory{
		users:     make(map[int64]*UserAccount),
		subs:      make(map[string]*SubscriptionRecord),
		freeLimit: freeLimit,
	}
}

func (m *Memory) EnsureUser(ctx context.Context, userID int64) (*UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	account, ok := m.users[userID]
	if !ok {
		account = &UserAccount{
			ID:          userID,
			CreatedAt:   now,
			Preferences: DefaultPreferences(),
			Premium:     FreePremium(m.freeLimit),
		}
		m.users[userID] = account
	}
	account.LastSeen = now

	return cloneAccount(account), nil
}

func (m *Memory) GetUser(ctx context.Context, userID int64) (*UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneAccount(account), nil
}

// cloneAccount deep-copies an account so callers never alias the store's
// monthly stats map.
func cloneAccount(account *UserAccount) *UserAccount {
	copied := *account
	if account.Stats.Monthly != nil {
		copied.Stats.Monthly = make(map[string]MonthlyUsage, len(account.Stats.Monthly))
		for month, bucket := range account.Stats.Monthly {
			copied.Stats.Monthly[month] = bucket
		}
	}
	return &copied
}

func (m *Memory) GetPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	account, err := m.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &account.Preferences, nil
}

func (m *Memory) UpdatePreferences(ctx context.Context, userID int64, prefs Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	account.Preferences = prefs
	return nil
}

func (m *Memory) GetPremium(ctx context.Context, userID int64) (*Premium, error) {
	account, err := m.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &account.Premium, nil
}

func (m *Memory) UpdatePremium(ctx context.Context, userID int64, premium Premium) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	account.Premium = premium
	return nil
}

func (m *Memory) GetMonthlyUsage(ctx context.Context, userID int64) (*MonthlyUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	usage := account.Stats.Monthly[CurrentMonthKey()]
	return &usage, nil
}

func (m *Memory) IncrementUsage(ctx context.Context, userID int64, isAudio bool, processingTime float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}

	if account.Stats.Monthly == nil {
		account.Stats.Monthly = make(map[string]MonthlyUsage)
	}
	month := CurrentMonthKey()
	bucket := account.Stats.Monthly[month]
	bucket.SummariesUsed++
	if isAudio {
		bucket.AudioSummaries++
	}
	if processingTime > 0 {
		bucket.TotalProcessingTime += processingTime
	}
	account.Stats.Monthly[month] = bucket
	account.Premium.SummariesUsed++
	return nil
}

func (m *Memory) StoreSubscription(ctx context.Context, rec SubscriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	copied := rec
	m.subs[rec.SubscriptionID] = &copied
	return nil
}

func (m *Memory) GetUserSubscription(ctx context.Context, userID int64) (*SubscriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *SubscriptionRecord
	for _, rec := range m.subs {
		if rec.UserID != userID {
			continue
		}
		if rec.Status != StatusActive && rec.Status != StatusTrialing {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, ErrSubscriptionNotFound
	}
	copied := *latest
	return &copied, nil
}

func (m *Memory) MarkCancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.subs[subscriptionID]
	if !ok {
		return ErrSubscriptionNotFound
	}
	now := time.Now().UTC()
	rec.CancelAtPeriodEnd = true
	rec.CanceledAt = &now
	return nil
}

func (m *Memory) ListSubscriptionHistory(ctx context.Context, userID int64) ([]SubscriptionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []SubscriptionRecord
	for _, rec := range m.subs {
		if rec.UserID == userID {
			records = append(records, *rec)
		}
	}
	slices.SortFunc(records, func(a, b SubscriptionRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return records, nil
}
