package quota

import (
	"context"
	"errors"
	"log/slog"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/pkg/logger"
)

// LimitStatus is the result of an admission check.
type LimitStatus struct {
	Remaining       int
	TotalLimit      int
	SummariesUsed   int
	HasReachedLimit bool
	Tier            store.Tier
}

// Unlimited reports whether the user's tier has no summary ceiling.
func (s LimitStatus) Unlimited() bool {
	return s.TotalLimit == store.UnlimitedSummaries
}

// Notifier delivers quota-related user-facing messages. All calls are
// best-effort side effects; a failed send never blocks or reverses an
// admission decision.
type Notifier interface {
	// LimitReached tells the user they are out of summaries. For free-tier
	// users this doubles as the upgrade prompt.
	LimitReached(ctx context.Context, userID int64, status LimitStatus) error
	// LimitWarning fires when remaining usage drops to 30% of the limit.
	LimitWarning(ctx context.Context, userID int64, status LimitStatus) error
	// UsageNotice fires when remaining usage drops to 50% of the limit.
	UsageNotice(ctx context.Context, userID int64, status LimitStatus) error
}

// Engine decides whether a user may generate one more summary this month and
// keeps the usage counters consistent.
type Engine struct {
	store store.UserStore
	notif Notifier
	log   *slog.Logger
}

// NewEngine creates the quota engine. Panics on nil dependencies.
func NewEngine(userStore store.UserStore, notifier Notifier, log *slog.Logger) *Engine {
	if userStore == nil {
		panic("quota.NewEngine: nil user store")
	}
	if notifier == nil {
		panic("quota.NewEngine: nil notifier")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{store: userStore, notif: notifier, log: log}
}

// failClosed is the status returned when the store cannot be read. A storage
// error must never grant unlimited usage.
func failClosed() LimitStatus {
	return LimitStatus{
		Remaining:       0,
		TotalLimit:      0,
		HasReachedLimit: true,
		Tier:            store.TierFree,
	}
}

// CheckLimits reads the current month's usage against the user's cached tier
// limit. No side effects. Store read failures fail closed.
func (e *Engine) CheckLimits(ctx context.Context, userID int64) LimitStatus {
	account, err := e.store.GetUser(ctx, userID)
	if err != nil {
		e.log.ErrorContext(ctx, "limit check failed, denying",
			slog.Int64("user_id", userID), logger.Error(err))
		return failClosed()
	}

	limit := account.Premium.SummariesLimit
	used := account.Stats.Monthly[store.CurrentMonthKey()].SummariesUsed

	status := LimitStatus{
		TotalLimit:    limit,
		SummariesUsed: used,
		Tier:          account.Premium.Tier,
	}

	if limit == store.UnlimitedSummaries {
		status.Remaining = store.UnlimitedSummaries
		status.HasReachedLimit = false
		return status
	}

	status.HasReachedLimit = used >= limit
	status.Remaining = max(0, limit-used)
	return status
}

// AdmitOrNotify decides whether a new summary request may proceed. On denial
// the user gets a limit-reached notification and the caller must abort. On
// admission, threshold notifications may fire but never gate the action.
func (e *Engine) AdmitOrNotify(ctx context.Context, userID int64) bool {
	status := e.CheckLimits(ctx, userID)

	if status.HasReachedLimit {
		if err := e.notif.LimitReached(ctx, userID, status); err != nil {
			e.log.WarnContext(ctx, "limit reached notification failed",
				slog.Int64("user_id", userID), logger.Error(err))
		}
		return false
	}

	if !status.Unlimited() && status.TotalLimit > 0 {
		remaining := float64(status.Remaining)
		total := float64(status.TotalLimit)

		if remaining <= total*0.3 {
			if err := e.notif.LimitWarning(ctx, userID, status); err != nil {
				e.log.WarnContext(ctx, "limit warning notification failed",
					slog.Int64("user_id", userID), logger.Error(err))
			}
		}
		if remaining <= total*0.5 {
			if err := e.notif.UsageNotice(ctx, userID, status); err != nil {
				e.log.WarnContext(ctx, "usage notice notification failed",
					slog.Int64("user_id", userID), logger.Error(err))
			}
		}
	}

	return true
}

// RecordUsage persists one successful summary generation. Callers invoke it
// only after the downstream summarization succeeded; a failed generation must
// not consume quota.
func (e *Engine) RecordUsage(ctx context.Context, userID int64, isAudio bool, processingTime float64) error {
	if err := e.store.IncrementUsage(ctx, userID, isAudio, processingTime); err != nil {
		return errors.Join(ErrFailedToRecordUsage, err)
	}
	return nil
}
