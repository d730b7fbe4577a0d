package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/briefly-bot/briefly/internal/quota"
	"github.com/briefly-bot/briefly/internal/store"
)

// The bot is the Notifier for both the quota engine and the subscription
// manager: every admission denial, threshold warning and payment outcome
// becomes a chat message. Telegram user id and private chat id coincide.

// LimitReached tells the user the monthly allowance is exhausted and offers
// the upgrade menu. Always sent, the notifications toggle does not silence
// denials.
func (b *Bot) LimitReached(ctx context.Context, userID int64, status quota.LimitStatus) error {
	lang := b.userLang(ctx, userID)
	out := tgbotapi.NewMessage(userID, msg(lang, msgLimitReached, status.TotalLimit))
	out.ReplyMarkup = upgradeKeyboard(lang)
	_, err := b.api.Send(out)
	return err
}

// LimitWarning fires when remaining drops to 30% of the allowance.
func (b *Bot) LimitWarning(ctx context.Context, userID int64, status quota.LimitStatus) error {
	prefs, lang := b.userPrefs(ctx, userID)
	if prefs != nil && !prefs.NotificationsEnabled {
		return nil
	}

	var out tgbotapi.MessageConfig
	if status.Tier == store.TierFree {
		out = tgbotapi.NewMessage(userID, msg(lang, msgLimitWarningFree, status.Remaining))
		out.ReplyMarkup = upgradeKeyboard(lang)
	} else {
		out = tgbotapi.NewMessage(userID, msg(lang, msgLimitWarningPaid, status.Remaining, string(status.Tier)))
	}
	_, err := b.api.Send(out)
	return err
}

// UsageNotice fires when remaining drops to 50% of the allowance.
func (b *Bot) UsageNotice(ctx context.Context, userID int64, status quota.LimitStatus) error {
	prefs, lang := b.userPrefs(ctx, userID)
	if prefs != nil && !prefs.NotificationsEnabled {
		return nil
	}

	var out tgbotapi.MessageConfig
	if status.Tier == store.TierFree {
		out = tgbotapi.NewMessage(userID, msg(lang, msgUsageNoticeFree, status.SummariesUsed, status.TotalLimit))
		out.ReplyMarkup = upgradeKeyboard(lang)
	} else {
		out = tgbotapi.NewMessage(userID, msg(lang, msgUsageNoticePaid, status.SummariesUsed, status.TotalLimit))
	}
	_, err := b.api.Send(out)
	return err
}

// PaymentSuccess confirms an activated purchase in the originating chat.
func (b *Bot) PaymentSuccess(ctx context.Context, userID, chatID int64, tier store.Tier) error {
	lang := b.userLang(ctx, userID)
	if chatID == 0 {
		chatID = userID
	}
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, msg(lang, msgPaymentSuccess, string(tier))))
	return err
}

// PaymentFailed reports a failed or expired crypto payment.
func (b *Bot) PaymentFailed(ctx context.Context, userID int64, _ string) error {
	lang := b.userLang(ctx, userID)
	_, err := b.api.Send(tgbotapi.NewMessage(userID, msg(lang, msgPaymentFailed)))
	return err
}

func (b *Bot) userPrefs(ctx context.Context, userID int64) (*store.Preferences, string) {
	prefs, err := b.users.GetPreferences(ctx, userID)
	if err != nil {
		return nil, "en"
	}
	return prefs, prefs.MenuLanguage
}

func (b *Bot) userLang(ctx context.Context, userID int64) string {
	_, lang := b.userPrefs(ctx, userID)
	return lang
}
