package bot

import (
	"context"
	"errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/internal/subscription"
	"github.com/briefly-bot/briefly/pkg/logger"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Telegram shows a spinner until the callback is acknowledged.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack failed", logger.Error(err))
	}
	if cb.From == nil || cb.Message == nil {
		return
	}

	account, err := b.users.EnsureUser(ctx, cb.From.ID)
	if err != nil {
		b.log.ErrorContext(ctx, "ensure user failed",
			slog.Int64("user_id", cb.From.ID), logger.Error(err))
		return
	}
	lang := account.Preferences.MenuLanguage
	chatID := cb.Message.Chat.ID

	parts := splitCallback(cb.Data)
	switch parts[0] {
	case cbBuy:
		if len(parts) == 3 {
			b.handleBuy(ctx, cb.From.ID, chatID, parts[1], store.Tier(parts[2]), lang)
		}
	case cbPref:
		if len(parts) == 3 {
			b.handlePreference(ctx, cb.From.ID, chatID, account, parts[1], parts[2], lang)
		}
	case cbCancel:
		if len(parts) == 2 {
			b.handleCancelDecision(ctx, cb.From.ID, chatID, parts[1], lang)
		}
	case cbNotif:
		if len(parts) == 2 {
			b.handleNotificationsToggle(ctx, cb.From.ID, chatID, account, parts[1] == "on", lang)
		}
	case "menu":
		if len(parts) == 2 && parts[1] == "premium" {
			b.sendPremiumMenu(chatID, lang)
		}
	}
}

func (b *Bot) handleBuy(ctx context.Context, userID, chatID int64, provider string, tier store.Tier, lang string) {
	checkout, err := b.subs.CreateCheckout(ctx, userID, chatID, tier, provider)
	if err != nil {
		b.log.ErrorContext(ctx, "checkout creation failed",
			slog.Int64("user_id", userID),
			slog.String("provider", provider),
			slog.String("tier", string(tier)),
			logger.Error(err))
		b.reply(chatID, msg(lang, msgCheckoutFailed))
		return
	}

	b.reply(chatID, msg(lang, msgCheckoutPrompt, checkout.URL))

	if len(checkout.QRCode) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
			Name:  "checkout.png",
			Bytes: checkout.QRCode,
		})
		b.send(photo)
	}
}

func (b *Bot) handlePreference(ctx context.Context, userID, chatID int64, account *store.UserAccount, name, value, lang string) {
	prefs := account.Preferences

	switch name {
	case "length":
		length := store.SummaryLength(value)
		switch length {
		case store.SummaryShort, store.SummaryMedium, store.SummaryDetailed:
			prefs.SummaryLength = length
		default:
			return
		}
	case "lang":
		if value != "en" && value != "ru" {
			return
		}
		prefs.SummaryLanguage = value
		prefs.MenuLanguage = value
		lang = value
	case "audio":
		prefs.AudioEnabled = value == "on"
	case "voice":
		if value != "female" && value != "male" {
			return
		}
		prefs.VoiceGender = value
	default:
		return
	}

	if err := b.users.UpdatePreferences(ctx, userID, prefs); err != nil {
		b.log.ErrorContext(ctx, "preference update failed",
			slog.Int64("user_id", userID), logger.Error(err))
		return
	}
	b.reply(chatID, msg(lang, msgSettingSaved))
}

func (b *Bot) handleCancelDecision(ctx context.Context, userID, chatID int64, decision, lang string) {
	if decision != "confirm" {
		return
	}

	err := b.subs.Cancel(ctx, userID, true)
	switch {
	case err == nil:
		b.reply(chatID, msg(lang, msgCancelDone))
	case errors.Is(err, subscription.ErrNoActiveSubscription):
		b.reply(chatID, msg(lang, msgCancelNone))
	default:
		b.log.ErrorContext(ctx, "cancellation failed",
			slog.Int64("user_id", userID), logger.Error(err))
		b.reply(chatID, msg(lang, msgCancelFailed))
	}
}

func (b *Bot) handleNotificationsToggle(ctx context.Context, userID, chatID int64, account *store.UserAccount, enabled bool, lang string) {
	prefs := account.Preferences
	prefs.NotificationsEnabled = enabled

	if err := b.users.UpdatePreferences(ctx, userID, prefs); err != nil {
		b.log.ErrorContext(ctx, "preference update failed",
			slog.Int64("user_id", userID), logger.Error(err))
		return
	}

	account.Preferences = prefs
	b.sendAccountInfo(ctx, chatID, account, lang)
}
