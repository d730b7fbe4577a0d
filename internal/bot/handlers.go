package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/internal/summarizer"
	"github.com/briefly-bot/briefly/pkg/logger"
)

// HandleUpdate routes one Telegram update. Errors are reported to the user
// and logged; the update loop never sees them.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil {
		return
	}

	account, err := b.users.EnsureUser(ctx, m.From.ID)
	if err != nil {
		b.log.ErrorContext(ctx, "ensure user failed",
			slog.Int64("user_id", m.From.ID), logger.Error(err))
		return
	}
	lang := account.Preferences.MenuLanguage

	if m.IsCommand() {
		b.handleCommand(ctx, m, account, lang)
		return
	}

	if summarizer.IsVideoLink(m.Text) {
		b.handleVideoLink(ctx, m, account, lang)
		return
	}

	b.reply(m.Chat.ID, msg(lang, msgUnsupportedLink))
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message, account *store.UserAccount, lang string) {
	switch m.Command() {
	case "start":
		b.reply(m.Chat.ID, msg(lang, msgWelcome))
	case "help":
		b.reply(m.Chat.ID, msg(lang, msgHelp))
	case "account":
		b.sendAccountInfo(ctx, m.Chat.ID, account, lang)
	case "premium":
		b.sendPremiumMenu(m.Chat.ID, lang)
	case "settings":
		b.sendSettingsMenu(m.Chat.ID, account.Preferences, lang)
	case "cancel":
		b.sendCancelConfirm(m.Chat.ID, lang)
	default:
		b.reply(m.Chat.ID, msg(lang, msgUnknownCommand))
	}
}

// handleVideoLink is the summary hot path: per-user spacing first, then
// quota admission, then the summarize call, and usage is recorded only after
// a summary was actually delivered.
func (b *Bot) handleVideoLink(ctx context.Context, m *tgbotapi.Message, account *store.UserAccount, lang string) {
	userID := m.From.ID

	res, err := b.spacing.Allow(ctx, "user:"+strconv.FormatInt(userID, 10))
	if err == nil && !res.Allowed {
		b.reply(m.Chat.ID, msg(lang, msgRateLimited))
		return
	}

	if !b.quota.AdmitOrNotify(ctx, userID) {
		return
	}

	b.reply(m.Chat.ID, msg(lang, msgProcessing))

	summary, err := b.summaries.Summarize(ctx, m.Text, account.Preferences)
	if err != nil {
		b.log.WarnContext(ctx, "summary failed",
			slog.Int64("user_id", userID), logger.Error(err))
		switch {
		case errors.Is(err, summarizer.ErrUnsupportedLink):
			b.reply(m.Chat.ID, msg(lang, msgUnsupportedLink))
		case errors.Is(err, summarizer.ErrNoTranscript):
			b.reply(m.Chat.ID, msg(lang, msgNoTranscript))
		default:
			b.reply(m.Chat.ID, msg(lang, msgSummaryFailed))
		}
		return
	}

	b.reply(m.Chat.ID, summary.Text)

	isAudio := false
	if b.audio != nil && account.Preferences.AudioEnabled {
		if audio, err := b.audio.Generate(ctx, summary.Text, account.Preferences); err != nil {
			b.log.WarnContext(ctx, "audio summary failed",
				slog.Int64("user_id", userID), logger.Error(err))
		} else {
			isAudio = true
			b.sendAudio(m.Chat.ID, audio.URL)
		}
	}

	if err := b.quota.RecordUsage(ctx, userID, isAudio, summary.ProcessingSeconds); err != nil {
		b.log.ErrorContext(ctx, "usage recording failed",
			slog.Int64("user_id", userID), logger.Error(err))
	}
}

func (b *Bot) sendAccountInfo(ctx context.Context, chatID int64, account *store.UserAccount, lang string) {
	status := b.quota.CheckLimits(ctx, account.ID)

	limit := strconv.Itoa(status.TotalLimit)
	if status.Unlimited() {
		limit = msg(lang, msgUnlimited)
	}
	notifications := "❌"
	if account.Preferences.NotificationsEnabled {
		notifications = "✅"
	}

	text := msg(lang, msgAccountInfo, string(status.Tier), status.SummariesUsed, limit, notifications)
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyMarkup = accountKeyboard(lang, account.Preferences.NotificationsEnabled)
	b.send(out)
}

func (b *Bot) sendPremiumMenu(chatID int64, lang string) {
	out := tgbotapi.NewMessage(chatID, msg(lang, msgPremiumInfo))
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyMarkup = premiumKeyboard(b.catalog)
	b.send(out)
}

func (b *Bot) sendSettingsMenu(chatID int64, prefs store.Preferences, lang string) {
	audio := "❌"
	if prefs.AudioEnabled {
		audio = "✅"
	}
	voice := prefs.VoiceLanguage + " / " + prefs.VoiceGender
	text := msg(lang, msgSettingsMenu,
		string(prefs.SummaryLength), prefs.SummaryLanguage, audio, voice)

	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyMarkup = settingsKeyboard(lang)
	b.send(out)
}

func (b *Bot) sendCancelConfirm(chatID int64, lang string) {
	out := tgbotapi.NewMessage(chatID, msg(lang, msgCancelConfirm))
	out.ReplyMarkup = cancelConfirmKeyboard(lang)
	b.send(out)
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendAudio(chatID int64, url string) {
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FileURL(url))
	b.send(audio)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("telegram send failed", logger.Error(err))
	}
}

// tierLabel renders a tier with its monthly allowance for keyboards.
func tierLabel(tier store.Tier, limit int) string {
	if limit == store.UnlimitedSummaries {
		return fmt.Sprintf("%s (∞)", tier)
	}
	return fmt.Sprintf("%s (%d/mo)", tier, limit)
}

func splitCallback(data string) []string {
	return strings.Split(data, ":")
}
