package bot

import "fmt"

// Message keys. The table carries English and Russian variants; the user's
// menu language picks the variant and unknown languages fall back to English.
const (
	msgWelcome          = "welcome"
	msgHelp             = "help"
	msgAccountInfo      = "account_info"
	msgPremiumInfo      = "premium_info"
	msgLimitReached     = "limit_reached"
	msgLimitWarningFree = "limit_warning_free"
	msgLimitWarningPaid = "limit_warning_paid"
	msgUsageNoticeFree  = "usage_notice_free"
	msgUsageNoticePaid  = "usage_notice_paid"
	msgPaymentSuccess   = "payment_success"
	msgPaymentFailed    = "payment_failed"
	msgCancelConfirm    = "cancel_confirm"
	msgCancelDone       = "cancel_done"
	msgCancelNone       = "cancel_none"
	msgCancelFailed     = "cancel_failed"
	msgRateLimited      = "rate_limited"
	msgProcessing       = "processing"
	msgSummaryFailed    = "summary_failed"
	msgNoTranscript     = "no_transcript"
	msgUnsupportedLink  = "unsupported_link"
	msgUnknownCommand   = "unknown_command"
	msgSettingsMenu     = "settings_menu"
	msgSettingSaved     = "setting_saved"
	msgCheckoutPrompt   = "checkout_prompt"
	msgCheckoutFailed   = "checkout_failed"
	msgUnlimited        = "unlimited"
)

var messages = map[string]map[string]string{
	"en": {
		msgWelcome: "👋 Welcome to Briefly! Send me a YouTube link and I'll summarize the video for you.\n\nUse /account to see your usage, /premium to upgrade, /settings to tune your summaries.",
		msgHelp: "Send a YouTube link to get a summary.\n\n" +
			"/account — your tier and monthly usage\n" +
			"/premium — upgrade options\n" +
			"/settings — summary length, language, audio\n" +
			"/cancel — cancel your subscription",
		msgAccountInfo:      "👤 *Account*\nTier: %s\nSummaries this month: %d / %s\nNotifications: %s",
		msgPremiumInfo:      "⭐ *Premium tiers*\n\nPick a tier and a payment method:",
		msgLimitReached:     "🚫 You've used all %d summaries for this month. Upgrade to keep going!",
		msgLimitWarningFree: "⚠️ Only %d free summaries left this month. Upgrade for more!",
		msgLimitWarningPaid: "⚠️ Only %d summaries left on your %s plan this month.",
		msgUsageNoticeFree:  "📊 You've used %d of %d free summaries this month.",
		msgUsageNoticePaid:  "📊 You've used %d of %d summaries this month.",
		msgPaymentSuccess:   "🎉 Payment confirmed! Your %s subscription is now active.",
		msgPaymentFailed:    "❌ Your payment has failed or expired. Please try again.",
		msgCancelConfirm:    "Are you sure you want to cancel? You'll keep premium features until the end of the paid period.",
		msgCancelDone:       "✅ Subscription cancelled. Premium features stay active until the period ends.",
		msgCancelNone:       "You don't have an active subscription.",
		msgCancelFailed:     "Something went wrong cancelling your subscription. Please try again later.",
		msgRateLimited:      "⏳ Please wait a minute between requests.",
		msgProcessing:       "⏳ Summarizing, this can take a moment...",
		msgSummaryFailed:    "😔 Couldn't summarize that video. Please try another one.",
		msgNoTranscript:     "😔 That video has no captions to summarize.",
		msgUnsupportedLink:  "Please send a YouTube link.",
		msgUnknownCommand:   "Unknown command. Try /help.",
		msgSettingsMenu:     "⚙️ *Settings*\nSummary length: %s\nSummary language: %s\nAudio summaries: %s\nVoice: %s",
		msgSettingSaved:     "✅ Saved.",
		msgCheckoutPrompt:   "Follow the link to complete your purchase:\n%s",
		msgCheckoutFailed:   "Couldn't create the payment link. Please try again later.",
		msgUnlimited:        "unlimited",
	},
	"ru": {
		msgWelcome: "👋 Добро пожаловать в Briefly! Пришлите ссылку на YouTube, и я сделаю краткий пересказ видео.\n\n/account — ваш аккаунт, /premium — подписка, /settings — настройки.",
		msgHelp: "Пришлите ссылку на YouTube, чтобы получить пересказ.\n\n" +
			"/account — тариф и использование\n" +
			"/premium — варианты подписки\n" +
			"/settings — длина, язык, аудио\n" +
			"/cancel — отменить подписку",
		msgAccountInfo:      "👤 *Аккаунт*\nТариф: %s\nПересказов в этом месяце: %d / %s\nУведомления: %s",
		msgPremiumInfo:      "⭐ *Премиум-тарифы*\n\nВыберите тариф и способ оплаты:",
		msgLimitReached:     "🚫 Вы использовали все %d пересказов в этом месяце. Оформите подписку, чтобы продолжить!",
		msgLimitWarningFree: "⚠️ Осталось всего %d бесплатных пересказов в этом месяце.",
		msgLimitWarningPaid: "⚠️ Осталось всего %d пересказов на тарифе %s в этом месяце.",
		msgUsageNoticeFree:  "📊 Использовано %d из %d бесплатных пересказов в этом месяце.",
		msgUsageNoticePaid:  "📊 Использовано %d из %d пересказов в этом месяце.",
		msgPaymentSuccess:   "🎉 Оплата подтверждена! Подписка %s активна.",
		msgPaymentFailed:    "❌ Платёж не прошёл или истёк. Попробуйте ещё раз.",
		msgCancelConfirm:    "Точно отменить? Премиум-функции сохранятся до конца оплаченного периода.",
		msgCancelDone:       "✅ Подписка отменена. Премиум-функции работают до конца периода.",
		msgCancelNone:       "У вас нет активной подписки.",
		msgCancelFailed:     "Не удалось отменить подписку. Попробуйте позже.",
		msgRateLimited:      "⏳ Подождите минуту между запросами.",
		msgProcessing:       "⏳ Готовлю пересказ, это займёт немного времени...",
		msgSummaryFailed:    "😔 Не получилось пересказать это видео. Попробуйте другое.",
		msgNoTranscript:     "😔 У этого видео нет субтитров для пересказа.",
		msgUnsupportedLink:  "Пришлите, пожалуйста, ссылку на YouTube.",
		msgUnknownCommand:   "Неизвестная команда. Попробуйте /help.",
		msgSettingsMenu:     "⚙️ *Настройки*\nДлина пересказа: %s\nЯзык пересказа: %s\nАудио: %s\nГолос: %s",
		msgSettingSaved:     "✅ Сохранено.",
		msgCheckoutPrompt:   "Перейдите по ссылке, чтобы завершить оплату:\n%s",
		msgCheckoutFailed:   "Не удалось создать ссылку на оплату. Попробуйте позже.",
		msgUnlimited:        "безлимит",
	},
}

// msg returns the localized message, formatted when args are given.
func msg(lang, key string, args ...any) string {
	table, ok := messages[lang]
	if !ok {
		table = messages["en"]
	}
	text, ok := table[key]
	if !ok {
		text = messages["en"][key]
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}
