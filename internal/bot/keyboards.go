package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/internal/subscription"
)

// Callback data vocabulary. Segments are colon separated:
// "buy:<provider>:<tier>", "pref:<name>:<value>", "cancel:<decision>",
// "notif:<on|off>".
const (
	cbBuy    = "buy"
	cbPref   = "pref"
	cbCancel = "cancel"
	cbNotif  = "notif"
)

func premiumKeyboard(catalog *subscription.Catalog) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, tier := range []store.Tier{store.TierBased, store.TierPro} {
		plan, err := catalog.Plan(tier)
		if err != nil {
			continue
		}
		label := tierLabel(tier, plan.MonthlyLimit)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 "+label, cbBuy+":stripe:"+string(tier)),
			tgbotapi.NewInlineKeyboardButtonData("₿ "+label, cbBuy+":nowpayments:"+string(tier)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func settingsKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	length := map[string][3]string{
		"en": {"Short", "Medium", "Detailed"},
		"ru": {"Коротко", "Средне", "Подробно"},
	}
	labels, ok := length[lang]
	if !ok {
		labels = length["en"]
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labels[0], cbPref+":length:short"),
			tgbotapi.NewInlineKeyboardButtonData(labels[1], cbPref+":length:medium"),
			tgbotapi.NewInlineKeyboardButtonData(labels[2], cbPref+":length:detailed"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 EN", cbPref+":lang:en"),
			tgbotapi.NewInlineKeyboardButtonData("🇷🇺 RU", cbPref+":lang:ru"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔊 Audio on", cbPref+":audio:on"),
			tgbotapi.NewInlineKeyboardButtonData("🔇 Audio off", cbPref+":audio:off"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👩 Female", cbPref+":voice:female"),
			tgbotapi.NewInlineKeyboardButtonData("👨 Male", cbPref+":voice:male"),
		),
	)
}

func accountKeyboard(lang string, notificationsEnabled bool) tgbotapi.InlineKeyboardMarkup {
	toggle := map[string][2]string{
		"en": {"🔔 Enable notifications", "🔕 Disable notifications"},
		"ru": {"🔔 Включить уведомления", "🔕 Выключить уведомления"},
	}
	labels, ok := toggle[lang]
	if !ok {
		labels = toggle["en"]
	}
	label, data := labels[0], cbNotif+":on"
	if notificationsEnabled {
		label, data = labels[1], cbNotif+":off"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, data),
		),
	)
}

func cancelConfirmKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	confirm := map[string][2]string{
		"en": {"Yes, cancel", "Keep subscription"},
		"ru": {"Да, отменить", "Оставить подписку"},
	}
	labels, ok := confirm[lang]
	if !ok {
		labels = confirm["en"]
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labels[0], cbCancel+":confirm"),
			tgbotapi.NewInlineKeyboardButtonData(labels[1], cbCancel+":keep"),
		),
	)
}

func upgradeKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	label := map[string]string{
		"en": "⭐ See premium tiers",
		"ru": "⭐ Премиум-тарифы",
	}
	text, ok := label[lang]
	if !ok {
		text = label["en"]
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(text, "menu:premium"),
		),
	)
}
