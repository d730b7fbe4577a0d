// Package bot is the Telegram front end of Briefly.
//
// The bot consumes the long-poll update stream and routes commands
// (/start, /account, /premium, /settings, /cancel), preference callbacks
// and pasted YouTube links. The link path runs the full admission pipeline:
// a per-user spacing limit, the quota engine's AdmitOrNotify, the
// summarizer, optional audio rendition, and finally usage recording for
// delivered summaries only.
//
// The Bot type also implements the quota and payment Notifier interfaces,
// closing the loop between backend decisions (admission denials, threshold
// warnings, webhook payment outcomes) and user-visible chat messages.
// Messages come from a small en/ru table keyed by the user's menu language.
package bot
