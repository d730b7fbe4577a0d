// Package qrcode wraps github.com/skip2/go-qrcode with input validation and
// sentinel errors. The bot sends generated PNGs as Telegram photos when a
// user picks crypto checkout.
package qrcode
