package chat

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// DefaultNumber is the shop's WhatsApp number used when the store has none.
const DefaultNumber = "6281219199323"

var ErrNoNumber = errors.New("chat: no whatsapp number")

// WhatsApp hands an order message off through a click-to-chat link. Nothing is
// sent from the server; the client opens the link.
type WhatsApp struct {
	Phone string
}

func NewWhatsApp(phone string) WhatsApp {
	if strings.TrimSpace(phone) == "" {
		phone = DefaultNumber
	}
	return WhatsApp{Phone: phone}
}

func (w WhatsApp) Handoff(_ context.Context, message string) (string, error) {
	number := NormalizeNumber(w.Phone)
	if number == "" {
		return "", ErrNoNumber
	}
	return Link(number, message), nil
}

// Link builds the wa.me URL for an already normalized number.
func Link(number, message string) string {
	return "https://wa.me/" + number + "?text=" + encodeComponent(message)
}

// NormalizeNumber keeps the digits of phone and swaps a leading 0 for the 62
// country code.
func NormalizeNumber(phone string) string {
	n := digits(phone)
	if strings.HasPrefix(n, "0") {
		n = "62" + n[1:]
	}
	return n
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QueryEscape writes spaces as '+', which chat clients show literally.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
