package chat

import (
	"fmt"
	"strings"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/pricing"
)

const rule = "━━━━━━━━━━━━━━━━\n"

// RenderOrderMessage builds the order message sent to the shop. The output depends
// only on the order, so the same snapshot always renders the same text.
func RenderOrderMessage(o domain.Order) string {
	var b strings.Builder

	b.WriteString("🛒 *PESANAN BARU — PESAN SAYUR*\n")
	b.WriteString(rule)
	fmt.Fprintf(&b, "📋 ID: *%s*\n", o.ID)
	fmt.Fprintf(&b, "📅 %s\n\n", pricing.FormatLongDay(o.CreatedAt.In(pricing.WIB)))

	b.WriteString("👤 *Data Penerima*\n")
	fmt.Fprintf(&b, "Nama: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "Telp: %s\n", o.Phone)
	fmt.Fprintf(&b, "Alamat: %s\n", o.Address)
	if o.MapLink != "" {
		fmt.Fprintf(&b, "📍 Lokasi: %s\n", o.MapLink)
	}
	b.WriteString("\n")

	b.WriteString("🧺 *Detail Pesanan*\n")
	b.WriteString(rule)
	for i, item := range o.Items {
		fmt.Fprintf(&b, "%d. %s", i+1, item.Name)
		if item.Variant != "" {
			fmt.Fprintf(&b, " (%s)", item.Variant)
		}
		b.WriteString("\n")

		price := item.FinalPrice()
		fmt.Fprintf(&b, "   %dx %s = %s\n", item.Quantity,
			pricing.FormatRupiah(price), pricing.FormatRupiah(price*int64(item.Quantity)))
		if item.Note != "" {
			fmt.Fprintf(&b, "   📝 %s\n", item.Note)
		}
	}
	b.WriteString(rule)

	b.WriteString("\n💰 *Ringkasan*\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", pricing.FormatRupiah(o.Subtotal))
	if o.Discount > 0 {
		b.WriteString("Diskon")
		if o.CouponCode != "" {
			fmt.Fprintf(&b, " (%s)", o.CouponCode)
		}
		fmt.Fprintf(&b, ": -%s\n", pricing.FormatRupiah(o.Discount))
	}
	if o.ShippingCost == 0 {
		b.WriteString("Ongkir: GRATIS 🎉\n")
	} else {
		fmt.Fprintf(&b, "Ongkir: %s\n", pricing.FormatRupiah(o.ShippingCost))
	}
	fmt.Fprintf(&b, "*TOTAL: %s*\n\n", pricing.FormatRupiah(o.Total))

	fmt.Fprintf(&b, "🚚 Jadwal: %s\n", o.Schedule)
	fmt.Fprintf(&b, "💳 Bayar: %s\n", o.PaymentMethod)

	if o.Note != "" {
		fmt.Fprintf(&b, "\n📝 Catatan: %s\n", o.Note)
	}

	b.WriteString("\n_Terima kasih sudah belanja di Pesan Sayur! 🥬_")
	return b.String()
}
