// Package ledger converts parsed receipts into the integer-cents ledger the
// rest of the system works with. It is the single source of truth for
// money-unit conversion: every monetary field is converted independently with
// half-up rounding, never derived from another field by subtraction, so
// rounding drift cannot compound.
package ledger

import (
	"math"

	"github.com/splitsmart/splitsmart/internal/models"
)

// ToCents converts a decimal currency amount to integer cents with half-up
// rounding. Applied independently to every monetary field.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Normalize converts a parsed receipt into cents-denominated items and
// session totals. Missing numeric fields default to 0; a missing per-item
// total falls back to round(quantity * unitPrice * 100), independent of the
// subtotal-level rounding. The function is pure: the same input always
// produces identical output.
func Normalize(parsed models.ParsedReceipt) ([]models.Item, models.Totals) {
	items := make([]models.Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		total := it.Total
		if total == 0 {
			total = qty * it.UnitPrice
		}
		items = append(items, models.Item{
			Name:           it.Name,
			Quantity:       qty,
			UnitPriceCents: ToCents(it.UnitPrice),
			TotalCents:     ToCents(total),
			TaxIncluded:    it.TaxIncluded,
		})
	}

	totals := models.Totals{
		SubtotalCents: ToCents(parsed.Subtotal),
		TaxCents:      ToCents(parsed.Tax),
		TipCents:      ToCents(parsed.Tip),
		TotalCents:    ToCents(parsed.Total),
	}
	return items, totals
}
