package ledger

import (
	"testing"

	"github.com/splitsmart/splitsmart/internal/models"
)

func TestToCents(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{9.99, 999},
		{19.26, 1926},
		{0.005, 1},  // half rounds up
		{0.004, 0},
		{1.005, 100}, // 1.005 is actually 1.00499... in float64
		{2.675, 267}, // likewise 267.4999... after scaling
		{-1.5, -150},
	}
	for _, c := range cases {
		if got := ToCents(c.in); got != c.want {
			t.Errorf("ToCents(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	parsed := models.ParsedReceipt{
		Items: []models.ParsedItem{
			{Name: "Burger", Quantity: 1, UnitPrice: 9.99, Total: 9.99},
			{Name: "Fries", Quantity: 1, UnitPrice: 3.49, Total: 3.49},
			{Name: "Soda", Quantity: 1, UnitPrice: 2.50, Total: 2.50},
		},
		Subtotal: 15.98,
		Tax:      1.28,
		Tip:      2.00,
		Total:    19.26,
	}

	items, totals := Normalize(parsed)

	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	wantTotals := models.Totals{SubtotalCents: 1598, TaxCents: 128, TipCents: 200, TotalCents: 1926}
	if totals != wantTotals {
		t.Errorf("totals = %+v, want %+v", totals, wantTotals)
	}
	if items[0].TotalCents != 999 || items[1].TotalCents != 349 || items[2].TotalCents != 250 {
		t.Errorf("item cents = %d/%d/%d, want 999/349/250",
			items[0].TotalCents, items[1].TotalCents, items[2].TotalCents)
	}

	// Same input, identical output.
	again, againTotals := Normalize(parsed)
	if againTotals != totals {
		t.Error("repeated normalization changed totals")
	}
	for i := range items {
		if again[i] != items[i] {
			t.Errorf("repeated normalization changed item %d", i)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Run("missing quantity defaults to one", func(t *testing.T) {
		items, _ := Normalize(models.ParsedReceipt{
			Items: []models.ParsedItem{{Name: "Tea", UnitPrice: 2.00, Total: 2.00}},
		})
		if items[0].Quantity != 1 {
			t.Errorf("Quantity = %v, want 1", items[0].Quantity)
		}
	})

	t.Run("missing total falls back to quantity times unit price", func(t *testing.T) {
		items, _ := Normalize(models.ParsedReceipt{
			Items: []models.ParsedItem{{Name: "Wings", Quantity: 3, UnitPrice: 4.25}},
		})
		if items[0].TotalCents != 1275 {
			t.Errorf("TotalCents = %d, want 1275", items[0].TotalCents)
		}
	})

	t.Run("empty receipt yields zero totals", func(t *testing.T) {
		items, totals := Normalize(models.ParsedReceipt{})
		if len(items) != 0 {
			t.Errorf("got %d items, want 0", len(items))
		}
		if totals != (models.Totals{}) {
			t.Errorf("totals = %+v, want zero", totals)
		}
	})
}

func TestNormalizeCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"$", "USD"},
		{"€", "EUR"},
		{"£", "GBP"},
		{"EUR", "EUR"},
		{"eur", "EUR"},
		{" GBP ", "GBP"},
		{"", "USD"},
		{"??", "USD"},
		{"DOLLARS", "USD"},
	}
	for _, c := range cases {
		if got := NormalizeCurrency(c.in); got != c.want {
			t.Errorf("NormalizeCurrency(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatCents(t *testing.T) {
	if got := FormatCents(1926, "USD"); got != "$19.26" {
		t.Errorf("FormatCents = %q, want $19.26", got)
	}
	if got := FormatCents(-50, "USD"); got != "$0.00" {
		t.Errorf("negative amounts floor at zero for display, got %q", got)
	}
	if got := FormatCents(150, "EUR"); got != "€1.50" {
		t.Errorf("FormatCents = %q, want €1.50", got)
	}
}
