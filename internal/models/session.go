package models

// Session represents one shared receipt-splitting group.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string `json:"id"`

	// Code is the short human-entered join code. Unique, stored uppercase,
	// matched case-insensitively.
	Code string `json:"code"`

	// HostID references the host who created the session, if any.
	HostID string `json:"host_id,omitempty"`

	// Currency is the normalized ISO-4217 code for display ("USD" default).
	Currency string `json:"currency"`

	// Totals are the receipt-level amounts in cents. They are fully
	// replaced on every receipt upload, never merged.
	Totals Totals `json:"totals"`

	// CreatedAt is the Unix timestamp when the session was created.
	CreatedAt int64 `json:"created_at"`
}

// Totals holds the session-level receipt amounts in integer cents.
//
// subtotal + tax + tip == total is the intended relationship from parsing,
// but it is advisory: allocation math only divides by Subtotal, so minor
// upstream inconsistency is tolerated.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TipCents      int64 `json:"tip_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// Host is the person who uploaded the receipt and receives payment credits.
type Host struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	// CreatedAt is the Unix timestamp when the host record was created.
	CreatedAt int64 `json:"created_at"`
}

// HostLedgerEntry records a credit to a host's ledger. At most one entry
// exists per payment id, which is what makes repeated payment callbacks safe.
type HostLedgerEntry struct {
	ID          string `json:"id"`
	HostID      string `json:"host_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	PaymentID   string `json:"payment_id"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

// LedgerEntryHostCredit is the entry type written when a payment succeeds.
const LedgerEntryHostCredit = "host_credit"
