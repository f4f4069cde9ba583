package models

// Payment statuses. The allocation engine computes the amount that should be
// charged; the hosted provider owns the actual charge, and the callback
// transitions the status here.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Payment associates a participant with an owed amount and a provider status.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string `json:"id"`

	// SessionID and ParticipantID locate who is paying for what session.
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`

	// HostID is the host credited when this payment succeeds.
	HostID string `json:"host_id,omitempty"`

	// AmountCents is the owed amount computed at checkout time.
	AmountCents int64 `json:"amount_cents"`

	// Status is one of PaymentPending, PaymentPaid, PaymentFailed.
	Status string `json:"status"`

	// CreatedAt is the Unix timestamp when the checkout was initiated.
	CreatedAt int64 `json:"created_at"`
}

// ParsedReceipt is the structured output of the receipt parser, still in
// decimal currency units. The ledger package converts it to cents.
type ParsedReceipt struct {
	Items    []ParsedItem `json:"items"`
	Subtotal float64      `json:"subtotal"`
	Tax      float64      `json:"tax"`
	Tip      float64      `json:"tip"`
	Total    float64      `json:"total"`
	Currency string       `json:"currency,omitempty"`
}

// ParsedItem is one line item as extracted by the receipt parser.
type ParsedItem struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	TaxIncluded bool    `json:"tax_included,omitempty"`
}
