package models

// Item represents a single line item on a session's receipt.
// The item set for a session is replaced wholesale on each receipt upload;
// items are never individually edited after parsing.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// SessionID is the session this item belongs to.
	SessionID string `json:"session_id"`

	// Name is the free-text item name as parsed from the receipt.
	Name string `json:"name"`

	// Quantity is the parsed quantity, defaulting to 1.
	Quantity float64 `json:"quantity"`

	// UnitPriceCents is the per-unit price in cents.
	UnitPriceCents int64 `json:"unit_price_cents"`

	// TotalCents is the line total in cents. It is converted from the
	// parsed decimal independently of UnitPriceCents, never derived from
	// it by multiplication after the fact.
	TotalCents int64 `json:"total_cents"`

	// TaxIncluded marks items whose printed price already includes tax.
	TaxIncluded bool `json:"tax_included"`

	// CreatedAt is the Unix timestamp when the item row was inserted.
	CreatedAt int64 `json:"created_at"`
}

// Participant represents a diner who joined a session.
//
// Identity is a client-held opaque id; the same display name can belong to
// many participant records across sessions, which the suggestion engine
// exploits as an approximate cross-session identity. The name is
// unauthenticated and therefore spoofable; it is only ever used for
// read-only suggestion hinting.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string `json:"id"`

	// SessionID is the session this participant belongs to.
	SessionID string `json:"session_id"`

	// Name is the optional display name.
	Name string `json:"name,omitempty"`

	// Paid is set when the participant's payment completes. It is a UX
	// nicety, not a money-relevant field.
	Paid bool `json:"paid"`

	// CreatedAt is the Unix timestamp when the participant joined,
	// used for stable ordering.
	CreatedAt int64 `json:"created_at"`
}

// Claim associates one item with one participant. At most one claim exists
// per (item, participant) pair; the toggle operation enforces this by
// construction together with a storage uniqueness constraint.
type Claim struct {
	// ID is the unique identifier for the claim (UUID format).
	ID string `json:"id"`

	// ItemID is the claimed item.
	ItemID string `json:"item_id"`

	// ParticipantID is the claiming participant.
	ParticipantID string `json:"participant_id"`

	// Share is a positive weight. An item claimed by several participants
	// is split proportionally to their shares, not necessarily equally.
	Share float64 `json:"share"`

	// CreatedAt is the Unix timestamp when the claim was made.
	CreatedAt int64 `json:"created_at"`
}

// ClaimHistoryEntry is a historical claim joined with its item name, used
// by the suggestion engine to score a participant's past orders.
type ClaimHistoryEntry struct {
	ItemName  string `json:"item_name"`
	CreatedAt int64  `json:"created_at"`
}
