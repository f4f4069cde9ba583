// Package models defines the core domain models for SplitSmart.
//
// # Model overview
//
//   - Session: one shared receipt-splitting group, joined by a short code
//   - Item: a line item parsed off the receipt, priced in integer cents
//   - Participant: a diner in a session, identified by an opaque id
//   - Claim: a participant's (partial) ownership of one item
//   - Payment: a checkout handed off to the hosted payment provider
//   - Host: the person who uploaded the receipt and collects payments
//
// # Design principles
//
//  1. **Integer money**: every monetary field is minor units (cents).
//     Conversion from decimal receipt values happens exactly once, in the
//     ledger package.
//  2. **No authentication**: a participant is a client-held opaque id plus
//     an optional display name. The name doubles as a soft cross-session
//     identity key for suggestions only, never for authorization.
//  3. **Avoid circular references**: relationships use id strings, not
//     pointers.
package models
