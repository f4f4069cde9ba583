// Package allocator computes how much each participant owes: their claimed
// item subtotal plus a proportional share of the session's tax and tip.
package allocator

import (
	"math"

	"github.com/splitsmart/splitsmart/internal/models"
)

// Share is the calculated amounts owed by one participant, in cents.
type Share struct {
	ItemsCents int64
	TaxCents   int64
	TipCents   int64
	TotalCents int64
}

// ComputeShare calculates participant P's owed amounts.
//
// Per item: gather all claims on the item; totalShares = sum of claim shares;
// if P claims it, P owes round(item_total * P.share / totalShares). Items with
// no claims, or a degenerate totalShares <= 0, contribute to nobody.
//
// Tax and tip are allocated proportionally against the session subtotal:
// tax = round(itemsCents / subtotal * sessionTax), same for tip. Using the
// session subtotal (not the claimed sum) as the base means the burden of
// unclaimed items falls only on claimants, relative to the full subtotal.
// A subtotal <= 0 yields zero tax and tip.
//
// The result is a pure function of its inputs: no clamping, no hidden state.
// Negative inputs flow through unclamped; display flooring happens at the
// formatting layer only.
func ComputeShare(participantID string, items []models.Item, claims []models.Claim, totals models.Totals) Share {
	byItem := make(map[string][]models.Claim, len(items))
	for _, c := range claims {
		byItem[c.ItemID] = append(byItem[c.ItemID], c)
	}

	var itemsCents int64
	for _, it := range items {
		cs := byItem[it.ID]
		if len(cs) == 0 {
			continue
		}
		var totalShares float64
		var mine *models.Claim
		for i, c := range cs {
			totalShares += c.Share
			if c.ParticipantID == participantID {
				mine = &cs[i]
			}
		}
		if mine == nil || totalShares <= 0 {
			continue
		}
		itemsCents += int64(math.Round(float64(it.TotalCents) * mine.Share / totalShares))
	}

	var taxCents, tipCents int64
	if totals.SubtotalCents > 0 && itemsCents != 0 {
		base := float64(itemsCents) / float64(totals.SubtotalCents)
		taxCents = int64(math.Round(base * float64(totals.TaxCents)))
		tipCents = int64(math.Round(base * float64(totals.TipCents)))
	}

	return Share{
		ItemsCents: itemsCents,
		TaxCents:   taxCents,
		TipCents:   tipCents,
		TotalCents: itemsCents + taxCents + tipCents,
	}
}

// ComputeAll calculates every participant's share in one pass. Participants
// with no claims get the zero Share.
func ComputeAll(participants []models.Participant, items []models.Item, claims []models.Claim, totals models.Totals) map[string]Share {
	out := make(map[string]Share, len(participants))
	for _, p := range participants {
		out[p.ID] = ComputeShare(p.ID, items, claims, totals)
	}
	return out
}
