package tiers

import "time"

// ActivePrice resolves the unit price in effect at the given instant.
// A window matches when now is within [ValidFrom, ValidUntil). When
// several windows match, the one with the highest Position (most
// recently defined) wins. With no matching window, the base price
// applies.
func (t *TicketTier) ActivePrice(now time.Time) int64 {
	price := t.PriceMinor
	bestPosition := -1

	for i := range t.PriceWindows {
		w := &t.PriceWindows[i]
		if now.Before(w.ValidFrom) || !now.Before(w.ValidUntil) {
			continue
		}
		if w.Position > bestPosition {
			bestPosition = w.Position
			price = w.PriceMinor
		}
	}

	return price
}
