package service

import (
	"sort"

	"offermarket_backend/internal/quotes/repository"
)

// Sort modes for offer listings.
const (
	// SortModePrice orders by ascending total price. This is the canonical
	// customer-facing order.
	SortModePrice = "price"
	// SortModeScore orders by descending ranking score. Offers without a
	// score sort after scored ones.
	SortModeScore = "score"
)

// SortOffers orders a quote's offers for display. Sponsored partners always
// rank first regardless of mode; within the sponsored and unsponsored groups
// the mode decides. The sort is stable so equal offers keep submission order.
func SortOffers(offers []repository.OfferListing, mode string) []repository.OfferListing {
	sorted := make([]repository.OfferListing, len(offers))
	copy(sorted, offers)

	less := byPrice
	if mode == SortModeScore {
		less = byScore
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsSponsored != sorted[j].IsSponsored {
			return sorted[i].IsSponsored
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}

func byPrice(a, b repository.OfferListing) bool {
	return a.TotalPriceCents < b.TotalPriceCents
}

func byScore(a, b repository.OfferListing) bool {
	return scoreOf(a) > scoreOf(b)
}

func scoreOf(o repository.OfferListing) float64 {
	if o.RankingScore == nil {
		return 0
	}
	return *o.RankingScore
}
