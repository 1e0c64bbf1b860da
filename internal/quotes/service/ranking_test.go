package service

import (
	"testing"

	"offermarket_backend/internal/quotes/repository"

	"github.com/google/uuid"
)

func listing(name string, priceCents int64, sponsored bool, score *float64) repository.OfferListing {
	return repository.OfferListing{
		Offer: repository.Offer{
			ID:              uuid.New(),
			Status:          repository.OfferStatusPending,
			TotalPriceCents: priceCents,
			RankingScore:    score,
		},
		PartnerName: name,
		IsSponsored: sponsored,
	}
}

func scoreP(v float64) *float64 { return &v }

func names(offers []repository.OfferListing) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.PartnerName
	}
	return out
}

func TestSortOffersPriceAscending(t *testing.T) {
	offers := []repository.OfferListing{
		listing("mid", 50000, false, nil),
		listing("cheap", 20000, false, nil),
		listing("expensive", 90000, false, nil),
	}

	sorted := SortOffers(offers, SortModePrice)

	got := names(sorted)
	want := []string{"cheap", "mid", "expensive"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s (order %v)", i, got[i], want[i], got)
		}
	}
}

func TestSortOffersSponsoredFirstDespiteHigherPrice(t *testing.T) {
	offers := []repository.OfferListing{
		listing("cheap", 20000, false, nil),
		listing("sponsored", 90000, true, nil),
	}

	sorted := SortOffers(offers, SortModePrice)

	if !sorted[0].IsSponsored {
		t.Fatalf("expected sponsored offer first, got %s", sorted[0].PartnerName)
	}
	if sorted[1].PartnerName != "cheap" {
		t.Fatalf("expected cheap offer second, got %s", sorted[1].PartnerName)
	}
}

func TestSortOffersScoreDescending(t *testing.T) {
	offers := []repository.OfferListing{
		listing("low", 10000, false, scoreP(1.5)),
		listing("high", 30000, false, scoreP(9.0)),
		listing("unscored", 5000, false, nil),
	}

	sorted := SortOffers(offers, SortModeScore)

	got := names(sorted)
	want := []string{"high", "low", "unscored"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s (order %v)", i, got[i], want[i], got)
		}
	}
}

func TestSortOffersSponsoredGroupsKeepModeOrdering(t *testing.T) {
	offers := []repository.OfferListing{
		listing("plainExpensive", 80000, false, nil),
		listing("sponsoredExpensive", 70000, true, nil),
		listing("plainCheap", 10000, false, nil),
		listing("sponsoredCheap", 30000, true, nil),
	}

	sorted := SortOffers(offers, SortModePrice)

	got := names(sorted)
	want := []string{"sponsoredCheap", "sponsoredExpensive", "plainCheap", "plainExpensive"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s (order %v)", i, got[i], want[i], got)
		}
	}
}

func TestSortOffersUnknownModeFallsBackToPrice(t *testing.T) {
	offers := []repository.OfferListing{
		listing("b", 200, false, nil),
		listing("a", 100, false, nil),
	}

	sorted := SortOffers(offers, "whatever")

	if sorted[0].PartnerName != "a" {
		t.Fatalf("expected price fallback ordering, got %v", names(sorted))
	}
}

func TestSortOffersDoesNotMutateInput(t *testing.T) {
	offers := []repository.OfferListing{
		listing("b", 200, false, nil),
		listing("a", 100, false, nil),
	}

	SortOffers(offers, SortModePrice)

	if offers[0].PartnerName != "b" {
		t.Fatalf("input slice was reordered")
	}
}
