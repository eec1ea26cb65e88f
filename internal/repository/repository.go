package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"rental-auction/internal/auctionerrors"
	model "rental-auction/internal/models"
)

// AuctionStore defines persistence for auction lifecycle records.
type AuctionStore interface {
	CreateAuction(a model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	SaveAuction(a model.Auction) error
	ListAuctionsByStatus(status model.AuctionStatus) ([]model.Auction, error)
	ListAuctionsByOwner(ownerID string) ([]model.Auction, error)
}

// BidLedger defines the append-only bid history for auctions. Bids are
// never edited or deleted; the ledger is the audit trail.
type BidLedger interface {
	// AppendBids appends all given bids or none of them. A triggering bid
	// and its proxy cascade go through a single call so a mid-cascade
	// failure cannot leave a half-applied highest bid.
	AppendBids(bids ...model.Bid) error
	BidsByAuction(auctionID string) ([]model.Bid, error)
	// HighestBid returns the maximum-amount bid, earlier timestamp winning
	// ties. Returns ErrNoBids for an empty ledger.
	HighestBid(auctionID string) (model.Bid, error)
	// LatestBidByBidder returns the bidder's most recent bid on the
	// auction, or ErrNoBids.
	LatestBidByBidder(auctionID, bidderID string) (model.Bid, error)
	DistinctBidderCount(auctionID string) (int, error)
	AuctionIDsByBidder(bidderID string) ([]string, error)
}

// RentalStore defines persistence for auction-settled rentals. It is the
// contract with the external rentals subsystem; the auction core only
// touches auction-specific fields.
type RentalStore interface {
	CreateRental(r model.Rental) error
	GetRental(rentalID string) (model.Rental, error)
	SaveRental(r model.Rental) error
	// ListOverdueUnpaid returns auction rentals whose payment deadline has
	// passed without confirmation and without an issued fine.
	ListOverdueUnpaid(now time.Time) ([]model.Rental, error)
	// ListUnpaidFines returns auction rentals with a fine issued before the
	// cutoff that is still unpaid.
	ListUnpaidFines(cutoff time.Time) ([]model.Rental, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of
// AuctionStore, BidLedger and RentalStore.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction
	bids     map[string][]model.Bid // key: auctionID -> append-ordered ledger
	rentals  map[string]model.Rental
}

// NewMemoryStore creates a new in-memory store instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
		rentals:  make(map[string]model.Rental),
	}
}

// CreateAuction records a new auction.
func (s *MemoryStore) CreateAuction(a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.AuctionID]; ok {
		return fmt.Errorf("create auction %s: auction already exists", a.AuctionID)
	}
	s.auctions[a.AuctionID] = a
	return nil
}

// GetAuction returns an auction by id.
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// SaveAuction overwrites an existing auction record.
func (s *MemoryStore) SaveAuction(a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.AuctionID]; !ok {
		return fmt.Errorf("save auction %s: %w", a.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	s.auctions[a.AuctionID] = a
	return nil
}

// ListAuctionsByStatus returns all auctions currently in the given state.
func (s *MemoryStore) ListAuctionsByStatus(status model.AuctionStatus) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Auction
	for _, a := range s.auctions {
		if a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListAuctionsByOwner returns all auctions created by the given owner.
func (s *MemoryStore) ListAuctionsByOwner(ownerID string) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Auction
	for _, a := range s.auctions {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AppendBids appends all given bids to their auction ledgers, or none.
func (s *MemoryStore) AppendBids(bids ...model.Bid) error {
	if len(bids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range bids {
		if b.AuctionID == "" || b.BidderID == "" {
			return fmt.Errorf("append bid %s: missing auction or bidder id", b.BidID)
		}
		if _, ok := s.auctions[b.AuctionID]; !ok {
			return fmt.Errorf("append bid for auction %s: %w", b.AuctionID, auctionerrors.ErrAuctionNotFound)
		}
	}
	for _, b := range bids {
		s.bids[b.AuctionID] = append(s.bids[b.AuctionID], b)
	}
	return nil
}

// BidsByAuction returns the auction's ledger ordered by timestamp.
func (s *MemoryStore) BidsByAuction(auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger := s.bids[auctionID]
	out := append([]model.Bid(nil), ledger...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// HighestBid returns the winning bid for an auction.
func (s *MemoryStore) HighestBid(auctionID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger := s.bids[auctionID]
	if len(ledger) == 0 {
		return model.Bid{}, fmt.Errorf("highest bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}

	winning := ledger[0]
	for _, b := range ledger[1:] {
		if b.Amount > winning.Amount || (b.Amount == winning.Amount && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, nil
}

// LatestBidByBidder returns the bidder's most recent bid on the auction.
func (s *MemoryStore) LatestBidByBidder(auctionID, bidderID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest model.Bid
	found := false
	for _, b := range s.bids[auctionID] {
		if b.BidderID != bidderID {
			continue
		}
		if !found || !b.CreatedAt.Before(latest.CreatedAt) {
			latest = b
			found = true
		}
	}
	if !found {
		return model.Bid{}, fmt.Errorf("latest bid by %s on auction %s: %w", bidderID, auctionID, auctionerrors.ErrNoBids)
	}
	return latest, nil
}

// DistinctBidderCount returns the number of distinct bidders in the ledger.
func (s *MemoryStore) DistinctBidderCount(auctionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, b := range s.bids[auctionID] {
		seen[b.BidderID] = struct{}{}
	}
	return len(seen), nil
}

// AuctionIDsByBidder returns the ids of auctions the bidder has bid on.
func (s *MemoryStore) AuctionIDsByBidder(bidderID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	seen := make(map[string]struct{})
	for auctionID, ledger := range s.bids {
		for _, b := range ledger {
			if b.BidderID == bidderID {
				if _, dup := seen[auctionID]; !dup {
					seen[auctionID] = struct{}{}
					out = append(out, auctionID)
				}
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// CreateRental records a new rental.
func (s *MemoryStore) CreateRental(r model.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rentals[r.RentalID]; ok {
		return fmt.Errorf("create rental %s: rental already exists", r.RentalID)
	}
	s.rentals[r.RentalID] = r
	return nil
}

// GetRental returns a rental by id.
func (s *MemoryStore) GetRental(rentalID string) (model.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rentals[rentalID]
	if !ok {
		return model.Rental{}, fmt.Errorf("get rental %s: %w", rentalID, auctionerrors.ErrRentalNotFound)
	}
	return r, nil
}

// SaveRental overwrites an existing rental record.
func (s *MemoryStore) SaveRental(r model.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rentals[r.RentalID]; !ok {
		return fmt.Errorf("save rental %s: %w", r.RentalID, auctionerrors.ErrRentalNotFound)
	}
	s.rentals[r.RentalID] = r
	return nil
}

// ListOverdueUnpaid returns auction rentals past their payment deadline
// without confirmation and without an issued fine.
func (s *MemoryStore) ListOverdueUnpaid(now time.Time) ([]model.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Rental
	for _, r := range s.rentals {
		if r.IsAuction && !r.AuctionPaymentConfirmed && !r.AuctionFineIssued && r.AuctionPaymentDeadline.Before(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListUnpaidFines returns auction rentals with a still-unpaid fine issued
// before the cutoff.
func (s *MemoryStore) ListUnpaidFines(cutoff time.Time) ([]model.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Rental
	for _, r := range s.rentals {
		if r.IsAuction && r.AuctionFineIssued && !r.AuctionPaymentConfirmed && r.AuctionFineIssuedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
