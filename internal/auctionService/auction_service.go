// Package auction implements the bidding engine: the auction lifecycle
// state machine, bid admission, proxy-bid cascades, presence and status
// broadcasting.
package auction

import (
	"errors"
	"fmt"
	"time"

	"rental-auction/internal/auctionerrors"
	"rental-auction/internal/broadcast"
	"rental-auction/internal/collaborators"
	model "rental-auction/internal/models"
	"rental-auction/internal/presence"
	"rental-auction/internal/repository"
	"rental-auction/utils"
)

const (
	// RateLimitWindow is the minimum spacing between two bids from the
	// same bidder on the same auction. Evaluated against the persisted
	// ledger so it survives reconnects.
	RateLimitWindow = 15 * time.Minute

	// PaymentWindow is how long the winning bidder has to confirm payment
	// after the auction completes.
	PaymentWindow = 24 * time.Hour

	// FineEscalationWindow is how long an issued fine may stay unpaid
	// before the tenant's account is blocked.
	FineEscalationWindow = 24 * time.Hour

	// FineRate is the fraction of the rental cost charged as a fine for
	// missing the payment deadline.
	FineRate = 0.30
)

// AuctionService owns all bidding-engine business rules.
type AuctionService struct {
	auctions   repository.AuctionStore
	bids       repository.BidLedger
	rentals    repository.RentalStore
	users      collaborators.UserDirectory
	apartments collaborators.ApartmentDirectory
	gateway    collaborators.PaymentGateway
	presence   presence.Store
	publisher  broadcast.Publisher

	locks *keyedMutex
	now   func() time.Time
}

// NewAuctionService creates a new AuctionService instance.
func NewAuctionService(
	auctions repository.AuctionStore,
	bids repository.BidLedger,
	rentals repository.RentalStore,
	users collaborators.UserDirectory,
	apartments collaborators.ApartmentDirectory,
	gateway collaborators.PaymentGateway,
	presenceStore presence.Store,
	publisher broadcast.Publisher,
) *AuctionService {
	return &AuctionService{
		auctions:   auctions,
		bids:       bids,
		rentals:    rentals,
		users:      users,
		apartments: apartments,
		gateway:    gateway,
		presence:   presenceStore,
		publisher:  publisher,
		locks:      newKeyedMutex(),
		now:        time.Now,
	}
}

// SetNowFunc overrides the service clock. Intended for tests; all
// deadlines are evaluated against this clock and persisted timestamps,
// never in-memory timers.
func (s *AuctionService) SetNowFunc(now func() time.Time) {
	s.now = now
}

// CreateAuctionInput carries the owner-facing auction creation request.
type CreateAuctionInput struct {
	OwnerID        string
	ApartmentID    string
	StartTime      time.Time
	EndTime        time.Time
	RentalStart    time.Time
	RentalEnd      time.Time
	StartingPrice  float64
	MinIncrement   float64
	MaxBidderSlots int
}

// CreateAuction validates and records a new PENDING auction.
func (s *AuctionService) CreateAuction(in CreateAuctionInput) (model.Auction, error) {
	isOwner, err := s.users.UserHasRole(in.OwnerID, model.RoleOwner)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to check owner role: %w", err)
	}
	if !isOwner {
		return model.Auction{}, fmt.Errorf("service: %w - user %s is not an owner", auctionerrors.ErrForbidden, in.OwnerID)
	}

	apartment, err := s.apartments.GetApartment(in.ApartmentID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to load apartment: %w", err)
	}
	if apartment.OwnerID != in.OwnerID {
		return model.Auction{}, fmt.Errorf("service: %w - apartment %s is not owned by %s", auctionerrors.ErrForbidden, in.ApartmentID, in.OwnerID)
	}

	if !in.EndTime.After(in.StartTime) {
		return model.Auction{}, fmt.Errorf("service: %w - end time must be after start time", auctionerrors.ErrInvalidAuction)
	}
	if !in.RentalEnd.After(in.RentalStart) {
		return model.Auction{}, fmt.Errorf("service: %w - rental period end must be after its start", auctionerrors.ErrInvalidAuction)
	}
	if in.MinIncrement <= 0 {
		return model.Auction{}, fmt.Errorf("service: %w - minimum increment must be positive", auctionerrors.ErrInvalidAuction)
	}
	if in.StartingPrice < 0 {
		return model.Auction{}, fmt.Errorf("service: %w - starting price must not be negative", auctionerrors.ErrInvalidAuction)
	}

	occupied, err := s.apartments.IsOccupiedBetween(in.ApartmentID, in.RentalStart, in.RentalEnd)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to check occupancy: %w", err)
	}
	if occupied {
		return model.Auction{}, fmt.Errorf("service: %w - apartment %s", auctionerrors.ErrApartmentOccupied, in.ApartmentID)
	}

	slots := in.MaxBidderSlots
	if slots <= 0 {
		slots = model.DefaultMaxBidderSlots
	}

	a := model.Auction{
		AuctionID:      utils.GenerateID(),
		ApartmentID:    in.ApartmentID,
		OwnerID:        in.OwnerID,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		RentalStart:    in.RentalStart,
		RentalEnd:      in.RentalEnd,
		StartingPrice:  in.StartingPrice,
		MinIncrement:   in.MinIncrement,
		MaxBidderSlots: slots,
		Status:         model.AuctionPending,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.auctions.CreateAuction(a); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction: %w", err)
	}
	return a, nil
}

// PlaceBidInput carries one incoming bid. MaxAutoBidAmount is only read
// when IsAutoBid is set and registers a standing proxy instruction.
type PlaceBidInput struct {
	AuctionID        string
	BidderID         string
	Amount           float64
	IsAutoBid        bool
	MaxAutoBidAmount float64
}

// PlaceBid validates and admits one bid, then resolves the proxy cascade
// it triggers. The returned slice starts with the admitted bid, followed
// by any cascade bids in the order they were synthesized. The triggering
// bid and its cascade are appended atomically; validation failures are
// side-effect free.
func (s *AuctionService) PlaceBid(in PlaceBidInput) ([]model.Bid, error) {
	if in.AuctionID == "" || in.BidderID == "" {
		return nil, fmt.Errorf("service: %w - missing auction or bidder id", auctionerrors.ErrInvalidBid)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}
	if in.IsAutoBid && in.MaxAutoBidAmount < in.Amount {
		return nil, fmt.Errorf("service: %w - auto-bid ceiling below bid amount", auctionerrors.ErrInvalidBid)
	}

	unlock := s.locks.lock(in.AuctionID)
	defer unlock()

	a, err := s.auctions.GetAuction(in.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load auction: %w", err)
	}

	isBidder, err := s.users.UserHasRole(in.BidderID, model.RoleTenant)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check bidder role: %w", err)
	}
	if !isBidder {
		return nil, fmt.Errorf("service: %w - user %s may not bid", auctionerrors.ErrForbidden, in.BidderID)
	}
	if in.BidderID == a.OwnerID {
		return nil, fmt.Errorf("service: %w - owner may not bid on own auction", auctionerrors.ErrForbidden)
	}

	now := s.now().UTC()
	// Re-checked under the auction lock: if the completion sweep committed
	// first, this late bid must lose the race.
	if !a.BiddableAt(now) {
		return nil, fmt.Errorf("service: %w - auction %s is %s", auctionerrors.ErrAuctionNotActive, a.AuctionID, a.Status)
	}

	latest, err := s.bids.LatestBidByBidder(in.AuctionID, in.BidderID)
	firstTime := false
	if err != nil {
		if !errors.Is(err, auctionerrors.ErrNoBids) {
			return nil, fmt.Errorf("service: failed to read bidder history: %w", err)
		}
		firstTime = true
	}

	if firstTime {
		distinct, err := s.bids.DistinctBidderCount(in.AuctionID)
		if err != nil {
			return nil, fmt.Errorf("service: failed to count bidders: %w", err)
		}
		if distinct >= a.MaxBidderSlots {
			return nil, fmt.Errorf("service: %w - %d slots taken", auctionerrors.ErrCapacityExceeded, a.MaxBidderSlots)
		}
	} else if now.Sub(latest.CreatedAt) < RateLimitWindow {
		return nil, fmt.Errorf("service: %w - last bid was %s ago", auctionerrors.ErrRateLimited, now.Sub(latest.CreatedAt).Round(time.Second))
	}

	ledger, err := s.bids.BidsByAuction(in.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to read ledger: %w", err)
	}

	minimum := a.StartingPrice
	if high, ok := highestOf(ledger); ok {
		minimum = high.Amount + a.MinIncrement
	}
	if in.Amount < minimum {
		return nil, fmt.Errorf("service: %w", &auctionerrors.LowBidError{Minimum: minimum})
	}

	trigger := model.Bid{
		BidID:            utils.GenerateID(),
		AuctionID:        in.AuctionID,
		BidderID:         in.BidderID,
		Amount:           in.Amount,
		IsAutoBid:        in.IsAutoBid,
		MaxAutoBidAmount: in.MaxAutoBidAmount,
		CreatedAt:        now,
	}

	admitted := append([]model.Bid{trigger}, buildCascade(a, ledger, trigger)...)
	if err := s.bids.AppendBids(admitted...); err != nil {
		return nil, fmt.Errorf("service: failed to record bids for auction %s: %w", in.AuctionID, err)
	}

	for i, b := range admitted {
		s.publishBidAccepted(b, i == len(admitted)-1)
	}
	s.publishStatus(in.AuctionID)

	return admitted, nil
}

// highestOf returns the maximum-amount bid of the ledger, earlier
// timestamp winning ties.
func highestOf(ledger []model.Bid) (model.Bid, bool) {
	if len(ledger) == 0 {
		return model.Bid{}, false
	}
	winning := ledger[0]
	for _, b := range ledger[1:] {
		if b.Amount > winning.Amount || (b.Amount == winning.Amount && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, true
}

// proxyInstruction is one bidder's standing auto-bid: the ceiling from
// their most recent auto bid, ordered by when they first registered one.
type proxyInstruction struct {
	bidderID     string
	maxAmount    float64
	registeredAt time.Time
}

// buildCascade resolves the proxy cascade triggered by an admitted bid.
// It is a deterministic sweep over the ledger snapshot: each acting proxy
// bids exactly the new minimum, raising the bar for the next, until no
// proxy can exceed the highest bid or only one proxy remains able to (a
// lone proxy has no competition left to outbid). The triggering bidder's
// own instruction never participates in the cascade it caused.
func buildCascade(a model.Auction, ledger []model.Bid, trigger model.Bid) []model.Bid {
	proxies := collectProxies(ledger, trigger.BidderID)
	if len(proxies) == 0 {
		return nil
	}

	high := trigger.Amount
	highBidder := trigger.BidderID
	ts := trigger.CreatedAt

	var cascade []model.Bid
	for {
		var eligible []*proxyInstruction
		for i := range proxies {
			p := &proxies[i]
			if p.bidderID == highBidder {
				continue
			}
			if p.maxAmount < high+a.MinIncrement {
				continue
			}
			eligible = append(eligible, p)
		}
		if len(eligible) < 2 {
			return cascade
		}

		acting := eligible[0]
		amount := high + a.MinIncrement
		if acting.maxAmount < amount {
			amount = acting.maxAmount
		}
		// Strictly increasing timestamps keep ledger order deterministic
		// for stores that sort by created_at alone.
		ts = ts.Add(time.Millisecond)
		cascade = append(cascade, model.Bid{
			BidID:            utils.GenerateID(),
			AuctionID:        a.AuctionID,
			BidderID:         acting.bidderID,
			Amount:           amount,
			IsAutoBid:        true,
			MaxAutoBidAmount: acting.maxAmount,
			CreatedAt:        ts,
		})
		high = amount
		highBidder = acting.bidderID
	}
}

// collectProxies extracts standing auto-bid instructions from the ledger,
// excluding the given bidder, in original registration order.
func collectProxies(ledger []model.Bid, excludeBidder string) []proxyInstruction {
	index := make(map[string]int)
	var order []proxyInstruction

	for _, b := range ledger {
		if !b.IsAutoBid || b.BidderID == excludeBidder {
			continue
		}
		if i, ok := index[b.BidderID]; ok {
			// Most recent instruction wins; registration order is fixed by
			// the first one.
			order[i].maxAmount = b.MaxAutoBidAmount
			continue
		}
		index[b.BidderID] = len(order)
		order = append(order, proxyInstruction{
			bidderID:     b.BidderID,
			maxAmount:    b.MaxAutoBidAmount,
			registeredAt: b.CreatedAt,
		})
	}
	return order
}

// CancelAuction cancels a PENDING or ACTIVE auction on behalf of its
// owner.
func (s *AuctionService) CancelAuction(auctionID, ownerID string) error {
	unlock := s.locks.lock(auctionID)
	defer unlock()

	a, err := s.auctions.GetAuction(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to load auction: %w", err)
	}
	if a.OwnerID != ownerID {
		return fmt.Errorf("service: %w - only the owner may cancel auction %s", auctionerrors.ErrForbidden, auctionID)
	}
	if a.Status.IsTerminal() {
		return fmt.Errorf("service: %w - auction %s is %s", auctionerrors.ErrTerminalState, auctionID, a.Status)
	}

	a.Status = model.AuctionCancelled
	if err := s.auctions.SaveAuction(a); err != nil {
		return fmt.Errorf("service: failed to cancel auction %s: %w", auctionID, err)
	}
	s.publishStatus(auctionID)
	return nil
}

// JoinAuction adds the user to the auction's observer set and announces
// it. Presence never touches the ledger or the state machine.
func (s *AuctionService) JoinAuction(auctionID, userID string) error {
	if _, err := s.auctions.GetAuction(auctionID); err != nil {
		return fmt.Errorf("service: failed to load auction: %w", err)
	}
	if _, err := s.users.GetUser(userID); err != nil {
		return fmt.Errorf("service: failed to load user: %w", err)
	}
	if err := s.presence.Join(auctionID, userID); err != nil {
		return fmt.Errorf("service: failed to join auction %s: %w", auctionID, err)
	}
	s.publishParticipantNotice(auctionID, userID, true)
	s.publishStatus(auctionID)
	return nil
}

// LeaveAuction removes the user from the auction's observer set.
func (s *AuctionService) LeaveAuction(auctionID, userID string) error {
	if _, err := s.auctions.GetAuction(auctionID); err != nil {
		return fmt.Errorf("service: failed to load auction: %w", err)
	}
	if err := s.presence.Leave(auctionID, userID); err != nil {
		return fmt.Errorf("service: failed to leave auction %s: %w", auctionID, err)
	}
	s.publishParticipantNotice(auctionID, userID, false)
	s.publishStatus(auctionID)
	return nil
}

// Snapshot builds the current status payload for an auction.
func (s *AuctionService) Snapshot(auctionID string) (broadcast.StatusPayload, error) {
	a, err := s.auctions.GetAuction(auctionID)
	if err != nil {
		return broadcast.StatusPayload{}, fmt.Errorf("service: failed to load auction: %w", err)
	}
	return s.snapshotOf(a)
}

func (s *AuctionService) snapshotOf(a model.Auction) (broadcast.StatusPayload, error) {
	now := s.now().UTC()

	distinct, err := s.bids.DistinctBidderCount(a.AuctionID)
	if err != nil {
		return broadcast.StatusPayload{}, fmt.Errorf("service: failed to count bidders: %w", err)
	}
	remainingSlots := a.MaxBidderSlots - distinct
	if remainingSlots < 0 {
		remainingSlots = 0
	}

	amount := a.StartingPrice
	bidderID := ""
	if high, err := s.bids.HighestBid(a.AuctionID); err == nil {
		amount = high.Amount
		bidderID = high.BidderID
	} else if !errors.Is(err, auctionerrors.ErrNoBids) {
		return broadcast.StatusPayload{}, fmt.Errorf("service: failed to read winning bid: %w", err)
	}

	observers, err := s.presence.Count(a.AuctionID)
	if err != nil {
		// Presence is advisory; a failed count must not break status.
		utils.Warn("service: presence count failed", map[string]any{
			"auction_id": a.AuctionID,
			"error":      err.Error(),
		})
		observers = 0
	}

	var secondsRemaining int64
	if a.Status == model.AuctionActive {
		if rem := a.EndTime.Sub(now); rem > 0 {
			secondsRemaining = int64(rem.Seconds())
		}
	}

	return broadcast.StatusPayload{
		AuctionID:            a.AuctionID,
		Status:               string(a.Status),
		SecondsRemaining:     secondsRemaining,
		RemainingBidderSlots: remainingSlots,
		CurrentBidAmount:     amount,
		CurrentBidderID:      bidderID,
		Observers:            observers,
		StatusLine:           statusLine(a, now, amount, bidderID),
	}, nil
}

// statusLine renders the human-readable summary for a snapshot.
func statusLine(a model.Auction, now time.Time, amount float64, bidderID string) string {
	switch a.Status {
	case model.AuctionPending:
		return "starts at " + a.StartTime.UTC().Format(time.RFC3339)
	case model.AuctionActive:
		rem := a.EndTime.Sub(now)
		if rem < 0 {
			rem = 0
		}
		hours := int(rem.Hours())
		minutes := int(rem.Minutes()) % 60
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	case model.AuctionCompleted:
		if bidderID == "" {
			return "completed with no bids"
		}
		return fmt.Sprintf("won by %s at %.2f", bidderID, amount)
	case model.AuctionCancelled:
		return "auction cancelled"
	default:
		return string(a.Status)
	}
}

// publishStatus broadcasts a fresh snapshot. Broadcast failures are
// logged and never fail the state change that caused them.
func (s *AuctionService) publishStatus(auctionID string) {
	payload, err := s.Snapshot(auctionID)
	if err != nil {
		utils.Error("service: failed to build status snapshot", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}
	event := broadcast.NewEvent(broadcast.TypeAuctionStatus, payload)
	if err := s.publisher.Publish(broadcast.StatusTopic(auctionID), event); err != nil {
		utils.Warn("service: status broadcast failed", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}
}

func (s *AuctionService) publishBidAccepted(b model.Bid, winning bool) {
	event := broadcast.NewEvent(broadcast.TypeBidAccepted, broadcast.BidAcceptedPayload{
		AuctionID: b.AuctionID,
		BidID:     b.BidID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		IsAutoBid: b.IsAutoBid,
		Winning:   winning,
		PlacedAt:  b.CreatedAt,
	})
	if err := s.publisher.Publish(broadcast.StatusTopic(b.AuctionID), event); err != nil {
		utils.Warn("service: bid broadcast failed", map[string]any{
			"auction_id": b.AuctionID,
			"bid_id":     b.BidID,
			"error":      err.Error(),
		})
	}
}

func (s *AuctionService) publishParticipantNotice(auctionID, userID string, joined bool) {
	verb := "left"
	if joined {
		verb = "joined"
	}
	event := broadcast.NewEvent(broadcast.TypeParticipantNotice, broadcast.ParticipantNoticePayload{
		AuctionID: auctionID,
		UserID:    userID,
		Joined:    joined,
		Notice:    fmt.Sprintf("%s %s the auction", userID, verb),
	})
	if err := s.publisher.Publish(broadcast.ParticipantTopic(auctionID), event); err != nil {
		utils.Warn("service: participant broadcast failed", map[string]any{
			"auction_id": auctionID,
			"user_id":    userID,
			"error":      err.Error(),
		})
	}
}

// GetAuction returns one auction by id.
func (s *AuctionService) GetAuction(auctionID string) (model.Auction, error) {
	a, err := s.auctions.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to load auction: %w", err)
	}
	return a, nil
}

// BidsForAuction returns the auction's full ledger.
func (s *AuctionService) BidsForAuction(auctionID string) ([]model.Bid, error) {
	if _, err := s.auctions.GetAuction(auctionID); err != nil {
		return nil, fmt.Errorf("service: failed to load auction: %w", err)
	}
	bids, err := s.bids.BidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// WinningBid returns the current highest bid for an auction.
func (s *AuctionService) WinningBid(auctionID string) (model.Bid, error) {
	if _, err := s.auctions.GetAuction(auctionID); err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to load auction: %w", err)
	}
	high, err := s.bids.HighestBid(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for auction %s: %w", auctionID, err)
	}
	return high, nil
}

// AuctionsByOwner returns all auctions created by the owner.
func (s *AuctionService) AuctionsByOwner(ownerID string) ([]model.Auction, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("service: %w - empty owner id", auctionerrors.ErrInvalidAuction)
	}
	auctions, err := s.auctions.ListAuctionsByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions for owner %s: %w", ownerID, err)
	}
	return auctions, nil
}

// AuctionsByStatus returns all auctions currently in the given state.
func (s *AuctionService) AuctionsByStatus(status model.AuctionStatus) ([]model.Auction, error) {
	auctions, err := s.auctions.ListAuctionsByStatus(status)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions by status %s: %w", status, err)
	}
	return auctions, nil
}

// AuctionsByBidder returns all auctions the bidder holds bids on.
func (s *AuctionService) AuctionsByBidder(bidderID string) ([]model.Auction, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("service: %w - empty bidder id", auctionerrors.ErrInvalidBid)
	}
	ids, err := s.bids.AuctionIDsByBidder(bidderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions for bidder %s: %w", bidderID, err)
	}
	out := make([]model.Auction, 0, len(ids))
	for _, id := range ids {
		a, err := s.auctions.GetAuction(id)
		if err != nil {
			return nil, fmt.Errorf("service: failed to load auction %s: %w", id, err)
		}
		out = append(out, a)
	}
	return out, nil
}
