package auction

import (
	"fmt"

	model "rental-auction/internal/models"
	"rental-auction/utils"
)

// ActivateDueAuctions flips PENDING auctions whose start time has passed
// to ACTIVE. Each auction transitions under its own lock and failures are
// isolated, so one bad auction never blocks its siblings. Running the
// sweep twice over the same data is a no-op: the second run sees no
// PENDING auctions left to activate.
func (s *AuctionService) ActivateDueAuctions() int {
	pending, err := s.auctions.ListAuctionsByStatus(model.AuctionPending)
	if err != nil {
		utils.Error("lifecycle: failed to list pending auctions", map[string]any{"error": err.Error()})
		return 0
	}

	activated := 0
	for _, a := range pending {
		moved, err := s.activateAuction(a.AuctionID)
		if err != nil {
			utils.Error("lifecycle: failed to activate auction", map[string]any{
				"auction_id": a.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		if moved {
			activated++
		}
	}
	return activated
}

func (s *AuctionService) activateAuction(auctionID string) (bool, error) {
	unlock := s.locks.lock(auctionID)
	defer unlock()

	a, err := s.auctions.GetAuction(auctionID)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	if a.Status != model.AuctionPending || now.Before(a.StartTime) {
		return false, nil
	}

	a.Status = model.AuctionActive
	if err := s.auctions.SaveAuction(a); err != nil {
		return false, fmt.Errorf("activate auction %s: %w", auctionID, err)
	}
	s.publishStatus(auctionID)
	utils.Info("lifecycle: auction activated", map[string]any{"auction_id": auctionID})
	return true, nil
}

// CompleteExpiredAuctions settles and completes ACTIVE auctions whose end
// time has passed. Settlement runs before the COMPLETED status is
// persisted; if settlement fails the auction stays ACTIVE and is retried
// on the next sweep.
func (s *AuctionService) CompleteExpiredAuctions() int {
	active, err := s.auctions.ListAuctionsByStatus(model.AuctionActive)
	if err != nil {
		utils.Error("lifecycle: failed to list active auctions", map[string]any{"error": err.Error()})
		return 0
	}

	completed := 0
	for _, a := range active {
		moved, err := s.completeAuction(a.AuctionID)
		if err != nil {
			utils.Error("lifecycle: failed to complete auction", map[string]any{
				"auction_id": a.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		if moved {
			completed++
		}
	}
	return completed
}

func (s *AuctionService) completeAuction(auctionID string) (bool, error) {
	unlock := s.locks.lock(auctionID)
	defer unlock()

	a, err := s.auctions.GetAuction(auctionID)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	if a.Status != model.AuctionActive || now.Before(a.EndTime) {
		return false, nil
	}

	rentalID, err := s.settleAuction(a, now)
	if err != nil {
		return false, fmt.Errorf("settle auction %s: %w", auctionID, err)
	}

	a.Status = model.AuctionCompleted
	a.RentalID = rentalID
	if err := s.auctions.SaveAuction(a); err != nil {
		return false, fmt.Errorf("complete auction %s: %w", auctionID, err)
	}
	s.publishStatus(auctionID)
	utils.Info("lifecycle: auction completed", map[string]any{
		"auction_id": auctionID,
		"rental_id":  rentalID,
	})
	return true, nil
}

// RebroadcastActive publishes a fresh status snapshot for every ACTIVE
// auction so idle observers keep a live countdown.
func (s *AuctionService) RebroadcastActive() {
	active, err := s.auctions.ListAuctionsByStatus(model.AuctionActive)
	if err != nil {
		utils.Error("lifecycle: failed to list active auctions", map[string]any{"error": err.Error()})
		return
	}
	for _, a := range active {
		s.publishStatus(a.AuctionID)
	}
}
