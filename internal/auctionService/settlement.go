package auction

import (
	"errors"
	"fmt"
	"time"

	"rental-auction/internal/auctionerrors"
	model "rental-auction/internal/models"
	"rental-auction/utils"
)

// settleAuction converts a finished auction's winning bid into a PENDING
// rental with a payment deadline. An auction without bids settles to no
// rental. Called under the auction's lock, before COMPLETED is persisted.
func (s *AuctionService) settleAuction(a model.Auction, now time.Time) (string, error) {
	winning, err := s.bids.HighestBid(a.AuctionID)
	if errors.Is(err, auctionerrors.ErrNoBids) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read winning bid: %w", err)
	}

	rental := model.Rental{
		RentalID:                utils.GenerateID(),
		ApartmentID:             a.ApartmentID,
		OwnerID:                 a.OwnerID,
		TenantID:                winning.BidderID,
		AuctionID:               a.AuctionID,
		StartTime:               a.RentalStart,
		EndTime:                 a.RentalEnd,
		TotalCost:               winning.Amount,
		Status:                  model.RentalPending,
		IsAuction:               true,
		AuctionPaymentConfirmed: false,
		AuctionPaymentDeadline:  now.Add(PaymentWindow),
		CreatedAt:               now,
	}
	if err := s.rentals.CreateRental(rental); err != nil {
		return "", fmt.Errorf("create rental: %w", err)
	}
	utils.Info("settlement: rental created from auction", map[string]any{
		"auction_id": a.AuctionID,
		"rental_id":  rental.RentalID,
		"tenant_id":  rental.TenantID,
		"total_cost": rental.TotalCost,
	})
	return rental.RentalID, nil
}

// IssueOverdueFines fines auction rentals whose payment deadline passed
// without confirmation. Each rental is re-read and re-checked before the
// fine is written, so running the sweep twice issues each fine exactly
// once.
func (s *AuctionService) IssueOverdueFines() int {
	now := s.now().UTC()
	overdue, err := s.rentals.ListOverdueUnpaid(now)
	if err != nil {
		utils.Error("settlement: failed to list overdue rentals", map[string]any{"error": err.Error()})
		return 0
	}

	issued := 0
	for _, stale := range overdue {
		r, err := s.rentals.GetRental(stale.RentalID)
		if err != nil {
			utils.Error("settlement: failed to reload rental", map[string]any{
				"rental_id": stale.RentalID,
				"error":     err.Error(),
			})
			continue
		}
		if !r.IsAuction || r.AuctionPaymentConfirmed || r.AuctionFineIssued || !r.AuctionPaymentDeadline.Before(now) {
			continue
		}

		r.AuctionFineIssued = true
		r.AuctionFineAmount = FineRate * r.TotalCost
		r.AuctionFineIssuedAt = now
		if err := s.rentals.SaveRental(r); err != nil {
			utils.Error("settlement: failed to issue fine", map[string]any{
				"rental_id": r.RentalID,
				"error":     err.Error(),
			})
			continue
		}
		issued++
		utils.Warn("settlement: fine issued for missed payment deadline", map[string]any{
			"rental_id":   r.RentalID,
			"tenant_id":   r.TenantID,
			"fine_amount": r.AuctionFineAmount,
		})
	}
	return issued
}

// BlockDelinquentTenants blocks the accounts of tenants whose fine has
// been unpaid for longer than the escalation window.
func (s *AuctionService) BlockDelinquentTenants() int {
	now := s.now().UTC()
	delinquent, err := s.rentals.ListUnpaidFines(now.Add(-FineEscalationWindow))
	if err != nil {
		utils.Error("settlement: failed to list unpaid fines", map[string]any{"error": err.Error()})
		return 0
	}

	blocked := 0
	for _, stale := range delinquent {
		r, err := s.rentals.GetRental(stale.RentalID)
		if err != nil {
			utils.Error("settlement: failed to reload rental", map[string]any{
				"rental_id": stale.RentalID,
				"error":     err.Error(),
			})
			continue
		}
		if !r.AuctionFineIssued || r.AuctionPaymentConfirmed || r.TenantBlocked {
			continue
		}

		reason := fmt.Sprintf("unpaid auction fine of %.2f on rental %s", r.AuctionFineAmount, r.RentalID)
		if err := s.users.BlockUser(r.TenantID, reason); err != nil {
			utils.Error("settlement: failed to block tenant", map[string]any{
				"rental_id": r.RentalID,
				"tenant_id": r.TenantID,
				"error":     err.Error(),
			})
			continue
		}
		r.TenantBlocked = true
		if err := s.rentals.SaveRental(r); err != nil {
			utils.Error("settlement: failed to record tenant block", map[string]any{
				"rental_id": r.RentalID,
				"error":     err.Error(),
			})
			continue
		}
		blocked++
		utils.Warn("settlement: tenant blocked for unpaid fine", map[string]any{
			"rental_id": r.RentalID,
			"tenant_id": r.TenantID,
		})
	}
	return blocked
}

// ConfirmPayment confirms an auction rental's payment before its
// deadline. Once the deadline has passed the fine path is the only way
// out.
func (s *AuctionService) ConfirmPayment(rentalID, cardNumber string) (model.Rental, error) {
	r, err := s.rentals.GetRental(rentalID)
	if err != nil {
		return model.Rental{}, fmt.Errorf("service: failed to load rental: %w", err)
	}
	if !r.IsAuction {
		return model.Rental{}, fmt.Errorf("service: %w - rental %s is not auction-settled", auctionerrors.ErrRentalNotFound, rentalID)
	}
	if r.AuctionPaymentConfirmed {
		return model.Rental{}, fmt.Errorf("service: %w - rental %s", auctionerrors.ErrAlreadyConfirmed, rentalID)
	}
	now := s.now().UTC()
	if r.AuctionPaymentDeadline.Before(now) {
		return model.Rental{}, fmt.Errorf("service: %w - rental %s", auctionerrors.ErrDeadlinePassed, rentalID)
	}

	approved, err := s.gateway.AuthorizePayment(cardNumber)
	if err != nil {
		return model.Rental{}, fmt.Errorf("service: payment authorization failed: %w", err)
	}
	if !approved {
		return model.Rental{}, fmt.Errorf("service: %w - rental %s", auctionerrors.ErrPaymentDeclined, rentalID)
	}

	r.AuctionPaymentConfirmed = true
	if err := s.rentals.SaveRental(r); err != nil {
		return model.Rental{}, fmt.Errorf("service: failed to confirm payment for rental %s: %w", rentalID, err)
	}
	utils.Info("settlement: auction payment confirmed", map[string]any{
		"rental_id": rentalID,
		"tenant_id": r.TenantID,
	})
	return r, nil
}

// PayFine settles an outstanding fine: it confirms the payment and
// unblocks the tenant if the escalation already blocked them.
func (s *AuctionService) PayFine(rentalID, cardNumber string) (model.Rental, error) {
	r, err := s.rentals.GetRental(rentalID)
	if err != nil {
		return model.Rental{}, fmt.Errorf("service: failed to load rental: %w", err)
	}
	if r.AuctionPaymentConfirmed {
		return model.Rental{}, fmt.Errorf("service: %w - rental %s", auctionerrors.ErrAlreadyConfirmed, rentalID)
	}
	if !r.AuctionFineIssued {
		return model.Rental{}, fmt.Errorf("service: %w - rental %s", auctionerrors.ErrNoOutstandingFine, rentalID)
	}

	approved, err := s.gateway.AuthorizePayment(cardNumber)
	if err != nil {
		return model.Rental{}, fmt.Errorf("service: payment authorization failed: %w", err)
	}
	if !approved {
		return model.Rental{}, fmt.Errorf("service: %w - rental %s", auctionerrors.ErrPaymentDeclined, rentalID)
	}

	r.AuctionPaymentConfirmed = true
	if r.TenantBlocked {
		if err := s.users.UnblockUser(r.TenantID); err != nil {
			return model.Rental{}, fmt.Errorf("service: failed to unblock tenant %s: %w", r.TenantID, err)
		}
		r.TenantBlocked = false
	}
	if err := s.rentals.SaveRental(r); err != nil {
		return model.Rental{}, fmt.Errorf("service: failed to record fine payment for rental %s: %w", rentalID, err)
	}
	utils.Info("settlement: auction fine paid", map[string]any{
		"rental_id":   rentalID,
		"tenant_id":   r.TenantID,
		"fine_amount": r.AuctionFineAmount,
	})
	return r, nil
}

// GetRental returns an auction rental by id.
func (s *AuctionService) GetRental(rentalID string) (model.Rental, error) {
	r, err := s.rentals.GetRental(rentalID)
	if err != nil {
		return model.Rental{}, fmt.Errorf("service: failed to load rental: %w", err)
	}
	return r, nil
}
