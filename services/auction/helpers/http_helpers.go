package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"rental-auction/internal/auctionerrors"
	model "rental-auction/internal/models"
	"rental-auction/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, auctionerrors.ErrApartmentNotFound):
		return http.StatusNotFound, "apartment not found"
	case errors.Is(err, auctionerrors.ErrRentalNotFound):
		return http.StatusNotFound, "rental not found"
	case errors.Is(err, auctionerrors.ErrForbidden):
		return http.StatusForbidden, "operation not permitted"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not accepting bids"
	case errors.Is(err, auctionerrors.ErrCapacityExceeded):
		return http.StatusConflict, "no bidder slots remaining"
	case errors.Is(err, auctionerrors.ErrRateLimited):
		return http.StatusTooManyRequests, "bidding too frequently"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, auctionerrors.ErrTerminalState):
		return http.StatusConflict, "auction already finished"
	case errors.Is(err, auctionerrors.ErrApartmentOccupied):
		return http.StatusConflict, "apartment is occupied for that period"
	case errors.Is(err, auctionerrors.ErrPaymentDeclined):
		return http.StatusPaymentRequired, "payment declined"
	case errors.Is(err, auctionerrors.ErrAlreadyConfirmed):
		return http.StatusConflict, "payment already confirmed"
	case errors.Is(err, auctionerrors.ErrDeadlinePassed):
		return http.StatusConflict, "payment deadline has passed"
	case errors.Is(err, auctionerrors.ErrNoOutstandingFine):
		return http.StatusConflict, "no outstanding fine"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for auction"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// ToAuctionResponse converts a domain auction to its wire shape.
func ToAuctionResponse(a model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:      a.AuctionID,
		ApartmentID:    a.ApartmentID,
		OwnerID:        a.OwnerID,
		StartTime:      a.StartTime.UTC().Format(time.RFC3339),
		EndTime:        a.EndTime.UTC().Format(time.RFC3339),
		RentalStart:    a.RentalStart.UTC().Format(time.RFC3339),
		RentalEnd:      a.RentalEnd.UTC().Format(time.RFC3339),
		StartingPrice:  a.StartingPrice,
		MinIncrement:   a.MinIncrement,
		MaxBidderSlots: a.MaxBidderSlots,
		Status:         string(a.Status),
		RentalID:       a.RentalID,
	}
}

// ToBidResponse converts a domain bid to its wire shape.
func ToBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:            b.BidID,
		AuctionID:        b.AuctionID,
		BidderID:         b.BidderID,
		Amount:           b.Amount,
		IsAutoBid:        b.IsAutoBid,
		MaxAutoBidAmount: b.MaxAutoBidAmount,
		CreatedAt:        b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToRentalResponse converts a domain rental to its wire shape.
func ToRentalResponse(r model.Rental) RentalResponse {
	return RentalResponse{
		RentalID:         r.RentalID,
		ApartmentID:      r.ApartmentID,
		OwnerID:          r.OwnerID,
		TenantID:         r.TenantID,
		AuctionID:        r.AuctionID,
		StartTime:        r.StartTime.UTC().Format(time.RFC3339),
		EndTime:          r.EndTime.UTC().Format(time.RFC3339),
		TotalCost:        r.TotalCost,
		Status:           string(r.Status),
		PaymentConfirmed: r.AuctionPaymentConfirmed,
		PaymentDeadline:  r.AuctionPaymentDeadline.UTC().Format(time.RFC3339),
		FineIssued:       r.AuctionFineIssued,
		FineAmount:       r.AuctionFineAmount,
	}
}
