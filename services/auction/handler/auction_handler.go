package handler

import (
	"errors"
	"fmt"
	"net/http"

	"rental-auction/internal/auctionerrors"
	auction "rental-auction/internal/auctionService"
	"rental-auction/internal/broadcast"
	model "rental-auction/internal/models"
	"rental-auction/services/auction/helpers"
	"rental-auction/utils"

	"github.com/gin-gonic/gin"
)

type AuctionServiceInterface interface {
	CreateAuction(in auction.CreateAuctionInput) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	PlaceBid(in auction.PlaceBidInput) ([]model.Bid, error)
	CancelAuction(auctionID, ownerID string) error
	JoinAuction(auctionID, userID string) error
	LeaveAuction(auctionID, userID string) error
	Snapshot(auctionID string) (broadcast.StatusPayload, error)
	BidsForAuction(auctionID string) ([]model.Bid, error)
	WinningBid(auctionID string) (model.Bid, error)
	AuctionsByOwner(ownerID string) ([]model.Auction, error)
	AuctionsByStatus(status model.AuctionStatus) ([]model.Auction, error)
	AuctionsByBidder(bidderID string) ([]model.Auction, error)
	GetRental(rentalID string) (model.Rental, error)
	ConfirmPayment(rentalID, cardNumber string) (model.Rental, error)
	PayFine(rentalID, cardNumber string) (model.Rental, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	a, err := h.service.CreateAuction(auction.CreateAuctionInput{
		OwnerID:        req.OwnerID,
		ApartmentID:    req.ApartmentID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		RentalStart:    req.RentalStart,
		RentalEnd:      req.RentalEnd,
		StartingPrice:  req.StartingPrice,
		MinIncrement:   req.MinIncrement,
		MaxBidderSlots: req.MaxBidderSlots,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"owner_id":     req.OwnerID,
			"apartment_id": req.ApartmentID,
			"error":        err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToAuctionResponse(a), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": a.AuctionID,
		"owner_id":   a.OwnerID,
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(a), "auction retrieved successfully")
}

// ListAuctionsHandler handles GET /auctions?status=ACTIVE
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	status := model.AuctionStatus(c.DefaultQuery("status", string(model.AuctionActive)))
	auctions, err := h.service.AuctionsByStatus(status)
	if err != nil {
		httpStatus, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, httpStatus, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListAuctionsHandler: error listing auctions", map[string]any{"status": string(status), "error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(a))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	admitted, err := h.service.PlaceBid(auction.PlaceBidInput{
		AuctionID:        auctionID,
		BidderID:         req.BidderID,
		Amount:           req.Amount,
		IsAutoBid:        req.IsAutoBid,
		MaxAutoBidAmount: req.MaxAutoBidAmount,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		if minimum, ok := auctionerrors.MinimumAcceptable(err); ok {
			utils.JSONErrorWithData(c, status, err, message, gin.H{"minimum_acceptable_bid": minimum})
		} else {
			utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		}
		utils.Warn("PlaceBidHandler: bid rejected", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"amount":     req.Amount,
			"error":      err.Error(),
		})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(admitted))
	for _, b := range admitted {
		resp = append(resp, helpers.ToBidResponse(b))
	}
	utils.JSONResponse(c, http.StatusCreated, resp, "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"auction_id":   auctionID,
		"bidder_id":    req.BidderID,
		"amount":       req.Amount,
		"cascade_size": len(admitted) - 1,
	})
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.CancelAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CancelAuctionHandler", err)
		return
	}

	if err := h.service.CancelAuction(auctionID, req.OwnerID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CancelAuctionHandler: cancel rejected", map[string]any{
			"auction_id": auctionID,
			"owner_id":   req.OwnerID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "auction cancelled successfully")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled successfully", map[string]any{
		"auction_id": auctionID,
		"owner_id":   req.OwnerID,
	})
}

// GetBidsHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.BidsForAuction(auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBidsHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.ToBidResponse(b))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.WinningBid(auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"auction_id": auctionID})
			return
		}
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetWinningBidHandler: winning bid error", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponse(bid), "winning bid retrieved successfully")
}

// GetStatusHandler handles GET /auctions/:auction_id/status
func (h *AuctionHandler) GetStatusHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	snapshot, err := h.service.Snapshot(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetStatusHandler: error building snapshot", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, snapshot, "auction status retrieved successfully")
}

// JoinAuctionHandler handles POST /auctions/:auction_id/join
func (h *AuctionHandler) JoinAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "JoinAuctionHandler", err)
		return
	}

	if err := h.service.JoinAuction(auctionID, req.UserID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("JoinAuctionHandler: join failed", map[string]any{
			"auction_id": auctionID,
			"user_id":    req.UserID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID, "user_id": req.UserID}, "joined auction successfully")
}

// LeaveAuctionHandler handles POST /auctions/:auction_id/leave
func (h *AuctionHandler) LeaveAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LeaveAuctionHandler", err)
		return
	}

	if err := h.service.LeaveAuction(auctionID, req.UserID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("LeaveAuctionHandler: leave failed", map[string]any{
			"auction_id": auctionID,
			"user_id":    req.UserID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID, "user_id": req.UserID}, "left auction successfully")
}

// GetAuctionsByOwnerHandler handles GET /owners/:owner_id/auctions
func (h *AuctionHandler) GetAuctionsByOwnerHandler(c *gin.Context) {
	ownerID := c.Param("owner_id")
	auctions, err := h.service.AuctionsByOwner(ownerID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionsByOwnerHandler: error retrieving auctions", map[string]any{"owner_id": ownerID, "error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(a))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
}

// GetAuctionsByBidderHandler handles GET /bidders/:bidder_id/auctions
func (h *AuctionHandler) GetAuctionsByBidderHandler(c *gin.Context) {
	bidderID := c.Param("bidder_id")
	auctions, err := h.service.AuctionsByBidder(bidderID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionsByBidderHandler: error retrieving auctions", map[string]any{"bidder_id": bidderID, "error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(a))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
}

// GetRentalHandler handles GET /rentals/:rental_id
func (h *AuctionHandler) GetRentalHandler(c *gin.Context) {
	rentalID := c.Param("rental_id")
	r, err := h.service.GetRental(rentalID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetRentalHandler: error retrieving rental", map[string]any{"rental_id": rentalID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToRentalResponse(r), "rental retrieved successfully")
}

// ConfirmPaymentHandler handles POST /rentals/:rental_id/payment
func (h *AuctionHandler) ConfirmPaymentHandler(c *gin.Context) {
	rentalID := c.Param("rental_id")
	var req helpers.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "ConfirmPaymentHandler", err)
		return
	}

	r, err := h.service.ConfirmPayment(rentalID, req.CardNumber)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ConfirmPaymentHandler: payment rejected", map[string]any{
			"rental_id": rentalID,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToRentalResponse(r), "payment confirmed successfully")
	helpers.LogSuccess("ConfirmPaymentHandler", "payment confirmed successfully", map[string]any{
		"rental_id": rentalID,
		"tenant_id": r.TenantID,
	})
}

// PayFineHandler handles POST /rentals/:rental_id/fine/payment
func (h *AuctionHandler) PayFineHandler(c *gin.Context) {
	rentalID := c.Param("rental_id")
	var req helpers.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PayFineHandler", err)
		return
	}

	r, err := h.service.PayFine(rentalID, req.CardNumber)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("PayFineHandler: fine payment rejected", map[string]any{
			"rental_id": rentalID,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToRentalResponse(r), "fine paid successfully")
	helpers.LogSuccess("PayFineHandler", "fine paid successfully", map[string]any{
		"rental_id": rentalID,
		"tenant_id": r.TenantID,
	})
}
