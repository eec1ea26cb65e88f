package helpers

import "time"

// Request/Response DTOs
type CreateAuctionRequest struct {
	OwnerID        string    `json:"owner_id" binding:"required"`
	ApartmentID    string    `json:"apartment_id" binding:"required"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	RentalStart    time.Time `json:"rental_start" binding:"required"`
	RentalEnd      time.Time `json:"rental_end" binding:"required"`
	StartingPrice  float64   `json:"starting_price" binding:"gte=0"`
	MinIncrement   float64   `json:"min_increment" binding:"required,gt=0"`
	MaxBidderSlots int       `json:"max_bidder_slots" binding:"gte=0"`
}

type AuctionResponse struct {
	AuctionID      string  `json:"auction_id"`
	ApartmentID    string  `json:"apartment_id"`
	OwnerID        string  `json:"owner_id"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	RentalStart    string  `json:"rental_start"`
	RentalEnd      string  `json:"rental_end"`
	StartingPrice  float64 `json:"starting_price"`
	MinIncrement   float64 `json:"min_increment"`
	MaxBidderSlots int     `json:"max_bidder_slots"`
	Status         string  `json:"status"`
	RentalID       string  `json:"rental_id,omitempty"`
}

type PlaceBidRequest struct {
	BidderID         string  `json:"bidder_id" binding:"required"`
	Amount           float64 `json:"amount" binding:"required,gt=0"`
	IsAutoBid        bool    `json:"is_auto_bid"`
	MaxAutoBidAmount float64 `json:"max_auto_bid_amount"`
}

type BidResponse struct {
	BidID            string  `json:"bid_id"`
	AuctionID        string  `json:"auction_id"`
	BidderID         string  `json:"bidder_id"`
	Amount           float64 `json:"amount"`
	IsAutoBid        bool    `json:"is_auto_bid"`
	MaxAutoBidAmount float64 `json:"max_auto_bid_amount,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type CancelAuctionRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
}

type PresenceRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type PaymentRequest struct {
	CardNumber string `json:"card_number" binding:"required"`
}

type RentalResponse struct {
	RentalID         string  `json:"rental_id"`
	ApartmentID      string  `json:"apartment_id"`
	OwnerID          string  `json:"owner_id"`
	TenantID         string  `json:"tenant_id"`
	AuctionID        string  `json:"auction_id"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	TotalCost        float64 `json:"total_cost"`
	Status           string  `json:"status"`
	PaymentConfirmed bool    `json:"payment_confirmed"`
	PaymentDeadline  string  `json:"payment_deadline"`
	FineIssued       bool    `json:"fine_issued"`
	FineAmount       float64 `json:"fine_amount,omitempty"`
}
