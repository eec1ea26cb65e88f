package models

import "time"

// AuctionStatus is the lifecycle state of an auction.
type AuctionStatus string

const (
	AuctionPending   AuctionStatus = "PENDING"
	AuctionActive    AuctionStatus = "ACTIVE"
	AuctionCompleted AuctionStatus = "COMPLETED"
	AuctionCancelled AuctionStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s AuctionStatus) IsTerminal() bool {
	return s == AuctionCompleted || s == AuctionCancelled
}

// RentalStatus is the lifecycle state of a rental.
type RentalStatus string

const (
	RentalPending   RentalStatus = "PENDING"
	RentalActive    RentalStatus = "ACTIVE"
	RentalCompleted RentalStatus = "COMPLETED"
	RentalCancelled RentalStatus = "CANCELLED"
)

// DefaultMaxBidderSlots is applied when an auction is created with a
// non-positive slot count.
const DefaultMaxBidderSlots = 10

// Auction represents one timed sale of a rental period for an apartment.
type Auction struct {
	AuctionID      string        `json:"auction_id"`
	ApartmentID    string        `json:"apartment_id"`
	OwnerID        string        `json:"owner_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	RentalStart    time.Time     `json:"rental_start"`
	RentalEnd      time.Time     `json:"rental_end"`
	StartingPrice  float64       `json:"starting_price"`
	MinIncrement   float64       `json:"min_increment"`
	MaxBidderSlots int           `json:"max_bidder_slots"`
	Status         AuctionStatus `json:"status"`
	RentalID       string        `json:"rental_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// BiddableAt reports whether bids may be admitted at the given instant.
// Completion can race with a late bid, so callers must evaluate this under
// the auction's admission lock rather than trust a cached status.
func (a *Auction) BiddableAt(now time.Time) bool {
	return a.Status == AuctionActive && !now.Before(a.StartTime) && now.Before(a.EndTime)
}

// Bid is an immutable entry in an auction's append-only ledger.
type Bid struct {
	BidID            string    `json:"bid_id"`
	AuctionID        string    `json:"auction_id"`
	BidderID         string    `json:"bidder_id"`
	Amount           float64   `json:"amount"`
	IsAutoBid        bool      `json:"is_auto_bid"`
	MaxAutoBidAmount float64   `json:"max_auto_bid_amount,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Rental is the obligation produced by settling a completed auction.
type Rental struct {
	RentalID                string       `json:"rental_id"`
	ApartmentID             string       `json:"apartment_id"`
	OwnerID                 string       `json:"owner_id"`
	TenantID                string       `json:"tenant_id"`
	AuctionID               string       `json:"auction_id,omitempty"`
	StartTime               time.Time    `json:"start_time"`
	EndTime                 time.Time    `json:"end_time"`
	TotalCost               float64      `json:"total_cost"`
	Status                  RentalStatus `json:"status"`
	IsAuction               bool         `json:"is_auction"`
	AuctionPaymentConfirmed bool         `json:"auction_payment_confirmed"`
	AuctionPaymentDeadline  time.Time    `json:"auction_payment_deadline,omitempty"`
	AuctionFineIssued       bool         `json:"auction_fine_issued"`
	AuctionFineAmount       float64      `json:"auction_fine_amount,omitempty"`
	AuctionFineIssuedAt     time.Time    `json:"auction_fine_issued_at,omitempty"`
	TenantBlocked           bool         `json:"tenant_blocked"`
	CreatedAt               time.Time    `json:"created_at"`
}

// User is collaborator-owned reference data consumed by the auction core.
type User struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Apartment is collaborator-owned reference data consumed by the auction core.
type Apartment struct {
	ApartmentID string `json:"apartment_id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Address     string `json:"address"`
}

// Roles understood by the auction core. Identity management itself is
// external; only the capability names cross the boundary.
const (
	RoleTenant = "TENANT"
	RoleOwner  = "OWNER"
)
