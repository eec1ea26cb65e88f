package auctionerrors

import (
	"errors"
	"fmt"
)

// Not-found errors
var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrRentalNotFound    = errors.New("rental not found")
	ErrNoBids            = errors.New("no bids found for auction")
)

// Bid admission errors
var (
	ErrForbidden        = errors.New("operation not permitted for this user")
	ErrAuctionNotActive = errors.New("auction is not accepting bids")
	ErrCapacityExceeded = errors.New("auction bidder slots exhausted")
	ErrRateLimited      = errors.New("bidder must wait before bidding again")
	ErrBidTooLow        = errors.New("bid amount too low")
	ErrInvalidBid       = errors.New("invalid bid")
)

// Lifecycle and settlement errors
var (
	ErrTerminalState     = errors.New("auction is in a terminal state")
	ErrInvalidAuction    = errors.New("invalid auction parameters")
	ErrApartmentOccupied = errors.New("apartment is occupied for the requested period")
	ErrPaymentDeclined   = errors.New("payment was declined")
	ErrAlreadyConfirmed  = errors.New("payment already confirmed")
	ErrDeadlinePassed    = errors.New("payment deadline has passed")
	ErrNoOutstandingFine = errors.New("no outstanding fine for rental")
)

// LowBidError reports the minimum acceptable amount alongside ErrBidTooLow
// so a rejected client can retry with a corrected bid.
type LowBidError struct {
	Minimum float64
}

func (e *LowBidError) Error() string {
	return fmt.Sprintf("bid amount too low, minimum acceptable bid is %.2f", e.Minimum)
}

func (e *LowBidError) Unwrap() error { return ErrBidTooLow }

// MinimumAcceptable extracts the minimum acceptable bid from an admission
// error, if it carries one.
func MinimumAcceptable(err error) (float64, bool) {
	var low *LowBidError
	if errors.As(err, &low) {
		return low.Minimum, true
	}
	return 0, false
}
