package auction

import (
	"errors"
	"testing"
	"time"

	"rental-auction/internal/auctionerrors"
	"rental-auction/internal/collaborators"
	model "rental-auction/internal/models"
	"rental-auction/utils"

	"github.com/stretchr/testify/require"
)

// seedLedger appends raw bids directly, bypassing admission, to build
// arbitrary ledger shapes.
func (f *fixture) seedLedger(t *testing.T, auctionID string, bids ...model.Bid) {
	t.Helper()
	for i := range bids {
		bids[i].BidID = utils.GenerateID()
		bids[i].AuctionID = auctionID
	}
	require.NoError(t, f.store.AppendBids(bids...))
}

func TestAuctionService_Settlement_CreatesRentalFromWinningBid(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
	f.seedLedger(t, a.AuctionID,
		model.Bid{BidderID: "tenant1", Amount: 100, CreatedAt: baseTime.Add(-30 * time.Minute)},
		model.Bid{BidderID: "tenant2", Amount: 150, CreatedAt: baseTime.Add(-20 * time.Minute)},
		model.Bid{BidderID: "tenant3", Amount: 140, CreatedAt: baseTime.Add(-10 * time.Minute)},
	)

	f.clock.Advance(time.Hour + time.Minute)
	completed := f.svc.CompleteExpiredAuctions()
	require.Equal(t, 1, completed)

	got, err := f.store.GetAuction(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, model.AuctionCompleted, got.Status)
	require.NotEmpty(t, got.RentalID)

	r, err := f.store.GetRental(got.RentalID)
	require.NoError(t, err)
	require.Equal(t, "tenant2", r.TenantID, "maximum amount wins regardless of ledger position")
	require.Equal(t, 150.0, r.TotalCost)
	require.Equal(t, "owner1", r.OwnerID)
	require.Equal(t, a.AuctionID, r.AuctionID)
	require.Equal(t, a.RentalStart, r.StartTime)
	require.Equal(t, a.RentalEnd, r.EndTime)
	require.Equal(t, model.RentalPending, r.Status)
	require.True(t, r.IsAuction)
	require.False(t, r.AuctionPaymentConfirmed)
	require.Equal(t, f.clock.Now().Add(PaymentWindow), r.AuctionPaymentDeadline)

	// A second sweep is a no-op: the auction is no longer ACTIVE.
	require.Equal(t, 0, f.svc.CompleteExpiredAuctions())
}

func TestAuctionService_Settlement_NoBidsNoRental(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)

	f.clock.Advance(2 * time.Hour)
	require.Equal(t, 1, f.svc.CompleteExpiredAuctions())

	got, err := f.store.GetAuction(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, model.AuctionCompleted, got.Status)
	require.Empty(t, got.RentalID)
}

// settleRental completes an auction with one bid and returns the rental.
func settleRental(t *testing.T, f *fixture, amount float64, bidder string) model.Rental {
	t.Helper()

	a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
	f.seedLedger(t, a.AuctionID, model.Bid{BidderID: bidder, Amount: amount, CreatedAt: f.clock.Now()})

	f.clock.Advance(2 * time.Hour)
	require.Equal(t, 1, f.svc.CompleteExpiredAuctions())

	got, err := f.store.GetAuction(a.AuctionID)
	require.NoError(t, err)
	r, err := f.store.GetRental(got.RentalID)
	require.NoError(t, err)
	return r
}

func TestAuctionService_IssueOverdueFines(t *testing.T) {
	f := newFixture(t)
	r := settleRental(t, f, 150, "tenant2")

	// Before the deadline nothing is fined.
	require.Equal(t, 0, f.svc.IssueOverdueFines())

	f.clock.Advance(25 * time.Hour)
	require.Equal(t, 1, f.svc.IssueOverdueFines())

	got, err := f.store.GetRental(r.RentalID)
	require.NoError(t, err)
	require.True(t, got.AuctionFineIssued)
	require.Equal(t, 45.0, got.AuctionFineAmount)
	require.Equal(t, f.clock.Now(), got.AuctionFineIssuedAt)

	// Exactly once, even if the sweep runs again.
	require.Equal(t, 0, f.svc.IssueOverdueFines())
	again, err := f.store.GetRental(r.RentalID)
	require.NoError(t, err)
	require.Equal(t, got.AuctionFineAmount, again.AuctionFineAmount)
	require.Equal(t, got.AuctionFineIssuedAt, again.AuctionFineIssuedAt)
}

func TestAuctionService_IssueOverdueFines_SkipsConfirmed(t *testing.T) {
	f := newFixture(t)
	r := settleRental(t, f, 150, "tenant2")

	_, err := f.svc.ConfirmPayment(r.RentalID, "4111")
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)
	require.Equal(t, 0, f.svc.IssueOverdueFines())
}

func TestAuctionService_BlockDelinquentTenants(t *testing.T) {
	f := newFixture(t)
	r := settleRental(t, f, 200, "tenant2")

	f.clock.Advance(25 * time.Hour)
	require.Equal(t, 1, f.svc.IssueOverdueFines())

	// The fine is fresh; no escalation yet.
	require.Equal(t, 0, f.svc.BlockDelinquentTenants())

	f.clock.Advance(FineEscalationWindow + time.Minute)
	require.Equal(t, 1, f.svc.BlockDelinquentTenants())

	reason, blocked := f.dir.BlockReason("tenant2")
	require.True(t, blocked)
	require.Contains(t, reason, r.RentalID)

	got, err := f.store.GetRental(r.RentalID)
	require.NoError(t, err)
	require.True(t, got.TenantBlocked)

	// Idempotent: the tenant is not blocked twice.
	require.Equal(t, 0, f.svc.BlockDelinquentTenants())
}

func TestAuctionService_ConfirmPayment(t *testing.T) {
	t.Run("confirms_before_deadline", func(t *testing.T) {
		f := newFixture(t)
		r := settleRental(t, f, 150, "tenant2")

		f.clock.Advance(23 * time.Hour)
		got, err := f.svc.ConfirmPayment(r.RentalID, "4111")
		require.NoError(t, err)
		require.True(t, got.AuctionPaymentConfirmed)

		_, err = f.svc.ConfirmPayment(r.RentalID, "4111")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrAlreadyConfirmed))
	})

	t.Run("deadline_passed", func(t *testing.T) {
		f := newFixture(t)
		r := settleRental(t, f, 150, "tenant2")

		f.clock.Advance(25 * time.Hour)
		_, err := f.svc.ConfirmPayment(r.RentalID, "4111")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrDeadlinePassed))
	})

	t.Run("payment_declined", func(t *testing.T) {
		f := newFixture(t)
		r := settleRental(t, f, 150, "tenant2")
		f.svc.gateway = collaborators.StaticGateway{Approve: false}

		_, err := f.svc.ConfirmPayment(r.RentalID, "4111")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrPaymentDeclined))

		got, err := f.store.GetRental(r.RentalID)
		require.NoError(t, err)
		require.False(t, got.AuctionPaymentConfirmed)
	})

	t.Run("unknown_rental", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ConfirmPayment("missing", "4111")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrRentalNotFound))
	})
}

func TestAuctionService_PayFine(t *testing.T) {
	t.Run("no_outstanding_fine", func(t *testing.T) {
		f := newFixture(t)
		r := settleRental(t, f, 150, "tenant2")

		_, err := f.svc.PayFine(r.RentalID, "4111")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrNoOutstandingFine))
	})

	t.Run("pays_fine_and_unblocks", func(t *testing.T) {
		f := newFixture(t)
		r := settleRental(t, f, 150, "tenant2")

		f.clock.Advance(25 * time.Hour)
		require.Equal(t, 1, f.svc.IssueOverdueFines())
		f.clock.Advance(FineEscalationWindow + time.Minute)
		require.Equal(t, 1, f.svc.BlockDelinquentTenants())

		got, err := f.svc.PayFine(r.RentalID, "4111")
		require.NoError(t, err)
		require.True(t, got.AuctionPaymentConfirmed)
		require.False(t, got.TenantBlocked)

		_, blocked := f.dir.BlockReason("tenant2")
		require.False(t, blocked)

		// A settled fine stays settled.
		_, err = f.svc.PayFine(r.RentalID, "4111")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrAlreadyConfirmed))

		// And the escalation sweep no longer sees the rental.
		f.clock.Advance(48 * time.Hour)
		require.Equal(t, 0, f.svc.BlockDelinquentTenants())
	})

	t.Run("declined_fine_payment", func(t *testing.T) {
		f := newFixture(t)
		r := settleRental(t, f, 150, "tenant2")

		f.clock.Advance(25 * time.Hour)
		require.Equal(t, 1, f.svc.IssueOverdueFines())

		f.svc.gateway = collaborators.StaticGateway{Approve: false}
		_, err := f.svc.PayFine(r.RentalID, "4111")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrPaymentDeclined))
	})
}
