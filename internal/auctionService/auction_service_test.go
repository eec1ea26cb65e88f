package auction

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"rental-auction/internal/auctionerrors"
	"rental-auction/internal/broadcast"
	"rental-auction/internal/collaborators"
	model "rental-auction/internal/models"
	"rental-auction/internal/presence"
	"rental-auction/internal/repository"
	"rental-auction/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeClock is a mutable test clock shared by the service and stores.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	events []broadcast.Event
}

func (p *capturePublisher) Publish(topic string, event broadcast.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) eventsOfType(t broadcast.EventType) []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []broadcast.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	svc   *AuctionService
	store *repository.MemoryStore
	dir   *collaborators.MemoryDirectory
	pres  *presence.MemoryStore
	pub   *capturePublisher
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	dir := collaborators.NewMemoryDirectory()
	pres := presence.NewMemoryStore(0)
	pub := &capturePublisher{}
	clock := newFakeClock(baseTime)

	dir.AddUser(model.User{UserID: "owner1", Username: "olive", Roles: []string{model.RoleOwner}})
	dir.AddUser(model.User{UserID: "owner2", Username: "oscar", Roles: []string{model.RoleOwner}})
	for i := 1; i <= 12; i++ {
		id := fmt.Sprintf("tenant%d", i)
		dir.AddUser(model.User{UserID: id, Username: id, Roles: []string{model.RoleTenant}})
	}
	dir.AddApartment(model.Apartment{ApartmentID: "apt1", OwnerID: "owner1", Address: "12 Harbor Street"})
	dir.AddApartment(model.Apartment{ApartmentID: "apt2", OwnerID: "owner2", Address: "7 Mill Lane"})

	svc := NewAuctionService(store, store, store, dir, dir, collaborators.StaticGateway{Approve: true}, pres, pub)
	svc.SetNowFunc(clock.Now)
	pres.SetNowFunc(clock.Now)

	return &fixture{svc: svc, store: store, dir: dir, pres: pres, pub: pub, clock: clock}
}

// seedAuction stores an auction directly, bypassing CreateAuction, so
// tests can start from any lifecycle state.
func (f *fixture) seedAuction(t *testing.T, status model.AuctionStatus, price, increment float64, slots int) model.Auction {
	t.Helper()

	a := model.Auction{
		AuctionID:      utils.GenerateID(),
		ApartmentID:    "apt1",
		OwnerID:        "owner1",
		StartTime:      baseTime.Add(-time.Hour),
		EndTime:        baseTime.Add(time.Hour),
		RentalStart:    baseTime.Add(48 * time.Hour),
		RentalEnd:      baseTime.Add(14 * 24 * time.Hour),
		StartingPrice:  price,
		MinIncrement:   increment,
		MaxBidderSlots: slots,
		Status:         status,
		CreatedAt:      baseTime.Add(-2 * time.Hour),
	}
	require.NoError(t, f.store.CreateAuction(a))
	return a
}

func TestAuctionService_CreateAuction(t *testing.T) {
	f := newFixture(t)

	valid := CreateAuctionInput{
		OwnerID:       "owner1",
		ApartmentID:   "apt1",
		StartTime:     baseTime.Add(time.Hour),
		EndTime:       baseTime.Add(25 * time.Hour),
		RentalStart:   baseTime.Add(48 * time.Hour),
		RentalEnd:     baseTime.Add(14 * 24 * time.Hour),
		StartingPrice: 100,
		MinIncrement:  10,
	}

	tests := []struct {
		name          string
		mutate        func(in *CreateAuctionInput)
		expectedError error
	}{
		{name: "valid", mutate: func(in *CreateAuctionInput) {}, expectedError: nil},
		{
			name:          "bidder_cannot_create",
			mutate:        func(in *CreateAuctionInput) { in.OwnerID = "tenant1" },
			expectedError: auctionerrors.ErrForbidden,
		},
		{
			name:          "unknown_owner",
			mutate:        func(in *CreateAuctionInput) { in.OwnerID = "ghost" },
			expectedError: auctionerrors.ErrUserNotFound,
		},
		{
			name:          "apartment_of_other_owner",
			mutate:        func(in *CreateAuctionInput) { in.ApartmentID = "apt2" },
			expectedError: auctionerrors.ErrForbidden,
		},
		{
			name:          "unknown_apartment",
			mutate:        func(in *CreateAuctionInput) { in.ApartmentID = "aptX" },
			expectedError: auctionerrors.ErrApartmentNotFound,
		},
		{
			name:          "end_before_start",
			mutate:        func(in *CreateAuctionInput) { in.EndTime = in.StartTime.Add(-time.Minute) },
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "rental_period_inverted",
			mutate:        func(in *CreateAuctionInput) { in.RentalEnd = in.RentalStart },
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "zero_increment",
			mutate:        func(in *CreateAuctionInput) { in.MinIncrement = 0 },
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "negative_starting_price",
			mutate:        func(in *CreateAuctionInput) { in.StartingPrice = -5 },
			expectedError: auctionerrors.ErrInvalidAuction,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)

			a, err := f.svc.CreateAuction(in)
			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.AuctionPending, a.Status)
			require.Equal(t, model.DefaultMaxBidderSlots, a.MaxBidderSlots)
			_, parseErr := uuid.Parse(a.AuctionID)
			require.NoError(t, parseErr, "AuctionID should be a valid UUID")
		})
	}

	t.Run("occupied_rental_period", func(t *testing.T) {
		f.dir.AddOccupancy("apt1", valid.RentalStart, valid.RentalEnd)
		_, err := f.svc.CreateAuction(valid)
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrApartmentOccupied))
	})
}

func TestAuctionService_PlaceBid_Admission(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(t *testing.T, f *fixture) PlaceBidInput
		expectedError error
	}{
		{
			name: "valid_first_bid_at_starting_price",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
				return PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 100}
			},
		},
		{
			name: "missing_bidder_id",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
				return PlaceBidInput{AuctionID: a.AuctionID, Amount: 100}
			},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name: "non_positive_amount",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
				return PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 0}
			},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name: "auto_bid_ceiling_below_amount",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
				return PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 150, IsAutoBid: true, MaxAutoBidAmount: 120}
			},
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name: "unknown_auction",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				return PlaceBidInput{AuctionID: "missing", BidderID: "tenant1", Amount: 100}
			},
			expectedError: auctionerrors.ErrAuctionNotFound,
		},
		{
			name: "owner_may_not_bid_on_own_auction",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
				f.dir.AddUser(model.User{UserID: "owner1", Username: "olive", Roles: []string{model.RoleOwner, model.RoleTenant}})
				return PlaceBidInput{AuctionID: a.AuctionID, BidderID: "owner1", Amount: 100}
			},
			expectedError: auctionerrors.ErrForbidden,
		},
		{
			name: "owner_without_tenant_role_forbidden",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
				return PlaceBidInput{AuctionID: a.AuctionID, BidderID: "owner2", Amount: 100}
			},
			expectedError: auctionerrors.ErrForbidden,
		},
		{
			name: "pending_auction_rejects_bids",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionPending, 100, 10, 10)
				return PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 100}
			},
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
		{
			name: "cancelled_auction_rejects_bids",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionCancelled, 100, 10, 10)
				return PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 100}
			},
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
		{
			name: "active_but_past_end_time",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
				f.clock.Advance(2 * time.Hour)
				return PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 100}
			},
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
		{
			name: "bid_below_starting_price",
			setup: func(t *testing.T, f *fixture) PlaceBidInput {
				a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
				return PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 99}
			},
			expectedError: auctionerrors.ErrBidTooLow,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := tc.setup(t, f)

			admitted, err := f.svc.PlaceBid(in)
			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)

				// Rejections must leave the ledger untouched.
				if in.AuctionID != "missing" {
					bids, lerr := f.store.BidsByAuction(in.AuctionID)
					require.NoError(t, lerr)
					require.Empty(t, bids)
				}
				return
			}
			require.NoError(t, err)
			require.Len(t, admitted, 1)
			require.Equal(t, in.BidderID, admitted[0].BidderID)
			require.Equal(t, in.Amount, admitted[0].Amount)
			_, parseErr := uuid.Parse(admitted[0].BidID)
			require.NoError(t, parseErr, "BidID should be a valid UUID")
		})
	}
}

func TestAuctionService_PlaceBid_Raise(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)

	_, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 100})
	require.NoError(t, err)

	// A raise below highest+increment reports the minimum acceptable bid.
	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant2", Amount: 105})
	require.Error(t, err)
	require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow))
	minimum, ok := auctionerrors.MinimumAcceptable(err)
	require.True(t, ok)
	require.Equal(t, 110.0, minimum)

	admitted, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant2", Amount: 110})
	require.NoError(t, err)
	require.Len(t, admitted, 1)

	high, err := f.store.HighestBid(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, "tenant2", high.BidderID)
	require.Equal(t, 110.0, high.Amount)
}

func TestAuctionService_PlaceBid_RateLimit(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)

	_, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 100})
	require.NoError(t, err)

	// Someone else raises; tenant1 retries immediately and is limited even
	// though the amount is now valid.
	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant2", Amount: 110})
	require.NoError(t, err)

	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 120})
	require.Error(t, err)
	require.True(t, errors.Is(err, auctionerrors.ErrRateLimited))

	f.clock.Advance(RateLimitWindow - time.Second)
	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 120})
	require.Error(t, err)
	require.True(t, errors.Is(err, auctionerrors.ErrRateLimited))

	f.clock.Advance(time.Second)
	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 120})
	require.NoError(t, err)
}

func TestAuctionService_PlaceBid_Capacity(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 100, 10, 2)

	_, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 100})
	require.NoError(t, err)
	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant2", Amount: 110})
	require.NoError(t, err)

	// Third first-time bidder is shut out.
	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant3", Amount: 120})
	require.Error(t, err)
	require.True(t, errors.Is(err, auctionerrors.ErrCapacityExceeded))

	// Established bidders are not affected by the full slots.
	f.clock.Advance(RateLimitWindow)
	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 120})
	require.NoError(t, err)
}

func TestAuctionService_PlaceBid_ProxyCascade(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 150, 25, 10)

	// tenant2 registers a proxy up to 250 first, then tenant1 up to 300.
	_, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant2", Amount: 150, IsAutoBid: true, MaxAutoBidAmount: 250})
	require.NoError(t, err)

	admitted, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 175, IsAutoBid: true, MaxAutoBidAmount: 300})
	require.NoError(t, err)
	// tenant2's proxy is the only instruction left standing; a lone proxy
	// has no competitor to outbid, so nothing fires.
	require.Len(t, admitted, 1)

	// A manual bid from a third bidder wakes both proxies. The first
	// registered proxy raises once, then stands alone and stops.
	manual, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant3", Amount: 200})
	require.NoError(t, err)
	require.Len(t, manual, 2)

	require.Equal(t, "tenant3", manual[0].BidderID)
	require.Equal(t, 200.0, manual[0].Amount)
	require.False(t, manual[0].IsAutoBid)

	require.Equal(t, "tenant2", manual[1].BidderID)
	require.Equal(t, 225.0, manual[1].Amount)
	require.True(t, manual[1].IsAutoBid)
	require.True(t, manual[1].CreatedAt.After(manual[0].CreatedAt), "cascade timestamps must strictly increase")

	high, err := f.store.HighestBid(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, "tenant2", high.BidderID)
	require.Equal(t, 225.0, high.Amount)

	// Only the final bid of the batch is broadcast as winning.
	accepted := f.pub.eventsOfType(broadcast.TypeBidAccepted)
	winning := 0
	for _, e := range accepted {
		payload := e.Payload.(broadcast.BidAcceptedPayload)
		if payload.Winning && payload.AuctionID == a.AuctionID {
			winning++
			require.Equal(t, "tenant2", payload.BidderID)
		}
	}
	require.Equal(t, 1, winning)
}

func TestAuctionService_PlaceBid_ProxyRegistrationOrder(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 150, 25, 10)

	// tenant1 registers the larger proxy first. On a manual trigger the
	// earlier registration acts first, and once the chain is down to a
	// single able proxy it stops even though that proxy could still raise.
	_, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 150, IsAutoBid: true, MaxAutoBidAmount: 300})
	require.NoError(t, err)
	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant2", Amount: 175, IsAutoBid: true, MaxAutoBidAmount: 250})
	require.NoError(t, err)

	admitted, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant3", Amount: 200})
	require.NoError(t, err)
	require.Len(t, admitted, 2)
	require.Equal(t, "tenant1", admitted[1].BidderID)
	require.Equal(t, 225.0, admitted[1].Amount)

	ledger, err := f.store.BidsByAuction(a.AuctionID)
	require.NoError(t, err)
	amounts := make([]float64, 0, len(ledger))
	for _, b := range ledger {
		amounts = append(amounts, b.Amount)
	}
	require.Equal(t, []float64{150, 175, 200, 225}, amounts)
}

func TestAuctionService_PlaceBid_ConcurrentAtBoundary(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)

	const bidders = 10
	var wg sync.WaitGroup
	errs := make([]error, bidders)

	for i := 0; i < bidders; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceBid(PlaceBidInput{
				AuctionID: a.AuctionID,
				BidderID:  fmt.Sprintf("tenant%d", i+1),
				Amount:    100,
			})
		}()
	}
	wg.Wait()

	// Exactly one bid can stand at the starting price; every other bidder
	// must observe the raised minimum.
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow), "unexpected error: %v", err)
	}
	require.Equal(t, 1, succeeded)

	bids, err := f.store.BidsByAuction(a.AuctionID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
}

func TestAuctionService_CancelAuction(t *testing.T) {
	f := newFixture(t)

	t.Run("owner_cancels_active", func(t *testing.T) {
		a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
		require.NoError(t, f.svc.CancelAuction(a.AuctionID, "owner1"))

		got, err := f.store.GetAuction(a.AuctionID)
		require.NoError(t, err)
		require.Equal(t, model.AuctionCancelled, got.Status)
	})

	t.Run("non_owner_forbidden", func(t *testing.T) {
		a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
		err := f.svc.CancelAuction(a.AuctionID, "tenant1")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrForbidden))
	})

	t.Run("terminal_state_rejected", func(t *testing.T) {
		a := f.seedAuction(t, model.AuctionCompleted, 100, 10, 10)
		err := f.svc.CancelAuction(a.AuctionID, "owner1")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrTerminalState))
	})

	t.Run("cancel_twice_rejected", func(t *testing.T) {
		a := f.seedAuction(t, model.AuctionPending, 100, 10, 10)
		require.NoError(t, f.svc.CancelAuction(a.AuctionID, "owner1"))
		err := f.svc.CancelAuction(a.AuctionID, "owner1")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrTerminalState))
	})
}

func TestAuctionService_PresenceAndSnapshot(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)

	require.NoError(t, f.svc.JoinAuction(a.AuctionID, "tenant1"))
	require.NoError(t, f.svc.JoinAuction(a.AuctionID, "tenant2"))

	_, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 100})
	require.NoError(t, err)

	snap, err := f.svc.Snapshot(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, string(model.AuctionActive), snap.Status)
	require.Equal(t, 2, snap.Observers)
	require.Equal(t, 9, snap.RemainingBidderSlots)
	require.Equal(t, 100.0, snap.CurrentBidAmount)
	require.Equal(t, "tenant1", snap.CurrentBidderID)
	require.Equal(t, int64(3600), snap.SecondsRemaining)
	require.Equal(t, "1h 0m remaining", snap.StatusLine)

	require.NoError(t, f.svc.LeaveAuction(a.AuctionID, "tenant2"))
	snap, err = f.svc.Snapshot(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Observers)

	notices := f.pub.eventsOfType(broadcast.TypeParticipantNotice)
	require.Len(t, notices, 3)

	t.Run("join_unknown_user", func(t *testing.T) {
		err := f.svc.JoinAuction(a.AuctionID, "ghost")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))
	})

	t.Run("join_unknown_auction", func(t *testing.T) {
		err := f.svc.JoinAuction("missing", "tenant1")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound))
	})
}

func TestAuctionService_Queries(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, model.AuctionActive, 100, 10, 10)

	_, err := f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant1", Amount: 100})
	require.NoError(t, err)
	_, err = f.svc.PlaceBid(PlaceBidInput{AuctionID: a.AuctionID, BidderID: "tenant2", Amount: 110})
	require.NoError(t, err)

	bids, err := f.svc.BidsForAuction(a.AuctionID)
	require.NoError(t, err)
	require.Len(t, bids, 2)

	high, err := f.svc.WinningBid(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, "tenant2", high.BidderID)

	owned, err := f.svc.AuctionsByOwner("owner1")
	require.NoError(t, err)
	require.Len(t, owned, 1)

	byBidder, err := f.svc.AuctionsByBidder("tenant1")
	require.NoError(t, err)
	require.Len(t, byBidder, 1)
	require.Equal(t, a.AuctionID, byBidder[0].AuctionID)

	active, err := f.svc.AuctionsByStatus(model.AuctionActive)
	require.NoError(t, err)
	require.Len(t, active, 1)

	t.Run("winning_bid_empty_ledger", func(t *testing.T) {
		empty := f.seedAuction(t, model.AuctionActive, 100, 10, 10)
		_, err := f.svc.WinningBid(empty.AuctionID)
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrNoBids))
	})
}
