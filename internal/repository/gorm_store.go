package repository

import (
	"errors"
	"fmt"
	"time"

	"rental-auction/internal/auctionerrors"
	model "rental-auction/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is a MySQL-backed implementation of AuctionStore, BidLedger
// and RentalStore.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a MySQL connection and migrates the auction tables.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	s := &GormStore{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewGormStoreWithDB wraps an existing gorm connection (tests).
func NewGormStoreWithDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the auction tables.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&auctionRow{}, &bidRow{}, &rentalRow{})
}

type auctionRow struct {
	AuctionID      string    `gorm:"column:auction_id;primaryKey;size:64"`
	ApartmentID    string    `gorm:"column:apartment_id;size:64;index"`
	OwnerID        string    `gorm:"column:owner_id;size:64;index"`
	StartTime      time.Time `gorm:"column:start_time"`
	EndTime        time.Time `gorm:"column:end_time"`
	RentalStart    time.Time `gorm:"column:rental_start"`
	RentalEnd      time.Time `gorm:"column:rental_end"`
	StartingPrice  float64   `gorm:"column:starting_price"`
	MinIncrement   float64   `gorm:"column:min_increment"`
	MaxBidderSlots int       `gorm:"column:max_bidder_slots"`
	Status         string    `gorm:"column:status;size:16;index"`
	RentalID       string    `gorm:"column:rental_id;size:64"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (auctionRow) TableName() string { return "auctions" }

type bidRow struct {
	BidID            string    `gorm:"column:bid_id;primaryKey;size:64"`
	AuctionID        string    `gorm:"column:auction_id;size:64;index:idx_bids_auction"`
	BidderID         string    `gorm:"column:bidder_id;size:64;index"`
	Amount           float64   `gorm:"column:amount"`
	IsAutoBid        bool      `gorm:"column:is_auto_bid"`
	MaxAutoBidAmount float64   `gorm:"column:max_auto_bid_amount"`
	CreatedAt        time.Time `gorm:"column:created_at;index"`
}

func (bidRow) TableName() string { return "bids" }

type rentalRow struct {
	RentalID                string    `gorm:"column:rental_id;primaryKey;size:64"`
	ApartmentID             string    `gorm:"column:apartment_id;size:64;index"`
	OwnerID                 string    `gorm:"column:owner_id;size:64"`
	TenantID                string    `gorm:"column:tenant_id;size:64;index"`
	AuctionID               string    `gorm:"column:auction_id;size:64"`
	StartTime               time.Time `gorm:"column:start_time"`
	EndTime                 time.Time `gorm:"column:end_time"`
	TotalCost               float64   `gorm:"column:total_cost"`
	Status                  string    `gorm:"column:status;size:16"`
	IsAuction               bool      `gorm:"column:is_auction;index"`
	AuctionPaymentConfirmed bool      `gorm:"column:auction_payment_confirmed"`
	AuctionPaymentDeadline  time.Time `gorm:"column:auction_payment_deadline"`
	AuctionFineIssued       bool      `gorm:"column:auction_fine_issued"`
	AuctionFineAmount       float64   `gorm:"column:auction_fine_amount"`
	AuctionFineIssuedAt     time.Time `gorm:"column:auction_fine_issued_at"`
	TenantBlocked           bool      `gorm:"column:tenant_blocked"`
	CreatedAt               time.Time `gorm:"column:created_at"`
}

func (rentalRow) TableName() string { return "rentals" }

func toAuctionRow(a model.Auction) auctionRow {
	return auctionRow{
		AuctionID:      a.AuctionID,
		ApartmentID:    a.ApartmentID,
		OwnerID:        a.OwnerID,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		RentalStart:    a.RentalStart,
		RentalEnd:      a.RentalEnd,
		StartingPrice:  a.StartingPrice,
		MinIncrement:   a.MinIncrement,
		MaxBidderSlots: a.MaxBidderSlots,
		Status:         string(a.Status),
		RentalID:       a.RentalID,
		CreatedAt:      a.CreatedAt,
	}
}

func (r auctionRow) toModel() model.Auction {
	return model.Auction{
		AuctionID:      r.AuctionID,
		ApartmentID:    r.ApartmentID,
		OwnerID:        r.OwnerID,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		RentalStart:    r.RentalStart,
		RentalEnd:      r.RentalEnd,
		StartingPrice:  r.StartingPrice,
		MinIncrement:   r.MinIncrement,
		MaxBidderSlots: r.MaxBidderSlots,
		Status:         model.AuctionStatus(r.Status),
		RentalID:       r.RentalID,
		CreatedAt:      r.CreatedAt,
	}
}

func toBidRow(b model.Bid) bidRow {
	return bidRow{
		BidID:            b.BidID,
		AuctionID:        b.AuctionID,
		BidderID:         b.BidderID,
		Amount:           b.Amount,
		IsAutoBid:        b.IsAutoBid,
		MaxAutoBidAmount: b.MaxAutoBidAmount,
		CreatedAt:        b.CreatedAt,
	}
}

func (r bidRow) toModel() model.Bid {
	return model.Bid{
		BidID:            r.BidID,
		AuctionID:        r.AuctionID,
		BidderID:         r.BidderID,
		Amount:           r.Amount,
		IsAutoBid:        r.IsAutoBid,
		MaxAutoBidAmount: r.MaxAutoBidAmount,
		CreatedAt:        r.CreatedAt,
	}
}

func toRentalRow(r model.Rental) rentalRow {
	return rentalRow{
		RentalID:                r.RentalID,
		ApartmentID:             r.ApartmentID,
		OwnerID:                 r.OwnerID,
		TenantID:                r.TenantID,
		AuctionID:               r.AuctionID,
		StartTime:               r.StartTime,
		EndTime:                 r.EndTime,
		TotalCost:               r.TotalCost,
		Status:                  string(r.Status),
		IsAuction:               r.IsAuction,
		AuctionPaymentConfirmed: r.AuctionPaymentConfirmed,
		AuctionPaymentDeadline:  r.AuctionPaymentDeadline,
		AuctionFineIssued:       r.AuctionFineIssued,
		AuctionFineAmount:       r.AuctionFineAmount,
		AuctionFineIssuedAt:     r.AuctionFineIssuedAt,
		TenantBlocked:           r.TenantBlocked,
		CreatedAt:               r.CreatedAt,
	}
}

func (r rentalRow) toModel() model.Rental {
	return model.Rental{
		RentalID:                r.RentalID,
		ApartmentID:             r.ApartmentID,
		OwnerID:                 r.OwnerID,
		TenantID:                r.TenantID,
		AuctionID:               r.AuctionID,
		StartTime:               r.StartTime,
		EndTime:                 r.EndTime,
		TotalCost:               r.TotalCost,
		Status:                  model.RentalStatus(r.Status),
		IsAuction:               r.IsAuction,
		AuctionPaymentConfirmed: r.AuctionPaymentConfirmed,
		AuctionPaymentDeadline:  r.AuctionPaymentDeadline,
		AuctionFineIssued:       r.AuctionFineIssued,
		AuctionFineAmount:       r.AuctionFineAmount,
		AuctionFineIssuedAt:     r.AuctionFineIssuedAt,
		TenantBlocked:           r.TenantBlocked,
		CreatedAt:               r.CreatedAt,
	}
}

// CreateAuction records a new auction.
func (s *GormStore) CreateAuction(a model.Auction) error {
	row := toAuctionRow(a)
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("create auction %s: %w", a.AuctionID, err)
	}
	return nil
}

// GetAuction returns an auction by id.
func (s *GormStore) GetAuction(auctionID string) (model.Auction, error) {
	var row auctionRow
	err := s.db.First(&row, "auction_id = ?", auctionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return row.toModel(), nil
}

// SaveAuction overwrites an existing auction record.
func (s *GormStore) SaveAuction(a model.Auction) error {
	row := toAuctionRow(a)
	res := s.db.Model(&auctionRow{}).Where("auction_id = ?", a.AuctionID).Select("*").Updates(row)
	if res.Error != nil {
		return fmt.Errorf("save auction %s: %w", a.AuctionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save auction %s: %w", a.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	return nil
}

// ListAuctionsByStatus returns all auctions currently in the given state.
func (s *GormStore) ListAuctionsByStatus(status model.AuctionStatus) ([]model.Auction, error) {
	var rows []auctionRow
	if err := s.db.Where("status = ?", string(status)).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list auctions by status %s: %w", status, err)
	}
	out := make([]model.Auction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// ListAuctionsByOwner returns all auctions created by the given owner.
func (s *GormStore) ListAuctionsByOwner(ownerID string) ([]model.Auction, error) {
	var rows []auctionRow
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list auctions by owner %s: %w", ownerID, err)
	}
	out := make([]model.Auction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// AppendBids appends all given bids in one transaction, locking the
// auction rows so concurrent appends on the same auction serialize even
// across processes.
func (s *GormStore) AppendBids(bids ...model.Bid) error {
	if len(bids) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var locked auctionRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "auction_id = ?", bids[0].AuctionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("append bids for auction %s: %w", bids[0].AuctionID, auctionerrors.ErrAuctionNotFound)
		}
		if err != nil {
			return fmt.Errorf("append bids for auction %s: %w", bids[0].AuctionID, err)
		}
		rows := make([]bidRow, 0, len(bids))
		for _, b := range bids {
			rows = append(rows, toBidRow(b))
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("append %d bids for auction %s: %w", len(bids), bids[0].AuctionID, err)
		}
		return nil
	})
}

// BidsByAuction returns the auction's ledger ordered by timestamp.
func (s *GormStore) BidsByAuction(auctionID string) ([]model.Bid, error) {
	var rows []bidRow
	if err := s.db.Where("auction_id = ?", auctionID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("bids for auction %s: %w", auctionID, err)
	}
	out := make([]model.Bid, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// HighestBid returns the winning bid for an auction.
func (s *GormStore) HighestBid(auctionID string) (model.Bid, error) {
	var row bidRow
	err := s.db.Where("auction_id = ?", auctionID).
		Order("amount DESC").Order("created_at ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Bid{}, fmt.Errorf("highest bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("highest bid for auction %s: %w", auctionID, err)
	}
	return row.toModel(), nil
}

// LatestBidByBidder returns the bidder's most recent bid on the auction.
func (s *GormStore) LatestBidByBidder(auctionID, bidderID string) (model.Bid, error) {
	var row bidRow
	err := s.db.Where("auction_id = ? AND bidder_id = ?", auctionID, bidderID).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Bid{}, fmt.Errorf("latest bid by %s on auction %s: %w", bidderID, auctionID, auctionerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("latest bid by %s on auction %s: %w", bidderID, auctionID, err)
	}
	return row.toModel(), nil
}

// DistinctBidderCount returns the number of distinct bidders in the ledger.
func (s *GormStore) DistinctBidderCount(auctionID string) (int, error) {
	var count int64
	err := s.db.Model(&bidRow{}).
		Where("auction_id = ?", auctionID).
		Distinct("bidder_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("distinct bidder count for auction %s: %w", auctionID, err)
	}
	return int(count), nil
}

// AuctionIDsByBidder returns the ids of auctions the bidder has bid on.
func (s *GormStore) AuctionIDsByBidder(bidderID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&bidRow{}).
		Where("bidder_id = ?", bidderID).
		Distinct("auction_id").
		Order("auction_id").
		Pluck("auction_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("auction ids for bidder %s: %w", bidderID, err)
	}
	return ids, nil
}

// CreateRental records a new rental.
func (s *GormStore) CreateRental(r model.Rental) error {
	row := toRentalRow(r)
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("create rental %s: %w", r.RentalID, err)
	}
	return nil
}

// GetRental returns a rental by id.
func (s *GormStore) GetRental(rentalID string) (model.Rental, error) {
	var row rentalRow
	err := s.db.First(&row, "rental_id = ?", rentalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Rental{}, fmt.Errorf("get rental %s: %w", rentalID, auctionerrors.ErrRentalNotFound)
	}
	if err != nil {
		return model.Rental{}, fmt.Errorf("get rental %s: %w", rentalID, err)
	}
	return row.toModel(), nil
}

// SaveRental overwrites an existing rental record.
func (s *GormStore) SaveRental(r model.Rental) error {
	row := toRentalRow(r)
	res := s.db.Model(&rentalRow{}).Where("rental_id = ?", r.RentalID).Select("*").Updates(row)
	if res.Error != nil {
		return fmt.Errorf("save rental %s: %w", r.RentalID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save rental %s: %w", r.RentalID, auctionerrors.ErrRentalNotFound)
	}
	return nil
}

// ListOverdueUnpaid returns auction rentals past their payment deadline
// without confirmation and without an issued fine.
func (s *GormStore) ListOverdueUnpaid(now time.Time) ([]model.Rental, error) {
	var rows []rentalRow
	err := s.db.
		Where("is_auction = ? AND auction_payment_confirmed = ? AND auction_fine_issued = ?", true, false, false).
		Where("auction_payment_deadline < ?", now).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue unpaid rentals: %w", err)
	}
	out := make([]model.Rental, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// ListUnpaidFines returns auction rentals with a still-unpaid fine issued
// before the cutoff.
func (s *GormStore) ListUnpaidFines(cutoff time.Time) ([]model.Rental, error) {
	var rows []rentalRow
	err := s.db.
		Where("is_auction = ? AND auction_fine_issued = ? AND auction_payment_confirmed = ?", true, true, false).
		Where("auction_fine_issued_at < ?", cutoff).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list unpaid fines: %w", err)
	}
	out := make([]model.Rental, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
