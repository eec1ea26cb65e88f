package main

import (
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	auction "rental-auction/internal/auctionService"
	"rental-auction/internal/broadcast"
	"rental-auction/internal/collaborators"
	"rental-auction/internal/config"
	model "rental-auction/internal/models"
	"rental-auction/internal/presence"
	"rental-auction/internal/repository"
	"rental-auction/internal/scheduler"
	"rental-auction/internal/server"
	"rental-auction/internal/ws"
	"rental-auction/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	stores, err := buildStores(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	presenceStore := buildPresence(cfg)

	hub := ws.NewHub()
	publisher := buildPublisher(cfg, hub)

	directory := collaborators.NewMemoryDirectory()
	prepopulateDirectory(directory)
	gateway := collaborators.NewSimulatedGateway(time.Now().UnixNano(), cfg.PaymentApproveRate)

	auctionSvc := auction.NewAuctionService(
		stores.auctions,
		stores.bids,
		stores.rentals,
		directory,
		directory,
		gateway,
		presenceStore,
		publisher,
	)

	sched := scheduler.New(auctionSvc, presenceStore, scheduler.Intervals{
		Lifecycle:  time.Duration(cfg.LifecycleIntervalSec) * time.Second,
		Fines:      time.Duration(cfg.FineIntervalMin) * time.Minute,
		Escalation: time.Duration(cfg.EscalationIntervalHr) * time.Hour,
	})
	if err := sched.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start scheduler: %v\n", err)
		os.Exit(1)
	}
	defer sched.Stop()

	router := server.SetupRouter(auctionSvc, hub)

	fmt.Printf("Starting auction server on %s...\n", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

type storeSet struct {
	auctions repository.AuctionStore
	bids     repository.BidLedger
	rentals  repository.RentalStore
}

// buildStores selects MySQL persistence when a DSN is configured and
// falls back to the in-memory store otherwise.
func buildStores(cfg config.App) (storeSet, error) {
	if cfg.MySQLDSN == "" {
		mem := repository.NewMemoryStore()
		return storeSet{auctions: mem, bids: mem, rentals: mem}, nil
	}
	g, err := repository.NewGormStore(cfg.MySQLDSN)
	if err != nil {
		return storeSet{}, err
	}
	return storeSet{auctions: g, bids: g, rentals: g}, nil
}

// buildPresence selects Redis-backed presence when an address is
// configured and falls back to the in-memory tracker otherwise.
func buildPresence(cfg config.App) presence.Store {
	ttl := time.Duration(cfg.PresenceTTLHr) * time.Hour
	if cfg.RedisAddr == "" {
		return presence.NewMemoryStore(ttl)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return presence.NewRedisStore(client, ttl)
}

// buildPublisher fans events out to the WebSocket hub and, when
// configured, the AMQP exchange for downstream consumers.
func buildPublisher(cfg config.App, hub *ws.Hub) broadcast.Publisher {
	if cfg.AMQPURL == "" {
		return hub
	}
	amqpPub, err := broadcast.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		utils.Error("AMQP publisher unavailable, continuing with WebSocket only", map[string]any{
			"error": err.Error(),
		})
		return hub
	}
	return broadcast.NewFanout(hub, amqpPub)
}

// prepopulateDirectory adds sample users and apartments to the in-memory
// directory
func prepopulateDirectory(dir *collaborators.MemoryDirectory) {
	users := []model.User{
		{UserID: "owner1", Username: "olive", Roles: []string{model.RoleOwner}},
		{UserID: "tenant1", Username: "tina", Roles: []string{model.RoleTenant}},
		{UserID: "tenant2", Username: "tom", Roles: []string{model.RoleTenant}},
	}
	for _, u := range users {
		dir.AddUser(u)
	}

	apartments := []model.Apartment{
		{ApartmentID: "apt1", OwnerID: "owner1", Address: "12 Harbor Street"},
		{ApartmentID: "apt2", OwnerID: "owner1", Address: "7 Mill Lane"},
	}
	for _, a := range apartments {
		dir.AddApartment(a)
	}
}
